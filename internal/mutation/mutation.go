// Package mutation implements the tree operations of the editor as pure
// functions over document values.
//
// No function modifies its input. Only the containers on the path from the
// root to the changed node are copied; every other subtree is shared between
// the old and the new document, which is safe because nothing in this
// package ever writes into an existing container.
package mutation

import (
	"fmt"

	"github.com/mcncl/jsonedit/internal/analyzer"
	"github.com/mcncl/jsonedit/internal/errors"
	"github.com/mcncl/jsonedit/internal/models"
)

// Append as an insert position places the new node after the last child.
const Append = -1

// Add inserts a new child into the object or array at path.
//
// The raw value is coerced by kind. For arrays the value lands at position,
// shifting later elements right. For objects the member takes key-slot
// position; an existing key is overwritten in place and keeps its slot.
// A position of Append, or one outside the container, appends.
func Add(tree models.JSONValue, path models.Path, key, raw string, kind models.Kind, position int) (models.JSONValue, error) {
	value, err := analyzer.Coerce(raw, kind)
	if err != nil {
		return tree, err
	}
	return Insert(tree, path, key, value, position)
}

// Insert is Add for an already typed value.
func Insert(tree models.JSONValue, path models.Path, key string, value models.JSONValue, position int) (models.JSONValue, error) {
	return update(tree, path, path, func(target models.JSONValue) (models.JSONValue, error) {
		switch c := target.(type) {
		case models.JSONArray:
			return insertElement(c, value, position), nil
		case models.JSONObject:
			if key == "" {
				return nil, errors.NewValidationError("key name cannot be empty", errors.ErrEmptyKey)
			}
			return insertMember(c, key, value, position), nil
		default:
			return nil, notContainer(path)
		}
	})
}

// Delete removes the child selected by seg from the container at path. A
// child that does not exist leaves the tree unchanged and is not an error.
func Delete(tree models.JSONValue, path models.Path, seg models.Segment) (models.JSONValue, error) {
	container, ok := models.Resolve(tree, path)
	if !ok {
		return tree, notFound(path)
	}
	switch container.(type) {
	case models.JSONObject, models.JSONArray:
	default:
		return tree, notContainer(path)
	}
	if _, exists := models.Lookup(container, seg); !exists {
		return tree, nil
	}

	return update(tree, path, path, func(target models.JSONValue) (models.JSONValue, error) {
		switch c := target.(type) {
		case models.JSONArray:
			out := make(models.JSONArray, 0, len(c)-1)
			out = append(out, c[:seg.Index]...)
			return append(out, c[seg.Index+1:]...), nil
		default:
			obj := c.(models.JSONObject)
			i := obj.IndexOf(seg.Key)
			out := make(models.JSONObject, 0, len(obj)-1)
			out = append(out, obj[:i]...)
			return append(out, obj[i+1:]...), nil
		}
	})
}

// Edit replaces the node at path with raw coerced by kind. A container
// edited to its own kind keeps its children, so an edit that only renames an
// object or array leaves its content alone.
//
// When newKey is non-nil and differs from the node's key in an object parent,
// the member is renamed in place. A rename onto an existing sibling rejects
// the whole edit, value included. newKey is ignored for array elements and
// for the root.
func Edit(tree models.JSONValue, path models.Path, raw string, kind models.Kind, newKey *string) (models.JSONValue, error) {
	current, ok := models.Resolve(tree, path)
	if !ok {
		return tree, notFound(path)
	}
	value, err := analyzer.Coerce(raw, kind)
	if err != nil {
		return tree, err
	}
	if kind.IsContainer() && models.KindOf(current) == kind {
		value = current
	}

	parentPath, last, ok := path.Parent()
	if !ok {
		return value, nil
	}

	return update(tree, parentPath, path, func(parent models.JSONValue) (models.JSONValue, error) {
		switch c := parent.(type) {
		case models.JSONArray:
			out := make(models.JSONArray, len(c))
			copy(out, c)
			out[last.Index] = value
			return out, nil
		default:
			obj := parent.(models.JSONObject)
			return replaceMember(obj, last.Key, newKey, value)
		}
	})
}

// Rename changes the key of the member at path, keeping its value and slot.
func Rename(tree models.JSONValue, path models.Path, newKey string) (models.JSONValue, error) {
	parentPath, last, ok := path.Parent()
	if !ok || last.IsIndex {
		return tree, errors.NewMutationError(fmt.Sprintf("%s is not an object member", path.Display()), errors.ErrInvalidPath)
	}
	current, found := models.Resolve(tree, path)
	if !found {
		return tree, notFound(path)
	}
	return update(tree, parentPath, path, func(parent models.JSONValue) (models.JSONValue, error) {
		return replaceMember(parent.(models.JSONObject), last.Key, &newKey, current)
	})
}

func replaceMember(obj models.JSONObject, key string, newKey *string, value models.JSONValue) (models.JSONValue, error) {
	i := obj.IndexOf(key)
	name := key
	if newKey != nil && *newKey != key {
		if *newKey == "" {
			return nil, errors.NewValidationError("key name cannot be empty", errors.ErrEmptyKey)
		}
		if obj.IndexOf(*newKey) >= 0 {
			return nil, errors.NewValidationError(
				fmt.Sprintf("cannot rename %q: key %q already exists", key, *newKey),
				errors.ErrDuplicateKey,
			)
		}
		name = *newKey
	}
	out := make(models.JSONObject, len(obj))
	copy(out, obj)
	out[i] = models.Member{Key: name, Value: value}
	return out, nil
}

func insertElement(arr models.JSONArray, value models.JSONValue, position int) models.JSONArray {
	if position < 0 || position > len(arr) {
		position = len(arr)
	}
	out := make(models.JSONArray, 0, len(arr)+1)
	out = append(out, arr[:position]...)
	out = append(out, value)
	return append(out, arr[position:]...)
}

func insertMember(obj models.JSONObject, key string, value models.JSONValue, position int) models.JSONObject {
	if i := obj.IndexOf(key); i >= 0 {
		out := make(models.JSONObject, len(obj))
		copy(out, obj)
		out[i].Value = value
		return out
	}
	if position < 0 || position > len(obj) {
		position = len(obj)
	}
	out := make(models.JSONObject, 0, len(obj)+1)
	out = append(out, obj[:position]...)
	out = append(out, models.Member{Key: key, Value: value})
	return append(out, obj[position:]...)
}

// update rebuilds the spine of tree down to path and replaces the node there
// with fn's result. target names the node the caller is operating on and is
// only used in error messages.
func update(tree models.JSONValue, path, target models.Path, fn func(models.JSONValue) (models.JSONValue, error)) (models.JSONValue, error) {
	out, err := updateAt(tree, path, target, fn)
	if err != nil {
		return tree, err
	}
	return out, nil
}

func updateAt(node models.JSONValue, rest, target models.Path, fn func(models.JSONValue) (models.JSONValue, error)) (models.JSONValue, error) {
	if len(rest) == 0 {
		return fn(node)
	}
	seg := rest[0]
	child, ok := models.Lookup(node, seg)
	if !ok {
		return nil, notFound(target)
	}
	updated, err := updateAt(child, rest[1:], target, fn)
	if err != nil {
		return nil, err
	}

	switch c := node.(type) {
	case models.JSONArray:
		out := make(models.JSONArray, len(c))
		copy(out, c)
		out[seg.Index] = updated
		return out, nil
	default:
		obj := node.(models.JSONObject)
		out := make(models.JSONObject, len(obj))
		copy(out, obj)
		out[obj.IndexOf(seg.Key)].Value = updated
		return out, nil
	}
}

func notFound(path models.Path) error {
	return errors.NewMutationError(fmt.Sprintf("%s does not exist", path.Display()), errors.ErrPathNotFound)
}

func notContainer(path models.Path) error {
	return errors.NewMutationError(fmt.Sprintf("%s is not an object or array", path.Display()), errors.ErrNotContainer)
}
