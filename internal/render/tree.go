// Package render turns editor snapshots into HTML and plain text.
package render

import (
	"github.com/mcncl/jsonedit/internal/analyzer"
	"github.com/mcncl/jsonedit/internal/editor"
	"github.com/mcncl/jsonedit/internal/models"
)

// Tree is the view model of the tree pane.
type Tree struct {
	Valid bool
	// Error is the parse failure shown in place of the tree.
	Error string
	Root  *Node
}

// Node is one rendered document node.
type Node struct {
	Action string
	// Path is the encoded path of the node.
	Path    string
	Display string
	// Label is the member key or element index; empty for the root.
	Label string
	Index bool
	Kind  models.Kind
	Type  string

	Literal   string
	Container bool
	Open      string
	Close     string
	Summary   string
	Expanded  bool
	Rows      []Row

	// Parent and Segment address the node for deletion. Both are empty for
	// the root, which cannot be deleted.
	Parent  string
	Segment string

	Edit *EditForm
}

// Row is either an insertion slot or a child node.
type Row struct {
	Slot  *Slot
	Child *Node
}

// Slot is an insertion point of a container.
type Slot struct {
	Action   string
	Path     string
	Position int
	Form     *CreateForm
}

// EditForm is an open edit form, prefilled from the node.
type EditForm struct {
	Action string
	ID     string
	Path   string
	Value  string
	Key    string
	HasKey bool
	Kinds  []KindOption
	// Keeps summarizes the children an unchanged container type retains.
	Keeps  string
}

// CreateForm is an open insertion form.
type CreateForm struct {
	Action   string
	ID       string
	Path     string
	Position int
	NeedsKey bool
	Kinds    []KindOption
}

// KindOption is an entry of the declared type selector.
type KindOption struct {
	Value    string
	Label    string
	Selected bool
}

func kindOptions(selected models.Kind) []KindOption {
	opts := make([]KindOption, 0, len(models.Kinds))
	for _, k := range models.Kinds {
		opts = append(opts, KindOption{Value: string(k), Label: analyzer.TypeLabel(k), Selected: k == selected})
	}
	return opts
}

// Build returns the view model of v's tree. action is the URL the tree's
// forms post to.
func Build(v editor.View, action string) *Tree {
	if !v.Result.OK() {
		return &Tree{Error: v.Result.Message()}
	}
	b := &builder{view: v, action: action}
	return &Tree{Valid: true, Root: b.node(v.Result.Value, models.Root, nil)}
}

type builder struct {
	view   editor.View
	action string
}

// node builds the node at path. parent is the container holding it, nil for
// the root.
func (b *builder) node(value models.JSONValue, path models.Path, parent models.JSONValue) *Node {
	kind := models.KindOf(value)
	n := &Node{
		Action:    b.action,
		Path:      path.String(),
		Display:   path.Display(),
		Kind:      kind,
		Type:      analyzer.TypeLabel(kind),
		Container: kind.IsContainer(),
	}

	parentPath, seg, hasParent := path.Parent()
	if hasParent {
		n.Label = seg.String()
		n.Index = seg.IsIndex
		n.Parent = parentPath.String()
		n.Segment = seg.Encode()
	}

	if b.view.Form.Edits(path) {
		_, isMember := parent.(models.JSONObject)
		n.Edit = &EditForm{
			Action: b.action,
			ID:     b.view.Form.ID(),
			Path:   n.Path,
			Value:  analyzer.FormValue(value),
			Key:    seg.Key,
			HasKey: hasParent && isMember,
			Kinds:  kindOptions(analyzer.InferKind(value, true)),
		}
		if kind.IsContainer() {
			n.Edit.Keeps = analyzer.Summary(value)
		}
	}

	if !n.Container {
		n.Literal = analyzer.Literal(value)
		return n
	}

	n.Open, n.Close = "{", "}"
	if kind == models.KindArray {
		n.Open, n.Close = "[", "]"
	}
	n.Summary = analyzer.Summary(value)
	n.Expanded = b.view.Expanded(path)
	if !n.Expanded {
		return n
	}

	_, isObject := value.(models.JSONObject)
	count := models.Len(value)
	n.Rows = make([]Row, 0, 2*count+1)
	for i := 0; i <= count; i++ {
		n.Rows = append(n.Rows, Row{Slot: b.slot(path, i, isObject)})
		if i == count {
			break
		}
		var child models.JSONValue
		var childSeg models.Segment
		switch c := value.(type) {
		case models.JSONObject:
			child, childSeg = c[i].Value, models.Key(c[i].Key)
		case models.JSONArray:
			child, childSeg = c[i], models.Index(i)
		}
		n.Rows = append(n.Rows, Row{Child: b.node(child, path.Child(childSeg), value)})
	}
	return n
}

func (b *builder) slot(path models.Path, position int, isObject bool) *Slot {
	s := &Slot{Action: b.action, Path: path.String(), Position: position}
	if b.view.Form.Creates(path, position) {
		s.Form = &CreateForm{
			Action:   b.action,
			ID:       b.view.Form.ID(),
			Path:     s.Path,
			Position: position,
			NeedsKey: isObject,
			Kinds:    kindOptions(analyzer.DefaultKind),
		}
	}
	return s
}
