package mutation

import (
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/mcncl/jsonedit/internal/analyzer"
	"github.com/mcncl/jsonedit/internal/errors"
	"github.com/mcncl/jsonedit/internal/formatter"
	"github.com/mcncl/jsonedit/internal/models"
	"github.com/mcncl/jsonedit/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) models.JSONValue {
	t.Helper()
	v, err := parser.ParseString(text)
	require.NoError(t, err)
	return v
}

func compact(t *testing.T, v models.JSONValue) string {
	t.Helper()
	s, err := formatter.NewFormatter().Compact(v)
	require.NoError(t, err)
	return s
}

func strPtr(s string) *string { return &s }

func TestAdd_ObjectScenario(t *testing.T) {
	tree := mustParse(t, `{"a":1}`)

	out, err := Add(tree, models.Root, "b", "2", models.KindNumber, 1)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2}`, compact(t, out))

	pretty, err := formatter.NewFormatter().Format(out)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": 2\n}", pretty)
}

func TestAdd_PreservesSiblingOrder(t *testing.T) {
	tree := mustParse(t, `{"a":1,"b":2,"c":3}`)

	for i, expected := range []string{
		`{"x":true,"a":1,"b":2,"c":3}`,
		`{"a":1,"x":true,"b":2,"c":3}`,
		`{"a":1,"b":2,"x":true,"c":3}`,
		`{"a":1,"b":2,"c":3,"x":true}`,
	} {
		out, err := Add(tree, models.Root, "x", "true", models.KindBoolean, i)
		require.NoError(t, err)
		assert.Equal(t, expected, compact(t, out), "position %d", i)

		obj := out.(models.JSONObject)
		assert.Equal(t, i, obj.IndexOf("x"))
		var others []string
		for _, k := range obj.Keys() {
			if k != "x" {
				others = append(others, k)
			}
		}
		assert.Equal(t, []string{"a", "b", "c"}, others)
	}
}

func TestAdd_ArrayShiftsRight(t *testing.T) {
	tree := mustParse(t, `[10,20,30]`)

	out, err := Add(tree, models.Root, "", "15", models.KindNumber, 1)
	require.NoError(t, err)
	assert.Equal(t, `[10,15,20,30]`, compact(t, out))

	out, err = Add(tree, models.Root, "", "last", models.KindString, Append)
	require.NoError(t, err)
	assert.Equal(t, `[10,20,30,"last"]`, compact(t, out))

	out, err = Add(tree, models.Root, "", "", models.KindNull, 99)
	require.NoError(t, err)
	assert.Equal(t, `[10,20,30,null]`, compact(t, out), "out of range appends")

	assert.Equal(t, `[10,20,30]`, compact(t, tree), "input is untouched")
}

func TestAdd_NestedContainersAndTypes(t *testing.T) {
	tree := mustParse(t, `{"list":[{"k":"v"}],"other":{"deep":[]}}`)

	out, err := Add(tree, models.Path{models.Key("list"), models.Index(0)}, "obj", "", models.KindObject, Append)
	require.NoError(t, err)
	out, err = Add(out, models.Path{models.Key("list"), models.Index(0), models.Key("obj")}, "n", "", models.KindNull, 0)
	require.NoError(t, err)
	out, err = Add(out, models.Path{models.Key("other"), models.Key("deep")}, "", "", models.KindArray, 0)
	require.NoError(t, err)

	assert.Equal(t, `{"list":[{"k":"v","obj":{"n":null}}],"other":{"deep":[[]]}}`, compact(t, out))
	assert.Equal(t, `{"list":[{"k":"v"}],"other":{"deep":[]}}`, compact(t, tree))
}

func TestAdd_SharesUntouchedSubtrees(t *testing.T) {
	tree := mustParse(t, `{"left":{"x":1},"right":[1]}`).(models.JSONObject)

	out, err := Add(tree, models.Path{models.Key("right")}, "", "2", models.KindNumber, Append)
	require.NoError(t, err)

	left := out.(models.JSONObject)[0].Value.(models.JSONObject)
	assert.Same(t, &tree[0].Value.(models.JSONObject)[0], &left[0], "untouched subtree is shared")
}

func TestAdd_ExistingKeyOverwritesInPlace(t *testing.T) {
	tree := mustParse(t, `{"a":1,"b":2,"c":3}`)

	out, err := Add(tree, models.Root, "b", "new", models.KindString, 0)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":"new","c":3}`, compact(t, out))
}

func TestAdd_Errors(t *testing.T) {
	tree := mustParse(t, `{"a":1,"list":[]}`)

	tests := []struct {
		name string
		path models.Path
		key  string
		raw  string
		kind models.Kind
		want error
	}{
		{"empty key", models.Root, "", "x", models.KindString, errors.ErrEmptyKey},
		{"missing path", models.Path{models.Key("nope")}, "k", "x", models.KindString, errors.ErrPathNotFound},
		{"leaf target", models.Path{models.Key("a")}, "k", "x", models.KindString, errors.ErrNotContainer},
		{"bad number", models.Path{models.Key("list")}, "", "one", models.KindNumber, errors.ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Add(tree, tt.path, tt.key, tt.raw, tt.kind, Append)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, compact(t, tree), compact(t, out), "tree unchanged on error")
		})
	}
}

func TestDelete_ArrayScenario(t *testing.T) {
	tree := mustParse(t, `[1,2,3]`)

	out, err := Delete(tree, models.Root, models.Index(1))
	require.NoError(t, err)
	assert.Equal(t, `[1,3]`, compact(t, out))
	assert.Equal(t, `[1,2,3]`, compact(t, tree))
}

func TestDelete_ObjectKeepsOrder(t *testing.T) {
	tree := mustParse(t, `{"a":1,"b":2,"c":3}`)

	out, err := Delete(tree, models.Root, models.Key("b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, out.(models.JSONObject).Keys())
}

func TestDelete_MissingChildIsNoop(t *testing.T) {
	tree := mustParse(t, `{"a":[1,2],"b":{}}`)

	for _, tt := range []struct {
		path models.Path
		seg  models.Segment
	}{
		{models.Root, models.Key("zzz")},
		{models.Path{models.Key("a")}, models.Index(2)},
		{models.Path{models.Key("a")}, models.Key("0")},
		{models.Path{models.Key("b")}, models.Index(0)},
	} {
		out, err := Delete(tree, tt.path, tt.seg)
		require.NoError(t, err)
		assert.True(t, models.Equal(tree, out))
	}
}

func TestDelete_Errors(t *testing.T) {
	tree := mustParse(t, `{"a":1}`)

	_, err := Delete(tree, models.Path{models.Key("x")}, models.Index(0))
	assert.True(t, stderrors.Is(err, errors.ErrPathNotFound))

	_, err = Delete(tree, models.Path{models.Key("a")}, models.Index(0))
	assert.True(t, stderrors.Is(err, errors.ErrNotContainer))
}

func TestArrayInsertDeleteShifting(t *testing.T) {
	tree := mustParse(t, `["a","b","c","d"]`)

	inserted, err := Add(tree, models.Root, "", "X", models.KindString, 2)
	require.NoError(t, err)
	arr := inserted.(models.JSONArray)
	orig := tree.(models.JSONArray)
	for i := range orig {
		j := i
		if i >= 2 {
			j = i + 1
		}
		assert.Equal(t, orig[i], arr[j])
	}

	deleted, err := Delete(tree, models.Root, models.Index(1))
	require.NoError(t, err)
	arr = deleted.(models.JSONArray)
	for i := range arr {
		j := i
		if i >= 1 {
			j = i + 1
		}
		assert.Equal(t, orig[j], arr[i])
	}
}

func TestEdit_ValueOnly(t *testing.T) {
	tree := mustParse(t, `{"a":1,"list":[true,false]}`)

	out, err := Edit(tree, models.Path{models.Key("a")}, "hello", models.KindString, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"hello","list":[true,false]}`, compact(t, out))

	out, err = Edit(tree, models.Path{models.Key("list"), models.Index(1)}, "7", models.KindNumber, strPtr("ignored"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"list":[true,7]}`, compact(t, out))

	out, err = Edit(tree, models.Path{models.Key("list")}, "", models.KindObject, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"list":{}}`, compact(t, out), "container replaced wholesale")
}

func TestEdit_ContainerKeepsChildren(t *testing.T) {
	tree := mustParse(t, `{"settings":{"indent":2,"autosave":true},"list":[1,2],"x":1}`)
	settings := models.Path{models.Key("settings")}

	current, ok := models.Resolve(tree, settings)
	require.True(t, ok)
	prefill, kind := analyzer.FormValue(current), analyzer.InferKind(current, true)

	out, err := Edit(tree, settings, prefill, kind, strPtr("config"))
	require.NoError(t, err)
	assert.Equal(t, `{"config":{"indent":2,"autosave":true},"list":[1,2],"x":1}`, compact(t, out))

	out, err = Edit(tree, models.Path{models.Key("list")}, "", models.KindArray, nil)
	require.NoError(t, err)
	assert.Equal(t, compact(t, tree), compact(t, out))

	out, err = Edit(tree, settings, "", models.KindArray, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"settings":[],"list":[1,2],"x":1}`, compact(t, out), "a different kind replaces the container")
}

func TestEdit_RenameScenario(t *testing.T) {
	tree := mustParse(t, `{"a":1,"c":2}`)

	out, err := Edit(tree, models.Path{models.Key("a")}, "1", models.KindNumber, strPtr("b"))
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"c":2}`, compact(t, out))
}

func TestEdit_RenameCollisionRejectsEverything(t *testing.T) {
	tree := mustParse(t, `{"a":1,"c":2}`)

	out, err := Edit(tree, models.Path{models.Key("a")}, "99", models.KindNumber, strPtr("c"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrDuplicateKey))
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, `{"a":1,"c":2}`, compact(t, out))
}

func TestEdit_SameKeyIsNotACollision(t *testing.T) {
	tree := mustParse(t, `{"a":1,"c":2}`)

	out, err := Edit(tree, models.Path{models.Key("a")}, "5", models.KindNumber, strPtr("a"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":5,"c":2}`, compact(t, out))

	_, err = Edit(tree, models.Path{models.Key("a")}, "5", models.KindNumber, strPtr(""))
	assert.True(t, stderrors.Is(err, errors.ErrEmptyKey))
}

func TestEdit_RootAndErrors(t *testing.T) {
	tree := mustParse(t, `{"a":1}`)

	out, err := Edit(tree, models.Root, "", models.KindArray, strPtr("whatever"))
	require.NoError(t, err)
	assert.Equal(t, models.JSONArray{}, out)

	_, err = Edit(tree, models.Path{models.Key("b")}, "1", models.KindNumber, nil)
	assert.True(t, stderrors.Is(err, errors.ErrPathNotFound))

	_, err = Edit(tree, models.Path{models.Key("a")}, "x", models.KindBoolean, nil)
	assert.True(t, errors.IsValidation(err))
}

func TestRename(t *testing.T) {
	tree := mustParse(t, `{"a":{"deep":true},"b":2}`)

	out, err := Rename(tree, models.Path{models.Key("a")}, "z")
	require.NoError(t, err)
	assert.Equal(t, `{"z":{"deep":true},"b":2}`, compact(t, out))

	_, err = Rename(tree, models.Path{models.Key("a")}, "b")
	assert.True(t, stderrors.Is(err, errors.ErrDuplicateKey))

	_, err = Rename(mustParse(t, `[1]`), models.Path{models.Index(0)}, "x")
	assert.True(t, stderrors.Is(err, errors.ErrInvalidPath))

	_, err = Rename(tree, models.Path{models.Key("missing")}, "x")
	assert.True(t, stderrors.Is(err, errors.ErrPathNotFound))
}

func TestInsert_TypedValue(t *testing.T) {
	out, err := Insert(models.JSONArray{}, models.Root, "", json.Number("1.50"), 0)
	require.NoError(t, err)
	assert.Equal(t, models.JSONArray{json.Number("1.50")}, out)
}
