package session

import (
	"testing"

	"github.com/mcncl/jsonedit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func active(s *State) Form {
	f, _ := s.Active()
	return f
}

func TestState_StartsClosed(t *testing.T) {
	s := New()

	_, ok := s.Active()
	assert.False(t, ok)
	assert.False(t, active(s).Edits(models.Root))
	assert.False(t, active(s).Creates(models.Root, 0))
}

func TestState_OpeningEditClosesCreate(t *testing.T) {
	s := New()
	p := models.Path{models.Key("a"), models.Index(1)}
	q := models.Path{models.Key("b")}

	_, had := s.OpenCreate(q, 2)
	assert.False(t, had)
	require.True(t, active(s).Creates(q, 2))

	prev, had := s.OpenEdit(p)
	require.True(t, had)
	assert.Equal(t, FormCreate, prev.Kind)
	assert.True(t, prev.Path.Equal(q))

	assert.True(t, active(s).Edits(p))
	assert.False(t, active(s).Creates(q, 2), "create form at Q was closed")
}

func TestState_OnlyOneFormAcrossTree(t *testing.T) {
	s := New()
	paths := []models.Path{models.Root, {models.Key("x")}, {models.Key("x"), models.Key("y")}}

	for _, p := range paths {
		s.OpenEdit(p)
	}
	s.OpenCreate(paths[0], 1)

	assert.False(t, active(s).Edits(paths[0]))
	assert.False(t, active(s).Edits(paths[1]))
	assert.False(t, active(s).Edits(paths[2]))
	assert.True(t, active(s).Creates(paths[0], 1))
	assert.False(t, active(s).Creates(paths[0], 0), "a different slot of the same container is closed")
}

func TestState_Close(t *testing.T) {
	s := New()
	s.OpenEdit(models.Root)
	s.Close()

	_, ok := s.Active()
	assert.False(t, ok)
}

func TestState_CopiesPath(t *testing.T) {
	s := New()
	p := models.Path{models.Key("a")}
	s.OpenEdit(p)
	p[0] = models.Key("changed")

	assert.True(t, active(s).Edits(models.Path{models.Key("a")}))
}

func TestState_IndependentInstances(t *testing.T) {
	a, b := New(), New()
	a.OpenEdit(models.Root)

	_, ok := b.Active()
	assert.False(t, ok)
}

func TestForm_ID(t *testing.T) {
	assert.Equal(t, `edit:["a",0]`, Form{Kind: FormEdit, Path: models.Path{models.Key("a"), models.Index(0)}}.ID())
	assert.Equal(t, `create:[]:3`, Form{Kind: FormCreate, Path: models.Root, Position: 3}.ID())
	assert.Equal(t, "", Form{}.ID())
	assert.Equal(t, "create", FormCreate.String())
}

func TestExpansion(t *testing.T) {
	e := NewExpansion()
	p := models.Path{models.Key("list")}

	assert.True(t, e.Expanded(p), "default expanded")
	assert.False(t, e.Toggle(p))
	assert.False(t, e.Expanded(p))
	assert.True(t, e.Expanded(models.Root))

	assert.True(t, e.Toggle(p))
	assert.True(t, e.Expanded(p))

	e.Toggle(p)
	e.Reset()
	assert.True(t, e.Expanded(p))
}

func TestExpansion_Forget(t *testing.T) {
	e := NewExpansion()
	items := models.Path{models.Key("items")}
	first := items.Child(models.Index(0))
	nested := first.Child(models.Key("tags"))
	other := models.Path{models.Key("other")}
	for _, p := range []models.Path{items, first, nested, other} {
		e.Toggle(p)
	}

	e.Forget(first)

	assert.True(t, e.Expanded(first))
	assert.True(t, e.Expanded(nested), "descendants are forgotten too")
	assert.False(t, e.Expanded(items), "the parent keeps its state")
	assert.False(t, e.Expanded(other))
}

func TestExpansion_CollapsedIsACopy(t *testing.T) {
	e := NewExpansion()
	p := models.Path{models.Key("a")}
	e.Toggle(p)

	snap := e.Collapsed()
	assert.Equal(t, map[string]bool{`["a"]`: true}, snap)

	e.Toggle(p)
	assert.True(t, snap[`["a"]`])
	assert.Empty(t, e.Collapsed())
}
