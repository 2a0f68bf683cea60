// Package session tracks the transient UI state of one editor: which inline
// form is open and which containers are collapsed.
package session

import (
	"fmt"

	"github.com/mcncl/jsonedit/internal/models"
)

// FormKind distinguishes the two inline forms of the tree.
type FormKind int

const (
	FormNone FormKind = iota
	// FormEdit edits the node at Path in place.
	FormEdit
	// FormCreate adds a child to the container at Path at Position.
	FormCreate
)

func (k FormKind) String() string {
	switch k {
	case FormEdit:
		return "edit"
	case FormCreate:
		return "create"
	default:
		return "none"
	}
}

// Form identifies an open inline form.
type Form struct {
	Kind     FormKind
	Path     models.Path
	Position int
}

// ID is a stable identifier of the form, usable as an HTML id.
func (f Form) ID() string {
	switch f.Kind {
	case FormEdit:
		return fmt.Sprintf("edit:%s", f.Path)
	case FormCreate:
		return fmt.Sprintf("create:%s:%d", f.Path, f.Position)
	default:
		return ""
	}
}

// Edits reports whether f is the edit form of the node at path.
func (f Form) Edits(path models.Path) bool {
	return f.Kind == FormEdit && f.Path.Equal(path)
}

// Creates reports whether f is the insertion form of the container at path
// at position.
func (f Form) Creates(path models.Path, position int) bool {
	return f.Kind == FormCreate && f.Position == position && f.Path.Equal(path)
}

// State holds at most one open form. Opening a form closes whichever form
// was open before, wherever it was in the tree.
//
// State is not safe for concurrent use; the editor owning it serializes
// access.
type State struct {
	active *Form
}

// New returns a State with no open form.
func New() *State {
	return &State{}
}

// OpenEdit opens the edit form of the node at path and returns the form it
// replaced, if any.
func (s *State) OpenEdit(path models.Path) (Form, bool) {
	return s.open(Form{Kind: FormEdit, Path: path})
}

// OpenCreate opens the insertion form of the container at path at position
// and returns the form it replaced, if any.
func (s *State) OpenCreate(path models.Path, position int) (Form, bool) {
	return s.open(Form{Kind: FormCreate, Path: path, Position: position})
}

func (s *State) open(f Form) (Form, bool) {
	prev, had := s.Active()
	f.Path = append(models.Path{}, f.Path...)
	s.active = &f
	return prev, had
}

// Close closes the open form, if any.
func (s *State) Close() {
	s.active = nil
}

// Active returns the open form.
func (s *State) Active() (Form, bool) {
	if s.active == nil {
		return Form{}, false
	}
	return *s.active, true
}

// Expansion records collapsed containers by encoded path. Containers are
// expanded unless recorded otherwise.
type Expansion struct {
	collapsed map[string]models.Path
}

// NewExpansion returns an Expansion with every container expanded.
func NewExpansion() *Expansion {
	return &Expansion{collapsed: make(map[string]models.Path)}
}

// Toggle flips the container at path and reports whether it is now expanded.
func (e *Expansion) Toggle(path models.Path) bool {
	key := path.String()
	if _, ok := e.collapsed[key]; ok {
		delete(e.collapsed, key)
		return true
	}
	e.collapsed[key] = append(models.Path{}, path...)
	return false
}

// Expanded reports whether the container at path shows its children.
func (e *Expansion) Expanded(path models.Path) bool {
	_, ok := e.collapsed[path.String()]
	return !ok
}

// Forget expands the container at path and every container below it. The
// editor calls it when the node at path is replaced or a different node
// moves into its place.
func (e *Expansion) Forget(path models.Path) {
	for key, p := range e.collapsed {
		if p.HasPrefix(path) {
			delete(e.collapsed, key)
		}
	}
}

// Collapsed returns a copy of the collapsed set, keyed by encoded path.
func (e *Expansion) Collapsed() map[string]bool {
	out := make(map[string]bool, len(e.collapsed))
	for k := range e.collapsed {
		out[k] = true
	}
	return out
}

// Reset expands every container.
func (e *Expansion) Reset() {
	e.collapsed = make(map[string]models.Path)
}
