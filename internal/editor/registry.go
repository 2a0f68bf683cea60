package editor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"

	"github.com/mcncl/jsonedit/internal/errors"
	"github.com/mcncl/jsonedit/internal/formatter"
	"github.com/mcncl/jsonedit/internal/store"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// DefaultName is the document stored under Key itself. Other documents
	// are stored under "<Key>:<name>".
	DefaultName string
	Key         string
	Default     string
	Formatter   *formatter.Formatter
	Logger      *slog.Logger
}

// Registry hands out one Editor per document name. Editors share the store
// but nothing else.
type Registry struct {
	mu      sync.Mutex
	kv      store.KV
	opts    RegistryOptions
	editors map[string]*Editor
}

// NewRegistry returns an empty Registry backed by kv.
func NewRegistry(kv store.KV, opts RegistryOptions) *Registry {
	if opts.DefaultName == "" {
		opts.DefaultName = "default"
	}
	if opts.Key == "" {
		opts.Key = store.DefaultKey
	}
	return &Registry{kv: kv, opts: opts, editors: make(map[string]*Editor)}
}

// DefaultName returns the name of the default document.
func (r *Registry) DefaultName() string { return r.opts.DefaultName }

// ValidName reports whether name can identify a document.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// KeyFor returns the storage key of the document name.
func (r *Registry) KeyFor(name string) string {
	if name == r.opts.DefaultName {
		return r.opts.Key
	}
	return r.opts.Key + ":" + name
}

// Get returns the editor of name, loading it on first use.
func (r *Registry) Get(ctx context.Context, name string) (*Editor, error) {
	if !ValidName(name) {
		return nil, errors.NewInputError(fmt.Sprintf("invalid document name %q", name), errors.ErrInvalidPath)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.editors[name]; ok {
		return e, nil
	}
	e := New(ctx, r.kv, Options{
		Name:      name,
		Key:       r.KeyFor(name),
		Default:   r.opts.Default,
		Formatter: r.opts.Formatter,
		Logger:    r.opts.Logger,
	})
	r.editors[name] = e
	return e, nil
}

// Names returns the loaded document names in order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.editors))
	for name := range r.editors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
