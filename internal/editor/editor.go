// Package editor keeps the raw text of a document and its tree in sync.
//
// Text is authoritative. Editing the text re-derives the tree; editing the
// tree serializes the new document and, when that serialization differs from
// the serialization of the last parsed document, overwrites the text, which
// in turn re-derives the tree.
package editor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcncl/jsonedit/internal/analyzer"
	"github.com/mcncl/jsonedit/internal/errors"
	"github.com/mcncl/jsonedit/internal/formatter"
	"github.com/mcncl/jsonedit/internal/models"
	"github.com/mcncl/jsonedit/internal/mutation"
	"github.com/mcncl/jsonedit/internal/parser"
	"github.com/mcncl/jsonedit/internal/session"
	"github.com/mcncl/jsonedit/internal/store"
)

// DefaultDocument is the text of a document that has never been stored.
const DefaultDocument = `{
  "name": "jsonedit",
  "version": 1,
  "tags": [
    "json",
    "editor"
  ],
  "settings": {
    "indent": 2,
    "autosave": true
  },
  "owner": null
}`

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

// Options configures an Editor.
type Options struct {
	// Name identifies the document in logs and URLs.
	Name string
	// Key is the storage key of the raw text.
	Key string
	// Default is the text used when nothing is stored.
	Default   string
	Formatter *formatter.Formatter
	Logger    *slog.Logger
}

// Editor owns one document. All methods are safe for concurrent use and are
// applied one at a time.
type Editor struct {
	mu        sync.Mutex
	name      string
	text      *store.TextStore
	adapter   parser.Adapter
	formatter *formatter.Formatter
	form      *session.State
	expansion *session.Expansion
	notices   []Notice
	logger    *slog.Logger
}

// New loads the stored text of opts.Key from kv and returns an Editor for it.
func New(ctx context.Context, kv store.KV, opts Options) *Editor {
	if opts.Formatter == nil {
		opts.Formatter = formatter.NewFormatter()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Default == "" {
		opts.Default = DefaultDocument
	}
	logger := opts.Logger.With("document", opts.Name)

	e := &Editor{
		name:      opts.Name,
		text:      store.NewTextStore(kv, opts.Key, logger),
		formatter: opts.Formatter,
		form:      session.New(),
		expansion: session.NewExpansion(),
		logger:    logger,
	}
	e.adapter.Decode(e.text.Load(ctx, opts.Default))
	return e
}

// Name returns the document name.
func (e *Editor) Name() string { return e.name }

// Text returns the raw text.
func (e *Editor) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text.Text()
}

// Document returns the parse result of the raw text.
func (e *Editor) Document() parser.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.adapter.Decode(e.text.Text())
}

// SetText replaces the raw text. When the new text parses, the tree is
// replaced wholesale and any open form is closed. A failed write to storage
// is reported as a notice and returned; the new text is kept either way.
func (e *Editor) SetText(ctx context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setText(ctx, text)
}

func (e *Editor) setText(ctx context.Context, text string) error {
	if text == e.text.Text() {
		return nil
	}
	err := e.text.Set(ctx, text)
	if err != nil {
		e.notify(LevelError, errors.UserFriendlyError(err))
	}
	if result := e.adapter.Decode(text); result.OK() {
		e.form.Close()
	} else {
		e.logger.Debug("text does not parse", "error", result.Err)
	}
	return err
}

// Sync reconciles the text with the current tree. It changes nothing when
// the text already is the serialization of the tree, so calling it again is
// a no-op.
func (e *Editor) Sync(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := e.adapter.Decode(e.text.Text())
	if !result.OK() {
		return nil
	}
	return e.apply(ctx, result.Value)
}

// apply propagates a tree produced by a mutation back to the text.
func (e *Editor) apply(ctx context.Context, doc models.JSONValue) error {
	last := e.adapter.Decode(e.text.Text())
	next, err := e.formatter.Format(doc)
	if err != nil {
		return errors.NewOutputError("failed to serialize document", err)
	}
	if last.OK() {
		current, err := e.formatter.Format(last.Value)
		if err == nil && current == next {
			return nil
		}
	}
	return e.setText(ctx, next)
}

// document returns the current tree or ErrNoDocument while the text does not
// parse. Tree operations are unavailable in that state.
func (e *Editor) document() (models.JSONValue, error) {
	result := e.adapter.Decode(e.text.Text())
	if !result.OK() {
		return nil, errors.NewMutationError("the text is not valid JSON", errors.ErrNoDocument)
	}
	return result.Value, nil
}

// AddInput is the payload of the insertion form.
type AddInput struct {
	Path     models.Path
	Key      string
	Value    string
	Kind     models.Kind
	Position int
}

// Add inserts a node into the container at in.Path.
func (e *Editor) Add(ctx context.Context, in AddInput) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.document()
	if err != nil {
		return e.fail(err)
	}
	next, err := mutation.Add(doc, in.Path, in.Key, in.Value, in.Kind, in.Position)
	if err != nil {
		return e.fail(err)
	}
	if _, isArray := nodeAt(doc, in.Path).(models.JSONArray); isArray {
		e.forgetShifted(doc, in.Path, in.Position)
	} else {
		e.expansion.Forget(in.Path.Child(models.Key(in.Key)))
	}
	e.logger.Debug("added node", "path", in.Path.Display(), "key", in.Key, "kind", in.Kind, "position", in.Position)
	return e.commit(ctx, next)
}

// Delete removes the child seg of the container at path. Deleting a child
// that does not exist changes nothing.
func (e *Editor) Delete(ctx context.Context, path models.Path, seg models.Segment) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.document()
	if err != nil {
		return e.fail(err)
	}
	next, err := mutation.Delete(doc, path, seg)
	if err != nil {
		return e.fail(err)
	}
	if seg.IsIndex {
		e.forgetShifted(doc, path, seg.Index)
	} else {
		e.expansion.Forget(path.Child(seg))
	}
	e.logger.Debug("deleted node", "path", path.Child(seg).Display())
	return e.commit(ctx, next)
}

// EditInput is the payload of the edit form. NewKey, when set, renames an
// object member.
type EditInput struct {
	Path   models.Path
	Value  string
	Kind   models.Kind
	NewKey *string
}

// Edit replaces the node at in.Path.
func (e *Editor) Edit(ctx context.Context, in EditInput) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.document()
	if err != nil {
		return e.fail(err)
	}
	next, err := mutation.Edit(doc, in.Path, in.Value, in.Kind, in.NewKey)
	if err != nil {
		return e.fail(err)
	}
	e.expansion.Forget(in.Path)
	e.logger.Debug("edited node", "path", in.Path.Display(), "kind", in.Kind)
	return e.commit(ctx, next)
}

// Rename changes the key of the object member at path and keeps its value.
func (e *Editor) Rename(ctx context.Context, path models.Path, newKey string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.document()
	if err != nil {
		return e.fail(err)
	}
	next, err := mutation.Rename(doc, path, newKey)
	if err != nil {
		return e.fail(err)
	}
	e.expansion.Forget(path)
	e.logger.Debug("renamed node", "path", path.Display(), "key", newKey)
	return e.commit(ctx, next)
}

// forgetShifted drops the collapse state of the elements of the array at
// path from index from on. After an insert or delete those paths name
// different nodes.
func (e *Editor) forgetShifted(doc models.JSONValue, path models.Path, from int) {
	n := models.Len(nodeAt(doc, path))
	if from < 0 || from > n {
		return
	}
	for i := from; i <= n; i++ {
		e.expansion.Forget(path.Child(models.Index(i)))
	}
}

func nodeAt(doc models.JSONValue, path models.Path) models.JSONValue {
	v, _ := models.Resolve(doc, path)
	return v
}

func (e *Editor) commit(ctx context.Context, doc models.JSONValue) error {
	e.form.Close()
	return e.apply(ctx, doc)
}

// fail records err as a notice. Rejected input keeps the form open so the
// user can correct it; any other failure closes it since its path may no
// longer exist.
func (e *Editor) fail(err error) error {
	if errors.IsValidation(err) {
		e.notify(LevelWarning, errors.UserFriendlyError(err))
	} else {
		e.form.Close()
		e.notify(LevelError, errors.UserFriendlyError(err))
	}
	return err
}

// OpenEdit opens the edit form of the node at path, closing any other form.
func (e *Editor) OpenEdit(path models.Path) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.document()
	if err != nil {
		return e.fail(err)
	}
	if _, ok := models.Resolve(doc, path); !ok {
		return e.fail(errors.NewMutationError(fmt.Sprintf("%s does not exist", path.Display()), errors.ErrPathNotFound))
	}
	e.form.OpenEdit(path)
	return nil
}

// OpenCreate opens the insertion form of the container at path at position,
// closing any other form.
func (e *Editor) OpenCreate(path models.Path, position int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.document()
	if err != nil {
		return e.fail(err)
	}
	node, ok := models.Resolve(doc, path)
	if !ok {
		return e.fail(errors.NewMutationError(fmt.Sprintf("%s does not exist", path.Display()), errors.ErrPathNotFound))
	}
	if !models.KindOf(node).IsContainer() {
		return e.fail(errors.NewMutationError(fmt.Sprintf("%s is not an object or array", path.Display()), errors.ErrNotContainer))
	}
	if position < 0 || position > models.Len(node) {
		position = models.Len(node)
	}
	e.form.OpenCreate(path, position)
	return nil
}

// CancelForm closes the open form without changing the document.
func (e *Editor) CancelForm() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form.Close()
}

// ToggleCollapse flips the container at path and reports whether it is now
// expanded.
func (e *Editor) ToggleCollapse(path models.Path) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expansion.Toggle(path)
}

// ExportName returns the download name for an export taken at now.
func ExportName(now time.Time) string {
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return "data-" + stamp + ".json"
}

// Export returns the file name and content of a download taken at now: the
// pretty-printed document when the text parses, the raw text otherwise.
func (e *Editor) Export(now time.Time) (string, []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	text := e.text.Text()
	if result := e.adapter.Decode(text); result.OK() {
		if pretty, err := e.formatter.Format(result.Value); err == nil {
			text = pretty
		}
	}
	return ExportName(now), []byte(text)
}

// Import replaces the raw text with the full content of r, verbatim. Content
// that is not valid JSON is accepted and reported by the parse result. A
// read failure leaves the editor unchanged.
func (e *Editor) Import(ctx context.Context, r io.Reader) error {
	data, err := io.ReadAll(r)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		ioErr := errors.NewIOError("failed to read the imported file", err)
		e.notify(LevelError, errors.UserFriendlyError(ioErr))
		return ioErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.setText(ctx, string(data)); err != nil {
		return err
	}
	e.expansion.Reset()
	e.notify(LevelInfo, fmt.Sprintf("Imported %d bytes", len(data)))
	return nil
}

// Copy writes the raw text to clip.
func (e *Editor) Copy(clip Clipboard) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := clip.WriteAll(e.text.Text()); err != nil {
		if errors.TypeOf(err) == errors.ErrorTypeUnknown {
			err = errors.NewIOError("failed to copy to clipboard", err)
		}
		e.notify(LevelError, errors.UserFriendlyError(err))
		return err
	}
	e.notify(LevelInfo, "Copied to clipboard")
	return nil
}

// Notify queues a notice for the user.
func (e *Editor) Notify(level Level, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notify(level, message)
}

func (e *Editor) notify(level Level, message string) {
	e.notices = append(e.notices, Notice{Level: level, Message: message})
}

// DrainNotices returns the pending notices and forgets them.
func (e *Editor) DrainNotices() []Notice {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.notices
	e.notices = nil
	return out
}

// View is a consistent snapshot of the editor for rendering.
type View struct {
	Name      string
	Text      string
	Result    parser.Result
	Form      session.Form
	Collapsed map[string]bool
	Stats     analyzer.Stats
}

// Expanded reports whether the container at path shows its children.
func (v View) Expanded(path models.Path) bool {
	return !v.Collapsed[path.String()]
}

// View returns a snapshot of the editor.
func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	text := e.text.Text()
	v := View{
		Name:      e.name,
		Text:      text,
		Result:    e.adapter.Decode(text),
		Collapsed: e.expansion.Collapsed(),
	}
	if form, ok := e.form.Active(); ok {
		v.Form = form
	}
	if v.Result.OK() {
		v.Stats = analyzer.NewAnalyzer().Analyze(v.Result.Value)
	}
	return v
}
