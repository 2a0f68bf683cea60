package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/mcncl/jsonedit/internal/analyzer"
	"github.com/mcncl/jsonedit/internal/editor"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data of the full editor page.
type Page struct {
	Name    string
	Base    string
	Text    string
	Valid   bool
	Stats   analyzer.Stats
	Tree    *Tree
	Notices []editor.Notice

	// Documents lists the documents open in this process.
	Documents []string
}

// Renderer executes the editor templates.
type Renderer struct {
	tmpl     *template.Template
	minifier *minify.M
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("jsonedit").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	return &Renderer{tmpl: tmpl, minifier: m}, nil
}

// ActionURL returns the URL tree forms of the document name post to.
func ActionURL(name string) string {
	return BaseURL(name) + "/action"
}

// BaseURL returns the URL prefix of the document name.
func BaseURL(name string) string {
	return "/d/" + name
}

// NewPage assembles the page data of v.
func NewPage(v editor.View, notices []editor.Notice) Page {
	return Page{
		Name:    v.Name,
		Base:    BaseURL(v.Name),
		Text:    v.Text,
		Valid:   v.Result.OK(),
		Stats:   v.Stats,
		Tree:    Build(v, ActionURL(v.Name)),
		Notices: notices,
	}
}

// Page writes the full editor page.
func (r *Renderer) Page(w io.Writer, p Page) error {
	if err := r.tmpl.ExecuteTemplate(w, "page", p); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// Tree returns the minified tree pane of v.
func (r *Renderer) Tree(v editor.View) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "tree", Build(v, ActionURL(v.Name))); err != nil {
		return "", fmt.Errorf("failed to render tree: %w", err)
	}
	return r.minify(buf.String()), nil
}

func (r *Renderer) minify(s string) string {
	out, err := r.minifier.String("text/html", s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return out
}
