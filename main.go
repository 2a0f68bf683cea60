package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mcncl/jsonedit/internal/analyzer"
	"github.com/mcncl/jsonedit/internal/clipboard"
	"github.com/mcncl/jsonedit/internal/config"
	"github.com/mcncl/jsonedit/internal/editor"
	"github.com/mcncl/jsonedit/internal/errors"
	"github.com/mcncl/jsonedit/internal/formatter"
	"github.com/mcncl/jsonedit/internal/logging"
	"github.com/mcncl/jsonedit/internal/models"
	"github.com/mcncl/jsonedit/internal/render"
	"github.com/mcncl/jsonedit/internal/store"
	"github.com/mcncl/jsonedit/internal/web"
)

// CLI defines the command-line interface
var CLI struct {
	Config  string           `help:"Path to a config file. Defaults to the nearest .jsonedit.yml." short:"c" type:"path"`
	DB      string           `help:"Path to the SQLite database, or :memory:."`
	Doc     string           `help:"Document name. Defaults to the configured default document."`
	Indent  int              `help:"Spaces per indentation level of the formatted text. Negative keeps the configured value." default:"-1"`
	Debug   bool             `help:"Enable debug logging." short:"d"`
	LogJSON bool             `help:"Write logs as JSON." name:"log-json"`
	Version bool             `help:"Show version information." short:"v"`

	Serve  ServeCmd  `cmd:"" default:"1" help:"Run the web editor."`
	Print  PrintCmd  `cmd:"" help:"Print the document."`
	Export ExportCmd `cmd:"" help:"Write the document to a data-<timestamp>.json file."`
	Import ImportCmd `cmd:"" help:"Replace the document text with the content of a file, verbatim."`
	Copy   CopyCmd   `cmd:"" help:"Copy the raw document text to the system clipboard."`
	Add    AddCmd    `cmd:"" help:"Insert a node into the object or array at PATH."`
	Delete DeleteCmd `cmd:"" help:"Delete the child SEGMENT of the object or array at PATH."`
	Edit   EditCmd   `cmd:"" help:"Replace the node at PATH, optionally renaming it."`
	Rename RenameCmd `cmd:"" help:"Rename the object member at PATH to KEY, keeping its value."`
}

// Context holds the runtime context shared by all commands
type Context struct {
	Config    *config.Config
	Logger    *slog.Logger
	KV        store.KV
	Registry  *editor.Registry
	Doc       string
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Clipboard editor.Clipboard
	Now       func() time.Time
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	parser := kong.Must(&CLI,
		kong.Name("jsonedit"),
		kong.Description("A visual JSON editor: a text pane and an interactive tree kept in sync."),
		kong.UsageOnError(),
	)

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		// Usage has been shown by kong.UsageOnError()
		os.Exit(1)
	}

	// Show version and exit if requested
	if CLI.Version {
		fmt.Printf("jsonedit version %s\n", Version)
		return
	}

	ctx, err := setup(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}
	defer ctx.KV.Close()

	if err := kctx.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: jsonedit --help\n")
		os.Exit(1)
	}
}

// setup loads configuration and opens storage from the parsed CLI flags.
func setup(ctx context.Context) (*Context, error) {
	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}
	overrides := config.Overrides{
		Addr:    CLI.Serve.Addr,
		DBPath:  CLI.DB,
		Debug:   CLI.Debug,
		LogJSON: CLI.LogJSON,
	}
	if CLI.Indent >= 0 {
		overrides.Indent = &CLI.Indent
	}
	cfg, err := config.LoadConfigWithCLI(configPath, overrides)
	if err != nil {
		return nil, err
	}

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	if configPath != "" {
		logger.Debug("loaded config", "path", configPath)
	}

	kv, err := store.OpenSQLite(ctx, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	return newContext(cfg, kv, logger), nil
}

// newContext wires the editor registry for cfg on top of kv.
func newContext(cfg *config.Config, kv store.KV, logger *slog.Logger) *Context {
	doc := CLI.Doc
	if doc == "" {
		doc = cfg.Editor.DefaultName
	}
	return &Context{
		Config: cfg,
		Logger: logger,
		KV:     kv,
		Registry: editor.NewRegistry(kv, editor.RegistryOptions{
			DefaultName: cfg.Editor.DefaultName,
			Key:         cfg.Storage.Key,
			Default:     cfg.Editor.DefaultDocument,
			Formatter:   formatter.NewFormatterWithIndent(cfg.Editor.Indent),
			Logger:      logger,
		}),
		Doc:       doc,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Clipboard: clipboard.System{},
		Now:       time.Now,
	}
}

// editor returns the editor of the selected document.
func (c *Context) editor(ctx context.Context) (*editor.Editor, error) {
	return c.Registry.Get(ctx, c.Doc)
}

// report prints queued notices to stderr. After a failure the returned
// error carries the message, so the notices are only drained.
func (c *Context) report(ed *editor.Editor, err error) {
	notices := ed.DrainNotices()
	if err != nil {
		return
	}
	for _, n := range notices {
		fmt.Fprintf(c.Stderr, "%s: %s\n", n.Level, n.Message)
	}
}

// ServeCmd runs the HTTP server
type ServeCmd struct {
	Addr string `help:"Address to listen on, e.g. 127.0.0.1:8080."`
}

func (s *ServeCmd) Run(c *Context) error {
	renderer, err := render.New()
	if err != nil {
		return errors.NewOutputError("failed to load templates", err)
	}
	server := web.NewServer(web.Options{
		Registry:       c.Registry,
		Renderer:       renderer,
		Logger:         c.Logger,
		MaxImportBytes: c.Config.MaxImportBytes(),
		Now:            c.Now,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Serve(ctx, c.Config.Server.Addr)
}

// PrintCmd prints the document
type PrintCmd struct {
	Raw  bool `help:"Print the stored text verbatim." xor:"mode"`
	Tree bool `help:"Print an outline of the tree." xor:"mode"`
}

func (p *PrintCmd) Run(c *Context) error {
	ed, err := c.editor(context.Background())
	if err != nil {
		return err
	}
	text := ed.Text()
	if p.Raw {
		return writeOutput(c.Stdout, text)
	}

	result := ed.Document()
	if !result.OK() {
		return result.Err
	}
	if p.Tree {
		if err := render.Text(c.Stdout, result.Value); err != nil {
			return errors.NewOutputError("failed to write to stdout", err)
		}
		stats := analyzer.NewAnalyzer().Analyze(result.Value)
		fmt.Fprintf(c.Stderr, "%d nodes, depth %d\n", stats.Total(), stats.MaxDepth)
		return nil
	}
	_, data := ed.Export(c.Now())
	return writeOutput(c.Stdout, string(data))
}

// ExportCmd writes an export file
type ExportCmd struct {
	Dir string `help:"Directory to write the file to." default:"." type:"path"`
}

func (e *ExportCmd) Run(c *Context) error {
	ed, err := c.editor(context.Background())
	if err != nil {
		return err
	}
	name, data := ed.Export(c.Now())
	path := filepath.Join(e.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
	}
	fmt.Fprintf(c.Stderr, "Exported %s to %s\n", ed.Name(), path)
	return nil
}

// ImportCmd replaces the document text
type ImportCmd struct {
	File string `arg:"" help:"File to import, or - for stdin."`
}

func (i *ImportCmd) Run(c *Context) error {
	ctx := context.Background()
	ed, err := c.editor(ctx)
	if err != nil {
		return err
	}

	var r io.Reader
	if i.File == "-" {
		r = interactiveInput(c)
	} else {
		f, err := os.Open(i.File)
		if err != nil {
			if os.IsNotExist(err) {
				return errors.NewInputError(fmt.Sprintf("file '%s' does not exist", i.File), errors.ErrFileNotFound)
			}
			return errors.NewInputError(fmt.Sprintf("failed to open '%s'", i.File), err)
		}
		defer f.Close()
		r = f
	}

	err = ed.Import(ctx, r)
	c.report(ed, err)
	if err != nil {
		return err
	}
	if result := ed.Document(); !result.OK() {
		fmt.Fprintf(c.Stderr, "warning: the imported text is not valid JSON: %s\n", result.Message())
	}
	return nil
}

// interactiveInput prompts when stdin is a terminal
func interactiveInput(c *Context) io.Reader {
	if f, ok := c.Stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			fmt.Fprintln(c.Stderr, "Paste your JSON below and press Ctrl+D (or Ctrl+Z on Windows) when done:")
		}
	}
	return c.Stdin
}

// CopyCmd copies the raw text to the clipboard
type CopyCmd struct{}

func (*CopyCmd) Run(c *Context) error {
	ed, err := c.editor(context.Background())
	if err != nil {
		return err
	}
	err = ed.Copy(c.Clipboard)
	c.report(ed, err)
	return err
}

// AddCmd inserts a node
type AddCmd struct {
	Path     string `arg:"" optional:"" help:"Container path as a JSON array, e.g. '[\"users\",0]'. Empty for the root."`
	Key      string `help:"Member key when the container is an object." short:"k"`
	Value    string `help:"Raw value, coerced by --type." short:"V"`
	Type     string `help:"Declared type." enum:"string,number,boolean,null,object,array" default:"string" short:"t"`
	Position int    `help:"Insert position among the container's children; -1 appends." default:"-1" short:"p"`
}

func (a *AddCmd) Run(c *Context) error {
	path, err := models.ParsePath(a.Path)
	if err != nil {
		return err
	}
	return c.mutate(func(ctx context.Context, ed *editor.Editor) error {
		return ed.Add(ctx, editor.AddInput{
			Path:     path,
			Key:      a.Key,
			Value:    a.Value,
			Kind:     models.Kind(a.Type),
			Position: a.Position,
		})
	})
}

// DeleteCmd deletes a node
type DeleteCmd struct {
	Path    string `arg:"" help:"Container path as a JSON array. '[]' for the root."`
	Segment string `arg:"" help:"Child to delete: a quoted key such as '\"name\"' or an index such as 2."`
}

func (d *DeleteCmd) Run(c *Context) error {
	path, err := models.ParsePath(d.Path)
	if err != nil {
		return err
	}
	seg, err := models.ParseSegment(d.Segment)
	if err != nil {
		return err
	}
	return c.mutate(func(ctx context.Context, ed *editor.Editor) error {
		return ed.Delete(ctx, path, seg)
	})
}

// EditCmd replaces a node. An object or array edited with its own type keeps
// its children.
type EditCmd struct {
	Path   string `arg:"" help:"Node path as a JSON array. '[]' for the root."`
	Value  string `help:"Raw value, coerced by --type." short:"V"`
	Type   string `help:"Declared type." enum:"string,number,boolean,null,object,array" default:"string" short:"t"`
	Rename string `help:"New key for an object member." short:"r"`
}

func (e *EditCmd) Run(c *Context) error {
	path, err := models.ParsePath(e.Path)
	if err != nil {
		return err
	}
	var newKey *string
	if e.Rename != "" {
		newKey = &e.Rename
	}
	return c.mutate(func(ctx context.Context, ed *editor.Editor) error {
		return ed.Edit(ctx, editor.EditInput{
			Path:   path,
			Value:  e.Value,
			Kind:   models.Kind(e.Type),
			NewKey: newKey,
		})
	})
}

// RenameCmd renames an object member
type RenameCmd struct {
	Path string `arg:"" help:"Member path as a JSON array, e.g. '[\"settings\"]'."`
	Key  string `arg:"" help:"New key."`
}

func (r *RenameCmd) Run(c *Context) error {
	path, err := models.ParsePath(r.Path)
	if err != nil {
		return err
	}
	return c.mutate(func(ctx context.Context, ed *editor.Editor) error {
		return ed.Rename(ctx, path, r.Key)
	})
}

// mutate applies fn to the selected document and prints the resulting text.
func (c *Context) mutate(fn func(context.Context, *editor.Editor) error) error {
	ctx := context.Background()
	ed, err := c.editor(ctx)
	if err != nil {
		return err
	}
	err = fn(ctx, ed)
	c.report(ed, err)
	if err != nil {
		return err
	}
	return writeOutput(c.Stdout, ed.Text())
}

// writeOutput writes text to w followed by a newline
func writeOutput(w io.Writer, text string) error {
	if _, err := fmt.Fprintln(w, text); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}
