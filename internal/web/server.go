// Package web serves the editor over HTTP. Every interaction works as a
// plain form post; the bundled script upgrades the page to a websocket
// channel that applies the same actions without reloading.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/mcncl/jsonedit/internal/editor"
	"github.com/mcncl/jsonedit/internal/errors"
	"github.com/mcncl/jsonedit/internal/render"
)

//go:embed static
var staticFS embed.FS

// DefaultMaxImportBytes bounds uploaded files.
const DefaultMaxImportBytes = 10 << 20

// Options configures a Server.
type Options struct {
	Registry       *editor.Registry
	Renderer       *render.Renderer
	Logger         *slog.Logger
	MaxImportBytes int64
	// Now is the clock used for export names.
	Now func() time.Time
}

// Server routes HTTP requests to document editors.
type Server struct {
	registry  *editor.Registry
	renderer  *render.Renderer
	logger    *slog.Logger
	maxImport int64
	now       func() time.Time
	upgrader  websocket.Upgrader
	hub       hub
}

// NewServer returns a Server for opts.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxImportBytes <= 0 {
		opts.MaxImportBytes = DefaultMaxImportBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		registry:  opts.Registry,
		renderer:  opts.Renderer,
		logger:    opts.Logger,
		maxImport: opts.MaxImportBytes,
		now:       opts.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(flash)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, render.BaseURL(s.registry.DefaultName()), http.StatusFound)
	})

	r.Route("/d/{doc}", func(r chi.Router) {
		r.Get("/", s.handlePage)
		r.Post("/text", s.handleText)
		r.Post("/action", s.handleAction)
		r.Get("/ws", s.handleWebSocket)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Get("/raw", s.handleRaw)
	})
	return r
}

// editorFor resolves the {doc} parameter. It writes the error response and
// returns nil when the name is invalid.
func (s *Server) editorFor(w http.ResponseWriter, r *http.Request) *editor.Editor {
	ed, err := s.registry.Get(r.Context(), chi.URLParam(r, "doc"))
	if err != nil {
		http.Error(w, errors.UserFriendlyError(err), http.StatusNotFound)
		return nil
	}
	return ed
}

func (s *Server) redirectToPage(w http.ResponseWriter, r *http.Request, ed *editor.Editor) {
	setFlash(w, ed.DrainNotices())
	s.notifyPeers(ed)
	http.Redirect(w, r, render.BaseURL(ed.Name()), http.StatusSeeOther)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ed := s.editorFor(w, r)
	if ed == nil {
		return
	}
	notices := append(getFlash(r.Context()), ed.DrainNotices()...)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	page := render.NewPage(ed.View(), notices)
	page.Documents = s.registry.Names()
	if err := s.renderer.Page(w, page); err != nil {
		s.logger.Error("failed to render page", "document", ed.Name(), "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	ed := s.editorFor(w, r)
	if ed == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	if err := ed.SetText(r.Context(), r.PostForm.Get("text")); err != nil {
		s.logger.Warn("failed to store text", "document", ed.Name(), "error", err)
	}
	s.redirectToPage(w, r, ed)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	ed := s.editorFor(w, r)
	if ed == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	msg := formMessage(r.PostForm)
	if err := dispatch(r.Context(), ed, msg); err != nil {
		s.logger.Debug("action failed", "document", ed.Name(), "action", msg.Action, "error", err)
	}
	s.redirectToPage(w, r, ed)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ed := s.editorFor(w, r)
	if ed == nil {
		return
	}
	name, data := ed.Export(s.now())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ed := s.editorFor(w, r)
	if ed == nil {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxImport+1<<20)
	if err := r.ParseMultipartForm(s.maxImport); err != nil {
		ed.Notify(editor.LevelError, errors.UserFriendlyError(errors.NewIOError("failed to read the upload", err)))
		s.redirectToPage(w, r, ed)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		ed.Notify(editor.LevelWarning, "Choose a file to import")
		s.redirectToPage(w, r, ed)
		return
	}
	defer file.Close()

	if err := ed.Import(r.Context(), file); err != nil {
		s.logger.Warn("import failed", "document", ed.Name(), "file", header.Filename, "error", err)
	} else {
		s.logger.Info("imported file", "document", ed.Name(), "file", header.Filename, "bytes", header.Size)
	}
	s.redirectToPage(w, r, ed)
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	ed := s.editorFor(w, r)
	if ed == nil {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(ed.Text()))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs an HTTP server on addr until ctx is cancelled, then shuts it
// down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.NewIOError(fmt.Sprintf("failed to listen on %s", addr), err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.NewIOError("shutdown failed", err)
	}
	s.logger.Info("server stopped")
	return nil
}
