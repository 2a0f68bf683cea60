package web

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcncl/jsonedit/internal/editor"
)

// actionSync marks an update caused by another connection or a form post.
const actionSync = "sync"

// update is sent to the client after connecting and after every action.
type update struct {
	Action  string          `json:"action,omitempty"`
	Tree    string          `json:"tree"`
	Text    string          `json:"text"`
	Valid   bool            `json:"valid"`
	Error   string          `json:"error,omitempty"`
	Notices []editor.Notice `json:"notices,omitempty"`
}

// client is one websocket connection. Updates caused by other connections
// are written from their goroutines, so writes hold mu.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(u update) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// hub tracks the open connections of every document.
type hub struct {
	mu      sync.Mutex
	clients map[string]map[*client]struct{}
}

func (h *hub) join(name string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients == nil {
		h.clients = make(map[string]map[*client]struct{})
	}
	if h.clients[name] == nil {
		h.clients[name] = make(map[*client]struct{})
	}
	h.clients[name][c] = struct{}{}
}

func (h *hub) leave(name string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[name], c)
	if len(h.clients[name]) == 0 {
		delete(h.clients, name)
	}
}

// peers returns the connections of name other than skip.
func (h *hub) peers(name string, skip *client) []*client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*client, 0, len(h.clients[name]))
	for c := range h.clients[name] {
		if c != skip {
			out = append(out, c)
		}
	}
	return out
}

// snapshot renders the current state of ed. Notices are left queued.
func (s *Server) snapshot(ed *editor.Editor, action string) (update, error) {
	view := ed.View()
	tree, err := s.renderer.Tree(view)
	if err != nil {
		return update{}, err
	}
	return update{
		Action: action,
		Tree:   tree,
		Text:   view.Text,
		Valid:  view.Result.OK(),
		Error:  view.Result.Message(),
	}, nil
}

// broadcast sends u to every connection of ed except skip. Notices belong to
// the actor and are not forwarded.
func (s *Server) broadcast(ed *editor.Editor, u update, skip *client) {
	u.Action = actionSync
	u.Notices = nil
	for _, c := range s.hub.peers(ed.Name(), skip) {
		if err := c.write(u); err != nil {
			s.logger.Debug("failed to sync peer", "document", ed.Name(), "error", err)
		}
	}
}

// notifyPeers pushes the state of ed after a form post.
func (s *Server) notifyPeers(ed *editor.Editor) {
	if len(s.hub.peers(ed.Name(), nil)) == 0 {
		return
	}
	u, err := s.snapshot(ed, actionSync)
	if err != nil {
		s.logger.Error("failed to render update", "document", ed.Name(), "error", err)
		return
	}
	s.broadcast(ed, u, nil)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ed := s.editorFor(w, r)
	if ed == nil {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "document", ed.Name(), "error", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn}
	s.hub.join(ed.Name(), c)
	defer s.hub.leave(ed.Name(), c)

	logger := s.logger.With("document", ed.Name(), "conn", uuid.NewString())
	logger.Info("client connected", "remote_addr", r.RemoteAddr)

	initial, err := s.snapshot(ed, "")
	if err != nil {
		logger.Error("failed to render initial state", "error", err)
		return
	}
	initial.Notices = ed.DrainNotices()
	if err := c.write(initial); err != nil {
		logger.Warn("failed to send initial state", "error", err)
		return
	}

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket error", "error", err)
			}
			break
		}

		msg, err := parseMessage(data)
		if err != nil {
			logger.Debug("dropping malformed message", "error", err)
			continue
		}
		if err := dispatch(ctx, ed, msg); err != nil {
			logger.Debug("action failed", "action", msg.Action, "error", err)
		}

		u, err := s.snapshot(ed, msg.Action)
		if err != nil {
			logger.Error("failed to render update", "error", err)
			continue
		}
		u.Notices = ed.DrainNotices()
		if err := c.write(u); err != nil {
			logger.Warn("websocket write failed", "error", err)
			break
		}
		s.broadcast(ed, u, c)
	}
	logger.Info("client disconnected")
}
