package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/michaelbrown/polyrun/internal/execution"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // same-origin editor; no auth on this server
	},
}

// wsIncoming is a message from the client.
type wsIncoming struct {
	Type     string `json:"type"`
	Seq      int    `json:"seq,omitempty"`
	Source   string `json:"source,omitempty"`
	Language string `json:"language,omitempty"`
	Stdin    string `json:"stdin,omitempty"`
}

// wsOutgoing is a message to the client.
type wsOutgoing struct {
	Type    string            `json:"type"`
	Seq     int               `json:"seq,omitempty"`
	RunID   string            `json:"run_id,omitempty"`
	Result  *execution.Result `json:"result,omitempty"`
	Content string            `json:"content,omitempty"`
}

// wsConn serializes writes to one connection.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
	s    *Server
}

func (c *wsConn) send(v wsOutgoing) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		c.s.logger.Error("websocket marshal error", "error", err)
		return
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.s.logger.Warn("websocket write error", "error", err)
	}
}

// handleWebSocket accepts "run" and "clear" messages. Each run is
// dispatched on its own goroutine and answered with a "result" carrying the
// client's seq. "clear" is only acknowledged: runs already started keep
// going and still deliver their results.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	c := &wsConn{conn: conn, s: s}
	var inflight sync.WaitGroup
	defer inflight.Wait()

	// Read loop
	for {
		var msg wsIncoming
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		switch msg.Type {
		case "run":
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				req := execution.Request{Source: msg.Source, Language: msg.Language, Stdin: msg.Stdin}
				id, res := s.execute(r.Context(), req, "ws")
				c.send(wsOutgoing{Type: "result", Seq: msg.Seq, RunID: id, Result: &res})
			}()
		case "clear":
			c.send(wsOutgoing{Type: "cleared", Seq: msg.Seq})
		default:
			c.send(wsOutgoing{Type: "error", Seq: msg.Seq, Content: "unknown message type: " + msg.Type})
		}
	}
}
