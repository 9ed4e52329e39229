package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/seenimoa/mfkit/internal/infra"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // read-only public data
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Stream message types.
const (
	MsgStart    = "start"
	MsgCategory = "category"
	MsgError    = "error"
	MsgDone     = "done"
)

// WSMessage is one frame of the performance stream.
type WSMessage struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// StreamStart announces the categories that will follow.
type StreamStart struct {
	Group      string   `json:"group"`
	ReportDate string   `json:"report_date"`
	Categories []string `json:"categories"`
}

// handlePerformanceStream upgrades to WebSocket and pushes one "category"
// message per sub-category of the group as soon as its report is scraped,
// in completion order, then a "done" message and a close frame.
func (s *Server) handlePerformanceStream(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Table().Group(chi.URLParam(r, "group"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	send := make(chan WSMessage, len(g.Categories)+2)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.wsWritePump(conn, send)
		cancel()
	}()
	go func() {
		wsReadPump(conn)
		cancel()
	}()

	push := func(msg WSMessage) bool {
		select {
		case send <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}

	start := StreamStart{Group: g.Name, ReportDate: s.svc.ReportDate()}
	for _, c := range g.Categories {
		start.Categories = append(start.Categories, c.Name)
	}
	push(WSMessage{Type: MsgStart, Data: start})

	workers := infra.DefaultWorkers
	if s.cfg != nil && s.cfg.Fetch.Workers > 0 {
		workers = s.cfg.Fetch.Workers
	}
	_, err = infra.FanOut(ctx, workers, len(g.Categories), func(ctx context.Context, i int) (struct{}, error) {
		perf, err := s.svc.GetSubCategoryPerformance(ctx, g.Name, g.Categories[i].Code)
		if err != nil {
			return struct{}{}, err
		}
		push(WSMessage{Type: MsgCategory, Data: perf})
		return struct{}{}, nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("group", g.Name).Msg("performance stream aborted")
		push(WSMessage{Type: MsgError, Error: err.Error()})
	} else {
		push(WSMessage{Type: MsgDone})
	}

	close(send)
	<-writerDone
}

// wsReadPump drains the connection so control frames are processed, and
// returns when the peer goes away.
func wsReadPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// wsWritePump writes queued messages until send is closed, pinging the peer
// while it waits.
func (s *Server) wsWritePump(conn *websocket.Conn, send <-chan WSMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error().Err(err).Msg("websocket marshal failed")
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
