package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wdglance/internal/bus"
	"github.com/nao1215/wdglance/internal/dashboard"
	"github.com/nao1215/wdglance/internal/tile"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	outQueueSize   = 64
)

// Message types of the WebSocket protocol.
const (
	// MsgQuery (client) starts a new query, cancelling the running one.
	MsgQuery = "query"
	// MsgAction (client) sends a UI action to a tile.
	MsgAction = "action"
	// MsgDone (server) ends the events of a query.
	MsgDone = "done"
	// MsgError (server) reports a rejected client message.
	MsgError = "error"
)

// ClientMessage is a message sent by a WebSocket client.
type ClientMessage struct {
	Type   string   `json:"type"`
	Words  []string `json:"words,omitempty"`
	Lang   string   `json:"lang,omitempty"`
	Action string   `json:"action,omitempty"`
	Tile   string   `json:"tile,omitempty"`
}

// ServerMessage is a message sent to a WebSocket client. Tile events use
// the action name as their type.
type ServerMessage struct {
	Type      string         `json:"type"`
	Tile      string         `json:"tile,omitempty"`
	QueryID   uint64         `json:"queryId,omitempty"`
	Error     string         `json:"error,omitempty"`
	NumErrors int            `json:"numErrors,omitempty"`
	Snapshot  *tile.Snapshot `json:"snapshot,omitempty"`
}

func eventMessage(ev dashboard.Event) ServerMessage {
	return ServerMessage{
		Type:     string(ev.Type),
		Tile:     ev.Tile,
		QueryID:  ev.QueryID,
		Error:    ev.Error,
		Snapshot: &ev.Snapshot,
	}
}

// handleWebSocket serves a dashboard over a WebSocket connection. The q
// parameters start the first query right away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.requestLogger(r).Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logger := s.requestLogger(r)
	d, err := s.newDashboard()
	if err != nil {
		logger.Error("failed to create dashboard", "error", err)
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(ServerMessage{Type: MsgError, Error: "failed to create dashboard"})
		return
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sess := &wsSession{
		conn:   conn,
		dash:   d,
		uiLang: s.uiLang(r),
		logger: logger,
		out:    make(chan ServerMessage, outQueueSize),
	}
	logger.Info("WebSocket session started", "remote_addr", r.RemoteAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sess.writeLoop(gctx) })
	g.Go(func() error { return sess.forwardStateChanges(gctx) })
	if words := r.URL.Query()["q"]; len(words) > 0 {
		sess.startQuery(gctx, words, r.URL.Query().Get("queryLang"))
	}
	g.Go(func() error {
		defer cancel()
		return sess.readLoop(gctx)
	})

	err = g.Wait()
	sess.queries.Wait()
	if err != nil {
		logger.Debug("WebSocket session ended with error", "error", err)
	}
	logger.Info("WebSocket session closed", "remote_addr", r.RemoteAddr)
}

// wsSession is one WebSocket connection. Only writeLoop writes data
// frames to conn.
type wsSession struct {
	conn   *websocket.Conn
	dash   *dashboard.Dashboard
	uiLang string
	logger *slog.Logger
	out    chan ServerMessage

	mu          sync.Mutex
	cancelQuery context.CancelFunc
	queries     sync.WaitGroup
}

func (s *wsSession) send(ctx context.Context, msg ServerMessage) {
	select {
	case s.out <- msg:
	case <-ctx.Done():
	}
}

func (s *wsSession) writeLoop(ctx context.Context) error {
	defer s.conn.Close()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return nil
		case msg := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				return fmt.Errorf("failed to write message: %w", err)
			}
		case <-ping.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("failed to send ping: %w", err)
			}
		}
	}
}

func (s *wsSession) readLoop(ctx context.Context) error {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read message: %w", err)
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.send(ctx, ServerMessage{Type: MsgError, Error: "invalid message: " + err.Error()})
			continue
		}
		s.handleMessage(ctx, msg)
	}
}

func (s *wsSession) handleMessage(ctx context.Context, msg ClientMessage) {
	switch msg.Type {
	case MsgQuery:
		s.startQuery(ctx, msg.Words, msg.Lang)
	case MsgAction:
		if err := s.dash.Dispatch(bus.ActionName(msg.Action), msg.Tile); err != nil {
			s.send(ctx, ServerMessage{Type: MsgError, Tile: msg.Tile, Error: err.Error()})
		}
	default:
		s.send(ctx, ServerMessage{Type: MsgError, Error: fmt.Sprintf("%s: %q", ErrUnknownMessage, msg.Type)})
	}
}

// startQuery cancels the running query and starts a new one. Every query
// which is not superseded ends with exactly one MsgDone message sent after
// all its tile events.
func (s *wsSession) startQuery(ctx context.Context, words []string, lang string) {
	s.mu.Lock()
	if s.cancelQuery != nil {
		s.cancelQuery()
	}
	qctx, cancel := context.WithCancel(ctx)
	s.cancelQuery = cancel
	s.mu.Unlock()

	s.queries.Add(1)
	go func() {
		defer s.queries.Done()
		defer cancel()

		res, err := s.dash.Query(qctx, dashboard.Request{
			Words:  words,
			Lang:   lang,
			UILang: s.uiLang,
			OnEvent: func(ev dashboard.Event) {
				s.send(qctx, eventMessage(ev))
			},
		})
		if qctx.Err() != nil {
			return
		}
		done := ServerMessage{Type: MsgDone}
		if res != nil {
			done.QueryID = res.QueryID
			done.NumErrors = res.NumErrors()
		}
		if err != nil {
			s.logger.Warn("WebSocket query failed", "error", err)
			done.Error = err.Error()
		}
		s.send(ctx, done)
	}()
}

// forwardStateChanges passes the results of UI actions to the client.
func (s *wsSession) forwardStateChanges(ctx context.Context) error {
	sub := s.dash.Subscribe(bus.Named(bus.TileStateChanged))
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case a, ok := <-sub.C():
			if !ok {
				return nil
			}
			msg := ServerMessage{Type: string(a.Name), Tile: a.Tile, QueryID: a.QueryID}
			if snap, ok := a.Payload.(tile.Snapshot); ok {
				msg.Snapshot = &snap
			}
			s.send(ctx, msg)
		}
	}
}
