package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gitforge/gitforge/internal/config"
	"github.com/gitforge/gitforge/internal/logger"
	"github.com/gitforge/gitforge/internal/store"
	"github.com/gitforge/gitforge/internal/vcs"
)

// Server owns the listener, the store and the backend for one repository.
// Each accepted connection is handled by its own goroutine; within a
// connection requests are strictly sequential, across connections only the
// store lock serializes anything.
type Server struct {
	cfg        *config.Config
	store      *store.Store
	dispatcher *Dispatcher
	httpServer *http.Server
	listener   net.Listener
	upgrader   websocket.Upgrader
}

// NewServer opens the store at the repository root and wires the
// dispatcher over it. The store is shared by all connections and closed
// only by Stop.
func NewServer(cfg *config.Config) (*Server, error) {
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}

	backend := vcs.NewGit(cfg.RepoPath)

	return &Server{
		cfg:        cfg,
		store:      st,
		dispatcher: NewDispatcher(backend, st),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}, nil
}

// Start binds the configured address and begins accepting connections in
// the background. There is no admission control: every connection gets a
// handler.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to bind MCP server: %w", err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWebSocket)
	s.httpServer = &http.Server{Handler: mux}

	go func() {
		logger.Info("MCP server listening on %s", ln.Addr())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("MCP server error: %v", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.ListenAddr
	}
	return s.listener.Addr().String()
}

// Stop shuts the listener down and closes the store.
func (s *Server) Stop() error {
	var firstErr error
	if s.httpServer != nil {
		if err := s.httpServer.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// handleWebSocket upgrades the connection and runs its request loop. A
// failed handshake terminates only this connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket handshake failed: %v", err)
		return
	}

	connID := uuid.NewString()[:8]
	logger.Info("MCP client connected: %s (%s)", r.RemoteAddr, connID)

	s.serveConn(r.Context(), connID, conn)
}

// serveConn is the per-connection loop: read one request, dispatch it,
// write one response. There is no pipelining; a response is fully written
// before the next read. Read or write failure ends the loop.
func (s *Server) serveConn(ctx context.Context, connID string, conn *websocket.Conn) {
	defer func() {
		conn.Close()
		logger.Info("MCP client disconnected: %s", connID)
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Error("websocket read error on %s: %v", connID, err)
			}
			return
		}

		// Non-text frames are ignored without a response.
		if msgType != websocket.TextMessage {
			continue
		}

		resp := s.handleText(ctx, connID, data)

		out, err := json.Marshal(resp)
		if err != nil {
			logger.Error("response serialization error on %s: %v", connID, err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			logger.Error("websocket send error on %s: %v", connID, err)
			return
		}
	}
}

// envelopeKeys are the fields every request must carry. Presence is what
// counts: a null id or an empty method name is still a parseable envelope,
// and an unmatched method falls through to the dispatcher's not-found
// error rather than a parse error.
var envelopeKeys = [...]string{"jsonrpc", "id", "method", "params"}

// handleText parses one request and dispatches it. A text frame that is
// not a valid envelope is answered with a parse error and a null id; the
// connection survives.
func (s *Server) handleText(ctx context.Context, connID string, data []byte) *Response {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return errorResponse(nil, &Error{
			Code:    CodeParseError,
			Message: fmt.Sprintf("parse error: %v", err),
		})
	}
	for _, key := range envelopeKeys {
		if _, ok := fields[key]; !ok {
			return errorResponse(nil, &Error{
				Code:    CodeParseError,
				Message: fmt.Sprintf("parse error: missing field '%s'", key),
			})
		}
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(nil, &Error{
			Code:    CodeParseError,
			Message: fmt.Sprintf("parse error: %v", err),
		})
	}

	logger.Debug("dispatching %s on %s", req.Method, connID)
	return s.dispatcher.Dispatch(ctx, &req)
}
