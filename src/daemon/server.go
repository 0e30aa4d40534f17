package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"parlor/src/session"
)

// JSON-RPC 2.0 error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeServiceFailure = -32000
)

// Server hosts one chat session behind JSON-RPC over a unix socket
type Server struct {
	session *session.Session
	logger  *zap.Logger
	started time.Time

	listener   net.Listener
	server     *http.Server
	socketPath string
}

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      interface{}     `json:"id"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("%s (%v)", e.Message, e.Data)
	}
	return e.Message
}

// NewServer creates a JSON-RPC server for sess listening on socketPath
func NewServer(sess *session.Session, socketPath string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		session:    sess,
		logger:     logger,
		socketPath: socketPath,
		started:    time.Now(),
	}
}

// SocketPath returns where the server listens
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Handler returns the HTTP handler serving POST /rpc
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", s.handleRPC)
	return mux
}

// Start begins listening for JSON-RPC requests
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0700); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	// Remove old socket if exists
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
	}

	s.logger.Info("JSON-RPC server listening", zap.String("socket", s.socketPath), zap.String("session", s.session.ID()))

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("JSON-RPC server stopped", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the server and removes the socket
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	os.Remove(s.socketPath)
	return nil
}

// handleRPC processes JSON-RPC requests
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, nil, &RPCError{Code: CodeParseError, Message: "Parse error"})
		return
	}

	if req.JSONRPC != "2.0" || req.Method == "" {
		s.writeError(w, req.ID, &RPCError{Code: CodeInvalidRequest, Message: "Invalid Request"})
		return
	}

	result, err := s.routeMethod(r.Context(), req.Method, req.Params)
	if err != nil {
		s.writeError(w, req.ID, toRPCError(err))
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		s.writeError(w, req.ID, &RPCError{Code: CodeInternalError, Message: err.Error()})
		return
	}

	s.write(w, JSONRPCResponse{JSONRPC: "2.0", Result: raw, ID: req.ID})
}

// writeError writes a JSON-RPC error response
func (s *Server) writeError(w http.ResponseWriter, id interface{}, rpcErr *RPCError) {
	s.logger.Debug("rpc error", zap.Int("code", rpcErr.Code), zap.String("message", rpcErr.Message))
	s.write(w, JSONRPCResponse{JSONRPC: "2.0", Error: rpcErr, ID: id})
}

func (s *Server) write(w http.ResponseWriter, resp JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}
