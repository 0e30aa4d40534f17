package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	perrors "parlor/src/errors"
	"parlor/src/session"
)

// routeMethod routes JSON-RPC methods to their handlers
func (s *Server) routeMethod(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	switch method {
	case "turn.process":
		return s.handleTurnProcess(ctx, params)
	case "session.status":
		return s.handleSessionStatus()
	case "session.history":
		return s.handleSessionHistory()
	case "personas.list":
		return s.handlePersonasList()
	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: "Method not found"}
	}
}

// TurnParams is the payload of turn.process
type TurnParams struct {
	Text string `json:"text"`
}

// TurnResult is returned by turn.process
type TurnResult struct {
	Messages []session.Message `json:"messages"`
	Active   string            `json:"active,omitempty"`
}

// StatusResult is returned by session.status
type StatusResult struct {
	SessionID   string         `json:"session_id"`
	Active      string         `json:"active,omitempty"`
	Transcripts map[string]int `json:"transcripts"`
	Uptime      string         `json:"uptime"`
}

// HistoryResult is returned by session.history
type HistoryResult struct {
	Messages []session.Message `json:"messages"`
}

// PersonaInfo describes one roster entry for personas.list
type PersonaInfo struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

func (s *Server) handleTurnProcess(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p TurnParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "Invalid params"}
	}
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "Invalid params", Data: "text must not be empty"}
	}

	messages, err := s.session.ProcessTurn(ctx, text)
	if err != nil {
		s.logger.Warn("turn failed", zap.Error(err))
		return nil, err
	}

	return TurnResult{Messages: messages, Active: s.activeKey()}, nil
}

func (s *Server) handleSessionStatus() (interface{}, error) {
	return StatusResult{
		SessionID:   s.session.ID(),
		Active:      s.activeKey(),
		Transcripts: s.session.TranscriptLengths(),
		Uptime:      time.Since(s.started).Round(time.Second).String(),
	}, nil
}

func (s *Server) handleSessionHistory() (interface{}, error) {
	return HistoryResult{Messages: s.session.History()}, nil
}

func (s *Server) handlePersonasList() (interface{}, error) {
	personas := s.session.Registry().Personas()
	out := make([]PersonaInfo, len(personas))
	for i, p := range personas {
		out[i] = PersonaInfo{Key: p.GetKey(), Name: p.GetName(), Icon: p.GetIcon(), Color: p.GetColor()}
	}
	return out, nil
}

func (s *Server) activeKey() string {
	if p := s.session.Active(); p != nil {
		return p.GetKey()
	}
	return ""
}

// toRPCError maps handler failures onto JSON-RPC errors. Generation and
// decision failures carry the user-facing retry message.
func toRPCError(err error) *RPCError {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	if perrors.IsServiceUnavailable(err) {
		return &RPCError{Code: CodeServiceFailure, Message: session.MsgServiceFailure, Data: err.Error()}
	}
	return &RPCError{Code: CodeInternalError, Message: err.Error()}
}
