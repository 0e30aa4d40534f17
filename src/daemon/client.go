package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
)

// Client calls a running parlor daemon over its unix socket
type Client struct {
	http   *http.Client
	url    string
	nextID atomic.Int64
}

// NewClient returns a client for the daemon listening on socketPath
func NewClient(socketPath string) *Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
	}
	return &Client{
		http: &http.Client{Transport: transport},
		url:  "http://parlor/rpc",
	}
}

// Call invokes method with params and decodes the result into out.
// A JSON-RPC error is returned as *RPCError.
func (c *Client) Call(ctx context.Context, method string, params, out interface{}) error {
	var raw json.RawMessage
	if params != nil {
		var err error
		if raw, err = json.Marshal(params); err != nil {
			return fmt.Errorf("failed to encode params: %w", err)
		}
	}

	body, err := json.Marshal(JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  raw,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	var rpcResp JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(rpcResp.Result, out)
}

// ProcessTurn sends one line of user text
func (c *Client) ProcessTurn(ctx context.Context, text string) (*TurnResult, error) {
	var result TurnResult
	if err := c.Call(ctx, "turn.process", TurnParams{Text: text}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Status returns the hosted session's state
func (c *Client) Status(ctx context.Context) (*StatusResult, error) {
	var result StatusResult
	if err := c.Call(ctx, "session.status", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History returns every message of the hosted session
func (c *Client) History(ctx context.Context) (*HistoryResult, error) {
	var result HistoryResult
	if err := c.Call(ctx, "session.history", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Personas lists the roster
func (c *Client) Personas(ctx context.Context) ([]PersonaInfo, error) {
	var result []PersonaInfo
	if err := c.Call(ctx, "personas.list", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Close releases idle connections
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}
