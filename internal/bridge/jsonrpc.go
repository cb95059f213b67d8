// Package bridge is the stdio integration surface for capture plugins: a
// line-delimited JSON-RPC 2.0 server whose methods append events to a
// session. Editor and harness plugins speak this instead of shelling out
// to the CLI for every keystroke-sized append.
package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/blackwell-systems/assay/internal/session"
)

// Server reads JSON-RPC requests from r and writes responses to w. Every
// recording method targets the single session the bridge was opened for.
type Server struct {
	svc       *session.Service
	sessionID string
	handlers  map[string]handler
	version   string
}

// handler is the signature for bridge method handlers.
type handler func(ctx context.Context, params json.RawMessage) (any, error)

// jsonrpcRequest is a JSON-RPC 2.0 request message.
type jsonrpcRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

// jsonrpcResponse is a JSON-RPC 2.0 response message.
type jsonrpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *jsonrpcError    `json:"error,omitempty"`
}

// jsonrpcError represents a JSON-RPC 2.0 error object.
type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewServer constructs a bridge bound to one session.
func NewServer(svc *session.Service, sessionID, version string) *Server {
	s := &Server{
		svc:       svc,
		sessionID: sessionID,
		handlers:  make(map[string]handler),
		version:   version,
	}
	addMethods(s)
	return s
}

func (s *Server) register(method string, h handler) {
	s.handlers[method] = h
}

// Run blocks, reading JSON-RPC 2.0 messages from r and writing responses
// to w, until ctx is cancelled or r returns EOF. Returns nil on clean
// shutdown, or a non-nil error for unexpected I/O failures.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	bw := bufio.NewWriter(w)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineCh := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		for scanner.Scan() {
			select {
			case lineCh <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errCh <- err
		}
		close(lineCh)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		case line, ok := <-lineCh:
			if !ok {
				// EOF, clean shutdown.
				return nil
			}
			if err := s.handleLine(ctx, line, bw); err != nil {
				return err
			}
		}
	}
}

// handleLine processes a single JSON-RPC line and writes the response.
func (s *Server) handleLine(ctx context.Context, line string, bw *bufio.Writer) error {
	var req jsonrpcRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return s.writeError(bw, nil, -32700, "Parse error")
	}

	// Notifications (no id) get no response.
	if req.ID == nil {
		return nil
	}

	h, ok := s.handlers[req.Method]
	if !ok {
		return s.writeError(bw, req.ID, -32601, "Method not found")
	}

	params := req.Params
	if params == nil {
		params = json.RawMessage(`{}`)
	}

	result, err := h(ctx, params)
	if err != nil {
		// Recording errors are the caller's to handle; the bridge stays up.
		return s.writeError(bw, req.ID, -32000, err.Error())
	}

	return s.writeResponse(bw, jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	})
}

func (s *Server) writeError(bw *bufio.Writer, id *json.RawMessage, code int, message string) error {
	return s.writeResponse(bw, jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &jsonrpcError{Code: code, Message: message},
	})
}

// writeResponse marshals resp as a single JSON line and flushes the writer.
func (s *Server) writeResponse(bw *bufio.Writer, resp jsonrpcResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := bw.Write(data); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}
