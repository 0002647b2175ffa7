package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RPCError is a JSON-RPC error object returned by a fake handler.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RPCRequest is a request observed by the fake server.
type RPCRequest struct {
	Method string
	Params []json.RawMessage
}

type RPCHandler func(params []json.RawMessage) (interface{}, *RPCError)

// RPCServer is an in-process JSON-RPC 2.0 endpoint for client tests.
type RPCServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]RPCHandler
	requests []RPCRequest
}

func NewRPCServer(t *testing.T) *RPCServer {
	s := &RPCServer{
		handlers: make(map[string]RPCHandler),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle registers the handler for method, replacing any previous one.
func (s *RPCServer) Handle(method string, h RPCHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// Result registers a handler that always returns v.
func (s *RPCServer) Result(method string, v interface{}) {
	s.Handle(method, func([]json.RawMessage) (interface{}, *RPCError) {
		return v, nil
	})
}

// Requests returns the requests made for method, in arrival order.
func (s *RPCServer) Requests(method string) []RPCRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []RPCRequest
	for _, r := range s.requests {
		if r.Method == method {
			matched = append(matched, r)
		}
	}
	return matched
}

func (s *RPCServer) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, RPCRequest{Method: req.Method, Params: req.Params})
	h, ok := s.handlers[req.Method]
	s.mu.Unlock()

	resp := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
	}
	if !ok {
		resp["error"] = RPCError{Code: -32601, Message: "Method not found"}
	} else if result, rpcErr := h(req.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
