// Package zbxtest provides a mock Zabbix JSON-RPC API for tests
package zbxtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	tcgerr "github.com/gwos/zbxctl/sdk/errors"
)

// Token is the session token issued by the mock on user.login
const Token = "0424bd59b807674191e7d77572075f33"

// Call records a JSON-RPC request received by the mock
type Call struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Auth   string          `json:"auth"`
	ID     any             `json:"id"`

	Body   []byte      `json:"-"`
	Header http.Header `json:"-"`
}

// Handler returns result or error object for method params
type Handler func(params json.RawMessage) (any, *tcgerr.RPCError)

// MockAPI represents a mock implementation of api_jsonrpc.php
type MockAPI struct {
	// Server handles JSON-RPC POST requests on any path.
	Server *httptest.Server

	// URL is the endpoint of the mock, including protocol.
	URL string

	mu       sync.Mutex
	calls    []Call
	handlers map[string]Handler
}

// NewMockAPI starts mock with user.login and user.logout handlers
func NewMockAPI() *MockAPI {
	m := &MockAPI{handlers: make(map[string]Handler)}
	m.Handle("user.login", func(json.RawMessage) (any, *tcgerr.RPCError) {
		return Token, nil
	})
	m.Handle("user.logout", func(json.RawMessage) (any, *tcgerr.RPCError) {
		return true, nil
	})
	m.Server = httptest.NewServer(http.HandlerFunc(m.serveHTTP))
	m.URL = m.Server.URL + "/api_jsonrpc.php"
	return m
}

// Close shuts down the mock
func (m *MockAPI) Close() {
	m.Server.Close()
}

// Handle sets handler for method
func (m *MockAPI) Handle(method string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method] = h
}

// HandleResult sets handler returning fixed result for method
func (m *MockAPI) HandleResult(method string, result any) {
	m.Handle(method, func(json.RawMessage) (any, *tcgerr.RPCError) {
		return result, nil
	})
}

// Calls returns recorded requests in order
func (m *MockAPI) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call{}, m.calls...)
}

// Methods returns methods of recorded requests in order
func (m *MockAPI) Methods() []string {
	var methods []string
	for _, c := range m.Calls() {
		methods = append(methods, c.Method)
	}
	return methods
}

// LastCall returns the last recorded request of method
func (m *MockAPI) LastCall(method string) (Call, bool) {
	calls := m.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Method == method {
			return calls[i], true
		}
	}
	return Call{}, false
}

func (m *MockAPI) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var call Call
	if err := json.Unmarshal(body, &call); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	call.Body, call.Header = body, r.Header.Clone()

	m.mu.Lock()
	m.calls = append(m.calls, call)
	h, ok := m.handlers[call.Method]
	m.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": call.ID}
	if !ok {
		resp["error"] = &tcgerr.RPCError{Code: -32601, Message: "Method not found.", Data: call.Method}
	} else if result, rpcErr := h(call.Params); rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
