package errors

import (
	"fmt"
	"strings"
)

// RPCError describes the error object of a JSON-RPC response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Error implements error interface
func (e *RPCError) Error() string {
	if e.Data == "" {
		return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("rpc error %d: %s %s", e.Code, e.Message, e.Data)
}

// Unwrap makes RPCError comparable with errors.Is
// Zabbix reports expired sessions with code -32602 and a "re-login" hint in data
func (e *RPCError) Unwrap() error {
	s := strings.ToLower(e.Message + " " + e.Data)
	if strings.Contains(s, "not authori") ||
		strings.Contains(s, "session terminated") ||
		strings.Contains(s, "re-login") {
		return ErrUnauthorized
	}
	return ErrRPC
}
