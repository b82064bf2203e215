// Package errors defines the error taxonomy of Zabbix API calls.
// Transient errors may succeed on the next run, permanent errors may not.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"syscall"
)

// define codes for MSWindows errors
const (
	WSAECONNABORTED syscall.Errno = 10053
	WSAECONNRESET   syscall.Errno = 10054
	WSAETIMEDOUT    syscall.Errno = 10060
	WSAECONNREFUSED syscall.Errno = 10061
)

var (
	ErrPermanent = errors.New("permanent error")
	ErrTransient = errors.New("transient error")

	// ErrGateway reports 502, 503 and 504 responses of the proxy in front of API
	ErrGateway = fmt.Errorf("%w: %v", ErrTransient, "gateway error")
	// ErrUnauthorized reports rejected or expired session
	ErrUnauthorized = fmt.Errorf("%w: %v", ErrPermanent, "unauthorized")
	// ErrUndecided reports unexpected HTTP status
	ErrUndecided = fmt.Errorf("%w: %v", ErrPermanent, "undecided error")

	ErrBadRequest = fmt.Errorf("%w: %v", ErrPermanent, "bad request")
	ErrDecode     = fmt.Errorf("%w: %v", ErrPermanent, "could not decode response")
	ErrNotFound   = fmt.Errorf("%w: %v", ErrPermanent, "not found")
	ErrRPC        = fmt.Errorf("%w: %v", ErrPermanent, "api error")
)

// errno pairs the posix code with the MSWindows one
type errno struct {
	posix, windows syscall.Errno
}

var (
	errnoConnAborted = errno{syscall.ECONNABORTED, WSAECONNABORTED}
	errnoConnRefused = errno{syscall.ECONNREFUSED, WSAECONNREFUSED}
	errnoConnReset   = errno{syscall.ECONNRESET, WSAECONNRESET}
	errnoTimedOut    = errno{syscall.ETIMEDOUT, WSAETIMEDOUT}
)

func (e errno) is(err error) bool {
	if runtime.GOOS == "windows" {
		return errors.Is(err, e.windows)
	}
	return errors.Is(err, e.posix)
}

// IsErrorConnection verifies error
func IsErrorConnection(err error) bool {
	return IsErrorConnectionAborted(err) ||
		IsErrorConnectionRefused(err) ||
		IsErrorConnectionReset(err)
}

// IsErrorConnectionAborted verifies error
func IsErrorConnectionAborted(err error) bool { return errnoConnAborted.is(err) }

// IsErrorConnectionRefused verifies error
func IsErrorConnectionRefused(err error) bool { return errnoConnRefused.is(err) }

// IsErrorConnectionReset verifies error
func IsErrorConnectionReset(err error) bool { return errnoConnReset.is(err) }

// IsErrorTimedOut verifies error, also matches client and context deadlines
func IsErrorTimedOut(err error) bool {
	if err == nil {
		return false
	}
	if errnoTimedOut.is(err) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "deadline") ||
		strings.Contains(s, "timeout")
}

// IsTransient returns true if the same call may succeed later
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
