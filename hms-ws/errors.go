package hmsws

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication is fatal to the connection; nothing is sent back.
	ErrAuthentication = errors.New("authentication failed")
	// ErrProtocol drops the offending event; the connection stays open.
	ErrProtocol = errors.New("protocol error")
	// ErrStorage is logged by the relay and never reaches recipients.
	ErrStorage = errors.New("storage failure")

	ErrNotAuthenticated = fmt.Errorf("%w: event received before authentication", ErrProtocol)
	ErrConnectionClosed = errors.New("connection closed")
	ErrSlowConsumer     = errors.New("send buffer full")
)

func protocolErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %v", ErrProtocol, fmt.Sprintf(format, args...))
}

func errorCode(err error) string {
	if errors.Is(err, ErrNotAuthenticated) {
		return CodeNotAuthenticated
	}
	return CodeProtocolError
}
