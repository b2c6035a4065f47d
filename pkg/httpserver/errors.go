package httpserver

import "errors"

var (
	// ErrStart indicates the listener could not be started.
	ErrStart = errors.New("httpserver: failed to start")
	// ErrShutdown indicates graceful shutdown did not complete.
	ErrShutdown = errors.New("httpserver: shutdown failed")
)
