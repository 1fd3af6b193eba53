package app

import "errors"

var (
	ErrMessageEmpty    = errors.New("message content is empty")
	ErrSessionNotFound = errors.New("session not found")
	ErrServiceClosed   = errors.New("chat service is closed")
)
