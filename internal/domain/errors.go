package domain

import "errors"

// Invocation failures. All of them end the invocation; none is retried.
var (
	// ErrIO covers missing, unreadable or unwritable exchange files.
	ErrIO = errors.New("io error")
	// ErrMalformedMessage means the message file is not a valid encoded Message.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrUnrecognizedMode means the mode argument is not a known operation.
	ErrUnrecognizedMode = errors.New("unrecognized mode")
)
