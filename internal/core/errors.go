package core

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrCompletionTransport wraps any failed exchange with the chat completions endpoint.
	ErrCompletionTransport = errors.New("chat completion request failed")
	// ErrMalformedCompletion is returned when the response has no choices[0].message.content.
	ErrMalformedCompletion = errors.New("invalid response format from chat completion")
)
