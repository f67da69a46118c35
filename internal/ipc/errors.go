package ipc

import "errors"

var (
	// ErrChannelStarted is returned when the registration phase is already
	// over: registering an endpoint, swapping the handler, or calling Start
	// a second time.
	ErrChannelStarted = errors.New("channel already started")

	// ErrTooManyEndpoints is returned by Register past the configured limit.
	ErrTooManyEndpoints = errors.New("endpoint limit reached")

	// ErrNoHandler is returned by Start when no handler was set.
	ErrNoHandler = errors.New("channel has no handler")

	// ErrEmptyCommand marks a request with no command text. On the consumer
	// side it rejects the call; on the provider side it is a protocol
	// violation that closes the endpoint.
	ErrEmptyCommand = errors.New("empty command")

	// ErrTrailingNewline rejects commands carrying their own terminator.
	// The call layer appends exactly one newline itself; a second one
	// produces a malformed request the provider would never answer.
	ErrTrailingNewline = errors.New("command has trailing newline")

	// ErrLineTooLong marks a physical request line that reached MaxLineBytes
	// without a newline.
	ErrLineTooLong = errors.New("request line too long")

	// ErrBodyTimeout marks a heredoc body whose next line did not arrive
	// within the body timeout.
	ErrBodyTimeout = errors.New("heredoc body timed out")
)
