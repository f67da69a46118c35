package ipc

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattjoyce/relay/internal/protocol"
)

// DefaultReplyTimeout bounds how long a consumer call waits for its reply.
const DefaultReplyTimeout = 2 * time.Second

// Run formats a command from a template and arguments, sends it on ep, and
// blocks for the framed reply under DefaultReplyTimeout.
//
// Run appends the single newline terminator itself; a command ending in a
// newline is rejected. Interior newlines are fine and are how heredoc
// requests are sent:
//
//	ipc.Run(ep, "param.set %s << EOF\n%s\nEOF", name, value)
//
// Any write or decode failure, timeout included, closes the endpoint: after a
// missed deadline the stream can no longer be trusted to be frame-aligned.
// The returned answer is the caller's own copy.
func Run(ep *Endpoint, format string, args ...any) (protocol.Reply, error) {
	return RunTimeout(ep, DefaultReplyTimeout, format, args...)
}

// RunTimeout is Run with an explicit reply deadline.
func RunTimeout(ep *Endpoint, timeout time.Duration, format string, args ...any) (protocol.Reply, error) {
	cmd := fmt.Sprintf(format, args...)
	if cmd == "" {
		return protocol.Reply{}, ErrEmptyCommand
	}
	if strings.HasSuffix(cmd, "\n") {
		return protocol.Reply{}, ErrTrailingNewline
	}

	ep.setDeadline(time.Now().Add(timeout))
	defer ep.setDeadline(time.Time{})

	if _, err := ep.Write([]byte(cmd + "\n")); err != nil {
		_ = ep.Close()
		return protocol.Reply{}, fmt.Errorf("write command: %w", err)
	}

	reply, err := protocol.ReadReply(ep.br)
	if err != nil {
		_ = ep.Close()
		return protocol.Reply{}, fmt.Errorf("read reply: %w", err)
	}
	return reply, nil
}
