package ipc

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// MaxLineBytes bounds every physical request line, heredoc body lines
// included. A line that reaches the bound without a newline is a protocol
// violation, never a truncation.
const MaxLineBytes = 1024

// heredocMark opens a multi-line body when it appears inside the first line
// of a request, as "<command> << <marker>".
const heredocMark = "<< "

// readLine reads one newline-terminated line from ep, newline stripped.
// Blocks under whatever deadline is currently set on the endpoint.
func readLine(ep *Endpoint) (string, error) {
	var sb strings.Builder
	for sb.Len() < MaxLineBytes {
		b, err := ep.br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			return sb.String(), nil
		}
		sb.WriteByte(b)
	}
	return "", ErrLineTooLong
}

// heredoc accumulates body lines until the terminator is observed. The
// terminator must match a whole line exactly; partial bodies are never
// exposed.
type heredoc struct {
	marker string
	body   strings.Builder
}

// append adds one physical line. Once done is true, body holds the complete
// accumulated text with line breaks preserved and the terminator excluded.
func (h *heredoc) append(line string) (body string, done bool) {
	if line == h.marker {
		return h.body.String(), true
	}
	h.body.WriteString(line)
	h.body.WriteByte('\n')
	return "", false
}

// heredocMarker extracts the marker if line opens a heredoc.
func heredocMarker(line string) (string, bool) {
	i := strings.Index(line, heredocMark)
	if i < 0 {
		return "", false
	}
	return line[i+len(heredocMark):], true
}

// readRequest frames one complete request from ep: either a single line or a
// heredoc body. The initial line blocks without a deadline; once a heredoc is
// open, every further line must arrive within bodyTimeout.
//
// The delivered text for a heredoc is the body alone, each line keeping its
// newline; the initiating line and the terminator never appear in it.
func readRequest(ep *Endpoint, bodyTimeout time.Duration) (string, error) {
	line, err := readLine(ep)
	if err != nil {
		return "", err
	}
	if line == "" {
		return "", ErrEmptyCommand
	}

	marker, ok := heredocMarker(line)
	if !ok {
		return line, nil
	}
	if marker == "" {
		return "", fmt.Errorf("%w: heredoc with empty marker", ErrEmptyCommand)
	}

	h := heredoc{marker: marker}
	for {
		ep.setReadDeadline(time.Now().Add(bodyTimeout))
		line, err := readLine(ep)
		ep.setReadDeadline(time.Time{})
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return "", ErrBodyTimeout
			}
			return "", err
		}

		body, done := h.append(line)
		if !done {
			continue
		}
		if body == "" {
			return "", fmt.Errorf("%w: heredoc with empty body", ErrEmptyCommand)
		}
		return body, nil
	}
}
