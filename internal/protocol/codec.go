package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxHeaderBytes bounds the status+length header line. A valid header is two
// decimal integers and a space; anything longer is garbage on the stream.
const maxHeaderBytes = 64

// WriteReply encodes a reply frame to w: a header line "<status> <length>\n",
// the answer bytes, and a closing newline.
func WriteReply(w io.Writer, r Reply) error {
	if r.Status < 0 {
		return fmt.Errorf("invalid reply status: %d", r.Status)
	}

	if _, err := fmt.Fprintf(w, "%d %d\n", r.Status, len(r.Answer)); err != nil {
		return fmt.Errorf("write reply header: %w", err)
	}
	if _, err := io.WriteString(w, r.Answer); err != nil {
		return fmt.Errorf("write reply answer: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("write reply trailer: %w", err)
	}
	return nil
}

// ReadReply decodes one reply frame from br. The returned answer is an
// independent copy owned by the caller.
// Returns an error if the header is malformed, the answer is short, or the
// closing newline is missing.
func ReadReply(br *bufio.Reader) (Reply, error) {
	header, err := readHeaderLine(br)
	if err != nil {
		return Reply{}, err
	}

	fields := strings.Fields(header)
	if len(fields) != 2 {
		return Reply{}, fmt.Errorf("malformed reply header %q", header)
	}

	status, err := strconv.Atoi(fields[0])
	if err != nil {
		return Reply{}, fmt.Errorf("malformed reply status %q: %w", fields[0], err)
	}
	length, err := strconv.Atoi(fields[1])
	if err != nil || length < 0 {
		return Reply{}, fmt.Errorf("malformed reply length %q", fields[1])
	}

	answer := make([]byte, length)
	if _, err := io.ReadFull(br, answer); err != nil {
		return Reply{}, fmt.Errorf("read reply answer (%d bytes): %w", length, err)
	}

	trailer, err := br.ReadByte()
	if err != nil {
		return Reply{}, fmt.Errorf("read reply trailer: %w", err)
	}
	if trailer != '\n' {
		return Reply{}, fmt.Errorf("reply missing trailing newline, got %q", trailer)
	}

	return Reply{Status: status, Answer: string(answer)}, nil
}

// readHeaderLine reads up to the first newline, bounded at maxHeaderBytes.
func readHeaderLine(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for sb.Len() < maxHeaderBytes {
		b, err := br.ReadByte()
		if err != nil {
			return "", fmt.Errorf("read reply header: %w", err)
		}
		if b == '\n' {
			return sb.String(), nil
		}
		sb.WriteByte(b)
	}
	return "", fmt.Errorf("reply header exceeds %d bytes", maxHeaderBytes)
}
