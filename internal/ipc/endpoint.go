package ipc

import (
	"bufio"
	"net"
	"sync"
	"time"
)

// Endpoint is one side of a connected duplex byte-stream pair. The provider
// side lives inside a Channel; the consumer side is handed out by Register and
// owned by the registering caller.
type Endpoint struct {
	conn net.Conn
	br   *bufio.Reader

	closeOnce sync.Once
	closeErr  error
}

func newEndpoint(conn net.Conn) *Endpoint {
	return &Endpoint{
		conn: conn,
		br:   bufio.NewReader(conn),
	}
}

// newEndpointPair creates a connected duplex pair, provider side first.
func newEndpointPair() (*Endpoint, *Endpoint) {
	pc, cc := net.Pipe()
	return newEndpoint(pc), newEndpoint(cc)
}

// Read reads buffered bytes from the stream.
func (e *Endpoint) Read(p []byte) (int, error) {
	return e.br.Read(p)
}

// Write writes bytes to the stream.
func (e *Endpoint) Write(p []byte) (int, error) {
	return e.conn.Write(p)
}

// Close closes the underlying stream. Safe to call more than once.
func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() {
		e.closeErr = e.conn.Close()
	})
	return e.closeErr
}

func (e *Endpoint) setDeadline(t time.Time) {
	_ = e.conn.SetDeadline(t)
}

func (e *Endpoint) setReadDeadline(t time.Time) {
	_ = e.conn.SetReadDeadline(t)
}
