package ipc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattjoyce/relay/internal/log"
	"github.com/mattjoyce/relay/internal/protocol"
)

const (
	// DefaultMaxEndpoints bounds how many consumers a channel can serve.
	DefaultMaxEndpoints = 32

	// DefaultBodyTimeout bounds the wait for each heredoc body line once a
	// body is open.
	DefaultBodyTimeout = 5 * time.Second
)

// Handler answers one framed request. It runs on the channel's dispatch
// goroutine, strictly one request at a time, so it may touch priv without
// further locking as long as nothing outside the channel does.
type Handler func(priv any, request string) protocol.Reply

// Options configures a Channel. Zero values pick the defaults.
type Options struct {
	MaxEndpoints int
	BodyTimeout  time.Duration
}

// Channel is a provider's context: its endpoints, handler, and private state.
// Endpoints are registered during a single-threaded setup phase and are
// read-only once Start flips the started flag, so the dispatch goroutine
// iterates them without locking.
type Channel struct {
	name    string
	handler Handler
	priv    any

	maxEndpoints int
	bodyTimeout  time.Duration

	endpoints []*Endpoint
	started   atomic.Bool

	logger   *slog.Logger
	requests chan inbound
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewChannel creates an idle channel for the named provider.
func NewChannel(name string, opts Options) *Channel {
	if opts.MaxEndpoints <= 0 {
		opts.MaxEndpoints = DefaultMaxEndpoints
	}
	if opts.BodyTimeout <= 0 {
		opts.BodyTimeout = DefaultBodyTimeout
	}
	return &Channel{
		name:         name,
		maxEndpoints: opts.MaxEndpoints,
		bodyTimeout:  opts.BodyTimeout,
		logger:       log.WithChannel(name),
	}
}

// Name returns the provider name the channel was created with.
func (c *Channel) Name() string {
	return c.name
}

// SetHandler installs the command handler and its private state.
// Registration phase only.
func (c *Channel) SetHandler(h Handler, priv any) error {
	if c.started.Load() {
		return ErrChannelStarted
	}
	c.handler = h
	c.priv = priv
	return nil
}

// Register creates a connected endpoint pair, keeps the provider side, and
// returns the consumer side to the caller, who owns it from then on.
// Registration phase only; callers are single-threaded by construction.
func (c *Channel) Register() (*Endpoint, error) {
	if c.started.Load() {
		return nil, ErrChannelStarted
	}
	if len(c.endpoints) >= c.maxEndpoints {
		return nil, fmt.Errorf("%w: %s holds %d", ErrTooManyEndpoints, c.name, c.maxEndpoints)
	}

	provider, consumer := newEndpointPair()
	c.endpoints = append(c.endpoints, provider)
	return consumer, nil
}

// EndpointCount returns how many endpoints have been registered.
func (c *Channel) EndpointCount() int {
	return len(c.endpoints)
}
