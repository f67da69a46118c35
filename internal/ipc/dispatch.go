package ipc

import (
	"context"

	"github.com/mattjoyce/relay/internal/protocol"
)

// inbound is one framed request handed from an endpoint reader to the
// dispatch goroutine. done carries the service-complete signal back so the
// reader only frames the next request once the reply is on the wire.
type inbound struct {
	ep   *Endpoint
	text string
	done chan struct{}
}

// Start ends the registration phase and begins serving requests: one reader
// goroutine per registered endpoint, one dispatch goroutine executing the
// handler. Non-blocking; use Stop to shut the channel down.
func (c *Channel) Start(ctx context.Context) error {
	if c.handler == nil {
		return ErrNoHandler
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrChannelStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.requests = make(chan inbound)

	c.wg.Add(1)
	go c.dispatch(ctx)

	for i, ep := range c.endpoints {
		c.wg.Add(1)
		go c.readFrom(ctx, i, ep)
	}

	c.logger.Info("channel started", "endpoints", len(c.endpoints))
	return nil
}

// Stop cancels the dispatch loop, closes every provider-side endpoint, and
// waits for the goroutines to unwind. Consumers still holding the far ends
// see their calls fail. The channel cannot be started again.
func (c *Channel) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	for _, ep := range c.endpoints {
		_ = ep.Close()
	}
	c.wg.Wait()
	c.logger.Info("channel stopped")
}

// readFrom frames requests from a single endpoint and feeds the dispatch
// goroutine. Any framing or read fault closes this endpoint only; the
// channel's other endpoints keep working.
func (c *Channel) readFrom(ctx context.Context, idx int, ep *Endpoint) {
	defer c.wg.Done()

	logger := c.logger.With("endpoint", idx)
	done := make(chan struct{}, 1)

	for {
		text, err := readRequest(ep, c.bodyTimeout)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("closing endpoint", "error", err)
				_ = ep.Close()
			}
			return
		}

		select {
		case c.requests <- inbound{ep: ep, text: text, done: done}:
		case <-ctx.Done():
			return
		}

		select {
		case <-done:
		case <-ctx.Done():
			return
		}
	}
}

// dispatch services framed requests strictly one at a time, in the order
// their framing completed: invoke the handler, write the reply on the same
// endpoint, release the reader.
func (c *Channel) dispatch(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case in := <-c.requests:
			reply := c.handler(c.priv, in.text)
			if err := protocol.WriteReply(in.ep, reply); err != nil {
				if ctx.Err() == nil {
					c.logger.Warn("reply write failed, closing endpoint", "error", err)
					_ = in.ep.Close()
				}
			}
			in.done <- struct{}{}
		}
	}
}
