// ABOUTME: Sequence number generator for outgoing protocol messages
// ABOUTME: Encodes content/ack in the low bit and the content count in the rest

package seqno

import "sync"

// Observer is notified with every sequence number handed out.
type Observer func(seq uint64, contentRelated bool)

// Generator produces sequence numbers for one live connection.
// It is safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	sent     uint64
	observer Observer
}

// Option configures a Generator.
type Option func(*Generator)

// WithObserver registers a callback invoked after each Next call.
func WithObserver(obs Observer) Option {
	return func(g *Generator) {
		g.observer = obs
	}
}

// New creates a generator with a zero counter.
func New(opts ...Option) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns the sequence number for the next outgoing message.
// Only content-related messages advance the counter.
func (g *Generator) Next(contentRelated bool) uint64 {
	g.mu.Lock()
	seq := g.sent * 2
	if contentRelated {
		seq++
		g.sent++
	}
	obs := g.observer
	g.mu.Unlock()

	if obs != nil {
		obs(seq, contentRelated)
	}
	return seq
}

// Sent reports how many content-related sequence numbers have been issued.
func (g *Generator) Sent() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sent
}

// Reset zeroes the counter, as for a freshly established connection.
func (g *Generator) Reset() {
	g.mu.Lock()
	g.sent = 0
	g.mu.Unlock()
}
