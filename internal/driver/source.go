// Package driver runs a topology: it owns the external call sequence
// Init → {Process|Punctuate}* → Close, serializes it on the topology, pulls
// records from a Source and fires punctuation on a schedule.
package driver

import (
	"sync"
)

// Record is one key/value pair flowing through a topology.
type Record struct {
	Key   any
	Value any
}

// Source yields records until its channel is closed.
type Source interface {
	// Records returns the channel records arrive on. The channel is closed
	// when the source is exhausted or closed.
	Records() <-chan Record

	// Close releases the source. Safe to call more than once.
	Close() error
}

// ChannelSource is an in-process Source fed by the caller. Useful for tests
// and demo input.
type ChannelSource struct {
	ch        chan Record
	closeOnce sync.Once
}

// NewChannelSource creates a source with the given buffer size.
func NewChannelSource(buffer int) *ChannelSource {
	return &ChannelSource{ch: make(chan Record, buffer)}
}

// Send enqueues one record. Must not be called after Close.
func (s *ChannelSource) Send(key, value any) {
	s.ch <- Record{Key: key, Value: value}
}

// Records implements Source.
func (s *ChannelSource) Records() <-chan Record { return s.ch }

// Close implements Source. It closes the record channel, draining the run
// loop.
func (s *ChannelSource) Close() error {
	s.closeOnce.Do(func() { close(s.ch) })
	return nil
}
