// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyedchan

// options configures channel creation.
type options struct {
	capacity int
	async    bool
}

// Builder creates channels with fluent configuration.
//
// Builder provides a fluent API for configuring and creating a keyed
// channel. The variant (thread-blocking or cooperative-suspension) is
// selected with Async; the default is thread-blocking.
//
// Example:
//
//	// Thread-blocking channel (default)
//	s, r := keyedchan.Build[string, Order](keyedchan.New(256))
//
//	// Cooperative-suspension channel for use with context cancellation
//	s, r := keyedchan.Build[string, Order](keyedchan.New(256).Async())
type Builder struct {
	opts options
}

// New creates a channel builder with the given capacity.
//
// Panics if capacity <= 0.
func New(capacity int) *Builder {
	if capacity <= 0 {
		panic("keyedchan: capacity must be > 0")
	}
	return &Builder{opts: options{capacity: capacity}}
}

// Async selects the cooperative-suspension variant, whose Send/Recv
// honor context.Context cancellation while suspended.
func (b *Builder) Async() *Builder {
	b.opts.async = true
	return b
}

// Build creates a Sender/Receiver pair per the builder's configuration.
func Build[K comparable, V any](b *Builder) (Sender[K, V], Receiver[K, V]) {
	if b.opts.async {
		return NewAsync[K, V](b.opts.capacity)
	}
	return NewSync[K, V](b.opts.capacity)
}
