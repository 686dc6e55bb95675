// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyedchan

import "context"

// Sender enqueues messages into a keyed channel. It is safe for
// concurrent use by multiple goroutines and clonable to grow the
// producer count; the channel disconnects only once every clone has
// been closed.
type Sender[K comparable, V any] interface {
	// Send blocks or suspends until a buffer slot is free or the
	// channel disconnects, in which case it returns a *SendError that
	// carries msg back to the caller.
	Send(msg Message[K, V]) error

	// SendContext is Send, additionally honoring ctx cancellation. The
	// thread-blocking variant has no way to interrupt a condition
	// variable wait and ignores ctx; it is provided for interface
	// parity with the cooperative-suspension variant.
	SendContext(ctx context.Context, msg Message[K, V]) error

	// TrySend attempts a single non-blocking send, returning
	// ErrWouldBlock if the buffer is currently full.
	TrySend(msg Message[K, V]) error

	// Clone returns a new handle sharing this channel; the channel
	// only disconnects once every sender clone has been closed.
	Clone() Sender[K, V]

	// Close releases this handle's share of the sender count. Safe to
	// call more than once.
	Close()
}

// Receiver dequeues messages from a keyed channel. It is not clonable
// and must not be used concurrently by more than one goroutine: the
// channel has exactly one consumer.
type Receiver[K comparable, V any] interface {
	// Recv blocks or suspends until a deliverable message is available
	// or the channel disconnects (ErrDisconnected). If the buffer is
	// non-empty but every message conflicts with an already-held key,
	// Recv returns ErrAllConflict immediately without waiting.
	Recv() (Message[K, V], error)

	// RecvContext is Recv, additionally honoring ctx cancellation. As
	// with SendContext, the thread-blocking variant ignores ctx.
	RecvContext(ctx context.Context) (Message[K, V], error)

	// TryRecv attempts a single non-blocking receive, returning
	// ErrWouldBlock if the buffer is currently empty (but not
	// disconnected).
	TryRecv() (Message[K, V], error)

	// Close latches the channel as disconnected so every blocked or
	// future Send observes it. Safe to call more than once.
	Close()
}
