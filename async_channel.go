// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyedchan

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"code.hybscloud.com/atomix"
)

// asyncShared is the cooperative-suspension channel core. Admission is
// a counting semaphore acquired before the lock; the consumer wait is a
// single-slot notifier armed before the buffer is inspected, avoiding
// the send-before-wait lost-wakeup the spec warns about.
type asyncShared[K comparable, V any] struct {
	mu     sync.Mutex
	state  channelState[K, V]
	slots  *sema
	notify *notifier
}

func newAsyncShared[K comparable, V any](cap int) *asyncShared[K, V] {
	return &asyncShared[K, V]{
		state:  channelState[K, V]{buffer: newKeyedBuffer[K, V](cap), nSenders: 1},
		slots:  newSema(cap),
		notify: newNotifier(),
	}
}

func (s *asyncShared[K, V]) send(ctx context.Context, msg Message[K, V]) error {
	if err := s.slots.acquire(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	if s.state.disconnected {
		s.mu.Unlock()
		s.slots.release()
		return &SendError[K, V]{Message: msg}
	}
	s.state.buffer.pushBack(queueItem[K, V]{msg: msg, permit: s.slots.release})
	s.mu.Unlock()
	s.notify.notify()
	return nil
}

func (s *asyncShared[K, V]) trySend(msg Message[K, V]) error {
	if !s.slots.tryAcquire() {
		return ErrWouldBlock
	}
	s.mu.Lock()
	if s.state.disconnected {
		s.mu.Unlock()
		s.slots.release()
		return &SendError[K, V]{Message: msg}
	}
	s.state.buffer.pushBack(queueItem[K, V]{msg: msg, permit: s.slots.release})
	s.mu.Unlock()
	s.notify.notify()
	return nil
}

// tryRecvOnce is one non-suspending attempt at delivery. ok is true
// only when a message was delivered; a nil err with ok false means the
// buffer is empty but the channel is not yet disconnected, i.e. the
// caller should wait for a wake-up (or, for TryRecv, report
// ErrWouldBlock).
func (s *asyncShared[K, V]) tryRecvOnce() (msg Message[K, V], ok bool, err error) {
	s.mu.Lock()
	if s.state.buffer.isEmpty() {
		disconnected := s.state.disconnected
		s.mu.Unlock()
		if disconnected {
			return Message[K, V]{}, false, ErrDisconnected
		}
		return Message[K, V]{}, false, nil
	}
	item, gotOne := s.state.buffer.popUnconflictFront()
	s.mu.Unlock()
	if !gotOne {
		return Message[K, V]{}, false, ErrAllConflict
	}
	if item.permit != nil {
		item.permit()
	}
	item.msg.attach(s)
	return item.msg, true, nil
}

func (s *asyncShared[K, V]) recv(ctx context.Context) (Message[K, V], error) {
	for {
		msg, ok, err := s.tryRecvOnce()
		if ok {
			return msg, nil
		}
		if err != nil {
			return Message[K, V]{}, err
		}
		if err := s.notify.wait(ctx); err != nil {
			return Message[K, V]{}, err
		}
	}
}

func (s *asyncShared[K, V]) tryRecv() (Message[K, V], error) {
	msg, ok, err := s.tryRecvOnce()
	if ok {
		return msg, nil
	}
	if err != nil {
		return Message[K, V]{}, err
	}
	return Message[K, V]{}, ErrWouldBlock
}

func (s *asyncShared[K, V]) release(keys []K) {
	s.mu.Lock()
	for _, k := range keys {
		s.state.buffer.deactivate(k)
	}
	s.mu.Unlock()
}

func (s *asyncShared[K, V]) cloneSender() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.nSenders == 0 {
		panic("keyedchan: sender count overflow on a disconnected channel")
	}
	s.state.nSenders++
}

func (s *asyncShared[K, V]) dropSender() {
	s.mu.Lock()
	if s.state.nSenders == 0 {
		s.mu.Unlock()
		panic("keyedchan: sender count underflow")
	}
	s.state.nSenders--
	last := s.state.nSenders == 0
	if last {
		s.state.disconnected = true
	}
	s.mu.Unlock()
	if last {
		s.notify.notify()
	}
}

// dropReceiver releases exactly one admission unit. That one release
// cascades: the first blocked producer it wakes observes disconnected
// and releases its own admission back in turn, waking the next, and so
// on until every blocked producer has returned SendError.
func (s *asyncShared[K, V]) dropReceiver() {
	s.mu.Lock()
	s.state.disconnected = true
	s.mu.Unlock()
	s.slots.release()
}

// asyncSender is the public handle around asyncShared.
type asyncSender[K comparable, V any] struct {
	inner  *asyncShared[K, V]
	closed atomix.Bool
}

func (s *asyncSender[K, V]) Send(msg Message[K, V]) error {
	return s.inner.send(context.Background(), msg)
}

func (s *asyncSender[K, V]) SendContext(ctx context.Context, msg Message[K, V]) error {
	return s.inner.send(ctx, msg)
}

func (s *asyncSender[K, V]) TrySend(msg Message[K, V]) error { return s.inner.trySend(msg) }

func (s *asyncSender[K, V]) Clone() Sender[K, V] {
	s.inner.cloneSender()
	clone := &asyncSender[K, V]{inner: s.inner}
	runtime.SetFinalizer(clone, (*asyncSender[K, V]).finalize)
	return clone
}

func (s *asyncSender[K, V]) Close() {
	if s.closed.CompareAndSwapAcqRel(false, true) {
		runtime.SetFinalizer(s, nil)
		s.inner.dropSender()
	}
}

func (s *asyncSender[K, V]) finalize() {
	if s.closed.CompareAndSwapAcqRel(false, true) {
		slog.Warn("keyedchan: sender finalized without explicit Close")
		s.inner.dropSender()
	}
}

// asyncReceiver is the public handle around asyncShared.
type asyncReceiver[K comparable, V any] struct {
	inner  *asyncShared[K, V]
	closed atomix.Bool
}

func (r *asyncReceiver[K, V]) Recv() (Message[K, V], error) {
	return r.inner.recv(context.Background())
}

func (r *asyncReceiver[K, V]) RecvContext(ctx context.Context) (Message[K, V], error) {
	return r.inner.recv(ctx)
}

func (r *asyncReceiver[K, V]) TryRecv() (Message[K, V], error) { return r.inner.tryRecv() }

func (r *asyncReceiver[K, V]) Close() {
	if r.closed.CompareAndSwapAcqRel(false, true) {
		runtime.SetFinalizer(r, nil)
		r.inner.dropReceiver()
	}
}

func (r *asyncReceiver[K, V]) finalize() {
	if r.closed.CompareAndSwapAcqRel(false, true) {
		slog.Warn("keyedchan: receiver finalized without explicit Close")
		r.inner.dropReceiver()
	}
}

// NewAsync creates a cooperative-suspension keyed channel with the
// given capacity. Panics if cap <= 0.
func NewAsync[K comparable, V any](cap int) (Sender[K, V], Receiver[K, V]) {
	if cap <= 0 {
		panic("keyedchan: capacity must be > 0")
	}
	shared := newAsyncShared[K, V](cap)

	s := &asyncSender[K, V]{inner: shared}
	runtime.SetFinalizer(s, (*asyncSender[K, V]).finalize)

	r := &asyncReceiver[K, V]{inner: shared}
	runtime.SetFinalizer(r, (*asyncReceiver[K, V]).finalize)

	return s, r
}
