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

// syncShared is the thread-blocking channel core. Two condition
// variables attached to one mutex: full for producers waiting on a
// free slot, empty for the consumer waiting on a non-empty buffer.
type syncShared[K comparable, V any] struct {
	mu    sync.Mutex
	full  *sync.Cond
	empty *sync.Cond
	state channelState[K, V]
}

func newSyncShared[K comparable, V any](cap int) *syncShared[K, V] {
	s := &syncShared[K, V]{
		state: channelState[K, V]{buffer: newKeyedBuffer[K, V](cap), nSenders: 1},
	}
	s.full = sync.NewCond(&s.mu)
	s.empty = sync.NewCond(&s.mu)
	return s
}

func (s *syncShared[K, V]) send(msg Message[K, V]) error {
	s.mu.Lock()
	for s.state.buffer.isFull() && !s.state.disconnected {
		s.full.Wait()
	}
	if s.state.disconnected {
		s.mu.Unlock()
		return &SendError[K, V]{Message: msg}
	}
	s.state.buffer.pushBack(queueItem[K, V]{msg: msg})
	s.mu.Unlock()
	s.empty.Signal()
	return nil
}

func (s *syncShared[K, V]) trySend(msg Message[K, V]) error {
	s.mu.Lock()
	if s.state.disconnected {
		s.mu.Unlock()
		return &SendError[K, V]{Message: msg}
	}
	if s.state.buffer.isFull() {
		s.mu.Unlock()
		return ErrWouldBlock
	}
	s.state.buffer.pushBack(queueItem[K, V]{msg: msg})
	s.mu.Unlock()
	s.empty.Signal()
	return nil
}

func (s *syncShared[K, V]) recv() (Message[K, V], error) {
	s.mu.Lock()
	if s.state.buffer.isEmpty() && !s.state.disconnected {
		s.empty.Wait()
	}
	if s.state.buffer.isEmpty() && s.state.disconnected {
		s.mu.Unlock()
		return Message[K, V]{}, ErrDisconnected
	}
	item, ok := s.state.buffer.popUnconflictFront()
	s.mu.Unlock()
	if !ok {
		return Message[K, V]{}, ErrAllConflict
	}
	s.full.Signal()
	item.msg.attach(s)
	return item.msg, nil
}

func (s *syncShared[K, V]) tryRecv() (Message[K, V], error) {
	s.mu.Lock()
	if s.state.buffer.isEmpty() {
		disconnected := s.state.disconnected
		s.mu.Unlock()
		if disconnected {
			return Message[K, V]{}, ErrDisconnected
		}
		return Message[K, V]{}, ErrWouldBlock
	}
	item, ok := s.state.buffer.popUnconflictFront()
	s.mu.Unlock()
	if !ok {
		return Message[K, V]{}, ErrAllConflict
	}
	s.full.Signal()
	item.msg.attach(s)
	return item.msg, nil
}

// release is the Message back-reference target: deactivating a key can
// unblock an earlier-queued message but does not itself wake the
// consumer, who either observes the rewind on its next recv or is
// already woken by a future send or disconnect.
func (s *syncShared[K, V]) release(keys []K) {
	s.mu.Lock()
	for _, k := range keys {
		s.state.buffer.deactivate(k)
	}
	s.mu.Unlock()
}

func (s *syncShared[K, V]) cloneSender() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.nSenders == 0 {
		panic("keyedchan: sender count overflow on a disconnected channel")
	}
	s.state.nSenders++
}

func (s *syncShared[K, V]) dropSender() {
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
		s.empty.Signal()
	}
}

func (s *syncShared[K, V]) dropReceiver() {
	s.mu.Lock()
	s.state.disconnected = true
	s.mu.Unlock()
	s.full.Broadcast()
}

// syncSender is the public handle around syncShared.
type syncSender[K comparable, V any] struct {
	inner  *syncShared[K, V]
	closed atomix.Bool
}

func (s *syncSender[K, V]) Send(msg Message[K, V]) error { return s.inner.send(msg) }

func (s *syncSender[K, V]) SendContext(_ context.Context, msg Message[K, V]) error {
	return s.inner.send(msg)
}

func (s *syncSender[K, V]) TrySend(msg Message[K, V]) error { return s.inner.trySend(msg) }

func (s *syncSender[K, V]) Clone() Sender[K, V] {
	s.inner.cloneSender()
	clone := &syncSender[K, V]{inner: s.inner}
	runtime.SetFinalizer(clone, (*syncSender[K, V]).finalize)
	return clone
}

func (s *syncSender[K, V]) Close() {
	if s.closed.CompareAndSwapAcqRel(false, true) {
		runtime.SetFinalizer(s, nil)
		s.inner.dropSender()
	}
}

func (s *syncSender[K, V]) finalize() {
	if s.closed.CompareAndSwapAcqRel(false, true) {
		slog.Warn("keyedchan: sender finalized without explicit Close")
		s.inner.dropSender()
	}
}

// syncReceiver is the public handle around syncShared.
type syncReceiver[K comparable, V any] struct {
	inner  *syncShared[K, V]
	closed atomix.Bool
}

func (r *syncReceiver[K, V]) Recv() (Message[K, V], error) { return r.inner.recv() }

func (r *syncReceiver[K, V]) RecvContext(_ context.Context) (Message[K, V], error) {
	return r.inner.recv()
}

func (r *syncReceiver[K, V]) TryRecv() (Message[K, V], error) { return r.inner.tryRecv() }

func (r *syncReceiver[K, V]) Close() {
	if r.closed.CompareAndSwapAcqRel(false, true) {
		runtime.SetFinalizer(r, nil)
		r.inner.dropReceiver()
	}
}

func (r *syncReceiver[K, V]) finalize() {
	if r.closed.CompareAndSwapAcqRel(false, true) {
		slog.Warn("keyedchan: receiver finalized without explicit Close")
		r.inner.dropReceiver()
	}
}

// NewSync creates a thread-blocking keyed channel with the given
// capacity. Panics if cap <= 0.
func NewSync[K comparable, V any](cap int) (Sender[K, V], Receiver[K, V]) {
	if cap <= 0 {
		panic("keyedchan: capacity must be > 0")
	}
	shared := newSyncShared[K, V](cap)

	s := &syncSender[K, V]{inner: shared}
	runtime.SetFinalizer(s, (*syncSender[K, V]).finalize)

	r := &syncReceiver[K, V]{inner: shared}
	runtime.SetFinalizer(r, (*syncReceiver[K, V]).finalize)

	return s, r
}
