// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyedchan

import (
	"context"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// sema is the admission semaphore backing the cooperative-suspension
// channel variant: a counting semaphore whose permit count starts at
// the channel's capacity. The common, uncontended case is a lock-free
// CAS fast path modeled on the teacher's FAA/CAS retry loops; a waiter
// that finds no permit available registers on a channel and suspends,
// honoring ctx cancellation.
type sema struct {
	_       pad
	permits atomix.Int64
	_       pad
	mu      sync.Mutex
	waiters []chan struct{}
}

func newSema(n int) *sema {
	s := &sema{}
	s.permits.Store(int64(n))
	return s
}

// tryAcquire attempts the lock-free fast path. It never suspends.
func (s *sema) tryAcquire() bool {
	sw := spin.Wait{}
	for {
		cur := s.permits.LoadAcquire()
		if cur <= 0 {
			return false
		}
		if s.permits.CompareAndSwapAcqRel(cur, cur-1) {
			return true
		}
		sw.Once()
	}
}

// acquire suspends the calling goroutine until a permit is available or
// ctx is done. Cancellation never leaks a permit: if a permit was
// handed to this waiter concurrently with cancellation, it is returned
// to the pool before acquire reports ctx's error.
func (s *sema) acquire(ctx context.Context) error {
	if s.tryAcquire() {
		return nil
	}
	s.mu.Lock()
	if s.tryAcquire() {
		s.mu.Unlock()
		return nil
	}
	ch := make(chan struct{}, 1)
	s.waiters = append(s.waiters, ch)
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		s.cancelWait(ch)
		return ctx.Err()
	}
}

func (s *sema) cancelWait(ch chan struct{}) {
	s.mu.Lock()
	for i, w := range s.waiters {
		if w == ch {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			s.mu.Unlock()
			return
		}
	}
	s.mu.Unlock()
	// already handed a permit to us by release(); give it back.
	select {
	case <-ch:
		s.release()
	default:
	}
}

// release returns one unit of admission capacity. If a waiter is
// queued, the permit is handed to it directly rather than published
// through the counter, so a concurrent tryAcquire cannot steal it out
// from under a waiter that has been waiting longer.
//
// Both branches below run to completion while s.mu is held, not just
// the dequeue-and-handoff one: ch has capacity 1 and is only ever sent
// to once, so the send cannot block, and holding the lock across it
// makes "remove w from waiters" and "w now holds a permit" a single
// atomic step from cancelWait's point of view. The no-waiters branch
// needs the same treatment for a different reason: acquire checks
// tryAcquire and, on failure, registers a waiter all while holding
// s.mu. Publishing the incremented counter after unlocking would open
// a window where a concurrent acquire sees len(s.waiters)==0, takes
// s.mu, fails its own tryAcquire because the CAS hasn't landed yet,
// and queues itself — only for this release's permit to land in the
// counter a moment later instead of being handed to the new waiter,
// which then has no guaranteed wakeup. Keeping s.mu held across the
// CAS closes that gap the same way it closes the handoff one.
func (s *sema) release() {
	s.mu.Lock()
	if len(s.waiters) > 0 {
		w := s.waiters[0]
		s.waiters = s.waiters[1:]
		w <- struct{}{}
		s.mu.Unlock()
		return
	}

	sw := spin.Wait{}
	for {
		cur := s.permits.LoadAcquire()
		if s.permits.CompareAndSwapAcqRel(cur, cur+1) {
			break
		}
		sw.Once()
	}
	s.mu.Unlock()
}
