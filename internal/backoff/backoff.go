// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package backoff re-exports the teacher's iox.Backoff retry pattern
// for TrySend/TryRecv retry loops, the non-blocking counterpart to
// Send/Recv's internal suspension.
package backoff

import "code.hybscloud.com/iox"

// Backoff wraps iox.Backoff for retrying a non-blocking TrySend/TryRecv
// call after ErrWouldBlock or ErrAllConflict.
//
//	var bo backoff.Backoff
//	for {
//	    msg, err := r.TryRecv()
//	    if err == nil {
//	        bo.Reset()
//	        return msg, nil
//	    }
//	    if !keyedchan.IsRetryable(err) {
//	        return keyedchan.Message[K, V]{}, err
//	    }
//	    bo.Wait()
//	}
type Backoff struct {
	inner iox.Backoff
}

// Wait backs off before the next retry.
func (b *Backoff) Wait() { b.inner.Wait() }

// Reset clears accumulated backoff after a successful attempt.
func (b *Backoff) Reset() { b.inner.Reset() }
