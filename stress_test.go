// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyedchan_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/keyedchan"
	"github.com/stretchr/testify/require"
)

// TestReleaseThenRetryAcrossProducers is scenario 6: ten same-keyed
// messages are enqueued, then a later producer enqueues a differently
// keyed message. The consumer must skip to the disjoint message by
// FIFO-modulo-conflict, then recover the held-back same-keyed messages
// one at a time as each is released.
func TestReleaseThenRetryAcrossProducers(t *testing.T) {
	s, r := keyedchan.NewSync[string, int](10)
	defer s.Close()
	defer r.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Send(keyedchan.SingleKey("k1", i)))
	}

	first, err := r.Recv()
	require.NoError(t, err)
	require.Equal(t, 0, first.Value())

	_, err = r.TryRecv()
	require.True(t, keyedchan.IsAllConflict(err), "remaining messages all share k1 with the held message")

	require.NoError(t, s.Send(keyedchan.SingleKey("k2", 100)))

	k2, err := r.Recv()
	require.NoError(t, err, "the disjoint k2 message should be deliverable by FIFO-modulo-conflict")
	require.Equal(t, 100, k2.Value())
	k2.Release()

	held := first
	for i := 1; i < 10; i++ {
		held.Release()
		held, err = r.Recv()
		require.NoErrorf(t, err, "recv #%d after release", i)
		require.Equal(t, i, held.Value())
	}
	held.Release()
}

// TestConcurrentSendersAndOneReceiverUnderMultiKeyConflict stresses the
// buffer with many producers sharing a small key alphabet, checking
// only the invariants that must hold regardless of schedule: no value
// is ever delivered more than once, and recv never panics or deadlocks.
func TestConcurrentSendersAndOneReceiverUnderMultiKeyConflict(t *testing.T) {
	const producers = 50
	const perProducer = 40
	const total = producers * perProducer

	s, r := keyedchan.NewSync[int, int](64)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			handle := s.Clone()
			defer handle.Close()
			for i := 0; i < perProducer; i++ {
				key := (p*perProducer + i) % 7 // small alphabet forces frequent conflicts
				require.NoError(t, handle.Send(keyedchan.MultipleKeys([]int{key, key + 100}, p*perProducer+i)))
			}
		}(p)
	}
	s.Close()

	seen := make(map[int]bool, total)
	for i := 0; i < total; i++ {
		msg, err := r.Recv()
		for keyedchan.IsAllConflict(err) {
			msg, err = r.Recv()
		}
		require.NoError(t, err)
		v := msg.Value()
		require.Falsef(t, seen[v], "value %d delivered more than once", v)
		seen[v] = true
		msg.Release()
	}
	wg.Wait()
	r.Close()
	require.Len(t, seen, total)
}
