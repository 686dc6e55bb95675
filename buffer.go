// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyedchan

// queueItem is what the keyed buffer actually stores: a message plus,
// for the asynchronous variant, the slot permit acquired for it. permit
// is nil for the thread-blocking variant, whose admission is expressed
// as a condition-variable wait rather than a carried token.
type queueItem[K comparable, V any] struct {
	msg    Message[K, V]
	permit func()
}

func (q queueItem[K, V]) keySet() keySet[K] { return q.msg.state.keys }

// keyedBuffer is a fixed-capacity FIFO with per-key active/pending
// tracking and a conflict-respecting extraction primitive. It is the
// one data structure shared, unmodified in algorithm, by both the
// thread-blocking and cooperative-suspension channel variants.
//
// curr is the index from which the next scan starts: the leftmost
// position not yet proven to conflict against the current active-key
// snapshot, or len(items) if every remaining item is known to conflict.
// blocker maps each active key to the smallest buffer index observed so
// far that contains that key, letting deactivate rewind curr in O(1)
// instead of forcing a rescan from zero.
type keyedBuffer[K comparable, V any] struct {
	items   []queueItem[K, V]
	cap     int
	curr    int
	active  map[K]struct{}
	blocker map[K]int
}

func newKeyedBuffer[K comparable, V any](cap int) *keyedBuffer[K, V] {
	return &keyedBuffer[K, V]{
		cap:     cap,
		active:  make(map[K]struct{}, cap),
		blocker: make(map[K]int, cap),
	}
}

func (b *keyedBuffer[K, V]) isFull() bool  { return len(b.items) == b.cap }
func (b *keyedBuffer[K, V]) isEmpty() bool { return len(b.items) == 0 }

// pushBack appends at the tail. curr is never changed here: a newly
// appended item cannot unblock earlier items.
func (b *keyedBuffer[K, V]) pushBack(item queueItem[K, V]) {
	b.items = append(b.items, item)
}

// popUnconflictFront scans from curr toward the tail for the first item
// disjoint from the active-key set. On success its keys become active
// and it is removed from the buffer; on failure (every remaining item
// conflicts) curr advances to len(items) and the buffer is left
// otherwise unchanged.
func (b *keyedBuffer[K, V]) popUnconflictFront() (queueItem[K, V], bool) {
	for b.curr < len(b.items) {
		it := b.items[b.curr]
		keys := it.keySet()
		if keys.isDisjoint(b.active) {
			idx := b.curr
			b.items = append(b.items[:idx], b.items[idx+1:]...)
			keys.forEach(func(k K) {
				b.active[k] = struct{}{}
				b.blocker[k] = b.cap // sentinel: no known blocker yet
			})
			// positions after the removed slot shifted left by one;
			// keep recorded blocker indices pointing at the same item.
			for k, at := range b.blocker {
				if at > idx && at < b.cap {
					b.blocker[k] = at - 1
				}
			}
			b.curr = idx
			return it, true
		}
		keys.forEach(func(k K) {
			if _, ok := b.active[k]; ok {
				if at, known := b.blocker[k]; !known || b.curr < at {
					b.blocker[k] = b.curr
				}
			}
		})
		b.curr++
	}
	return queueItem[K, V]{}, false
}

// deactivate removes key from the active set. If doing so can unblock
// an earlier-queued item, curr rewinds to that item's recorded position.
// A key absent from the active set is a no-op.
func (b *keyedBuffer[K, V]) deactivate(key K) {
	at, ok := b.blocker[key]
	if !ok {
		return
	}
	delete(b.active, key)
	delete(b.blocker, key)
	if at < b.curr {
		b.curr = at
	}
}
