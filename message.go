// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyedchan

import (
	"fmt"
	"log/slog"
	"runtime"

	"code.hybscloud.com/atomix"
)

// sharedCore is the back-reference a delivered Message holds so that
// Release can deactivate its keys. Implemented by syncShared and
// asyncShared.
type sharedCore[K comparable, V any] interface {
	release(keys []K)
}

// messageState is the heap-allocated payload behind a Message. Message
// itself is a thin value handle so that Send/Recv can pass messages by
// value the way the rest of this package's interfaces do, while still
// letting a delivered message carry a finalizer-trackable identity.
type messageState[K comparable, V any] struct {
	keys     keySet[K]
	value    V
	shared   sharedCore[K, V]
	released atomix.Bool
}

// Message pairs a key set with a value. A Message constructed by
// SingleKey or MultipleKeys carries no back-reference and Release is a
// no-op; once delivered by a Receiver, the message owns a reference to
// the channel core solely so Release can deactivate its keys.
//
// Release must be called exactly once per delivered message, typically
// via defer. Calling it more than once, or not at all, is safe: repeat
// calls are no-ops, and a forgotten Release is caught by a finalizer
// safety net that logs a warning and releases the keys anyway so the
// channel does not deadlock on a caller bug. The safety net is a
// backstop, not a substitute for an explicit Release.
type Message[K comparable, V any] struct {
	state *messageState[K, V]
}

// SingleKey constructs a message tagged with one key.
func SingleKey[K comparable, V any](key K, value V) Message[K, V] {
	return Message[K, V]{state: &messageState[K, V]{keys: newSingleKeySet(key), value: value}}
}

// MultipleKeys constructs a message tagged with a deduplicated set of
// keys. An empty iterator produces a message that is always disjoint
// from any active key set.
func MultipleKeys[K comparable, V any](keys []K, value V) Message[K, V] {
	return Message[K, V]{state: &messageState[K, V]{keys: newMultipleKeySet(keys), value: value}}
}

// IsMultiple reports whether the message was built with MultipleKeys,
// however many keys its set holds (zero, one or more).
func (m Message[K, V]) IsMultiple() bool { return m.state.keys.isMultiple() }

// SingleKeyRef returns the message's key and true if it is single-keyed.
func (m Message[K, V]) SingleKeyRef() (K, bool) { return m.state.keys.singleKey() }

// KeySetRef returns an owned copy of every key the message carries.
func (m Message[K, V]) KeySetRef() []K { return m.state.keys.keys() }

// Value returns the message's payload.
func (m Message[K, V]) Value() V { return m.state.value }

func (m Message[K, V]) String() string {
	return fmt.Sprintf("Message{keys: %v, value: %v}", m.state.keys.keys(), m.state.value)
}

// Equal reports whether two messages carry the same keys and value.
// A free function rather than a method because Go cannot conditionally
// implement an equality method only when V happens to be comparable.
func Equal[K comparable, V comparable](a, b Message[K, V]) bool {
	if a.state == nil || b.state == nil {
		return a.state == b.state
	}
	if a.state.value != b.state.value {
		return false
	}
	ak, bk := a.state.keys.keys(), b.state.keys.keys()
	if len(ak) != len(bk) {
		return false
	}
	seen := make(map[K]struct{}, len(ak))
	for _, k := range ak {
		seen[k] = struct{}{}
	}
	for _, k := range bk {
		if _, ok := seen[k]; !ok {
			return false
		}
	}
	return true
}

// attach sets the message's back-reference at the moment of delivery and
// arms the finalizer safety net. Called only by a Receiver, once.
func (m Message[K, V]) attach(shared sharedCore[K, V]) {
	m.state.shared = shared
	runtime.SetFinalizer(m.state, finalizeMessageState[K, V])
}

func finalizeMessageState[K comparable, V any](st *messageState[K, V]) {
	if !st.released.CompareAndSwapAcqRel(false, true) {
		return
	}
	if st.shared != nil {
		slog.Warn("keyedchan: message finalized without explicit Release")
		st.shared.release(st.keys.keys())
	}
}

// Release deactivates the message's keys against the channel that
// delivered it. Idempotent: only the first call (explicit or via the
// finalizer) performs the release. Returns true if this call performed
// it.
func (m Message[K, V]) Release() bool {
	if m.state == nil || m.state.shared == nil {
		return false
	}
	if !m.state.released.CompareAndSwapAcqRel(false, true) {
		return false
	}
	runtime.SetFinalizer(m.state, nil)
	m.state.shared.release(m.state.keys.keys())
	return true
}
