// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyedchan_test

import (
	"testing"

	"code.hybscloud.com/keyedchan"
)

func TestMessageSingleKey(t *testing.T) {
	msg := keyedchan.SingleKey("a", 42)
	if msg.IsMultiple() {
		t.Fatal("single-key message reports IsMultiple")
	}
	k, ok := msg.SingleKeyRef()
	if !ok || k != "a" {
		t.Fatalf("SingleKeyRef: got (%q, %v), want (a, true)", k, ok)
	}
	if msg.Value() != 42 {
		t.Fatalf("Value: got %d, want 42", msg.Value())
	}
}

func TestMessageMultipleKeys(t *testing.T) {
	msg := keyedchan.MultipleKeys([]string{"a", "b", "a"}, "payload")
	if !msg.IsMultiple() {
		t.Fatal("multi-key message reports !IsMultiple")
	}
	if _, ok := msg.SingleKeyRef(); ok {
		t.Fatal("SingleKeyRef should fail for a multi-key message")
	}
	if got := len(msg.KeySetRef()); got != 2 {
		t.Fatalf("got %d keys, want 2 (deduplicated)", got)
	}
}

func TestMessageReleaseIdempotentOnUnattached(t *testing.T) {
	msg := keyedchan.SingleKey("a", 1)
	if msg.Release() {
		t.Fatal("Release on a never-delivered message should be a no-op returning false")
	}
}

func TestMessageEqual(t *testing.T) {
	a := keyedchan.MultipleKeys([]string{"x", "y"}, 7)
	b := keyedchan.MultipleKeys([]string{"y", "x"}, 7)
	if !keyedchan.Equal(a, b) {
		t.Fatal("messages with the same keys (any order) and value should be Equal")
	}
	c := keyedchan.SingleKey("x", 7)
	if keyedchan.Equal(a, c) {
		t.Fatal("messages with different key sets should not be Equal")
	}
}
