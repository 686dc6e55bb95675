// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyedchan

import "testing"

func mkItem(key string) queueItem[string, int] {
	return queueItem[string, int]{msg: SingleKey(key, 0)}
}

func mkMultiItem(keys []string) queueItem[string, int] {
	return queueItem[string, int]{msg: MultipleKeys(keys, 0)}
}

func TestKeyedBufferFIFONoConflict(t *testing.T) {
	b := newKeyedBuffer[string, int](4)
	b.pushBack(mkItem("a"))
	b.pushBack(mkItem("b"))
	b.pushBack(mkItem("c"))

	for _, want := range []string{"a", "b", "c"} {
		item, ok := b.popUnconflictFront()
		if !ok {
			t.Fatalf("popUnconflictFront: want %q, got AllConflict", want)
		}
		got, _ := item.msg.SingleKeyRef()
		if got != want {
			t.Fatalf("popUnconflictFront: got %q, want %q", got, want)
		}
		b.deactivate(got)
	}
}

func TestKeyedBufferSkipsConflictingHead(t *testing.T) {
	b := newKeyedBuffer[string, int](4)
	b.pushBack(mkItem("a"))

	first, ok := b.popUnconflictFront()
	if !ok {
		t.Fatal("first pop: unexpected AllConflict")
	}
	k1, _ := first.msg.SingleKeyRef()
	if k1 != "a" {
		t.Fatalf("first pop: got %q, want a", k1)
	}

	// "a" is active; a second "a" message at the head must be skipped in
	// favor of the "b" queued behind it.
	b.pushBack(mkItem("a"))
	b.pushBack(mkItem("b"))

	second, ok := b.popUnconflictFront()
	if !ok {
		t.Fatal("second pop: unexpected AllConflict")
	}
	k2, _ := second.msg.SingleKeyRef()
	if k2 != "b" {
		t.Fatalf("second pop: got %q, want b (the queued \"a\" message must be skipped)", k2)
	}

	// every remaining item ("a") conflicts with the held "a" key.
	if _, ok := b.popUnconflictFront(); ok {
		t.Fatal("third pop: expected AllConflict, got a delivery")
	}
}

func TestKeyedBufferReleaseRewindsCursor(t *testing.T) {
	b := newKeyedBuffer[string, int](4)
	b.pushBack(mkItem("a"))

	first, ok := b.popUnconflictFront()
	if !ok {
		t.Fatal("unexpected AllConflict")
	}
	ka, _ := first.msg.SingleKeyRef()

	b.pushBack(mkItem("a")) // skipped while "a" active
	b.pushBack(mkItem("b")) // delivered next

	second, ok := b.popUnconflictFront()
	if !ok {
		t.Fatal("unexpected AllConflict on second pop")
	}
	kb, _ := second.msg.SingleKeyRef()
	if kb != "b" {
		t.Fatalf("got %q, want b", kb)
	}

	if _, ok := b.popUnconflictFront(); ok {
		t.Fatal("expected AllConflict before release")
	}

	b.deactivate(ka) // must rewind curr back to the pending "a"

	third, ok := b.popUnconflictFront()
	if !ok {
		t.Fatal("expected the pending \"a\" message to become deliverable after release")
	}
	k3, _ := third.msg.SingleKeyRef()
	if k3 != "a" {
		t.Fatalf("got %q, want a", k3)
	}
}

// TestKeyedBufferBlockerShiftAcrossCycles runs several pops with buffer
// compaction between them and checks that a later deactivate still
// rewinds curr to the blocked item's current (post-compaction) position.
// In this sequence every removal happens at or after the recorded
// blocker index, so the decrement loop in popUnconflictFront does not
// change any entry here.
func TestKeyedBufferBlockerShiftAcrossCycles(t *testing.T) {
	b := newKeyedBuffer[string, int](8)
	b.pushBack(mkItem("x")) // idx 0, delivered first
	b.pushBack(mkItem("y")) // idx 1 (becomes 0), delivered second
	b.pushBack(mkItem("x")) // idx 2 (becomes 1 then 0), blocked by active x
	b.pushBack(mkItem("z")) // idx 3 (becomes 2 then 1), disjoint from every active key

	first, _ := b.popUnconflictFront() // delivers "x", active={x}
	kx, _ := first.msg.SingleKeyRef()
	if kx != "x" {
		t.Fatalf("first pop: got %q, want x", kx)
	}

	second, ok := b.popUnconflictFront() // "y" now at idx 0, delivered, active={x,y}
	if !ok {
		t.Fatal("second pop: unexpected AllConflict")
	}
	ky, _ := second.msg.SingleKeyRef()
	if ky != "y" {
		t.Fatalf("second pop: got %q, want y", ky)
	}

	// remaining buffer: ["x","z"], both scanned and found conflicting/ok.
	// "x" conflicts (active); "z" is disjoint and should deliver.
	third, ok := b.popUnconflictFront()
	if !ok {
		t.Fatal("third pop: unexpected AllConflict")
	}
	kz, _ := third.msg.SingleKeyRef()
	if kz != "z" {
		t.Fatalf("third pop: got %q, want z", kz)
	}

	// only the blocked "x" item remains; releasing "x" must rewind
	// curr to its correct (post-compaction) position.
	b.deactivate(kx)
	fourth, ok := b.popUnconflictFront()
	if !ok {
		t.Fatal("fourth pop: expected the pending \"x\" message after release")
	}
	k4, _ := fourth.msg.SingleKeyRef()
	if k4 != "x" {
		t.Fatalf("fourth pop: got %q, want x", k4)
	}
}

func TestKeyedBufferMultiKeyConflict(t *testing.T) {
	b := newKeyedBuffer[string, int](4)
	b.pushBack(mkMultiItem([]string{"a", "b"}))

	item, ok := b.popUnconflictFront()
	if !ok {
		t.Fatal("unexpected AllConflict")
	}
	keys := item.msg.KeySetRef()
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(keys))
	}

	b.pushBack(mkItem("b")) // conflicts via shared key "b"
	if _, ok := b.popUnconflictFront(); ok {
		t.Fatal("expected AllConflict: \"b\" is held by the multi-key message")
	}
}

func TestKeyedBufferEmptyKeySetAlwaysDisjoint(t *testing.T) {
	b := newKeyedBuffer[string, int](4)
	b.pushBack(mkMultiItem([]string{"a"}))
	b.pushBack(mkMultiItem(nil))

	first, ok := b.popUnconflictFront()
	if !ok || len(first.msg.KeySetRef()) != 1 {
		t.Fatal("first pop unexpected")
	}

	second, ok := b.popUnconflictFront()
	if !ok {
		t.Fatal("empty key set should never conflict")
	}
	if len(second.msg.KeySetRef()) != 0 {
		t.Fatalf("got %d keys, want 0", len(second.msg.KeySetRef()))
	}
}

func TestKeyedBufferFullAndEmpty(t *testing.T) {
	b := newKeyedBuffer[string, int](2)
	if !b.isEmpty() {
		t.Fatal("new buffer should be empty")
	}
	b.pushBack(mkItem("a"))
	b.pushBack(mkItem("b"))
	if !b.isFull() {
		t.Fatal("buffer at capacity should report full")
	}
}
