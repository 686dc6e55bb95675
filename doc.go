// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package keyedchan provides a bounded multi-producer single-consumer
// channel whose messages carry a key set. The consumer is guaranteed a
// conflict-respecting delivery order: a message is never delivered
// while its key set overlaps a key currently held by an
// already-delivered, not-yet-released message.
//
// Two channel variants share the same conflict-arbitration algorithm:
//
//   - Sync: thread-blocking, built on sync.Mutex and sync.Cond.
//   - Async: cooperative-suspension, built on a counting semaphore and
//     a single-slot notifier, honoring context.Context cancellation.
//
// # Quick Start
//
// Direct constructors (recommended for most cases):
//
//	s, r := keyedchan.NewSync[string, Order](256)
//	s, r := keyedchan.NewAsync[string, Order](256)
//
// Builder API:
//
//	s, r := keyedchan.Build[string, Order](keyedchan.New(256))         // → Sync
//	s, r := keyedchan.Build[string, Order](keyedchan.New(256).Async()) // → Async
//
// # Basic Usage
//
// Every message is constructed with either a single key or a key set:
//
//	msg := keyedchan.SingleKey("account-42", order)
//	msg := keyedchan.MultipleKeys([]string{"account-42", "account-7"}, transfer)
//
//	err := s.Send(msg)
//	if keyedchan.IsDisconnected(err) {
//	    // the receiver closed; no further sends will succeed
//	}
//
//	got, err := r.Recv()
//	if keyedchan.IsAllConflict(err) {
//	    // every buffered message conflicts with keys still held by the
//	    // consumer; release one before retrying
//	}
//
// A delivered message's keys remain held by the consumer until the
// message is released, at which point any earlier-queued message that
// had been skipped over for conflicting becomes eligible again:
//
//	got, _ := r.Recv()
//	process(got.Value())
//	got.Release() // or let it go out of scope; a finalizer is a backstop,
//	              // not a substitute for calling Release explicitly
//
// # Common Patterns
//
// Per-account order processing (single key, FIFO within a key):
//
//	s, r := keyedchan.NewSync[AccountID, Order](4096)
//
//	for ord := range orders {
//	    s.Send(keyedchan.SingleKey(ord.Account, ord))
//	}
//
//	go func() {
//	    for {
//	        msg, err := r.Recv()
//	        if keyedchan.IsDisconnected(err) {
//	            return
//	        }
//	        if keyedchan.IsAllConflict(err) {
//	            continue // nothing deliverable right now
//	        }
//	        applyAndRelease(msg)
//	    }
//	}()
//
// Cross-account transfers needing two locks at once (multiple keys):
//
//	s, r := keyedchan.NewAsync[AccountID, Transfer](1024)
//
//	s.SendContext(ctx, keyedchan.MultipleKeys([]AccountID{from, to}, xfer))
//
//	msg, err := r.RecvContext(ctx)
//	if err == nil {
//	    settle(msg.Value())
//	    msg.Release()
//	}
//
// Fan-in from multiple goroutines (the MPSC pattern):
//
//	s, r := keyedchan.NewSync[string, Event](4096)
//
//	for _, src := range sources {
//	    go func(src Source) {
//	        handle := s.Clone()
//	        defer handle.Close()
//	        for ev := range src.Events() {
//	            handle.Send(keyedchan.SingleKey(ev.Key, ev))
//	        }
//	    }(src)
//	}
//
// # Error Handling
//
// Errors are sourced from [code.hybscloud.com/iox] where the semantics
// line up (ErrWouldBlock), and from this package where they don't:
//
//	keyedchan.IsDisconnected(err) // every sender (or the receiver) closed
//	keyedchan.IsAllConflict(err)  // Recv found only conflicting messages
//	keyedchan.IsWouldBlock(err)   // TrySend/TryRecv would have blocked
//	keyedchan.IsRetryable(err)    // AllConflict or WouldBlock: try again later
//
// A failed Send returns a *SendError carrying the message back, so a
// caller can recover its value rather than lose it:
//
//	if err := s.Send(msg); err != nil {
//	    var se *keyedchan.SendError[string, Order]
//	    if errors.As(err, &se) {
//	        requeue(se.Message)
//	    }
//	}
//
// # Thread Safety
//
// A Sender may be cloned and used concurrently from any number of
// goroutines; the channel disconnects only once every clone has been
// closed. A Receiver is not clonable and must be used by exactly one
// goroutine at a time, matching the MPSC contract: many producers, one
// consumer.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause
// instructions in the async semaphore's CAS retry loop. The
// [code.hybscloud.com/keyedchan/metrics] subpackage adds an optional
// Prometheus decorator.
package keyedchan
