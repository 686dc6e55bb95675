// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyedchan

import "context"

// notifier is a single-slot wake-up primitive for the consumer side of
// the cooperative-suspension variant. A buffered channel of capacity 1
// already gives the arm-before-check guarantee spec requires of the
// async waker: a notify sent before wait is called is not lost, because
// it occupies the channel's one slot until a waiter drains it, the same
// semantics as a single-permit notify.
type notifier struct {
	ch chan struct{}
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{}, 1)}
}

// notify is edge-triggered: multiple notifies before a wait still only
// guarantee the waiter observes one wake-up.
func (n *notifier) notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

func (n *notifier) wait(ctx context.Context) error {
	select {
	case <-n.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
