// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyedchan

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrDisconnected is returned by Recv when the buffer is empty and every
// sender is gone. Once returned, every subsequent Recv on the same
// receiver also returns ErrDisconnected.
var ErrDisconnected = errors.New("keyedchan: disconnected")

// ErrAllConflict is returned by Recv when the buffer is non-empty but
// every message in it conflicts with an already-active key. It is
// transient: the channel never retries internally, since only the
// caller knows whether dropping a held message or waiting for more
// producer activity is the right move.
var ErrAllConflict = errors.New("keyedchan: all conflict")

// ErrWouldBlock is returned by TrySend/TryRecv when the operation cannot
// proceed immediately. It re-exports iox.ErrWouldBlock for ecosystem
// consistency with the rest of this package's dependency stack.
var ErrWouldBlock = iox.ErrWouldBlock

// SendError is returned by Send/SendContext/TrySend when the channel is
// disconnected. It carries the rejected message back so the caller can
// route it elsewhere.
type SendError[K comparable, V any] struct {
	Message Message[K, V]
}

func (e *SendError[K, V]) Error() string {
	return "keyedchan: send on disconnected channel"
}

// Is lets errors.Is(err, ErrDisconnected) match a *SendError, since both
// mean the same thing from the sender's side of a closed channel.
func (e *SendError[K, V]) Is(target error) bool {
	return target == ErrDisconnected
}

// IsDisconnected reports whether err is or wraps ErrDisconnected,
// including a *SendError.
func IsDisconnected(err error) bool { return errors.Is(err, ErrDisconnected) }

// IsAllConflict reports whether err is or wraps ErrAllConflict.
func IsAllConflict(err error) bool { return errors.Is(err, ErrAllConflict) }

// IsWouldBlock reports whether err indicates TrySend/TryRecv would have
// blocked. Delegates to iox.IsWouldBlock for wrapped error support.
func IsWouldBlock(err error) bool { return iox.IsWouldBlock(err) }

// IsRetryable reports whether err is a transient, caller-retryable
// condition (AllConflict or WouldBlock) rather than a terminal one.
func IsRetryable(err error) bool { return IsAllConflict(err) || IsWouldBlock(err) }
