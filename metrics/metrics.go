// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics decorates a keyedchan Sender/Receiver pair with
// Prometheus counters. It lives outside the core keyedchan package
// since instrumentation is an optional concern a caller opts into, not
// something every channel pays for.
package metrics

import (
	"context"

	"code.hybscloud.com/keyedchan"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the counters shared by a WrapSender/WrapReceiver
// pair decorating the same channel. Construct one with NewCollector
// and register it with a prometheus.Registerer before wrapping.
type Collector struct {
	sent         prometheus.Counter
	sendRejected *prometheus.CounterVec
	received     prometheus.Counter
	recvRejected *prometheus.CounterVec
}

// NewCollector creates a Collector with the given metric name prefix,
// e.g. "orders_channel" yields orders_channel_sent_total and friends.
func NewCollector(namePrefix string) *Collector {
	return &Collector{
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: namePrefix + "_sent_total",
			Help: "Total number of messages successfully sent.",
		}),
		sendRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: namePrefix + "_send_rejected_total",
			Help: "Total number of Send/SendContext/TrySend calls that did not enqueue, by reason.",
		}, []string{"reason"}),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Name: namePrefix + "_received_total",
			Help: "Total number of messages successfully received.",
		}),
		recvRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: namePrefix + "_recv_rejected_total",
			Help: "Total number of Recv/RecvContext/TryRecv calls that did not return a message, by reason.",
		}, []string{"reason"}),
	}
}

// Register registers every collector metric with reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{c.sent, c.sendRejected, c.received, c.recvRejected} {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

const (
	reasonDisconnected = "disconnected"
	reasonAllConflict  = "all_conflict"
	reasonWouldBlock   = "would_block"
	reasonOther        = "other"
)

func sendReason(err error) string {
	switch {
	case keyedchan.IsDisconnected(err):
		return reasonDisconnected
	case keyedchan.IsWouldBlock(err):
		return reasonWouldBlock
	default:
		return reasonOther
	}
}

func recvReason(err error) string {
	switch {
	case keyedchan.IsDisconnected(err):
		return reasonDisconnected
	case keyedchan.IsAllConflict(err):
		return reasonAllConflict
	case keyedchan.IsWouldBlock(err):
		return reasonWouldBlock
	default:
		return reasonOther
	}
}

// sender decorates a keyedchan.Sender, counting outcomes into c.
type sender[K comparable, V any] struct {
	inner keyedchan.Sender[K, V]
	c     *Collector
}

// WrapSender returns a Sender that records send outcomes into c before
// delegating to inner.
func WrapSender[K comparable, V any](inner keyedchan.Sender[K, V], c *Collector) keyedchan.Sender[K, V] {
	return &sender[K, V]{inner: inner, c: c}
}

func (s *sender[K, V]) Send(msg keyedchan.Message[K, V]) error {
	err := s.inner.Send(msg)
	s.record(err)
	return err
}

func (s *sender[K, V]) SendContext(ctx context.Context, msg keyedchan.Message[K, V]) error {
	err := s.inner.SendContext(ctx, msg)
	s.record(err)
	return err
}

func (s *sender[K, V]) TrySend(msg keyedchan.Message[K, V]) error {
	err := s.inner.TrySend(msg)
	s.record(err)
	return err
}

func (s *sender[K, V]) record(err error) {
	if err == nil {
		s.c.sent.Inc()
		return
	}
	s.c.sendRejected.WithLabelValues(sendReason(err)).Inc()
}

func (s *sender[K, V]) Clone() keyedchan.Sender[K, V] {
	return &sender[K, V]{inner: s.inner.Clone(), c: s.c}
}

func (s *sender[K, V]) Close() { s.inner.Close() }

// receiver decorates a keyedchan.Receiver, counting outcomes into c.
type receiver[K comparable, V any] struct {
	inner keyedchan.Receiver[K, V]
	c     *Collector
}

// WrapReceiver returns a Receiver that records receive outcomes into c
// before delegating to inner.
func WrapReceiver[K comparable, V any](inner keyedchan.Receiver[K, V], c *Collector) keyedchan.Receiver[K, V] {
	return &receiver[K, V]{inner: inner, c: c}
}

func (r *receiver[K, V]) Recv() (keyedchan.Message[K, V], error) {
	msg, err := r.inner.Recv()
	r.record(err)
	return msg, err
}

func (r *receiver[K, V]) RecvContext(ctx context.Context) (keyedchan.Message[K, V], error) {
	msg, err := r.inner.RecvContext(ctx)
	r.record(err)
	return msg, err
}

func (r *receiver[K, V]) TryRecv() (keyedchan.Message[K, V], error) {
	msg, err := r.inner.TryRecv()
	r.record(err)
	return msg, err
}

func (r *receiver[K, V]) record(err error) {
	if err == nil {
		r.c.received.Inc()
		return
	}
	r.c.recvRejected.WithLabelValues(recvReason(err)).Inc()
}

func (r *receiver[K, V]) Close() { r.inner.Close() }
