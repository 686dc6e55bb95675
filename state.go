// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyedchan

// channelState bundles the buffer with producer count and the
// disconnection latch, all guarded by a single mutex in syncShared and
// asyncShared. n_senders is incremented on sender clone, decremented on
// sender close; reaching zero latches disconnected. The receiver
// closing also latches disconnected. Once true it never becomes false.
type channelState[K comparable, V any] struct {
	buffer       *keyedBuffer[K, V]
	nSenders     int
	disconnected bool
}
