// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyedchan

// pad is cache line padding to prevent false sharing around the
// admission semaphore's hot counter, the one field in this package
// contended the way the teacher's lock-free queues are.
type pad [64]byte
