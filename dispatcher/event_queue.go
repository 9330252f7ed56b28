// Copyright (c) 2024-2025, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package dispatcher

import (
	"container/heap"

	. "github.com/cellsim/cellsim/types"
)

// EventHandle refers to a scheduled callback. It can be used to cancel the callback before it fires.
type EventHandle struct {
	ts        SimTime
	seq       uint64
	cb        func()
	index     int // heap index, -1 when not queued
	cancelled bool
	fired     bool
}

// Timestamp returns the simulated time at which the callback fires.
func (h *EventHandle) Timestamp() SimTime {
	return h.ts
}

// IsPending returns true if the callback is still queued and not cancelled.
func (h *EventHandle) IsPending() bool {
	return h.index >= 0 && !h.cancelled
}

// eventQueue orders events by timestamp, then by submission sequence (FIFO).
type eventQueue []*EventHandle

func (q eventQueue) Len() int {
	return len(q)
}

func (q eventQueue) Less(i, j int) bool {
	if q[i].ts != q[j].ts {
		return q[i].ts < q[j].ts
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x interface{}) {
	h := x.(*EventHandle)
	h.index = len(*q)
	*q = append(*q, h)
}

func (q *eventQueue) Pop() interface{} {
	old := *q
	n := len(old)
	h := old[n-1]
	old[n-1] = nil
	h.index = -1
	*q = old[0 : n-1]
	return h
}

func (q *eventQueue) add(h *EventHandle) {
	heap.Push(q, h)
}

func (q *eventQueue) remove(h *EventHandle) {
	if h.index >= 0 {
		heap.Remove(q, h.index)
	}
}

func (q *eventQueue) nextTimestamp() SimTime {
	if len(*q) == 0 {
		return Ever
	}
	return (*q)[0].ts
}

func (q *eventQueue) popNext() *EventHandle {
	return heap.Pop(q).(*EventHandle)
}
