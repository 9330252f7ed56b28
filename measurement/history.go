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

package measurement

import (
	. "github.com/cellsim/cellsim/types"
)

// history is a bounded FIFO of samples; the oldest sample is evicted once the window is full.
type history struct {
	samples []Sample
	start   int
	size    int
}

func newHistory(window int) *history {
	return &history{
		samples: make([]Sample, window),
	}
}

func (h *history) add(s Sample) {
	w := len(h.samples)
	if h.size < w {
		h.samples[(h.start+h.size)%w] = s
		h.size++
		return
	}
	h.samples[h.start] = s
	h.start = (h.start + 1) % w
}

func (h *history) len() int {
	return h.size
}

func (h *history) latest() (Sample, bool) {
	if h.size == 0 {
		return Sample{}, false
	}
	return h.samples[(h.start+h.size-1)%len(h.samples)], true
}

// list returns the samples, oldest first.
func (h *history) list() []Sample {
	res := make([]Sample, 0, h.size)
	for i := 0; i < h.size; i++ {
		res = append(res, h.samples[(h.start+i)%len(h.samples)])
	}
	return res
}

func (h *history) reset() {
	h.start = 0
	h.size = 0
}

// l3Filter is the 3GPP layer-3 filter F_n = (1-a) F_n-1 + a M_n. The first measurement initializes it.
type l3Filter struct {
	value DbValue
	valid bool
}

func (f *l3Filter) update(a float64, m DbValue) DbValue {
	if !f.valid {
		f.value = m
		f.valid = true
	} else {
		f.value = (1-a)*f.value + a*m
	}
	return f.value
}
