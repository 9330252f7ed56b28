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

package visualize

import (
	"github.com/cellsim/cellsim/handover"
	"github.com/cellsim/cellsim/measurement"
	. "github.com/cellsim/cellsim/types"
)

type multiVisualizer struct {
	vs []Visualizer
}

// NewMultiVisualizer combines visualizers; events are delivered in the given order.
func NewMultiVisualizer(vs ...Visualizer) Visualizer {
	return &multiVisualizer{vs: vs}
}

func (mv *multiVisualizer) Init() {
	for _, v := range mv.vs {
		v.Init()
	}
}

func (mv *multiVisualizer) Stop() {
	for _, v := range mv.vs {
		v.Stop()
	}
}

func (mv *multiVisualizer) OnAttach(ue NodeId, cell CellId, ts SimTime) {
	for _, v := range mv.vs {
		v.OnAttach(ue, cell, ts)
	}
}

func (mv *multiVisualizer) OnHandoverStart(ue NodeId, source CellId, target CellId, ts SimTime) {
	for _, v := range mv.vs {
		v.OnHandoverStart(ue, source, target, ts)
	}
}

func (mv *multiVisualizer) OnHandoverCommit(ev handover.HandoverEvent) {
	for _, v := range mv.vs {
		v.OnHandoverCommit(ev)
	}
}

func (mv *multiVisualizer) OnHandoverAbort(ue NodeId, source CellId, target CellId, ts SimTime, reason string) {
	for _, v := range mv.vs {
		v.OnHandoverAbort(ue, source, target, ts, reason)
	}
}

func (mv *multiVisualizer) OnMeasurementReport(r *measurement.Report) {
	for _, v := range mv.vs {
		v.OnMeasurementReport(r)
	}
}
