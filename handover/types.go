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

package handover

import (
	"fmt"

	. "github.com/cellsim/cellsim/types"
)

type State int

const (
	Connected State = iota
	HandoverInProgress
)

func (s State) String() string {
	switch s {
	case Connected:
		return "CONNECTED"
	case HandoverInProgress:
		return "HANDOVER_IN_PROGRESS"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// HandoverEvent records a committed handover.
type HandoverEvent struct {
	Ue          NodeId  `json:"ue"`
	Source      CellId  `json:"source"`
	Target      CellId  `json:"target"`
	Time        SimTime `json:"time"`
	Reason      string  `json:"reason"`
	SourceRange int     `json:"sourceRsrqRange"`
	TargetRange int     `json:"targetRsrqRange"`
}

func (ev HandoverEvent) String() string {
	return fmt.Sprintf("%sHO %d->%d at %v (%s)", GetUeName(ev.Ue), ev.Source, ev.Target, ev.Time, ev.Reason)
}

// Listener receives the attach and handover events of all UEs.
type Listener interface {
	OnAttach(ue NodeId, cell CellId, ts SimTime)
	OnHandoverStart(ue NodeId, source CellId, target CellId, ts SimTime)
	OnHandoverCommit(ev HandoverEvent)
	OnHandoverAbort(ue NodeId, source CellId, target CellId, ts SimTime, reason string)
}

// NopListener implements Listener with no-ops, for embedding.
type NopListener struct{}

func (NopListener) OnAttach(NodeId, CellId, SimTime) {}
func (NopListener) OnHandoverStart(NodeId, CellId, CellId, SimTime) {}
func (NopListener) OnHandoverCommit(HandoverEvent) {}
func (NopListener) OnHandoverAbort(NodeId, CellId, CellId, SimTime, string) {}
