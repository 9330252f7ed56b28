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

package simulation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cellsim/cellsim/handover"
	"github.com/cellsim/cellsim/logger"
	. "github.com/cellsim/cellsim/types"
)

// Qci is an EPS bearer QoS class identifier (3GPP TS 23.203).
type Qci int

const (
	QciGbrConvVoice Qci = iota + 1
	QciGbrConvVideo
	QciGbrGaming
	QciGbrNonConvVideo
	QciNgbrIms
	QciNgbrVideoTcpOperator
	QciNgbrVoiceVideoGaming
	QciNgbrVideoTcpPremium
	QciNgbrVideoTcpDefault
)

var qciNames = map[Qci]string{
	QciGbrConvVoice:         "GBR_CONV_VOICE",
	QciGbrConvVideo:         "GBR_CONV_VIDEO",
	QciGbrGaming:            "GBR_GAMING",
	QciGbrNonConvVideo:      "GBR_NON_CONV_VIDEO",
	QciNgbrIms:              "NGBR_IMS",
	QciNgbrVideoTcpOperator: "NGBR_VIDEO_TCP_OPERATOR",
	QciNgbrVoiceVideoGaming: "NGBR_VOICE_VIDEO_GAMING",
	QciNgbrVideoTcpPremium:  "NGBR_VIDEO_TCP_PREMIUM",
	QciNgbrVideoTcpDefault:  "NGBR_VIDEO_TCP_DEFAULT",
}

func (q Qci) String() string {
	if s, ok := qciNames[q]; ok {
		return s
	}
	return fmt.Sprintf("QCI(%d)", int(q))
}

// IsGbr returns whether the class has a guaranteed bit rate.
func (q Qci) IsGbr() bool {
	return q >= QciGbrConvVoice && q <= QciGbrNonConvVideo
}

// ParseQci parses a QCI name such as "GBR_CONV_VOICE" (case-insensitive).
func ParseQci(s string) (Qci, error) {
	for q, name := range qciNames {
		if strings.EqualFold(s, name) {
			return q, nil
		}
	}
	return 0, NewConfigurationError("bearer.qci", s, "unknown QCI")
}

// Bearer is the data radio bearer of a UE, anchored at its serving cell.
type Bearer struct {
	Ue          NodeId
	Qci         Qci
	Cell        CellId
	ActivatedAt SimTime
	Switches    int
}

func (b *Bearer) String() string {
	return fmt.Sprintf("%sbearer %s on cell %d", GetUeName(b.Ue), b.Qci, b.Cell)
}

// BearerManager activates a bearer when a UE attaches and re-points it to the target cell on each handover.
type BearerManager struct {
	handover.NopListener

	qci     Qci
	bearers map[NodeId]*Bearer
}

func NewBearerManager(qci Qci) *BearerManager {
	return &BearerManager{
		qci:     qci,
		bearers: make(map[NodeId]*Bearer),
	}
}

func (bm *BearerManager) OnAttach(ue NodeId, cell CellId, ts SimTime) {
	b := &Bearer{
		Ue:          ue,
		Qci:         bm.qci,
		Cell:        cell,
		ActivatedAt: ts,
	}
	bm.bearers[ue] = b
	logger.Debugf("BearerManager: activated %s", b)
}

func (bm *BearerManager) OnHandoverCommit(ev handover.HandoverEvent) {
	b, ok := bm.bearers[ev.Ue]
	if !ok {
		logger.Warnf("BearerManager: handover of %swithout active bearer", GetUeName(ev.Ue))
		return
	}
	logger.AssertTrue(b.Cell == ev.Source)
	b.Cell = ev.Target
	b.Switches++
	logger.Debugf("BearerManager: switched %s", b)
}

// Bearer returns the bearer of UE ue, or nil if none is active.
func (bm *BearerManager) Bearer(ue NodeId) *Bearer {
	return bm.bearers[ue]
}

// Bearers returns all active bearers ordered by UE.
func (bm *BearerManager) Bearers() []*Bearer {
	res := make([]*Bearer, 0, len(bm.bearers))
	for _, b := range bm.bearers {
		res = append(res, b)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Ue < res[j].Ue
	})
	return res
}
