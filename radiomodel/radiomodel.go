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

package radiomodel

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/cellsim/cellsim/prng"
	. "github.com/cellsim/cellsim/types"
)

// Transmitter is the immutable radio configuration of one cell (sector).
type Transmitter struct {
	CellId     CellId
	SiteId     SiteId
	Position   Position
	TxPowerDbm DbValue
	Antenna    *Antenna
}

// LinkBudget holds the terms of a received power computation.
type LinkBudget struct {
	CellId       CellId
	DistanceM    float64
	AzimuthDeg   float64
	ElevationDeg float64
	TxPowerDbm   DbValue
	AntennaGain  DbValue
	PathLoss     DbValue
	ShadowFading DbValue
	RxPowerDbm   DbValue
}

// PropagationModel computes the received power from any cell at any receiver position.
// It is read-only after construction, so concurrent queries are safe.
type PropagationModel struct {
	params  PathLossParams
	fading  *shadowFading
	txs     map[CellId]*Transmitter
	cellIds []CellId
}

// NewPropagationModel creates the model for the given transmitters.
func NewPropagationModel(params PathLossParams, fadingSeed prng.RandomSeed, txs []Transmitter) (*PropagationModel, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	pm := &PropagationModel{
		params: params,
		fading: newShadowFading(fadingSeed),
		txs:    make(map[CellId]*Transmitter, len(txs)),
	}
	for i := range txs {
		tx := txs[i]
		if tx.Antenna == nil {
			return nil, NewConfigurationError("cell.antenna", nil, "cell %d has no antenna", tx.CellId)
		}
		if _, ok := pm.txs[tx.CellId]; ok {
			return nil, NewConfigurationError("cell.id", tx.CellId, "duplicate cell id")
		}
		pm.txs[tx.CellId] = &tx
		pm.cellIds = append(pm.cellIds, tx.CellId)
	}
	sort.Ints(pm.cellIds)
	return pm, nil
}

// Cells returns a copy of all cell ids in ascending order.
func (pm *PropagationModel) Cells() []CellId {
	cells := make([]CellId, len(pm.cellIds))
	copy(cells, pm.cellIds)
	return cells
}

// ReceivedPower returns the wideband received power (dBm) from cell at position rx:
// txPower + antennaGain(direction) - pathLoss(distance) - shadowFading.
func (pm *PropagationModel) ReceivedPower(cell CellId, rx Position) (DbValue, error) {
	lb, err := pm.LinkBudget(cell, rx)
	if err != nil {
		return 0, err
	}
	return lb.RxPowerDbm, nil
}

// LinkBudget returns all terms of the received power computation.
func (pm *PropagationModel) LinkBudget(cell CellId, rx Position) (LinkBudget, error) {
	tx, ok := pm.txs[cell]
	if !ok {
		return LinkBudget{}, errors.Wrapf(ErrUnknownCell, "cell %d", cell)
	}
	dist := tx.Position.DistanceTo(rx)
	if dist == 0 {
		return LinkBudget{}, errors.Wrapf(ErrZeroDistance, "cell %d at %v", cell, rx)
	}
	lb := LinkBudget{
		CellId:       cell,
		DistanceM:    dist,
		AzimuthDeg:   tx.Position.AzimuthTo(rx),
		ElevationDeg: tx.Position.ElevationTo(rx),
		TxPowerDbm:   tx.TxPowerDbm,
		PathLoss:     computePathLoss(dist, &pm.params),
		ShadowFading: pm.fading.computeShadowFading(tx.Position, rx, &pm.params),
	}
	lb.AntennaGain = tx.Antenna.Gain(lb.AzimuthDeg, lb.ElevationDeg)
	lb.RxPowerDbm = lb.TxPowerDbm + lb.AntennaGain - lb.PathLoss - lb.ShadowFading
	return lb, nil
}

// Distance returns the 3D distance between cell and rx.
func (pm *PropagationModel) Distance(cell CellId, rx Position) (float64, error) {
	tx, ok := pm.txs[cell]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownCell, "cell %d", cell)
	}
	return tx.Position.DistanceTo(rx), nil
}
