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

package types

import (
	"fmt"
	"math"
	"time"
)

// NodeId identifies a node (site sector or UE) in the simulation.
type NodeId = int

// CellId identifies the radio cell of one sector. Cells are numbered from 1.
type CellId = int

// SiteId identifies a base-station site. Sites are numbered from 0.
type SiteId = int

// InvalidCellId is used where no cell is (yet) known.
const InvalidCellId CellId = -1

// DbValue is a dB or dBm quantity.
type DbValue = float64

// SimTime is the simulated time in microseconds since simulation start.
type SimTime uint64

const (
	// Ever is a time that is never reached by a simulation.
	Ever SimTime = math.MaxUint64 / 2
)

// DurationToSimTime converts a non-negative duration to SimTime, truncated to microseconds.
func DurationToSimTime(d time.Duration) SimTime {
	if d <= 0 {
		return 0
	}
	return SimTime(d / time.Microsecond)
}

// Duration returns t as a time.Duration.
func (t SimTime) Duration() time.Duration {
	return time.Duration(t) * time.Microsecond
}

// Seconds returns t in seconds.
func (t SimTime) Seconds() float64 {
	return float64(t) / 1e6
}

func (t SimTime) String() string {
	return fmt.Sprintf("%.6fs", t.Seconds())
}

// Position is a static 3D coordinate in meters.
type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// DistanceTo returns the 3D Euclidean distance between p and q.
func (p Position) DistanceTo(q Position) float64 {
	dx, dy, dz := q.X-p.X, q.Y-p.Y, q.Z-p.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// AzimuthTo returns the horizontal angle (degrees, counter-clockwise from +X, in (-180,180]) from p towards q.
func (p Position) AzimuthTo(q Position) float64 {
	return math.Atan2(q.Y-p.Y, q.X-p.X) * 180.0 / math.Pi
}

// ElevationTo returns the vertical angle (degrees, positive upwards) from p towards q.
func (p Position) ElevationTo(q Position) float64 {
	dh := math.Hypot(q.X-p.X, q.Y-p.Y)
	return math.Atan2(q.Z-p.Z, dh) * 180.0 / math.Pi
}

func (p Position) String() string {
	return fmt.Sprintf("(%.1f,%.1f,%.1f)", p.X, p.Y, p.Z)
}

// GetUeName returns the display name of UE ue.
func GetUeName(ue NodeId) string {
	return fmt.Sprintf("UE<%d> ", ue)
}
