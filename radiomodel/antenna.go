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
	"math"

	. "github.com/cellsim/cellsim/types"
)

// AntennaConfig is the immutable configuration of one sector antenna.
type AntennaConfig struct {
	OrientationDeg         float64 `yaml:"orientation"`
	HorizontalBeamwidthDeg float64 `yaml:"horizontal_beamwidth"`
	VerticalBeamwidthDeg   float64 `yaml:"vertical_beamwidth"`
	MaxGainDb              DbValue `yaml:"max_gain"`
	FloorDb                DbValue `yaml:"floor"` // lowest gain the pattern can return
}

// Antenna is a directional antenna with a cosine-power pattern in both the horizontal and vertical plane.
// The exponent of each pattern is chosen such that the gain is 3 dB below MaxGainDb at half the beamwidth.
type Antenna struct {
	cfg       AntennaConfig
	hExponent float64
	vExponent float64
}

// NewAntenna validates cfg and creates the antenna.
func NewAntenna(cfg AntennaConfig) (*Antenna, error) {
	if !(cfg.HorizontalBeamwidthDeg > 0 && cfg.HorizontalBeamwidthDeg <= 360) {
		return nil, NewConfigurationError("antenna.horizontal_beamwidth", cfg.HorizontalBeamwidthDeg, "must be in (0,360]")
	}
	if !(cfg.VerticalBeamwidthDeg > 0 && cfg.VerticalBeamwidthDeg <= 360) {
		return nil, NewConfigurationError("antenna.vertical_beamwidth", cfg.VerticalBeamwidthDeg, "must be in (0,360]")
	}
	if math.IsInf(cfg.FloorDb, 0) || math.IsNaN(cfg.FloorDb) || cfg.FloorDb >= cfg.MaxGainDb {
		return nil, NewConfigurationError("antenna.floor", cfg.FloorDb, "must be finite and below max gain %v", cfg.MaxGainDb)
	}
	return &Antenna{
		cfg:       cfg,
		hExponent: cosineExponent(cfg.HorizontalBeamwidthDeg),
		vExponent: cosineExponent(cfg.VerticalBeamwidthDeg),
	}, nil
}

// Config returns the antenna configuration.
func (a *Antenna) Config() AntennaConfig {
	return a.cfg
}

func cosineExponent(beamwidthDeg float64) float64 {
	if beamwidthDeg >= 360.0 {
		return 0 // omnidirectional
	}
	c := math.Cos(beamwidthDeg * math.Pi / 180.0 / 4.0)
	return -3.0 / (20.0 * math.Log10(c))
}

// cosinePatternDb returns the pattern attenuation (<= 0 dB) at angle deg from boresight.
func cosinePatternDb(deg float64, exponent float64) DbValue {
	if exponent == 0 {
		return 0
	}
	c := math.Abs(math.Cos(NormalizeAngle(deg) * math.Pi / 180.0 / 2.0))
	return exponent * 20.0 * math.Log10(c)
}

// NormalizeAngle maps deg to the range (-180,180].
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360.0)
	if a > 180.0 {
		a -= 360.0
	} else if a <= -180.0 {
		a += 360.0
	}
	return a
}

// HorizontalGain returns the gain towards azimuth azimuthDeg (absolute, same reference as the orientation)
// in the horizontal plane.
func (a *Antenna) HorizontalGain(azimuthDeg float64) DbValue {
	return a.Gain(azimuthDeg, 0)
}

// Gain returns the gain towards the direction (azimuthDeg, elevationDeg).
func (a *Antenna) Gain(azimuthDeg, elevationDeg float64) DbValue {
	g := a.cfg.MaxGainDb +
		cosinePatternDb(azimuthDeg-a.cfg.OrientationDeg, a.hExponent) +
		cosinePatternDb(elevationDeg, a.vExponent)
	return math.Max(g, a.cfg.FloorDb)
}
