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

// default radio parameters
const (
	defaultFrequencyHz       float64 = 2120e6 // LTE band 1 downlink, EARFCN 100
	defaultReferenceDistance float64 = 1.0    // meters
	defaultMinDistance       float64 = 1.0    // meters
	defaultAntennaFloorDb    DbValue = -30.0
	speedOfLight             float64 = 299792458.0
)

const (
	ModelFreeSpace   = "FreeSpace"
	ModelLogDistance = "LogDistance"
	ModelUrbanMacro  = "UrbanMacro"
)

// PathLossParams stores the parameters of the log-distance path loss model.
type PathLossParams struct {
	Model               string  `yaml:"model"`
	FrequencyHz         float64 `yaml:"frequency_hz"`        // carrier frequency, used for the reference loss
	Exponent            float64 `yaml:"exponent"`            // path loss exponent n
	ReferenceDistance   float64 `yaml:"reference_distance"`  // d0 in meters
	MinDistance         float64 `yaml:"min_distance"`        // distances below this are evaluated at this value
	ShadowFadingSigmaDb DbValue `yaml:"shadow_fading_sigma"` // 0 disables shadow fading
}

// NewPathLossParams gets a parameter set for a named model, or nil if the model is unknown.
func NewPathLossParams(modelName string) *PathLossParams {
	p := &PathLossParams{
		Model:             modelName,
		FrequencyHz:       defaultFrequencyHz,
		ReferenceDistance: defaultReferenceDistance,
		MinDistance:       defaultMinDistance,
	}
	switch modelName {
	case ModelFreeSpace:
		p.Exponent = 2.0
	case ModelLogDistance:
		p.Exponent = 3.0
	case ModelUrbanMacro:
		p.Exponent = 3.76 // 3GPP TR 36.814 macro, 37.6 log10(R)
		p.ShadowFadingSigmaDb = 8.0
	default:
		return nil
	}
	return p
}

// Validate checks the parameters.
func (p *PathLossParams) Validate() error {
	if p.FrequencyHz <= 0 {
		return NewConfigurationError("pathloss.frequency_hz", p.FrequencyHz, "must be positive")
	}
	if p.Exponent <= 0 {
		return NewConfigurationError("pathloss.exponent", p.Exponent, "must be positive")
	}
	if p.ReferenceDistance <= 0 {
		return NewConfigurationError("pathloss.reference_distance", p.ReferenceDistance, "must be positive")
	}
	if p.MinDistance <= 0 {
		return NewConfigurationError("pathloss.min_distance", p.MinDistance, "must be positive")
	}
	if p.ShadowFadingSigmaDb < 0 {
		return NewConfigurationError("pathloss.shadow_fading_sigma", p.ShadowFadingSigmaDb, "must not be negative")
	}
	return nil
}

// referenceLossDb is the free-space (Friis) loss at the reference distance.
func (p *PathLossParams) referenceLossDb() DbValue {
	return 20.0 * math.Log10(4.0*math.Pi*p.ReferenceDistance*p.FrequencyHz/speedOfLight)
}
