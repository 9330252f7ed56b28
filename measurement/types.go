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
	"math"
	"time"

	. "github.com/cellsim/cellsim/types"
)

const (
	thermalNoiseDbmPerHz DbValue = -174.0
	resourceBlockHz      float64 = 180e3
	subcarriersPerRb     float64 = 12

	RsrqRangeMin = 0
	RsrqRangeMax = 34
)

// Config holds the measurement parameters.
type Config struct {
	Interval          time.Duration `yaml:"interval"`           // time between two measurements of a UE
	WindowLength      int           `yaml:"window"`             // max samples kept per (UE, cell)
	FilterCoefficient int           `yaml:"filter_coefficient"` // 3GPP L3 filter k; 0 disables filtering
	Range             float64       `yaml:"range"`              // max distance (m) of a measurable cell; 0 is unlimited
	ResourceBlocks    int           `yaml:"resource_blocks"`    // downlink bandwidth in RBs
	NoiseFigureDb     DbValue       `yaml:"noise_figure"`       // UE receiver noise figure
	RandomPhase       bool          `yaml:"random_phase"`       // spread the first measurement of UEs over one interval
}

// DefaultConfig returns the default measurement configuration: 200 ms reporting, 25 RBs (5 MHz).
func DefaultConfig() Config {
	return Config{
		Interval:          200 * time.Millisecond,
		WindowLength:      10,
		FilterCoefficient: 4,
		Range:             0,
		ResourceBlocks:    25,
		NoiseFigureDb:     9.0,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return NewConfigurationError("measurement.interval", c.Interval, "must be positive")
	}
	if c.WindowLength < 1 {
		return NewConfigurationError("measurement.window", c.WindowLength, "must be at least 1")
	}
	if c.FilterCoefficient < 0 || c.FilterCoefficient > 19 {
		return NewConfigurationError("measurement.filter_coefficient", c.FilterCoefficient, "must be in 0..19")
	}
	if c.Range < 0 {
		return NewConfigurationError("measurement.range", c.Range, "must not be negative")
	}
	if c.ResourceBlocks < 1 {
		return NewConfigurationError("measurement.resource_blocks", c.ResourceBlocks, "must be at least 1")
	}
	return nil
}

// filterWeight returns a = 1/2^(k/4), see 3GPP TS 36.331 5.5.3.2.
func (c *Config) filterWeight() float64 {
	return 1.0 / math.Pow(2.0, float64(c.FilterCoefficient)/4.0)
}

func (c *Config) noiseDbm() DbValue {
	return thermalNoiseDbmPerHz + 10.0*math.Log10(float64(c.ResourceBlocks)*resourceBlockHz) + c.NoiseFigureDb
}

// Sample is a single measurement of one cell by one UE.
type Sample struct {
	CellId          CellId
	Time            SimTime
	RxPowerDbm      DbValue // wideband received power
	RsrpDbm         DbValue
	RsrqDb          DbValue
	SinrDb          DbValue
	FilteredRsrpDbm DbValue
	FilteredRsrqDb  DbValue
}

// RsrqRange returns the filtered RSRQ mapped to the 3GPP TS 36.133 reporting range 0..34.
func (s *Sample) RsrqRange() int {
	return RsrqDbToRange(s.FilteredRsrqDb)
}

// RsrqDbToRange maps an RSRQ value (dB) to the reporting range 0..34.
func RsrqDbToRange(rsrqDb DbValue) int {
	r := int(math.Floor(2 * (rsrqDb + 20)))
	if r < RsrqRangeMin {
		r = RsrqRangeMin
	} else if r > RsrqRangeMax {
		r = RsrqRangeMax
	}
	return r
}

// Report is the result of one measurement of a UE. Serving is nil when the serving cell was not measurable.
type Report struct {
	Ue         NodeId
	Time       SimTime
	Serving    *Sample
	Neighbours []Sample // ascending cell id
}

// BestNeighbour returns the neighbour with the highest filtered RSRQ, or nil if there is none.
func (r *Report) BestNeighbour() *Sample {
	var best *Sample
	for i := range r.Neighbours {
		if best == nil || r.Neighbours[i].FilteredRsrqDb > best.FilteredRsrqDb {
			best = &r.Neighbours[i]
		}
	}
	return best
}

// Neighbour returns the sample of neighbour cell, or nil if it was not measured.
func (r *Report) Neighbour(cell CellId) *Sample {
	for i := range r.Neighbours {
		if r.Neighbours[i].CellId == cell {
			return &r.Neighbours[i]
		}
	}
	return nil
}

func linearMw(dbm DbValue) float64 {
	return math.Pow(10, dbm/10.0)
}

func dbm(mw float64) DbValue {
	return 10.0 * math.Log10(mw)
}
