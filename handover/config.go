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
	"time"

	"github.com/cellsim/cellsim/measurement"
	. "github.com/cellsim/cellsim/types"
)

const (
	AlgorithmA2A4Rsrq = "a2a4-rsrq"
)

// Config holds the handover algorithm parameters. Threshold and offset are in RSRQ range units (0..34).
type Config struct {
	Algorithm            string        `yaml:"algorithm"`
	ServingCellThreshold int           `yaml:"serving_cell_threshold"`
	NeighbourCellOffset  int           `yaml:"neighbour_cell_offset"`
	ExecutionDelay       time.Duration `yaml:"execution_delay"`
}

func DefaultConfig() Config {
	return Config{
		Algorithm:            AlgorithmA2A4Rsrq,
		ServingCellThreshold: 30,
		NeighbourCellOffset:  1,
		ExecutionDelay:       50 * time.Millisecond,
	}
}

func (c *Config) Validate() error {
	if c.Algorithm != AlgorithmA2A4Rsrq {
		return NewConfigurationError("handover.algorithm", c.Algorithm, "unsupported algorithm (supported: %s)", AlgorithmA2A4Rsrq)
	}
	if c.ServingCellThreshold < measurement.RsrqRangeMin || c.ServingCellThreshold > measurement.RsrqRangeMax {
		return NewConfigurationError("handover.serving_cell_threshold", c.ServingCellThreshold, "must be in %d..%d",
			measurement.RsrqRangeMin, measurement.RsrqRangeMax)
	}
	if c.NeighbourCellOffset < 0 || c.NeighbourCellOffset > measurement.RsrqRangeMax {
		return NewConfigurationError("handover.neighbour_cell_offset", c.NeighbourCellOffset, "must be in 0..%d",
			measurement.RsrqRangeMax)
	}
	if c.ExecutionDelay < 0 {
		return NewConfigurationError("handover.execution_delay", c.ExecutionDelay, "must not be negative")
	}
	return nil
}
