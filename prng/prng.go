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

package prng

import (
	"math/rand"
	"time"

	"github.com/cellsim/cellsim/logger"
)

type RandomSeed int64

// Generators derives independent, reproducible seeds from a single root seed.
type Generators struct {
	RootSeed int64

	fadingSeedGenerator *rand.Rand
	ueOrderGenerator    *rand.Rand
}

// NewGenerators creates the seed generators. A rootSeed of 0 selects a time-based seed.
func NewGenerators(rootSeed int64) *Generators {
	if rootSeed == 0 {
		rootSeed = time.Now().UnixNano()
	}
	root := rand.New(rand.NewSource(rootSeed))
	g := &Generators{
		RootSeed:            rootSeed,
		fadingSeedGenerator: rand.New(rand.NewSource(rootSeed + root.Int63n(1e10))),
		ueOrderGenerator:    rand.New(rand.NewSource(rootSeed + root.Int63n(1e10))),
	}
	logger.Debugf("prng root seed %d", rootSeed)
	return g
}

// NewShadowFadingSeed generates the seed of a new shadow fading model.
func (g *Generators) NewShadowFadingSeed() RandomSeed {
	return RandomSeed(g.fadingSeedGenerator.Int63())
}

// NewMeasurementPhase returns a random offset in [0, period) used to de-synchronize periodic UE measurements.
func (g *Generators) NewMeasurementPhase(period time.Duration) time.Duration {
	if period <= 0 {
		return 0
	}
	return time.Duration(g.ueOrderGenerator.Int63n(int64(period)))
}
