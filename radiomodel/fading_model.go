// Copyright (c) 2023, The OTNS Authors.
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
	"math/rand"

	"github.com/cellsim/cellsim/prng"
	. "github.com/cellsim/cellsim/types"
)

type shadowFading struct {
	rndSeed int64
}

func newShadowFading(seed prng.RandomSeed) *shadowFading {
	sf := &shadowFading{
		rndSeed: int64(seed),
	}
	return sf
}

// computeShadowFading calculates shadow fading (SF) for a radio link based on a simple random process.
// It models a fixed, position-dependent radio signal power attenuation (SF>0) or increase (SF<0) due to multipath effects
// and static obstacles. In the dB domain it is modeled as a normal distribution (mu=0, sigma).
// See https://en.wikipedia.org/wiki/Fading and 3GPP TR 38.901 V17.0.0, section 7.4.1 and 7.4.4.
// The value only depends on the transmitter and the receiver position rounded to 1 m, so repeated queries
// for the same link return the same value.
func (sf *shadowFading) computeShadowFading(tx Position, rx Position, params *PathLossParams) DbValue {
	if params.ShadowFadingSigmaDb <= 0 {
		return 0.0
	}

	x1 := int64(math.Round(tx.X))
	y1 := int64(math.Round(tx.Y))
	x2 := int64(math.Round(rx.X))
	y2 := int64(math.Round(rx.Y))

	// give each (tx,rx) coordinate combination its own fixed seed-value.
	seed := sf.rndSeed + x1 + y1<<16 + x2<<32 + y2<<48
	rnd := rand.New(rand.NewSource(seed))
	// draw a single (reproducible) random number based on the position coordinates.
	return rnd.NormFloat64() * params.ShadowFadingSigmaDb
}
