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
	"github.com/cellsim/cellsim/logger"
	. "github.com/cellsim/cellsim/types"
)

// SitePlacer places base station sites on a rectangular grid, row by row.
type SitePlacer struct {
	X, Y    float64
	Xmax    float64
	Z       float64
	Spacing float64
	isReset bool
}

// NewSitePlacer creates a placer that starts at (0,0) and fills rows of sitesPerRow sites.
func NewSitePlacer(spacing float64, sitesPerRow int, z float64) *SitePlacer {
	logger.AssertTrue(spacing > 0 && sitesPerRow >= 1)
	return &SitePlacer{
		Xmax:    spacing * float64(sitesPerRow-1),
		Z:       z,
		Spacing: spacing,
		isReset: true,
	}
}

// NextSitePosition picks the position of the next site.
func (sp *SitePlacer) NextSitePosition() Position {
	if !sp.isReset {
		sp.X += sp.Spacing
		if sp.X > sp.Xmax+sp.Spacing/2 {
			sp.X = 0
			sp.Y += sp.Spacing
		}
	}
	sp.isReset = false
	return Position{X: sp.X, Y: sp.Y, Z: sp.Z}
}

// sitePositions returns the configured site positions, or places NumSites sites on the grid.
func sitePositions(tc *TopologyConfig) []Position {
	if len(tc.Sites) > 0 {
		return tc.Sites
	}
	sp := NewSitePlacer(tc.SiteSpacing, tc.SitesPerRow, tc.SiteHeight)
	res := make([]Position, 0, tc.NumSites)
	for i := 0; i < tc.NumSites; i++ {
		res = append(res, sp.NextSitePosition())
	}
	return res
}
