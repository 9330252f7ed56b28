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

	"github.com/cellsim/cellsim/logger"
	"github.com/cellsim/cellsim/radiomodel"
	. "github.com/cellsim/cellsim/types"
)

// Site is a base station site hosting one cell per sector.
type Site struct {
	Id       SiteId
	Position Position
	Cells    []CellId
}

// Cell is the radio identity of one sector.
type Cell struct {
	Id         CellId
	Site       SiteId
	Sector     int
	Position   Position
	TxPowerDbm DbValue
	Antenna    radiomodel.AntennaConfig
}

func (c *Cell) String() string {
	return fmt.Sprintf("cell %d (site %d sector %d, %.0f deg)", c.Id, c.Site, c.Sector, c.Antenna.OrientationDeg)
}

// Ue is a mobile terminal with a static position.
type Ue struct {
	Id       NodeId
	Position Position
	Config   UeConfig
	Log      *logger.UeLogger
}

// CellIdOf returns the cell id of a sector: sites are numbered from 0, cells from 1.
func CellIdOf(site SiteId, sector int, sectorsPerSite int) CellId {
	return site*sectorsPerSite + sector + 1
}

// Topology is the static set of sites, cells and UEs of a simulation.
type Topology struct {
	Sites []*Site
	Cells map[CellId]*Cell
	Ues   map[NodeId]*Ue
}

// newTopology builds sites and cells from the configuration. UEs are added by the simulation.
func newTopology(tc *TopologyConfig) (*Topology, []radiomodel.Transmitter, error) {
	topo := &Topology{
		Cells: make(map[CellId]*Cell),
		Ues:   make(map[NodeId]*Ue),
	}
	var txs []radiomodel.Transmitter
	for i, pos := range sitePositions(tc) {
		site := &Site{Id: i, Position: pos}
		for sector := 0; sector < tc.SectorsPerSite; sector++ {
			cell := &Cell{
				Id:         CellIdOf(i, sector, tc.SectorsPerSite),
				Site:       i,
				Sector:     sector,
				Position:   pos,
				TxPowerDbm: tc.TxPowerDbm,
				Antenna:    tc.antennaConfig(sector),
			}
			ant, err := radiomodel.NewAntenna(cell.Antenna)
			if err != nil {
				return nil, nil, err
			}
			topo.Cells[cell.Id] = cell
			site.Cells = append(site.Cells, cell.Id)
			txs = append(txs, radiomodel.Transmitter{
				CellId:     cell.Id,
				SiteId:     i,
				Position:   pos,
				TxPowerDbm: cell.TxPowerDbm,
				Antenna:    ant,
			})
		}
		topo.Sites = append(topo.Sites, site)
	}
	return topo, txs, nil
}
