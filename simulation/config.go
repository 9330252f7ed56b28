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
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cellsim/cellsim/handover"
	"github.com/cellsim/cellsim/logger"
	"github.com/cellsim/cellsim/measurement"
	"github.com/cellsim/cellsim/radiomodel"
	"github.com/cellsim/cellsim/rem"
	. "github.com/cellsim/cellsim/types"
)

const (
	DefaultSimulationId = 0
	DefaultStopTime     = 10 * time.Second
	DefaultRemFile      = "rem.out"

	// AutoAttach as UeConfig.Site selects the cell with the best RSRP at setup.
	AutoAttach = -1
)

// AntennaConfig holds the antenna parameters shared by all sectors; orientation is set per sector.
type AntennaConfig struct {
	HorizontalBeamwidthDeg float64 `yaml:"horizontal_beamwidth"`
	VerticalBeamwidthDeg   float64 `yaml:"vertical_beamwidth"`
	MaxGainDb              DbValue `yaml:"max_gain"`
	FloorDb                DbValue `yaml:"floor"`
}

type UeConfig struct {
	Position Position `yaml:"position"`
	Site     int      `yaml:"site"` // initial serving site, or AutoAttach
	Sector   int      `yaml:"sector"`
}

type TopologyConfig struct {
	Sites          []Position    `yaml:"sites"`         // explicit site positions; if empty, sites are placed on a grid
	NumSites       int           `yaml:"num_sites"`     // number of grid-placed sites
	SiteSpacing    float64       `yaml:"site_spacing"`  // grid spacing in meters
	SitesPerRow    int           `yaml:"sites_per_row"` // grid row width
	SiteHeight     float64       `yaml:"site_height"`   // z of grid-placed sites
	SectorsPerSite int           `yaml:"sectors_per_site"`
	Orientations   []float64     `yaml:"orientations"` // one per sector, degrees
	Antenna        AntennaConfig `yaml:"antenna"`
	TxPowerDbm     DbValue       `yaml:"tx_power"`
	Ues            []UeConfig    `yaml:"ues"`
}

type RemConfig struct {
	Enabled    bool       `yaml:"enabled"`
	File       string     `yaml:"file"`
	Workers    int        `yaml:"workers"`
	rem.Params `yaml:",inline"`
}

type BearerConfig struct {
	Qci string `yaml:"qci"`
}

// Config is the complete configuration of a simulation.
type Config struct {
	Id          int                       `yaml:"id"`
	OutputDir   string                    `yaml:"output_dir"`
	Seed        int64                     `yaml:"seed"`
	StopTime    time.Duration             `yaml:"stop_time"`
	LogLevel    string                    `yaml:"log_level"`
	UeLogFiles  bool                      `yaml:"ue_log_files"`
	Topology    TopologyConfig            `yaml:"topology"`
	PathLoss    radiomodel.PathLossParams `yaml:"pathloss"`
	Measurement measurement.Config        `yaml:"measurement"`
	Handover    handover.Config           `yaml:"handover"`
	Bearer      BearerConfig              `yaml:"bearer"`
	Rem         RemConfig                 `yaml:"rem"`
}

// DefaultConfig returns the reference scenario: four 3-sector sites, Friis path loss, one UE far east of the
// sites attached to the second sector of site 0.
func DefaultConfig() *Config {
	return &Config{
		Id:        DefaultSimulationId,
		OutputDir: DefaultOutputDir,
		Seed:      1,
		StopTime:  DefaultStopTime,
		LogLevel:  logger.GetLevelString(logger.DefaultLevel),
		Topology: TopologyConfig{
			Sites: []Position{
				{X: 0, Y: 0},
				{X: 0, Y: 200},
				{X: 200, Y: 400},
				{X: 200, Y: 600},
			},
			SiteSpacing:    200,
			SitesPerRow:    2,
			SectorsPerSite: 3,
			Orientations:   []float64{0, 120, 240},
			Antenna: AntennaConfig{
				HorizontalBeamwidthDeg: 60,
				VerticalBeamwidthDeg:   60,
				MaxGainDb:              0,
				FloorDb:                -30,
			},
			TxPowerDbm: 50,
			Ues: []UeConfig{
				{Position: Position{X: 1000}, Site: 0, Sector: 1},
			},
		},
		PathLoss:    *radiomodel.NewPathLossParams(radiomodel.ModelFreeSpace),
		Measurement: measurement.DefaultConfig(),
		Handover:    handover.DefaultConfig(),
		Bearer:      BearerConfig{Qci: QciGbrConvVoice.String()},
		Rem: RemConfig{
			Enabled: true,
			File:    DefaultRemFile,
			Params:  rem.DefaultParams(),
		},
	}
}

// LoadConfig reads a YAML file and overlays it onto the default configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config")
	}
	cfg := DefaultConfig()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err = applySiteGrid(data, cfg); err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// siteKeys records which site layout keys a YAML file sets.
type siteKeys struct {
	Topology struct {
		Sites       []Position `yaml:"sites"`
		NumSites    *int       `yaml:"num_sites"`
		SiteSpacing *float64   `yaml:"site_spacing"`
		SitesPerRow *int       `yaml:"sites_per_row"`
	} `yaml:"topology"`
}

// applySiteGrid drops the default explicit sites when the file asks for grid placement. A file giving both
// explicit sites and a site count is rejected.
func applySiteGrid(data []byte, cfg *Config) error {
	var keys siteKeys
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return errors.Wrap(err, "parse topology")
	}
	tk := &keys.Topology
	if len(tk.Sites) > 0 {
		if tk.NumSites != nil && *tk.NumSites != len(tk.Sites) && *tk.NumSites != 0 {
			return NewConfigurationError("topology.num_sites", *tk.NumSites,
				"conflicts with %d explicit topology.sites", len(tk.Sites))
		}
		return nil
	}
	if tk.NumSites != nil || tk.SiteSpacing != nil || tk.SitesPerRow != nil {
		cfg.Topology.Sites = nil
	}
	return nil
}

// Save writes the configuration as YAML.
func (cfg *Config) Save(path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "write config %s", path)
}

// NumberOfSites returns the number of sites of the topology.
func (tc *TopologyConfig) NumberOfSites() int {
	if len(tc.Sites) > 0 {
		return len(tc.Sites)
	}
	return tc.NumSites
}

func (tc *TopologyConfig) antennaConfig(sector int) radiomodel.AntennaConfig {
	return radiomodel.AntennaConfig{
		OrientationDeg:         tc.Orientations[sector],
		HorizontalBeamwidthDeg: tc.Antenna.HorizontalBeamwidthDeg,
		VerticalBeamwidthDeg:   tc.Antenna.VerticalBeamwidthDeg,
		MaxGainDb:              tc.Antenna.MaxGainDb,
		FloorDb:                tc.Antenna.FloorDb,
	}
}

func (tc *TopologyConfig) Validate() error {
	if len(tc.Sites) == 0 {
		if tc.NumSites < 1 {
			return NewConfigurationError("topology.num_sites", tc.NumSites, "at least one site is required")
		}
		if tc.SiteSpacing <= 0 {
			return NewConfigurationError("topology.site_spacing", tc.SiteSpacing, "must be positive")
		}
		if tc.SitesPerRow < 1 {
			return NewConfigurationError("topology.sites_per_row", tc.SitesPerRow, "must be at least 1")
		}
	}
	if tc.SectorsPerSite < 1 {
		return NewConfigurationError("topology.sectors_per_site", tc.SectorsPerSite, "must be at least 1")
	}
	if len(tc.Orientations) != tc.SectorsPerSite {
		return NewConfigurationError("topology.orientations", tc.Orientations, "need one orientation per sector (%d)",
			tc.SectorsPerSite)
	}
	for sector := range tc.Orientations {
		if _, err := radiomodel.NewAntenna(tc.antennaConfig(sector)); err != nil {
			return err
		}
	}
	numSites := tc.NumberOfSites()
	sites := sitePositions(tc)
	for i, ue := range tc.Ues {
		for j, pos := range sites {
			if ue.Position == pos {
				return NewConfigurationError("topology.ues.position", ue.Position,
					"UE %d is co-located with site %d", i+1, j)
			}
		}
		if ue.Site == AutoAttach {
			continue
		}
		if ue.Site < 0 || ue.Site >= numSites {
			return NewConfigurationError("topology.ues.site", ue.Site, "UE %d: no such site", i+1)
		}
		if ue.Sector < 0 || ue.Sector >= tc.SectorsPerSite {
			return NewConfigurationError("topology.ues.sector", ue.Sector, "UE %d: no such sector", i+1)
		}
	}
	return nil
}

// Validate checks the complete configuration. The first violated parameter is reported.
func (cfg *Config) Validate() error {
	if cfg.Id < 0 {
		return NewConfigurationError("id", cfg.Id, "must not be negative")
	}
	if cfg.StopTime <= 0 {
		return NewConfigurationError("stop_time", cfg.StopTime, "must be positive")
	}
	if cfg.LogLevel != "" && !logger.IsLevelString(cfg.LogLevel) {
		return NewConfigurationError("log_level", cfg.LogLevel, "unknown log level")
	}
	if err := cfg.Topology.Validate(); err != nil {
		return err
	}
	if err := cfg.PathLoss.Validate(); err != nil {
		return err
	}
	if err := cfg.Measurement.Validate(); err != nil {
		return err
	}
	if err := cfg.Handover.Validate(); err != nil {
		return err
	}
	if _, err := ParseQci(cfg.Bearer.Qci); err != nil {
		return err
	}
	if cfg.Rem.Enabled {
		if err := cfg.Rem.Params.Validate(); err != nil {
			return err
		}
	}
	return nil
}
