package simulation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/cellsim/cellsim/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Topology.NumberOfSites())
	assert.Equal(t, []float64{0, 120, 240}, cfg.Topology.Orientations)
	assert.Equal(t, 30, cfg.Handover.ServingCellThreshold)
	assert.Equal(t, 1, cfg.Handover.NeighbourCellOffset)
	assert.Equal(t, 10*time.Second, cfg.StopTime)
	assert.Equal(t, 100, cfg.Rem.XRes)
	assert.Equal(t, 75, cfg.Rem.YRes)
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(`
stop_time: 2s
handover:
  serving_cell_threshold: 20
  execution_delay: 80ms
measurement:
  interval: 100ms
rem:
  x_res: 10
`), 0644))

	cfg, err := LoadConfig(fn)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.StopTime)
	assert.Equal(t, 20, cfg.Handover.ServingCellThreshold)
	assert.Equal(t, 1, cfg.Handover.NeighbourCellOffset)
	assert.Equal(t, 80*time.Millisecond, cfg.Handover.ExecutionDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.Measurement.Interval)
	assert.Equal(t, 10, cfg.Rem.XRes)
	assert.Equal(t, 75, cfg.Rem.YRes)
	assert.Len(t, cfg.Topology.Sites, 4)
}

func TestConfigSaveLoad(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := DefaultConfig()
	cfg.Topology.Ues = append(cfg.Topology.Ues, UeConfig{Position: Position{X: 10, Y: 20}, Site: AutoAttach})
	require.NoError(t, cfg.Save(fn))

	loaded, err := LoadConfig(fn)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(fn, []byte("measurement:\n  window: 0\n"), 0644))
	_, err := LoadConfig(fn)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "measurement.window", cfgErr.Param)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *Config)
		param  string
	}{
		{"stop time", func(cfg *Config) { cfg.StopTime = 0 }, "stop_time"},
		{"orientations", func(cfg *Config) { cfg.Topology.Orientations = []float64{0, 180} }, "topology.orientations"},
		{"beamwidth", func(cfg *Config) { cfg.Topology.Antenna.HorizontalBeamwidthDeg = 0 }, "antenna.horizontal_beamwidth"},
		{"ue site", func(cfg *Config) { cfg.Topology.Ues[0].Site = 4 }, "topology.ues.site"},
		{"ue sector", func(cfg *Config) { cfg.Topology.Ues[0].Sector = 3 }, "topology.ues.sector"},
		{"no sites", func(cfg *Config) { cfg.Topology.Sites = nil }, "topology.num_sites"},
		{"ue at site", func(cfg *Config) { cfg.Topology.Ues[0].Position = Position{X: 200, Y: 400} }, "topology.ues.position"},
		{"exponent", func(cfg *Config) { cfg.PathLoss.Exponent = 0 }, "pathloss.exponent"},
		{"threshold", func(cfg *Config) { cfg.Handover.ServingCellThreshold = -1 }, "handover.serving_cell_threshold"},
		{"qci", func(cfg *Config) { cfg.Bearer.Qci = "BEST_EFFORT" }, "bearer.qci"},
		{"rem", func(cfg *Config) { cfg.Rem.YRes = 0 }, "rem.y_res"},
		{"log level", func(cfg *Config) { cfg.LogLevel = "verbose" }, "log_level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(cfg)
			err := cfg.Validate()
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tc.param, cfgErr.Param)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestUeAtGridSiteRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Topology.Sites = nil
	cfg.Topology.NumSites = 6
	cfg.Topology.SitesPerRow = 3
	cfg.Topology.Ues[0].Position = Position{X: 400, Y: 200}
	err := cfg.Validate()
	require.True(t, errors.Is(err, ErrConfiguration), "got %v", err)

	cfg.Topology.Ues[0].Position = Position{X: 400, Y: 200, Z: 1.5}
	assert.NoError(t, cfg.Validate())
}

func TestNewSimulationRejectsUeAtSite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Topology.Ues = []UeConfig{{Position: Position{}, Site: 0, Sector: 0}}
	sim, err := NewSimulation(cfg)
	assert.Nil(t, sim)
	require.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "topology.ues.position", cfgErr.Param)
}

func TestLoadConfigGridSites(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(`
topology:
  num_sites: 7
  site_spacing: 500
  sites_per_row: 3
  ues:
    - position: {x: 250, y: 250}
      site: 4
      sector: 0
`), 0644))

	cfg, err := LoadConfig(fn)
	require.NoError(t, err)
	assert.Empty(t, cfg.Topology.Sites)
	assert.Equal(t, 7, cfg.Topology.NumberOfSites())
	positions := sitePositions(&cfg.Topology)
	require.Len(t, positions, 7)
	assert.Equal(t, Position{X: 1000, Y: 0}, positions[2])
	assert.Equal(t, Position{X: 0, Y: 1000}, positions[6])

	topo, _, err := newTopology(&cfg.Topology)
	require.NoError(t, err)
	assert.Len(t, topo.Cells, 21)
}

func TestLoadConfigSitesConflict(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "conflict.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(`
topology:
  num_sites: 3
  sites:
    - {x: 0, y: 0}
`), 0644))

	_, err := LoadConfig(fn)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "topology.num_sites", cfgErr.Param)
}

func TestRemValidationOnlyWhenEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rem.Enabled = false
	cfg.Rem.XRes = 0
	assert.NoError(t, cfg.Validate())
}

func TestSitePlacer(t *testing.T) {
	tc := &TopologyConfig{NumSites: 5, SiteSpacing: 100, SitesPerRow: 2, SiteHeight: 30}
	assert.Equal(t, []Position{
		{X: 0, Y: 0, Z: 30},
		{X: 100, Y: 0, Z: 30},
		{X: 0, Y: 100, Z: 30},
		{X: 100, Y: 100, Z: 30},
		{X: 0, Y: 200, Z: 30},
	}, sitePositions(tc))

	tc.Sites = []Position{{X: 1}}
	assert.Equal(t, []Position{{X: 1}}, sitePositions(tc))
}

func TestParseQci(t *testing.T) {
	q, err := ParseQci("gbr_conv_voice")
	require.NoError(t, err)
	assert.Equal(t, QciGbrConvVoice, q)
	assert.True(t, q.IsGbr())
	assert.Equal(t, "GBR_CONV_VOICE", q.String())

	q, err = ParseQci("NGBR_VIDEO_TCP_DEFAULT")
	require.NoError(t, err)
	assert.False(t, q.IsGbr())
	assert.Equal(t, Qci(9), q)
}
