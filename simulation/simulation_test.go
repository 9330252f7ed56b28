package simulation

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellsim/cellsim/handover"
	"github.com/cellsim/cellsim/kpi"
	"github.com/cellsim/cellsim/measurement"
	"github.com/cellsim/cellsim/observability"
	"github.com/cellsim/cellsim/visualize"
	. "github.com/cellsim/cellsim/types"
)

func testConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.StopTime = 2 * time.Second
	cfg.Rem.XRes = 10
	cfg.Rem.YRes = 5
	return cfg
}

// singleSiteConfig has one 3-sector site at the origin and a UE on the boresight of sector 0, attached to
// sector 1 which covers the UE only with its pattern floor.
func singleSiteConfig(t *testing.T) *Config {
	cfg := testConfig(t)
	cfg.Topology.Sites = []Position{{}}
	cfg.Topology.Ues = []UeConfig{{Position: Position{X: 150}, Site: 0, Sector: 1}}
	return cfg
}

type handoverRecorder struct {
	handover.NopListener
	events []handover.HandoverEvent
}

func (r *handoverRecorder) OnHandoverCommit(ev handover.HandoverEvent) {
	r.events = append(r.events, ev)
}

type recordingVisualizer struct {
	visualize.NopVisualizer
	inits, stops int
	attaches     []CellId
	reports      int
	commits      []handover.HandoverEvent
}

func (v *recordingVisualizer) Init() { v.inits++ }
func (v *recordingVisualizer) Stop() { v.stops++ }

func (v *recordingVisualizer) OnAttach(_ NodeId, cell CellId, _ SimTime) {
	v.attaches = append(v.attaches, cell)
}

func (v *recordingVisualizer) OnMeasurementReport(*measurement.Report) { v.reports++ }

func (v *recordingVisualizer) OnHandoverCommit(ev handover.HandoverEvent) {
	v.commits = append(v.commits, ev)
}

func countLines(t *testing.T, fn string) int {
	f, err := os.Open(fn)
	require.NoError(t, err)
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	return n
}

func TestTopologyCells(t *testing.T) {
	topo, txs, err := newTopology(&DefaultConfig().Topology)
	require.NoError(t, err)
	assert.Len(t, topo.Sites, 4)
	assert.Len(t, topo.Cells, 12)
	assert.Len(t, txs, 12)
	assert.Equal(t, []CellId{4, 5, 6}, topo.Sites[1].Cells)

	c := topo.Cells[CellIdOf(2, 1, 3)]
	assert.Equal(t, SiteId(2), c.Site)
	assert.Equal(t, 1, c.Sector)
	assert.Equal(t, 120.0, c.Antenna.OrientationDeg)
	assert.Equal(t, Position{X: 200, Y: 400}, c.Position)
}

func TestSimulationHandoverToBoresightSector(t *testing.T) {
	cfg := singleSiteConfig(t)
	sim, err := NewSimulation(cfg)
	require.NoError(t, err)
	rec := &handoverRecorder{}
	sim.Handover().AddListener(rec)

	assert.Equal(t, CellId(2), sim.Handover().ServingCell(1))
	assert.Equal(t, CellId(2), sim.Bearers().Bearer(1).Cell)

	require.NoError(t, sim.Run(context.Background()))
	assert.Equal(t, DurationToSimTime(2*time.Second), sim.Now())

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, CellId(2), ev.Source)
	assert.Equal(t, CellId(1), ev.Target)
	assert.Equal(t, DurationToSimTime(250*time.Millisecond), ev.Time)
	assert.Equal(t, CellId(1), sim.Handover().ServingCell(1))

	b := sim.Bearers().Bearer(1)
	assert.Equal(t, CellId(1), b.Cell)
	assert.Equal(t, 1, b.Switches)
	assert.Equal(t, QciGbrConvVoice, b.Qci)

	sim.Stop()
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "0_kpi.json"))
	require.NoError(t, err)
	var k kpi.Kpi
	require.NoError(t, json.Unmarshal(data, &k))
	assert.Equal(t, uint64(1), k.Handover.Committed)
	assert.Equal(t, uint64(10), k.Measurement.Reports)
	assert.Equal(t, 2.0, k.TimeSec.PeriodSec)
	assert.Equal(t, CellId(1), k.Ues[1].ServingCell)
	assert.True(t, k.Ues[1].Measured)
	assert.Equal(t, "GBR_CONV_VOICE", k.Ues[1].Bearer)

	assert.Equal(t, 11, countLines(t, filepath.Join(cfg.OutputDir, "0_stats.csv")))
	assert.Equal(t, 4, countLines(t, filepath.Join(cfg.OutputDir, "0_handover.csv")))
}

func TestExtraVisualizerRunsBesideStatsLog(t *testing.T) {
	cfg := singleSiteConfig(t)
	vis := &recordingVisualizer{}
	sim, err := NewSimulation(cfg, WithVisualizer(vis))
	require.NoError(t, err)
	assert.Equal(t, 1, vis.inits)
	assert.Equal(t, []CellId{2}, vis.attaches)

	require.NoError(t, sim.Run(context.Background()))
	sim.Stop()
	assert.Equal(t, 1, vis.stops)
	assert.Equal(t, 10, vis.reports)
	require.Len(t, vis.commits, 1)
	assert.Equal(t, CellId(1), vis.commits[0].Target)

	assert.Equal(t, 11, countLines(t, filepath.Join(cfg.OutputDir, "0_stats.csv")))
}

func TestSimulationDefaultScenario(t *testing.T) {
	cfg := testConfig(t)
	cfg.UeLogFiles = true
	sim, err := NewSimulation(cfg)
	require.NoError(t, err)

	for sim.Now() < sim.StopTime() {
		sim.Go(100 * time.Millisecond)
		serving := sim.Handover().ServingCell(1)
		assert.NotEqual(t, InvalidCellId, serving)
		assert.Equal(t, serving, sim.Bearers().Bearer(1).Cell)
		for _, cell := range sim.Measurement().MeasuredCells(1) {
			assert.LessOrEqual(t, len(sim.Measurement().History(1, cell)), cfg.Measurement.WindowLength)
		}
	}
	assert.Equal(t, CellId(1), sim.Handover().ServingCell(1))
	sim.Stop()

	_, err = os.Stat(filepath.Join(cfg.OutputDir, "0_ue1.log"))
	assert.NoError(t, err)
}

func TestSimulationAutoAttach(t *testing.T) {
	cfg := singleSiteConfig(t)
	cfg.Topology.Ues = []UeConfig{
		{Position: Position{X: 150}, Site: AutoAttach},
		{Position: Position{X: -100, Y: -100}, Site: AutoAttach},
	}
	sim, err := NewSimulation(cfg)
	require.NoError(t, err)
	defer sim.Stop()

	assert.Equal(t, CellId(1), sim.Handover().ServingCell(1))
	assert.Equal(t, CellId(3), sim.Handover().ServingCell(2))
}

func TestSimulationGoStopsAtStopTime(t *testing.T) {
	sim, err := NewSimulation(singleSiteConfig(t))
	require.NoError(t, err)
	defer sim.Stop()

	assert.Equal(t, DurationToSimTime(500*time.Millisecond), sim.Go(500*time.Millisecond))
	assert.Equal(t, sim.StopTime(), sim.Go(time.Hour))
	assert.Equal(t, sim.StopTime(), sim.Go(time.Second))
}

func TestSimulationConfigErrorBeforeStart(t *testing.T) {
	cfg := testConfig(t)
	cfg.Measurement.Interval = -time.Second
	_, err := NewSimulation(cfg)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestSimulationRunCancelled(t *testing.T) {
	sim, err := NewSimulation(singleSiteConfig(t))
	require.NoError(t, err)
	defer sim.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = sim.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, sim.Now(), sim.StopTime())
}

func TestSimulationSaveRem(t *testing.T) {
	cfg := testConfig(t)
	sim, err := NewSimulation(cfg)
	require.NoError(t, err)
	defer sim.Stop()

	path, err := sim.SaveRem(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.OutputDir, DefaultRemFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	points := 0
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" && !strings.HasPrefix(line, "#") {
			points++
		}
	}
	assert.Equal(t, 50, points)

	grid, err := sim.RenderRem(context.Background())
	require.NoError(t, err)
	xres, yres := grid.Dims()
	assert.Equal(t, 10, xres)
	assert.Equal(t, 5, yres)
}

func TestSimulationMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	require.NoError(t, err)

	sim, err := NewSimulation(singleSiteConfig(t), WithMetrics(collector))
	require.NoError(t, err)
	require.NoError(t, sim.Run(context.Background()))
	sim.Stop()

	assert.Equal(t, 10.0, testutil.ToFloat64(collector.Measurements))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.HandoversCommitted.WithLabelValues("2", "1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.AttachedUes))
	assert.Equal(t, float64(sim.Scheduler().Dispatched()), testutil.ToFloat64(collector.EventsDispatched))
}

func TestKpiPingPong(t *testing.T) {
	sim, err := NewSimulation(singleSiteConfig(t))
	require.NoError(t, err)
	defer sim.Stop()

	km := sim.Kpi()
	km.OnHandoverCommit(handover.HandoverEvent{Ue: 7, Source: 1, Target: 2, Time: 1000000})
	km.OnHandoverCommit(handover.HandoverEvent{Ue: 7, Source: 2, Target: 1, Time: 1500000})
	km.OnHandoverCommit(handover.HandoverEvent{Ue: 7, Source: 1, Target: 2, Time: 3000000})
	assert.Equal(t, 1, km.Data().Handover.PingPongCount)
}
