package measurement

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellsim/cellsim/dispatcher"
	. "github.com/cellsim/cellsim/types"
)

type fakeRadio struct {
	power map[CellId]DbValue
	dist  map[CellId]float64
}

func (f *fakeRadio) Cells() []CellId {
	var cells []CellId
	for c := 1; c <= len(f.power); c++ {
		cells = append(cells, c)
	}
	return cells
}

func (f *fakeRadio) ReceivedPower(cell CellId, rx Position) (DbValue, error) {
	if f.dist[cell] == 0 {
		return 0, ErrZeroDistance
	}
	return f.power[cell], nil
}

func (f *fakeRadio) Distance(cell CellId, rx Position) (float64, error) {
	return f.dist[cell], nil
}

type fixedServing CellId

func (s fixedServing) ServingCell(ue NodeId) CellId {
	return CellId(s)
}

func newTestEngine(t *testing.T, cfg Config, radio *fakeRadio) (*Engine, *dispatcher.Scheduler) {
	sched := dispatcher.NewScheduler()
	e, err := NewEngine(cfg, sched, radio)
	require.NoError(t, err)
	e.SetServingCellProvider(fixedServing(1))
	require.NoError(t, e.AddUe(1, Position{}, nil))
	return e, sched
}

func twoCellRadio() *fakeRadio {
	return &fakeRadio{
		power: map[CellId]DbValue{1: -60, 2: -70},
		dist:  map[CellId]float64{1: 100, 2: 300},
	}
}

func TestSampleQuantities(t *testing.T) {
	cfg := DefaultConfig()
	e, _ := newTestEngine(t, cfg, twoCellRadio())

	r, err := e.SampleUe(1)
	require.NoError(t, err)
	require.NotNil(t, r.Serving)
	require.Len(t, r.Neighbours, 1)

	s := r.Serving
	assert.Equal(t, CellId(1), s.CellId)
	assert.InDelta(t, -60-10*math.Log10(12*25), s.RsrpDbm, 1e-9)

	noiseMw := linearMw(cfg.noiseDbm())
	rssi := dbm(linearMw(-60) + linearMw(-70) + noiseMw)
	assert.InDelta(t, 10*math.Log10(25)+s.RsrpDbm-rssi, s.RsrqDb, 1e-9)
	assert.InDelta(t, -60-dbm(linearMw(-70)+noiseMw), s.SinrDb, 1e-9)

	// first sample initializes the filter
	assert.Equal(t, s.RsrpDbm, s.FilteredRsrpDbm)
	assert.Equal(t, s.RsrqDb, s.FilteredRsrqDb)
	assert.Greater(t, s.SinrDb, r.Neighbours[0].SinrDb)
}

func TestL3FilterSmoothsChange(t *testing.T) {
	radio := twoCellRadio()
	e, _ := newTestEngine(t, DefaultConfig(), radio)
	first, err := e.SampleUe(1)
	require.NoError(t, err)

	radio.power[1] = -50
	second, err := e.SampleUe(1)
	require.NoError(t, err)

	a := 1 / math.Pow(2, 1)
	expected := (1-a)*first.Serving.FilteredRsrpDbm + a*second.Serving.RsrpDbm
	assert.InDelta(t, expected, second.Serving.FilteredRsrpDbm, 1e-9)
	assert.Less(t, second.Serving.FilteredRsrpDbm, second.Serving.RsrpDbm)
}

func TestHistoryWindowBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowLength = 3
	e, sched := newTestEngine(t, cfg, twoCellRadio())
	require.NoError(t, e.Start(1, 0))

	sched.Advance(2 * time.Second)
	h := e.History(1, 1)
	assert.Len(t, h, 3)
	for i := 1; i < len(h); i++ {
		assert.Equal(t, DurationToSimTime(cfg.Interval), h[i].Time-h[i-1].Time)
	}
	latest, ok := e.Latest(1, 1)
	require.True(t, ok)
	assert.Equal(t, h[2], latest)
	assert.Equal(t, uint64(11), e.Counters.Reports)
}

func TestRangeLimitAndGaps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Range = 200
	e, _ := newTestEngine(t, cfg, twoCellRadio())

	r, err := e.SampleUe(1)
	require.NoError(t, err)
	assert.NotNil(t, r.Serving)
	assert.Empty(t, r.Neighbours)
	assert.Empty(t, e.History(1, 2))

	e.SetServingCellProvider(fixedServing(2))
	r, err = e.SampleUe(1)
	require.NoError(t, err)
	assert.Nil(t, r.Serving)
	assert.Equal(t, uint64(1), e.Counters.Gaps)
}

func TestZeroDistanceCellSkipped(t *testing.T) {
	radio := twoCellRadio()
	radio.dist[2] = 0
	e, _ := newTestEngine(t, DefaultConfig(), radio)
	r, err := e.SampleUe(1)
	require.NoError(t, err)
	assert.Empty(t, r.Neighbours)
	assert.Equal(t, []CellId{1}, e.MeasuredCells(1))
}

func TestListenersAndStop(t *testing.T) {
	e, sched := newTestEngine(t, DefaultConfig(), twoCellRadio())
	var perUe, all int
	require.NoError(t, e.Subscribe(1, ReportListenerFunc(func(r *Report) {
		perUe++
		assert.Equal(t, all, perUe-1)
	})))
	e.SubscribeAll(ReportListenerFunc(func(r *Report) {
		all++
	}))
	require.NoError(t, e.Start(1, 100*time.Millisecond))

	sched.Advance(500 * time.Millisecond)
	assert.Equal(t, 3, perUe)
	e.Stop(1)
	assert.False(t, e.IsActive(1))
	sched.Advance(time.Second)
	assert.Equal(t, 3, all)
}

func TestResetHistory(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig(), twoCellRadio())
	_, err := e.SampleUe(1)
	require.NoError(t, err)
	e.ResetHistory(1, 1)
	assert.Empty(t, e.History(1, 1))
	_, ok := e.Latest(1, 1)
	assert.False(t, ok)
	assert.Len(t, e.History(1, 2), 1)
}

func TestUnknownUe(t *testing.T) {
	e, _ := newTestEngine(t, DefaultConfig(), twoCellRadio())
	_, err := e.SampleUe(7)
	assert.True(t, errors.Is(err, ErrUnknownUe))
	assert.True(t, errors.Is(e.Start(7, 0), ErrUnknownUe))
	assert.Error(t, e.AddUe(1, Position{}, nil))
}

func TestRsrqDbToRange(t *testing.T) {
	assert.Equal(t, 0, RsrqDbToRange(-25))
	assert.Equal(t, 0, RsrqDbToRange(-20))
	assert.Equal(t, 29, RsrqDbToRange(-5.5))
	assert.Equal(t, 34, RsrqDbToRange(-3))
	assert.Equal(t, 34, RsrqDbToRange(0))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interval = 0
	err := cfg.Validate()
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "measurement.interval", cfgErr.Param)

	cfg = DefaultConfig()
	cfg.WindowLength = 0
	assert.True(t, errors.Is(cfg.Validate(), ErrConfiguration))
}
