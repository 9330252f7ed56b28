package rem

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/cellsim/cellsim/types"
)

// pointSources models cells as isotropic sources whose power drops linearly with distance.
type pointSources map[CellId]Position

func (p pointSources) Cells() []CellId {
	var cells []CellId
	for c := range p {
		cells = append(cells, c)
	}
	return cells
}

func (p pointSources) ReceivedPower(cell CellId, rx Position) (DbValue, error) {
	pos, ok := p[cell]
	if !ok {
		return 0, ErrUnknownCell
	}
	d := pos.DistanceTo(rx)
	if d == 0 {
		return 0, ErrZeroDistance
	}
	return -d, nil
}

type countingRecorder int

func (c *countingRecorder) RemPointsRendered(n int) {
	*c += countingRecorder(n)
}

type rowProgress struct {
	rows, points atomic.Int64
}

func (rp *rowProgress) RowRendered(points int) {
	rp.rows.Add(1)
	rp.points.Add(int64(points))
}

func TestRenderReportsProgressPerRow(t *testing.T) {
	s := NewSampler(pointSources{1: {X: 1000, Y: 1000}}, 3)
	rp := &rowProgress{}
	s.SetProgress(rp)

	p := DefaultParams()
	p.XRes, p.YRes = 20, 9
	_, err := s.Render(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(9), rp.rows.Load())
	assert.Equal(t, int64(180), rp.points.Load())
}

func TestRenderDimensions(t *testing.T) {
	s := NewSampler(pointSources{1: {X: 1000, Y: 1000}}, 4)
	rec := new(countingRecorder)
	s.SetRecorder(rec)

	p := DefaultParams()
	g, err := s.Render(context.Background(), p)
	require.NoError(t, err)
	xres, yres := g.Dims()
	assert.Equal(t, 100, xres)
	assert.Equal(t, 75, yres)
	assert.Len(t, g.values, 75)
	for _, row := range g.values {
		assert.Len(t, row, 100)
	}
	assert.Equal(t, countingRecorder(7500), *rec)

	assert.Equal(t, -400.0, g.Point(0, 0).X)
	assert.Equal(t, 400.0, g.Point(99, 74).X)
	assert.Equal(t, 400.0, g.Point(99, 74).Y)
}

func TestRenderBestServer(t *testing.T) {
	s := NewSampler(pointSources{1: {X: -100}, 2: {X: 100}}, 2)
	g, err := s.Render(context.Background(), Params{XMin: -100, XMax: 100, XRes: 3, YMin: 0, YMax: 0, YRes: 1, Z: 10})
	require.NoError(t, err)

	assert.Equal(t, DbValue(-10), g.At(0, 0))
	assert.InDelta(t, -100.5, g.At(1, 0), 0.1)
	assert.Equal(t, DbValue(-10), g.At(2, 0))

	lo, hi := g.Range()
	assert.Equal(t, DbValue(-10), hi)
	assert.Less(t, lo, hi)
}

func TestRenderSinglePointAndCoLocated(t *testing.T) {
	s := NewSampler(pointSources{1: {}}, 1)
	g, err := s.Render(context.Background(), Params{XMin: 0, XMax: 50, XRes: 1, YMin: 0, YMax: 50, YRes: 1})
	require.NoError(t, err)
	assert.Equal(t, NoSignalDbm, g.At(0, 0))
}

func TestRenderPropagatesErrors(t *testing.T) {
	s := NewSampler(failingSource{}, 1)
	_, err := s.Render(context.Background(), Params{XMin: 0, XMax: 1, XRes: 2, YMin: 0, YMax: 1, YRes: 2})
	assert.True(t, errors.Is(err, ErrUnknownCell))
}

type failingSource struct{}

func (failingSource) Cells() []CellId {
	return []CellId{7}
}

func (failingSource) ReceivedPower(cell CellId, rx Position) (DbValue, error) {
	return 0, ErrUnknownCell
}

func TestParamsValidate(t *testing.T) {
	for _, p := range []Params{
		{XMin: 0, XMax: 1, XRes: 0, YMin: 0, YMax: 1, YRes: 1},
		{XMin: 0, XMax: 1, XRes: 1, YMin: 0, YMax: 1, YRes: 0},
		{XMin: 2, XMax: 1, XRes: 1, YMin: 0, YMax: 1, YRes: 1},
		{XMin: 0, XMax: 1, XRes: 1, YMin: 5, YMax: 1, YRes: 1},
	} {
		p := p
		assert.True(t, errors.Is(p.Validate(), ErrConfiguration), "%+v", p)
	}
	p := DefaultParams()
	assert.NoError(t, p.Validate())
}

func TestGridWriteTo(t *testing.T) {
	s := NewSampler(pointSources{1: {X: 1000}}, 1)
	g, err := s.Render(context.Background(), Params{XMin: 0, XMax: 10, XRes: 2, YMin: 0, YMax: 10, YRes: 3})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := g.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	var data []string
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		data = append(data, line)
	}
	assert.Len(t, data, 6)
	assert.Len(t, strings.Fields(data[0]), 4)

	path := filepath.Join(t.TempDir(), "rem.out")
	require.NoError(t, g.Save(path))
}
