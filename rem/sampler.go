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

package rem

import (
	"context"
	"math"
	"runtime"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	. "github.com/cellsim/cellsim/types"
)

const (
	tracerName = "github.com/cellsim/cellsim/rem"

	// NoSignalDbm marks grid points where no cell could be evaluated.
	NoSignalDbm DbValue = -999
)

// PowerSource is the read-only view of the propagation model used for rendering.
type PowerSource interface {
	Cells() []CellId
	ReceivedPower(cell CellId, rx Position) (DbValue, error)
}

// Recorder counts rendered points; implemented by the metrics collector.
type Recorder interface {
	RemPointsRendered(n int)
}

// Progress is notified after each rendered row, from the worker goroutines.
type Progress interface {
	RowRendered(points int)
}

// Params are the bounds and resolution of a radio environment map.
type Params struct {
	XMin float64 `yaml:"x_min"`
	XMax float64 `yaml:"x_max"`
	XRes int     `yaml:"x_res"`
	YMin float64 `yaml:"y_min"`
	YMax float64 `yaml:"y_max"`
	YRes int     `yaml:"y_res"`
	Z    float64 `yaml:"z"`
}

func DefaultParams() Params {
	return Params{
		XMin: -400, XMax: 400, XRes: 100,
		YMin: -400, YMax: 400, YRes: 75,
		Z: 0,
	}
}

func (p *Params) Validate() error {
	if p.XRes < 1 {
		return NewConfigurationError("rem.x_res", p.XRes, "must be at least 1")
	}
	if p.YRes < 1 {
		return NewConfigurationError("rem.y_res", p.YRes, "must be at least 1")
	}
	if !(p.XMax >= p.XMin) {
		return NewConfigurationError("rem.x_max", p.XMax, "must not be less than x_min %v", p.XMin)
	}
	if !(p.YMax >= p.YMin) {
		return NewConfigurationError("rem.y_max", p.YMax, "must not be less than y_min %v", p.YMin)
	}
	for name, v := range map[string]float64{"rem.x_min": p.XMin, "rem.x_max": p.XMax, "rem.y_min": p.YMin,
		"rem.y_max": p.YMax, "rem.z": p.Z} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return NewConfigurationError(name, v, "must be finite")
		}
	}
	return nil
}

func gridCoord(lo, hi float64, res, i int) float64 {
	if res == 1 {
		return lo
	}
	return lo + float64(i)*(hi-lo)/float64(res-1)
}

// X returns the x coordinate of grid column i.
func (p *Params) X(i int) float64 {
	return gridCoord(p.XMin, p.XMax, p.XRes, i)
}

// Y returns the y coordinate of grid row j.
func (p *Params) Y(j int) float64 {
	return gridCoord(p.YMin, p.YMax, p.YRes, j)
}

// Sampler renders best-server received power maps. It never touches UE or handover state.
type Sampler struct {
	radio    PowerSource
	workers  int
	recorder Recorder
	progress Progress
}

// NewSampler creates a sampler evaluating up to workers rows concurrently; workers <= 0 uses GOMAXPROCS.
func NewSampler(radio PowerSource, workers int) *Sampler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Sampler{
		radio:   radio,
		workers: workers,
	}
}

func (s *Sampler) SetRecorder(r Recorder) {
	s.recorder = r
}

func (s *Sampler) SetProgress(p Progress) {
	s.progress = p
}

// Render evaluates every grid point against every cell and records the best received power.
func (s *Sampler) Render(ctx context.Context, p Params) (*Grid, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "rem.Render", trace.WithAttributes(
		attribute.Int("rem.x_res", p.XRes),
		attribute.Int("rem.y_res", p.YRes),
		attribute.Float64("rem.z", p.Z),
	))
	defer span.End()

	cells := s.radio.Cells()
	values := make([][]DbValue, p.YRes)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for j := 0; j < p.YRes; j++ {
		j := j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := make([]DbValue, p.XRes)
			y := p.Y(j)
			for i := range row {
				best, err := s.bestPower(cells, Position{X: p.X(i), Y: y, Z: p.Z})
				if err != nil {
					return err
				}
				row[i] = best
			}
			values[j] = row
			if s.progress != nil {
				s.progress.RowRendered(len(row))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "render REM")
	}

	if s.recorder != nil {
		s.recorder.RemPointsRendered(p.XRes * p.YRes)
	}
	return &Grid{params: p, values: values}, nil
}

func (s *Sampler) bestPower(cells []CellId, pos Position) (DbValue, error) {
	best := NoSignalDbm
	found := false
	for _, cell := range cells {
		rx, err := s.radio.ReceivedPower(cell, pos)
		if errors.Is(err, ErrZeroDistance) {
			continue
		} else if err != nil {
			return 0, err
		}
		if !found || rx > best {
			best = rx
			found = true
		}
	}
	return best, nil
}
