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
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cellsim/cellsim/dispatcher"
	"github.com/cellsim/cellsim/handover"
	"github.com/cellsim/cellsim/logger"
	"github.com/cellsim/cellsim/measurement"
	"github.com/cellsim/cellsim/observability"
	"github.com/cellsim/cellsim/prng"
	"github.com/cellsim/cellsim/radiomodel"
	"github.com/cellsim/cellsim/rem"
	. "github.com/cellsim/cellsim/types"
	"github.com/cellsim/cellsim/visualize"
	visualizeStatslog "github.com/cellsim/cellsim/visualize/statslog"
)

type Option func(s *Simulation)

// WithMetrics records the simulation into the Prometheus collector c.
func WithMetrics(c *observability.Collector) Option {
	return func(s *Simulation) {
		s.metrics = c
	}
}

// WithVisualizer adds v next to the default CSV stats log visualizer.
func WithVisualizer(v visualize.Visualizer) Option {
	return func(s *Simulation) {
		s.extraVis = append(s.extraVis, v)
	}
}

// WithRemProgress reports the progress of every REM rendering to p.
func WithRemProgress(p rem.Progress) Option {
	return func(s *Simulation) {
		s.remProgress = p
	}
}

// Simulation is the context object of one simulation run. It owns the scheduler, the radio model, the
// measurement engine, the handover manager and all bookkeeping, and is torn down by Stop.
type Simulation struct {
	cfg         *Config
	prng        *prng.Generators
	sched       *dispatcher.Scheduler
	topo        *Topology
	radio       *radiomodel.PropagationModel
	engine      *measurement.Engine
	handover    *handover.Manager
	bearers     *BearerManager
	kpiMgr      *KpiManager
	remSampler  *rem.Sampler
	remProgress rem.Progress
	metrics     *observability.Collector
	vis         visualize.Visualizer
	extraVis    []visualize.Visualizer
	runCtx      context.Context
	lastTs      SimTime
	stopped     bool
}

// NewSimulation validates cfg and builds the complete simulation at time 0: sites, cells and UEs are created,
// UEs are attached and their periodic measurements are scheduled. Configuration errors are returned before
// any simulated time advances.
func NewSimulation(cfg *Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.LogLevel != "" {
		logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	}
	if err := CreateOutputDir(cfg.OutputDir); err != nil {
		return nil, errors.Wrap(err, "create output dir")
	}
	if err := cleanOutputDir(cfg.OutputDir, cfg.Id); err != nil {
		logger.Warnf("cleaning output dir failed: %v", err)
	}

	s := &Simulation{
		cfg:    cfg,
		prng:   prng.NewGenerators(cfg.Seed),
		sched:  dispatcher.NewScheduler(),
		runCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.vis = visualizeStatslog.NewStatslogVisualizer(cfg.OutputDir, cfg.Id)
	if len(s.extraVis) > 0 {
		s.vis = visualize.NewMultiVisualizer(append([]visualize.Visualizer{s.vis}, s.extraVis...)...)
	}
	s.sched.OnDispatch = s.onDispatch

	var txs []radiomodel.Transmitter
	var err error
	if s.topo, txs, err = newTopology(&cfg.Topology); err != nil {
		return nil, err
	}
	if s.radio, err = radiomodel.NewPropagationModel(cfg.PathLoss, s.prng.NewShadowFadingSeed(), txs); err != nil {
		return nil, err
	}
	if s.engine, err = measurement.NewEngine(cfg.Measurement, s.sched, s.radio); err != nil {
		return nil, err
	}
	if s.handover, err = handover.NewManager(cfg.Handover, s.sched, s.engine); err != nil {
		return nil, err
	}
	qci, err := ParseQci(cfg.Bearer.Qci)
	if err != nil {
		return nil, err
	}
	s.bearers = NewBearerManager(qci)
	s.kpiMgr = NewKpiManager()
	s.kpiMgr.Init(s)
	s.remSampler = rem.NewSampler(s.radio, cfg.Rem.Workers)
	if s.remProgress != nil {
		s.remSampler.SetProgress(s.remProgress)
	}

	s.engine.SetServingCellProvider(s.handover)
	s.engine.SubscribeAll(s.handover)
	s.engine.SubscribeAll(s.vis)
	s.handover.AddListener(s.bearers)
	s.handover.AddListener(s.kpiMgr)
	s.handover.AddListener(s.vis)
	if s.metrics != nil {
		s.engine.SetRecorder(s.metrics)
		s.handover.AddListener(s.metrics)
		s.remSampler.SetRecorder(s.metrics)
	}

	s.vis.Init()
	if err = s.addUes(); err != nil {
		s.Stop()
		return nil, err
	}
	s.kpiMgr.Start()
	logger.Infof("simulation %d: %d sites, %d cells, %d UEs, stop time %v", cfg.Id, len(s.topo.Sites),
		len(s.topo.Cells), len(s.topo.Ues), cfg.StopTime)
	return s, nil
}

func (s *Simulation) addUes() error {
	for i, uc := range s.cfg.Topology.Ues {
		ue := &Ue{
			Id:       i + 1,
			Position: uc.Position,
			Config:   uc,
		}
		ue.Log = logger.NewUeLogger(s.cfg.OutputDir, s.cfg.Id, ue.Id, s.cfg.UeLogFiles)
		s.topo.Ues[ue.Id] = ue

		cell, err := s.initialCell(ue)
		if err != nil {
			return err
		}
		if err = s.engine.AddUe(ue.Id, ue.Position, ue.Log); err != nil {
			return err
		}
		if err = s.handover.Attach(ue.Id, cell, ue.Log); err != nil {
			return err
		}
		phase := s.cfg.Measurement.Interval
		if s.cfg.Measurement.RandomPhase {
			phase = s.prng.NewMeasurementPhase(s.cfg.Measurement.Interval)
		}
		if err = s.engine.Start(ue.Id, phase); err != nil {
			return err
		}
	}
	return nil
}

// initialCell returns the configured cell of a UE, or the cell with the highest received power.
func (s *Simulation) initialCell(ue *Ue) (CellId, error) {
	if ue.Config.Site != AutoAttach {
		return CellIdOf(ue.Config.Site, ue.Config.Sector, s.cfg.Topology.SectorsPerSite), nil
	}
	best, bestPower := InvalidCellId, DbValue(math.Inf(-1))
	for _, cell := range s.radio.Cells() {
		p, err := s.radio.ReceivedPower(cell, ue.Position)
		if err != nil {
			continue
		}
		if p > bestPower {
			best, bestPower = cell, p
		}
	}
	if best == InvalidCellId {
		return InvalidCellId, NewConfigurationError("topology.ues.position", ue.Position, "UE %d: no cell can be received", ue.Id)
	}
	ue.Log.Debugf("best cell %d at %.1f dBm", best, bestPower)
	return best, nil
}

func (s *Simulation) onDispatch(ts SimTime) {
	s.flushUeLogs()
	s.lastTs = ts
	s.metrics.EventDispatched(ts)
	if s.runCtx.Err() != nil {
		s.sched.Halt()
	}
}

func (s *Simulation) flushUeLogs() {
	for _, ue := range s.topo.Ues {
		ue.Log.DisplayPendingLogEntries(s.lastTs)
	}
}

// Run runs the simulation until the stop time or until ctx is done. Events after the stop time are discarded.
func (s *Simulation) Run(ctx context.Context) error {
	if s.stopped {
		return errors.New("simulation stopped")
	}
	stop := s.StopTime()
	ctx, span := observability.StartSpan(ctx, "simulation.Run",
		attribute.Int("simulation.id", s.cfg.Id),
		attribute.Float64("simulation.stop_sec", stop.Seconds()),
	)
	defer span.End()

	s.runCtx = ctx
	s.sched.Run(stop)
	s.runCtx = context.Background()
	s.flushUeLogs()

	span.SetAttributes(attribute.Int64("simulation.dispatched", int64(s.sched.Dispatched())))
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "simulation interrupted at %v", s.Now())
	}
	logger.Notef("simulation %d: reached stop time %v, %d handovers", s.cfg.Id, s.Now(), s.handover.Counters.Committed)
	return nil
}

// Go advances the simulation by d, but not beyond the stop time. It returns the new time.
func (s *Simulation) Go(d time.Duration) SimTime {
	stop := s.StopTime()
	if s.stopped || s.Now() >= stop {
		return s.Now()
	}
	if remaining := (stop - s.Now()).Duration(); d > remaining || d < 0 {
		d = remaining
	}
	s.sched.Advance(d)
	s.flushUeLogs()
	return s.Now()
}

// RenderRem renders the radio environment map of the configured area.
func (s *Simulation) RenderRem(ctx context.Context) (*rem.Grid, error) {
	return s.remSampler.Render(ctx, s.cfg.Rem.Params)
}

// SaveRem renders the radio environment map and writes it to fileName, or to the configured file if empty.
// It returns the path of the written file.
func (s *Simulation) SaveRem(ctx context.Context, fileName string) (string, error) {
	if fileName == "" {
		fileName = s.cfg.Rem.File
	}
	grid, err := s.RenderRem(ctx)
	if err != nil {
		return "", err
	}
	path := getRemFilePath(s.cfg.OutputDir, fileName)
	if err = grid.Save(path); err != nil {
		return "", err
	}
	lo, hi := grid.Range()
	logger.Infof("REM %dx%d written to %s (%.1f .. %.1f dBm)", s.cfg.Rem.XRes, s.cfg.Rem.YRes, path, lo, hi)
	return path, nil
}

// Stop writes the final KPIs and closes all output files. It is safe to call more than once.
func (s *Simulation) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	if s.kpiMgr.IsRunning() {
		s.kpiMgr.Stop()
	}
	s.vis.Stop()
	for _, ue := range s.topo.Ues {
		ue.Log.Close()
	}
	logger.Debugf("simulation %d stopped", s.cfg.Id)
}

func (s *Simulation) IsStopped() bool {
	return s.stopped
}

func (s *Simulation) Config() *Config {
	return s.cfg
}

func (s *Simulation) Now() SimTime {
	return s.sched.Now()
}

func (s *Simulation) StopTime() SimTime {
	return DurationToSimTime(s.cfg.StopTime)
}

func (s *Simulation) Scheduler() *dispatcher.Scheduler {
	return s.sched
}

func (s *Simulation) Topology() *Topology {
	return s.topo
}

func (s *Simulation) Measurement() *measurement.Engine {
	return s.engine
}

func (s *Simulation) Handover() *handover.Manager {
	return s.handover
}

func (s *Simulation) Bearers() *BearerManager {
	return s.bearers
}

func (s *Simulation) Kpi() *KpiManager {
	return s.kpiMgr
}
