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

package measurement

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/cellsim/cellsim/dispatcher"
	"github.com/cellsim/cellsim/logger"
	. "github.com/cellsim/cellsim/types"
)

// RadioModel provides received power of cells at a position.
type RadioModel interface {
	Cells() []CellId
	ReceivedPower(cell CellId, rx Position) (DbValue, error)
	Distance(cell CellId, rx Position) (float64, error)
}

// Scheduler is the event scheduler the engine submits its periodic measurements to.
type Scheduler interface {
	Now() SimTime
	Schedule(delay time.Duration, cb func()) (*dispatcher.EventHandle, error)
	Cancel(h *dispatcher.EventHandle) bool
}

// ServingCellProvider tells the serving cell of a UE at the current instant.
type ServingCellProvider interface {
	ServingCell(ue NodeId) CellId
}

// ReportListener receives the measurement reports of a UE.
type ReportListener interface {
	OnMeasurementReport(r *Report)
}

// ReportListenerFunc adapts a function to a ReportListener.
type ReportListenerFunc func(r *Report)

func (f ReportListenerFunc) OnMeasurementReport(r *Report) {
	f(r)
}

// Recorder counts measurement activity; implemented by the metrics collector.
type Recorder interface {
	MeasurementTaken(ue NodeId, cells int)
	MeasurementGap(ue NodeId)
}

type nopRecorder struct{}

func (nopRecorder) MeasurementTaken(NodeId, int) {}
func (nopRecorder) MeasurementGap(NodeId) {}

type ueState struct {
	id         NodeId
	pos        Position
	active     bool
	timer      *dispatcher.EventHandle
	histories  map[CellId]*history
	rsrpFilter map[CellId]*l3Filter
	rsrqFilter map[CellId]*l3Filter
	listeners  []ReportListener
	log        *logger.UeLogger
}

// Engine periodically measures all visible cells for each active UE and delivers the reports to listeners.
type Engine struct {
	cfg       Config
	sched     Scheduler
	radio     RadioModel
	serving   ServingCellProvider
	recorder  Recorder
	ues       map[NodeId]*ueState
	listeners []ReportListener
	Counters  struct {
		Reports uint64
		Samples uint64
		Gaps    uint64
	}
}

// NewEngine creates a measurement engine. The serving cell provider can be set later with SetServingCellProvider.
func NewEngine(cfg Config, sched Scheduler, radio RadioModel) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.AssertNotNil(sched)
	logger.AssertNotNil(radio)
	return &Engine{
		cfg:      cfg,
		sched:    sched,
		radio:    radio,
		recorder: nopRecorder{},
		ues:      make(map[NodeId]*ueState),
	}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) SetServingCellProvider(p ServingCellProvider) {
	e.serving = p
}

func (e *Engine) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	e.recorder = r
}

// AddUe registers a UE at a static position. The optional UE logger receives per-sample debug output.
func (e *Engine) AddUe(ue NodeId, pos Position, log *logger.UeLogger) error {
	if _, ok := e.ues[ue]; ok {
		return errors.Errorf("UE %d already added", ue)
	}
	e.ues[ue] = &ueState{
		id:         ue,
		pos:        pos,
		histories:  make(map[CellId]*history),
		rsrpFilter: make(map[CellId]*l3Filter),
		rsrqFilter: make(map[CellId]*l3Filter),
		log:        log,
	}
	return nil
}

// Subscribe registers l for the reports of UE ue.
func (e *Engine) Subscribe(ue NodeId, l ReportListener) error {
	st, ok := e.ues[ue]
	if !ok {
		return errors.Wrapf(ErrUnknownUe, "subscribe UE %d", ue)
	}
	st.listeners = append(st.listeners, l)
	return nil
}

// SubscribeAll registers l for the reports of all UEs. UE-specific listeners are called first.
func (e *Engine) SubscribeAll(l ReportListener) {
	e.listeners = append(e.listeners, l)
}

// Start starts periodic measurement of UE ue; the first measurement happens after delay.
func (e *Engine) Start(ue NodeId, delay time.Duration) error {
	st, ok := e.ues[ue]
	if !ok {
		return errors.Wrapf(ErrUnknownUe, "start UE %d", ue)
	}
	if st.active {
		return nil
	}
	st.active = true
	return e.scheduleNext(st, delay)
}

// Stop stops periodic measurement of UE ue.
func (e *Engine) Stop(ue NodeId) {
	st, ok := e.ues[ue]
	if !ok || !st.active {
		return
	}
	st.active = false
	e.sched.Cancel(st.timer)
	st.timer = nil
}

// IsActive returns whether UE ue is being measured.
func (e *Engine) IsActive(ue NodeId) bool {
	st, ok := e.ues[ue]
	return ok && st.active
}

func (e *Engine) scheduleNext(st *ueState, delay time.Duration) error {
	h, err := e.sched.Schedule(delay, func() {
		st.timer = nil
		if !st.active {
			return
		}
		if _, err := e.SampleUe(st.id); err != nil {
			logger.Errorf("measurement of UE %d failed: %v", st.id, err)
		}
		if st.active && st.timer == nil {
			if err := e.scheduleNext(st, e.cfg.Interval); err != nil {
				logger.Errorf("rescheduling measurement of UE %d failed: %v", st.id, err)
			}
		}
	})
	if err != nil {
		return err
	}
	st.timer = h
	return nil
}

// SampleUe measures all visible cells for UE ue at the current simulated time, updates the filtered values and
// histories, and delivers the resulting report to the listeners. Cells out of range or not measurable
// yield no sample.
func (e *Engine) SampleUe(ue NodeId) (*Report, error) {
	st, ok := e.ues[ue]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownUe, "sample UE %d", ue)
	}
	now := e.sched.Now()

	type visibleCell struct {
		cell CellId
		rxMw float64
		rx   DbValue
	}
	var visible []visibleCell
	totalMw := 0.0
	for _, cell := range e.radio.Cells() {
		if e.cfg.Range > 0 {
			dist, err := e.radio.Distance(cell, st.pos)
			if err != nil || dist > e.cfg.Range {
				continue
			}
		}
		rx, err := e.radio.ReceivedPower(cell, st.pos)
		if err != nil {
			if st.log != nil {
				st.log.Debugf("cell %d not measurable: %v", cell, err)
			}
			continue
		}
		mw := linearMw(rx)
		visible = append(visible, visibleCell{cell, mw, rx})
		totalMw += mw
	}

	servingCell := InvalidCellId
	if e.serving != nil {
		servingCell = e.serving.ServingCell(ue)
	}
	report := &Report{
		Ue:   ue,
		Time: now,
	}
	noiseMw := linearMw(e.cfg.noiseDbm())
	rssiDbm := dbm(totalMw + noiseMw)
	nRb := float64(e.cfg.ResourceBlocks)
	a := e.cfg.filterWeight()

	for _, vc := range visible {
		s := Sample{
			CellId:     vc.cell,
			Time:       now,
			RxPowerDbm: vc.rx,
			RsrpDbm:    vc.rx - dbm(subcarriersPerRb*nRb),
			SinrDb:     vc.rx - dbm(totalMw-vc.rxMw+noiseMw),
		}
		s.RsrqDb = dbm(nRb) + s.RsrpDbm - rssiDbm
		s.FilteredRsrpDbm = e.filter(st.rsrpFilter, vc.cell).update(a, s.RsrpDbm)
		s.FilteredRsrqDb = e.filter(st.rsrqFilter, vc.cell).update(a, s.RsrqDb)

		h := st.histories[vc.cell]
		if h == nil {
			h = newHistory(e.cfg.WindowLength)
			st.histories[vc.cell] = h
		}
		h.add(s)

		if vc.cell == servingCell {
			sc := s
			report.Serving = &sc
		} else {
			report.Neighbours = append(report.Neighbours, s)
		}
	}
	sort.Slice(report.Neighbours, func(i, j int) bool {
		return report.Neighbours[i].CellId < report.Neighbours[j].CellId
	})

	e.Counters.Reports++
	e.Counters.Samples += uint64(len(visible))
	if len(visible) == 0 || report.Serving == nil {
		e.Counters.Gaps++
		e.recorder.MeasurementGap(ue)
		if st.log != nil {
			st.log.Debugf("measurement gap: serving cell %d not measured, %d neighbours", servingCell, len(report.Neighbours))
		}
	}
	e.recorder.MeasurementTaken(ue, len(visible))
	if st.log != nil && report.Serving != nil {
		st.log.Tracef("serving cell %d rsrp=%.1f dBm rsrq=%.1f dB sinr=%.1f dB", servingCell,
			report.Serving.FilteredRsrpDbm, report.Serving.FilteredRsrqDb, report.Serving.SinrDb)
	}

	for _, l := range st.listeners {
		l.OnMeasurementReport(report)
	}
	for _, l := range e.listeners {
		l.OnMeasurementReport(report)
	}
	return report, nil
}

func (e *Engine) filter(m map[CellId]*l3Filter, cell CellId) *l3Filter {
	f := m[cell]
	if f == nil {
		f = &l3Filter{}
		m[cell] = f
	}
	return f
}

// ResetHistory clears the history and filter state of UE ue for cell.
func (e *Engine) ResetHistory(ue NodeId, cell CellId) {
	st, ok := e.ues[ue]
	if !ok {
		return
	}
	if h := st.histories[cell]; h != nil {
		h.reset()
	}
	delete(st.rsrpFilter, cell)
	delete(st.rsrqFilter, cell)
}

// History returns the retained samples of UE ue for cell, oldest first.
func (e *Engine) History(ue NodeId, cell CellId) []Sample {
	st, ok := e.ues[ue]
	if !ok {
		return nil
	}
	h := st.histories[cell]
	if h == nil {
		return nil
	}
	return h.list()
}

// Latest returns the most recent sample of UE ue for cell.
func (e *Engine) Latest(ue NodeId, cell CellId) (Sample, bool) {
	st, ok := e.ues[ue]
	if !ok {
		return Sample{}, false
	}
	h := st.histories[cell]
	if h == nil {
		return Sample{}, false
	}
	return h.latest()
}

// MeasuredCells returns the cells for which UE ue has a non-empty history, ascending.
func (e *Engine) MeasuredCells(ue NodeId) []CellId {
	st, ok := e.ues[ue]
	if !ok {
		return nil
	}
	var cells []CellId
	for cell, h := range st.histories {
		if h.len() > 0 {
			cells = append(cells, cell)
		}
	}
	sort.Ints(cells)
	return cells
}
