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

package handover

import (
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/cellsim/cellsim/dispatcher"
	"github.com/cellsim/cellsim/logger"
	"github.com/cellsim/cellsim/measurement"
	. "github.com/cellsim/cellsim/types"
)

const (
	reasonFalsified  = "condition no longer holds"
	reasonServingGap = "serving cell not measured"
	reasonTargetGap  = "target cell not measured"
)

// Scheduler is the event scheduler used for handover execution timers.
type Scheduler interface {
	Now() SimTime
	Schedule(delay time.Duration, cb func()) (*dispatcher.EventHandle, error)
	Cancel(h *dispatcher.EventHandle) bool
}

// MeasurementHistory gives access to the latest filtered samples and resets them on handover.
type MeasurementHistory interface {
	Latest(ue NodeId, cell CellId) (measurement.Sample, bool)
	ResetHistory(ue NodeId, cell CellId)
}

type ueContext struct {
	id        NodeId
	state     State
	serving   CellId
	target    CellId
	timer     *dispatcher.EventHandle
	log       *logger.UeLogger
	handovers int
}

// Manager runs the per-UE handover state machine. It owns the serving cell of every UE.
type Manager struct {
	cfg       Config
	sched     Scheduler
	history   MeasurementHistory
	ues       map[NodeId]*ueContext
	listeners []Listener
	Counters  struct {
		Started   uint64
		Committed uint64
		Aborted   uint64
	}
}

func NewManager(cfg Config, sched Scheduler, history MeasurementHistory) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.AssertNotNil(sched)
	logger.AssertNotNil(history)
	return &Manager{
		cfg:     cfg,
		sched:   sched,
		history: history,
		ues:     make(map[NodeId]*ueContext),
	}, nil
}

func (m *Manager) Config() Config {
	return m.cfg
}

// AddListener registers l for attach and handover events.
func (m *Manager) AddListener(l Listener) {
	m.listeners = append(m.listeners, l)
}

// Attach sets the initial serving cell of UE ue. A UE can be attached only once.
func (m *Manager) Attach(ue NodeId, cell CellId, log *logger.UeLogger) error {
	if _, ok := m.ues[ue]; ok {
		return errors.Errorf("UE %d already attached", ue)
	}
	if cell == InvalidCellId {
		return errors.Wrapf(ErrUnknownCell, "attach UE %d", ue)
	}
	m.ues[ue] = &ueContext{
		id:      ue,
		state:   Connected,
		serving: cell,
		target:  InvalidCellId,
		log:     log,
	}
	if log != nil {
		log.Infof("attached to cell %d", cell)
	}
	ts := m.sched.Now()
	for _, l := range m.listeners {
		l.OnAttach(ue, cell, ts)
	}
	return nil
}

// ServingCell returns the serving cell of UE ue, or InvalidCellId if the UE is not attached.
func (m *Manager) ServingCell(ue NodeId) CellId {
	if c, ok := m.ues[ue]; ok {
		return c.serving
	}
	return InvalidCellId
}

// State returns the state of UE ue and, when a handover is in progress, its target cell.
func (m *Manager) State(ue NodeId) (State, CellId, error) {
	c, ok := m.ues[ue]
	if !ok {
		return Connected, InvalidCellId, errors.Wrapf(ErrUnknownUe, "state of UE %d", ue)
	}
	return c.state, c.target, nil
}

// HandoverCount returns the number of committed handovers of UE ue.
func (m *Manager) HandoverCount(ue NodeId) int {
	if c, ok := m.ues[ue]; ok {
		return c.handovers
	}
	return 0
}

// Ues returns the attached UEs, ascending.
func (m *Manager) Ues() []NodeId {
	ues := make([]NodeId, 0, len(m.ues))
	for id := range m.ues {
		ues = append(ues, id)
	}
	sort.Ints(ues)
	return ues
}

// triggered evaluates the A2/A4 RSRQ condition for a serving and a candidate target sample.
func (m *Manager) triggered(serving, target *measurement.Sample) bool {
	sr := serving.RsrqRange()
	return sr < m.cfg.ServingCellThreshold && target.RsrqRange()-sr > m.cfg.NeighbourCellOffset
}

// OnMeasurementReport feeds a measurement report of a UE into its state machine.
func (m *Manager) OnMeasurementReport(r *measurement.Report) {
	c, ok := m.ues[r.Ue]
	if !ok {
		return
	}
	if r.Serving != nil && r.Serving.CellId != c.serving {
		logger.Warnf("%sdropping report for stale serving cell %d (serving %d)", GetUeName(r.Ue), r.Serving.CellId, c.serving)
		return
	}

	switch c.state {
	case Connected:
		if r.Serving == nil {
			return
		}
		best := r.BestNeighbour()
		if best == nil || !m.triggered(r.Serving, best) {
			return
		}
		m.start(c, best.CellId, r.Serving.RsrqRange(), best.RsrqRange())
	case HandoverInProgress:
		if r.Serving == nil {
			m.abort(c, reasonServingGap)
			return
		}
		target := r.Neighbour(c.target)
		if target == nil {
			m.abort(c, reasonTargetGap)
			return
		}
		if !m.triggered(r.Serving, target) {
			m.abort(c, reasonFalsified)
		}
	}
}

func (m *Manager) start(c *ueContext, target CellId, servingRange, targetRange int) {
	h, err := m.sched.Schedule(m.cfg.ExecutionDelay, func() {
		c.timer = nil
		m.execute(c)
	})
	if err != nil {
		logger.Errorf("%sscheduling handover failed: %v", GetUeName(c.id), err)
		return
	}
	c.state = HandoverInProgress
	c.target = target
	c.timer = h
	m.Counters.Started++
	if c.log != nil {
		c.log.Debugf("handover %d->%d started: rsrq range %d, target %d, executes at %v", c.serving, target, servingRange, targetRange, h.Timestamp())
	}
	ts := m.sched.Now()
	for _, l := range m.listeners {
		l.OnHandoverStart(c.id, c.serving, target, ts)
	}
}

func (m *Manager) execute(c *ueContext) {
	if c.state != HandoverInProgress {
		return
	}
	serving, ok := m.history.Latest(c.id, c.serving)
	if !ok {
		m.abort(c, reasonServingGap)
		return
	}
	target, ok := m.history.Latest(c.id, c.target)
	if !ok {
		m.abort(c, reasonTargetGap)
		return
	}
	if !m.triggered(&serving, &target) {
		m.abort(c, reasonFalsified)
		return
	}

	sr, tr := serving.RsrqRange(), target.RsrqRange()
	ev := HandoverEvent{
		Ue:     c.id,
		Source: c.serving,
		Target: c.target,
		Time:   m.sched.Now(),
		Reason: fmt.Sprintf("%s: serving range %d < %d, neighbour offset %d > %d", m.cfg.Algorithm,
			sr, m.cfg.ServingCellThreshold, tr-sr, m.cfg.NeighbourCellOffset),
		SourceRange: sr,
		TargetRange: tr,
	}
	c.serving = c.target
	c.target = InvalidCellId
	c.state = Connected
	c.handovers++
	m.history.ResetHistory(c.id, c.serving)
	m.Counters.Committed++

	if c.log != nil {
		c.log.Infof("handover %d->%d committed", ev.Source, ev.Target)
	}
	for _, l := range m.listeners {
		l.OnHandoverCommit(ev)
	}
}

func (m *Manager) abort(c *ueContext, reason string) {
	logger.AssertTrue(c.state == HandoverInProgress)
	m.sched.Cancel(c.timer)
	target := c.target
	c.timer = nil
	c.target = InvalidCellId
	c.state = Connected
	m.Counters.Aborted++
	if c.log != nil {
		c.log.Debugf("handover %d->%d aborted: %s", c.serving, target, reason)
	}
	ts := m.sched.Now()
	for _, l := range m.listeners {
		l.OnHandoverAbort(c.id, c.serving, target, ts, reason)
	}
}
