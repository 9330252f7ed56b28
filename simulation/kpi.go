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
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/cellsim/cellsim/handover"
	"github.com/cellsim/cellsim/kpi"
	"github.com/cellsim/cellsim/logger"
	. "github.com/cellsim/cellsim/types"
)

// handovers back to the previous cell within this time count as ping-pong.
const pingPongTime = time.Second

type lastHandover struct {
	source CellId
	time   SimTime
}

type KpiManager struct {
	handover.NopListener

	sim       *Simulation
	data      *kpi.Kpi
	isRunning bool
	last      map[NodeId]lastHandover
	pingPongs int
}

// NewKpiManager creates a new KPI manager/bookkeeper for a particular simulation.
func NewKpiManager() *KpiManager {
	km := &KpiManager{}
	return km
}

// Init inits the KPI manager for the given simulation.
func (km *KpiManager) Init(sim *Simulation) {
	logger.AssertNil(km.sim)
	logger.AssertFalse(km.isRunning)
	km.sim = sim
	km.data = &kpi.Kpi{}
	km.last = make(map[NodeId]lastHandover)
}

func (km *KpiManager) Start() {
	logger.AssertFalse(km.isRunning)
	km.data.TimeUs.StartTimeUs = km.sim.Now()
	km.isRunning = true
	km.saveDefaultFile()
}

func (km *KpiManager) Stop() {
	logger.AssertTrue(km.isRunning)
	km.calculateKpis()
	km.isRunning = false
	km.saveDefaultFile()
}

func (km *KpiManager) IsRunning() bool {
	return km.isRunning
}

func (km *KpiManager) OnHandoverCommit(ev handover.HandoverEvent) {
	if prev, ok := km.last[ev.Ue]; ok && prev.source == ev.Target && ev.Time-prev.time <= DurationToSimTime(pingPongTime) {
		km.pingPongs++
	}
	km.last[ev.Ue] = lastHandover{source: ev.Source, time: ev.Time}
}

// Data returns the KPIs, recalculated if the manager is running.
func (km *KpiManager) Data() *kpi.Kpi {
	if km.isRunning {
		km.calculateKpis()
	}
	return km.data
}

func (km *KpiManager) SaveFile(fn string) error {
	logger.AssertNotNil(km.sim)
	if km.isRunning {
		km.calculateKpis()
	}

	km.data.FileTime = time.Now().Format(time.RFC3339)
	data, err := json.MarshalIndent(km.data, "", "    ")
	if err != nil {
		return errors.Wrap(err, "marshal KPI JSON data")
	}
	return errors.Wrapf(os.WriteFile(fn, data, 0644), "write KPI JSON file %s", fn)
}

func (km *KpiManager) saveDefaultFile() {
	fn := km.getDefaultSaveFileName()
	if err := km.SaveFile(fn); err != nil {
		logger.Errorf("Could not write KPI file: %v", err)
	}
}

func (km *KpiManager) calculateKpis() {
	// time
	km.data.TimeUs.EndTimeUs = km.sim.Now()
	km.data.TimeUs.PeriodUs = km.data.TimeUs.EndTimeUs - km.data.TimeUs.StartTimeUs
	km.data.TimeSec.StartTimeSec = km.data.TimeUs.StartTimeUs.Seconds()
	km.data.TimeSec.EndTimeSec = km.data.TimeUs.EndTimeUs.Seconds()
	km.data.TimeSec.PeriodSec = km.data.TimeUs.PeriodUs.Seconds()

	// handover
	ho := km.sim.Handover()
	km.data.Handover.Started = ho.Counters.Started
	km.data.Handover.Committed = ho.Counters.Committed
	km.data.Handover.Aborted = ho.Counters.Aborted
	km.data.Handover.PingPongCount = km.pingPongs
	km.data.Handover.CommittedPerUe = make(map[NodeId]int)
	ues := ho.Ues()
	for _, ue := range ues {
		km.data.Handover.CommittedPerUe[ue] = ho.HandoverCount(ue)
	}
	km.data.Handover.MeanPerUeMinute = 0
	if len(ues) > 0 && km.data.TimeSec.PeriodSec > 0 {
		km.data.Handover.MeanPerUeMinute = float64(ho.Counters.Committed) / float64(len(ues)) /
			(km.data.TimeSec.PeriodSec / 60.0)
	}

	// measurement
	eng := km.sim.Measurement()
	km.data.Measurement.Reports = eng.Counters.Reports
	km.data.Measurement.Samples = eng.Counters.Samples
	km.data.Measurement.Gaps = eng.Counters.Gaps
	km.data.Scheduler.Dispatched = km.sim.Scheduler().Dispatched()

	// per UE
	km.data.Ues = make(map[NodeId]kpi.KpiUe)
	for _, ue := range ues {
		serving := ho.ServingCell(ue)
		ueKpi := kpi.KpiUe{
			ServingCell:  serving,
			NumHandovers: ho.HandoverCount(ue),
		}
		if s, ok := eng.Latest(ue, serving); ok {
			ueKpi.Measured = true
			ueKpi.RsrpDbm = s.FilteredRsrpDbm
			ueKpi.RsrqDb = s.FilteredRsrqDb
			ueKpi.SinrDb = s.SinrDb
		}
		if b := km.sim.Bearers().Bearer(ue); b != nil {
			ueKpi.Bearer = b.Qci.String()
		}
		km.data.Ues[ue] = ueKpi
	}
}

func (km *KpiManager) getDefaultSaveFileName() string {
	return fmt.Sprintf("%s/%d_kpi.json", km.sim.cfg.OutputDir, km.sim.cfg.Id)
}
