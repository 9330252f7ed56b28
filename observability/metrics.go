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

package observability

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cellsim/cellsim/handover"
	. "github.com/cellsim/cellsim/types"
)

// Collector bundles the Prometheus metrics of a simulation. A nil *Collector is valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	HandoversStarted   prometheus.Counter
	HandoversCommitted *prometheus.CounterVec
	HandoversAborted   *prometheus.CounterVec
	AttachedUes        prometheus.Gauge
	Measurements       prometheus.Counter
	MeasuredCells      prometheus.Histogram
	MeasurementGaps    prometheus.Counter
	EventsDispatched   prometheus.Counter
	SimulatedTime      prometheus.Gauge
	RemPoints          prometheus.Counter
}

// NewCollector registers the simulation metrics against reg, defaulting to the global registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		HandoversStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellsim_handovers_started_total",
			Help: "Number of handover decisions that entered execution.",
		}),
		HandoversCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellsim_handovers_committed_total",
			Help: "Number of committed handovers, labeled by source and target cell.",
		}, []string{"source", "target"}),
		HandoversAborted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellsim_handovers_aborted_total",
			Help: "Number of handovers aborted before commit, labeled by reason.",
		}, []string{"reason"}),
		AttachedUes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cellsim_attached_ues",
			Help: "Number of UEs attached to a serving cell.",
		}),
		Measurements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellsim_measurements_total",
			Help: "Number of UE measurement reports.",
		}),
		MeasuredCells: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cellsim_measured_cells",
			Help:    "Number of cells measured per report.",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		}),
		MeasurementGaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellsim_measurement_gaps_total",
			Help: "Number of reports without a serving cell sample.",
		}),
		EventsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellsim_scheduler_events_dispatched_total",
			Help: "Number of scheduler callbacks executed.",
		}),
		SimulatedTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cellsim_simulated_time_seconds",
			Help: "Current simulated time.",
		}),
		RemPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellsim_rem_points_total",
			Help: "Number of radio environment map points rendered.",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.HandoversStarted, c.HandoversCommitted, c.HandoversAborted, c.AttachedUes, c.Measurements,
		c.MeasuredCells, c.MeasurementGaps, c.EventsDispatched, c.SimulatedTime, c.RemPoints,
	} {
		if err := reg.Register(col); err != nil {
			return nil, errors.Wrap(err, "register simulation metrics")
		}
	}
	return c, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// EventDispatched is installed as the scheduler dispatch hook.
func (c *Collector) EventDispatched(ts SimTime) {
	if c == nil {
		return
	}
	c.EventsDispatched.Inc()
	c.SimulatedTime.Set(ts.Seconds())
}

func (c *Collector) MeasurementTaken(ue NodeId, cells int) {
	if c == nil {
		return
	}
	c.Measurements.Inc()
	c.MeasuredCells.Observe(float64(cells))
}

func (c *Collector) MeasurementGap(ue NodeId) {
	if c == nil {
		return
	}
	c.MeasurementGaps.Inc()
}

func (c *Collector) RemPointsRendered(n int) {
	if c == nil {
		return
	}
	c.RemPoints.Add(float64(n))
}

func (c *Collector) OnAttach(ue NodeId, cell CellId, ts SimTime) {
	if c == nil {
		return
	}
	c.AttachedUes.Inc()
}

func (c *Collector) OnHandoverStart(ue NodeId, source CellId, target CellId, ts SimTime) {
	if c == nil {
		return
	}
	c.HandoversStarted.Inc()
}

func (c *Collector) OnHandoverCommit(ev handover.HandoverEvent) {
	if c == nil {
		return
	}
	c.HandoversCommitted.WithLabelValues(strconv.Itoa(ev.Source), strconv.Itoa(ev.Target)).Inc()
}

func (c *Collector) OnHandoverAbort(ue NodeId, source CellId, target CellId, ts SimTime, reason string) {
	if c == nil {
		return
	}
	c.HandoversAborted.WithLabelValues(reason).Inc()
}
