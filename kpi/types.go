package kpi

import (
	. "github.com/cellsim/cellsim/types"
)

type KpiTimeUs struct {
	StartTimeUs SimTime `json:"start"`
	EndTimeUs   SimTime `json:"end"`
	PeriodUs    SimTime `json:"period"`
}

type KpiTimeSec struct {
	StartTimeSec float64 `json:"start"`
	EndTimeSec   float64 `json:"end"`
	PeriodSec    float64 `json:"period"`
}

type KpiHandover struct {
	Started         uint64         `json:"started"`
	Committed       uint64         `json:"committed"`
	Aborted         uint64         `json:"aborted"`
	CommittedPerUe  map[NodeId]int `json:"committed_per_ue"`
	PingPongCount   int            `json:"ping_pong"`
	MeanPerUeMinute float64        `json:"mean_per_ue_minute"`
}

type KpiMeasurement struct {
	Reports uint64 `json:"reports"`
	Samples uint64 `json:"samples"`
	Gaps    uint64 `json:"gaps"`
}

type KpiUe struct {
	ServingCell  CellId  `json:"serving_cell"`
	RsrpDbm      DbValue `json:"rsrp_dbm"`
	RsrqDb       DbValue `json:"rsrq_db"`
	SinrDb       DbValue `json:"sinr_db"`
	Measured     bool    `json:"measured"`
	Bearer       string  `json:"bearer"`
	NumHandovers int     `json:"handovers"`
}

type KpiScheduler struct {
	Dispatched uint64 `json:"dispatched"`
}

type Kpi struct {
	FileTime    string           `json:"created"`
	TimeUs      KpiTimeUs        `json:"time_us"`
	TimeSec     KpiTimeSec       `json:"time_sec"`
	Handover    KpiHandover      `json:"handover"`
	Measurement KpiMeasurement   `json:"measurement"`
	Scheduler   KpiScheduler     `json:"scheduler"`
	Ues         map[NodeId]KpiUe `json:"ues"`
}
