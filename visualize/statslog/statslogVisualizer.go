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

package visualize_statslog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/jszwec/csvutil"

	"github.com/cellsim/cellsim/handover"
	"github.com/cellsim/cellsim/logger"
	"github.com/cellsim/cellsim/measurement"
	. "github.com/cellsim/cellsim/types"
	"github.com/cellsim/cellsim/visualize"
)

// csvLog is a CSV file that is disabled on the first write error.
type csvLog struct {
	fileName      string
	file          *os.File
	isFileEnabled bool
}

func (cl *csvLog) open() bool {
	logger.AssertNil(cl.file)

	var err error
	_ = os.Remove(cl.fileName)

	cl.file, err = os.OpenFile(cl.fileName, os.O_CREATE|os.O_WRONLY, 0664)
	if err != nil {
		logger.Errorf("creating new stats log file %s failed: %+v", cl.fileName, err)
		cl.isFileEnabled = false
		return false
	}
	cl.isFileEnabled = true
	logger.Debugf("Stats log file '%s' created.", cl.fileName)
	return true
}

func (cl *csvLog) create(header string) {
	if cl.open() {
		// RFC 4180 CSV file: no leading or trailing spaces in header field names
		_ = cl.write(header)
	}
}

func (cl *csvLog) write(line string) error {
	if !cl.isFileEnabled {
		return nil
	}
	_, err := cl.file.WriteString(line + "\n")
	if err != nil {
		cl.close()
		logger.Errorf("couldn't write to stats log file (%s), closing it", cl.fileName)
	}
	return err
}

func (cl *csvLog) close() {
	if cl.file != nil {
		_ = cl.file.Close()
		cl.file = nil
	}
	cl.isFileEnabled = false
}

// csvSeconds is a simulation time written as seconds with microsecond precision.
type csvSeconds SimTime

func (s csvSeconds) MarshalCSV() ([]byte, error) {
	return []byte(strconv.FormatFloat(SimTime(s).Seconds(), 'f', 6, 64)), nil
}

type handoverRow struct {
	TimeSec csvSeconds `csv:"timeSec"`
	Ue      NodeId     `csv:"ue"`
	Event   string     `csv:"event"`
	Source  CellId     `csv:"sourceCell"`
	Target  CellId     `csv:"targetCell"`
	Reason  string     `csv:"reason"`
}

// rowLog is a csvLog of struct rows; the reason column is free text and needs proper quoting.
type rowLog struct {
	csvLog
	writer *csv.Writer
	enc    *csvutil.Encoder
}

func (rl *rowLog) create(header interface{}) {
	if !rl.open() {
		return
	}
	rl.writer = csv.NewWriter(rl.file)
	rl.enc = csvutil.NewEncoder(rl.writer)
	if err := rl.enc.EncodeHeader(header); err != nil {
		logger.Panicf("invalid CSV row type %T: %v", header, err)
	}
	_ = rl.flush()
}

func (rl *rowLog) write(row interface{}) error {
	if !rl.isFileEnabled {
		return nil
	}
	if err := rl.enc.Encode(row); err != nil {
		return err
	}
	return rl.flush()
}

func (rl *rowLog) flush() error {
	rl.writer.Flush()
	err := rl.writer.Error()
	if err != nil {
		rl.close()
		logger.Errorf("couldn't write to stats log file (%s), closing it", rl.fileName)
	}
	return err
}

type statslogVisualizer struct {
	visualize.NopVisualizer

	statsLog    csvLog
	handoverLog rowLog
	entries     int
}

// NewStatslogVisualizer creates a new Visualizer that writes the serving cell measurements of all UEs and
// all handover transitions to CSV files.
func NewStatslogVisualizer(outputDir string, simulationId int) visualize.Visualizer {
	return &statslogVisualizer{
		statsLog:    csvLog{fileName: getStatsLogFileName(outputDir, simulationId)},
		handoverLog: rowLog{csvLog: csvLog{fileName: getHandoverLogFileName(outputDir, simulationId)}},
	}
}

func (sv *statslogVisualizer) Init() {
	sv.statsLog.create("timeSec,ue,servingCell,rsrpDbm,rsrqDb,sinrDb,rsrqRange,nNeighbours,bestNeighbour,bestNeighbourRange")
	sv.handoverLog.create(handoverRow{})
}

func (sv *statslogVisualizer) Stop() {
	sv.statsLog.close()
	sv.handoverLog.close()
	logger.Debugf("statslogVisualizer stopped and CSV log files closed (%d entries).", sv.entries)
}

func (sv *statslogVisualizer) OnMeasurementReport(r *measurement.Report) {
	if r.Serving == nil {
		return
	}
	best, bestRange := InvalidCellId, -1
	if n := r.BestNeighbour(); n != nil {
		best, bestRange = n.CellId, n.RsrqRange()
	}
	s := r.Serving
	entry := fmt.Sprintf("%12.6f,%3d,%3d,%8.2f,%7.2f,%7.2f,%3d,%3d,%3d,%3d", r.Time.Seconds(), r.Ue, s.CellId,
		s.FilteredRsrpDbm, s.FilteredRsrqDb, s.SinrDb, s.RsrqRange(), len(r.Neighbours), best, bestRange)
	if sv.statsLog.write(entry) == nil {
		sv.entries++
	}
}

func (sv *statslogVisualizer) OnAttach(ue NodeId, cell CellId, ts SimTime) {
	sv.writeHandoverEntry(ts, ue, "attach", InvalidCellId, cell, "")
}

func (sv *statslogVisualizer) OnHandoverStart(ue NodeId, source CellId, target CellId, ts SimTime) {
	sv.writeHandoverEntry(ts, ue, "start", source, target, "")
}

func (sv *statslogVisualizer) OnHandoverCommit(ev handover.HandoverEvent) {
	sv.writeHandoverEntry(ev.Time, ev.Ue, "commit", ev.Source, ev.Target, ev.Reason)
}

func (sv *statslogVisualizer) OnHandoverAbort(ue NodeId, source CellId, target CellId, ts SimTime, reason string) {
	sv.writeHandoverEntry(ts, ue, "abort", source, target, reason)
}

func (sv *statslogVisualizer) writeHandoverEntry(ts SimTime, ue NodeId, event string, source, target CellId, reason string) {
	row := handoverRow{TimeSec: csvSeconds(ts), Ue: ue, Event: event, Source: source, Target: target, Reason: reason}
	if err := sv.handoverLog.write(row); err != nil {
		logger.Errorf("handover log entry %+v: %v", row, err)
		return
	}
	logger.Debugf("handover log entry added: %+v", row)
}

func getStatsLogFileName(outputDir string, simId int) string {
	return fmt.Sprintf("%s/%d_stats.csv", outputDir, simId)
}

func getHandoverLogFileName(outputDir string, simId int) string {
	return fmt.Sprintf("%s/%d_handover.csv", outputDir, simId)
}
