package visualize_statslog

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellsim/cellsim/handover"
	"github.com/cellsim/cellsim/measurement"
)

func readLines(t *testing.T, fn string) []string {
	data, err := os.ReadFile(fn)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestStatslogWritesCsvFiles(t *testing.T) {
	dir := t.TempDir()
	v := NewStatslogVisualizer(dir, 3)
	v.Init()

	v.OnAttach(1, 2, 0)
	v.OnMeasurementReport(&measurement.Report{
		Ue:      1,
		Time:    200000,
		Serving: &measurement.Sample{CellId: 2, FilteredRsrpDbm: -80, FilteredRsrqDb: -11, SinrDb: 5},
		Neighbours: []measurement.Sample{
			{CellId: 4, FilteredRsrqDb: -6},
			{CellId: 5, FilteredRsrqDb: -15},
		},
	})
	v.OnMeasurementReport(&measurement.Report{Ue: 1, Time: 400000})
	v.OnHandoverStart(1, 2, 4, 200000)
	v.OnHandoverCommit(handover.HandoverEvent{Ue: 1, Source: 2, Target: 4, Time: 250000, Reason: "a2a4-rsrq"})
	v.Stop()

	stats := readLines(t, getStatsLogFileName(dir, 3))
	require.Len(t, stats, 2)
	assert.True(t, strings.HasPrefix(stats[0], "timeSec,ue,servingCell"))
	fields := strings.Split(stats[1], ",")
	require.Len(t, fields, 10)
	assert.Equal(t, "0.200000", strings.TrimSpace(fields[0]))
	assert.Equal(t, "2", strings.TrimSpace(fields[2]))
	assert.Equal(t, "18", strings.TrimSpace(fields[6]))
	assert.Equal(t, "4", strings.TrimSpace(fields[8]))
	assert.Equal(t, "28", strings.TrimSpace(fields[9]))

	ho := readLines(t, getHandoverLogFileName(dir, 3))
	require.Len(t, ho, 4)
	assert.Contains(t, ho[1], "attach")
	assert.Contains(t, ho[2], "start")
	assert.Contains(t, ho[3], "commit")
	assert.Contains(t, ho[3], "a2a4-rsrq")
}

func TestStatslogSurvivesUncreatableFile(t *testing.T) {
	v := NewStatslogVisualizer("/nonexistent/dir", 1)
	v.Init()
	v.OnAttach(1, 1, 0)
	v.Stop()
}

func TestHandoverLogQuotesReason(t *testing.T) {
	dir := t.TempDir()
	v := NewStatslogVisualizer(dir, 4)
	v.Init()
	v.OnHandoverAbort(7, 2, 3, 1500000, "serving sample missing, target \"3\"")
	v.Stop()

	f, err := os.Open(getHandoverLogFileName(dir, 4))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"timeSec", "ue", "event", "sourceCell", "targetCell", "reason"}, records[0])
	assert.Equal(t, []string{"1.500000", "7", "abort", "2", "3", "serving sample missing, target \"3\""}, records[1])
}
