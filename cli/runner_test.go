package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellsim/cellsim/kpi"
	"github.com/cellsim/cellsim/logger"
	"github.com/cellsim/cellsim/simulation"
	. "github.com/cellsim/cellsim/types"
)

// newTestRunner sets up one 3-sector site with a UE on the boresight of sector 0, attached to sector 1.
func newTestRunner(t *testing.T) (*CmdRunner, *simulation.Simulation) {
	cfg := simulation.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.StopTime = 2 * time.Second
	cfg.Rem.XRes = 10
	cfg.Rem.YRes = 5
	cfg.Topology.Sites = []Position{{}}
	cfg.Topology.Ues = []simulation.UeConfig{{Position: Position{X: 150}, Site: 0, Sector: 1}}

	sim, err := simulation.NewSimulation(cfg)
	require.NoError(t, err)
	t.Cleanup(sim.Stop)
	return NewCmdRunner(context.Background(), sim), sim
}

func execute(t *testing.T, rt *CmdRunner, line string) string {
	var buf bytes.Buffer
	require.NoError(t, rt.Execute(line, &buf))
	return buf.String()
}

func TestParseCommands(t *testing.T) {
	valid := []string{
		"go 1", "go 0.5", "go 2 s", "go ever",
		"time", "cells", "ues", "ue 1",
		"rem", `rem "out.rem"`, "rem out",
		"kpi", "log", "log debug", "help", "exit",
	}
	for _, line := range valid {
		cmd := Command{}
		assert.NoError(t, parseCmd(line, &cmd), line)
	}

	invalid := []string{"go", "go now", "ue", "ue x", "time 3", "fly", "ues 1"}
	for _, line := range invalid {
		cmd := Command{}
		assert.Error(t, parseCmd(line, &cmd), line)
	}

	cmd := Command{}
	require.NoError(t, parseCmd("go 0.25", &cmd))
	require.NotNil(t, cmd.Go)
	assert.Equal(t, 0.25, cmd.Go.Seconds)
	assert.Nil(t, cmd.Go.Ever)

	cmd = Command{}
	require.NoError(t, parseCmd("go ever", &cmd))
	assert.NotNil(t, cmd.Go.Ever)

	cmd = Command{}
	require.NoError(t, parseCmd("ue 7", &cmd))
	assert.Equal(t, 7, cmd.Ue.Id)
	assert.Nil(t, cmd.Ues)
}

func TestGoAndHandover(t *testing.T) {
	rt, sim := newTestRunner(t)
	next := sim.Scheduler().NextTimestamp()
	require.NotEqual(t, Ever, next)
	assert.Contains(t, execute(t, rt, "time"), fmt.Sprintf(", next event at %.6f s", next.Seconds()))

	assert.Equal(t, "1.000000\n", execute(t, rt, "go 1"))
	assert.Equal(t, CellId(1), sim.Handover().ServingCell(1))

	out := execute(t, rt, "ues")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	fields := strings.Fields(lines[1])
	assert.Equal(t, []string{"1", "(150.0,0.0,0.0)", "1", "CONNECTED", "1"}, fields)

	assert.Equal(t, "2.000000\n", execute(t, rt, "go ever"))
	assert.Equal(t, "2.000000\n", execute(t, rt, "go 5"))
	assert.Contains(t, execute(t, rt, "time"), "2.000000 s (2000000 us)")

	var buf bytes.Buffer
	assert.Error(t, rt.Execute("go 0", &buf))
}

func TestUeDetails(t *testing.T) {
	rt, _ := newTestRunner(t)
	execute(t, rt, "go 1")

	out := execute(t, rt, "ue 1")
	assert.Contains(t, out, "serving cell 1, CONNECTED, 1 handovers")
	assert.Contains(t, out, "bearer GBR_CONV_VOICE on cell 1")
	assert.Contains(t, out, " *\n")

	var buf bytes.Buffer
	assert.Error(t, rt.Execute("ue 9", &buf))
}

func TestCells(t *testing.T) {
	rt, _ := newTestRunner(t)
	lines := strings.Split(strings.TrimSpace(execute(t, rt, "cells")), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"2", "0", "1", "120", "50.0", "(0.0,0.0,0.0)"}, strings.Fields(lines[2]))
}

func TestRemAndKpi(t *testing.T) {
	rt, sim := newTestRunner(t)
	execute(t, rt, "go 1")

	out := strings.TrimSpace(execute(t, rt, `rem "test.rem"`))
	assert.Equal(t, filepath.Join(sim.Config().OutputDir, "test.rem"), out)
	_, err := os.Stat(out)
	assert.NoError(t, err)

	data := kpi.Kpi{}
	require.NoError(t, json.Unmarshal([]byte(execute(t, rt, "kpi")), &data))
	assert.Equal(t, uint64(1), data.Handover.Committed)
	assert.Equal(t, SimTime(1000000), data.TimeUs.EndTimeUs)
}

func TestLogLevel(t *testing.T) {
	level := logger.GetLevel()
	defer logger.SetLevel(level)

	rt, _ := newTestRunner(t)
	execute(t, rt, "log debug")
	assert.Equal(t, logger.DebugLevel, logger.GetLevel())
	assert.Equal(t, "debug\n", execute(t, rt, "log"))

	var buf bytes.Buffer
	assert.Error(t, rt.Execute("log loud", &buf))
	assert.Equal(t, logger.DebugLevel, logger.GetLevel())
}

func TestHelpListsCommands(t *testing.T) {
	rt, _ := newTestRunner(t)
	rt.width = 40
	out := execute(t, rt, "help")
	for _, e := range helpEntries {
		assert.Contains(t, out, e.usage+"\n")
	}
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), 40, line)
	}
}

func TestRunScript(t *testing.T) {
	rt, sim := newTestRunner(t)
	var out bytes.Buffer
	script := "time\n\n# comment\nfly away\nexit\ngo 1\n"
	require.NoError(t, rt.RunScript(strings.NewReader(script), &out))

	assert.Equal(t, SimTime(0), sim.Now())
	assert.Equal(t, 1, strings.Count(out.String(), "Done\n"))
	assert.Equal(t, 1, strings.Count(out.String(), "Error: "))
}

func TestRunScriptStopsOnCancel(t *testing.T) {
	_, sim := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rt := NewCmdRunner(ctx, sim)

	var out bytes.Buffer
	require.NoError(t, rt.RunScript(strings.NewReader("go 1\n"), &out))
	assert.Empty(t, out.String())
	assert.Equal(t, SimTime(0), sim.Now())
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "a b.out", unquote(`"a b.out"`))
	assert.Equal(t, "rem.out", unquote("rem.out"))
	assert.Equal(t, `"`, unquote(`"`))
}
