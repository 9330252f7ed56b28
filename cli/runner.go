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

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/participle"
	"github.com/mitchellh/go-wordwrap"
	"github.com/pkg/errors"

	"github.com/cellsim/cellsim/handover"
	"github.com/cellsim/cellsim/logger"
	"github.com/cellsim/cellsim/simulation"
	. "github.com/cellsim/cellsim/types"
)

const helpWidth = 78

var (
	commandParser = participle.MustBuild(&Command{})

	// ErrExit is returned by Execute for the exit command.
	ErrExit = errors.New("exit")
)

var helpEntries = []struct {
	usage, text string
}{
	{"go <seconds> | go ever", "Advance the simulation by the given number of simulated seconds, or until the stop time."},
	{"time", "Show the current simulation time."},
	{"cells", "List all cells with their site, sector, antenna orientation and transmit power."},
	{"ues", "List all UEs with their position, serving cell, handover state and number of handovers."},
	{"ue <id>", "Show the serving cell, bearer and latest filtered measurements of one UE."},
	{"rem [\"file\"]", "Render the radio environment map and write it to the given file, or to the configured REM file."},
	{"kpi", "Show the current key performance indicators as JSON."},
	{"log [level]", "Show or set the log level (trace, debug, info, note, warn, error, off)."},
	{"help", "Show this help."},
	{"exit", "Stop the simulation, write the KPI file and exit."},
}

// CmdRunner executes CLI commands against a simulation.
type CmdRunner struct {
	ctx   context.Context
	sim   *simulation.Simulation
	width int
}

func NewCmdRunner(ctx context.Context, sim *simulation.Simulation) *CmdRunner {
	return &CmdRunner{
		ctx:   ctx,
		sim:   sim,
		width: helpWidth,
	}
}

func parseCmd(line string, cmd *Command) error {
	return commandParser.ParseString(line, cmd)
}

// Execute parses and runs one command line, writing its output to w. Empty lines are ignored.
// It returns ErrExit for the exit command.
func (rt *CmdRunner) Execute(line string, w io.Writer) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	cmd := Command{}
	if err := parseCmd(line, &cmd); err != nil {
		return errors.Wrapf(err, "parse %q", line)
	}
	return rt.execute(&cmd, w)
}

func (rt *CmdRunner) execute(cmd *Command, w io.Writer) error {
	switch {
	case cmd.Cells != nil:
		rt.executeCells(w)
	case cmd.Exit != nil:
		return ErrExit
	case cmd.Go != nil:
		return rt.executeGo(cmd.Go, w)
	case cmd.Help != nil:
		rt.executeHelp(w)
	case cmd.Kpi != nil:
		return rt.executeKpi(w)
	case cmd.Log != nil:
		return rt.executeLog(cmd.Log, w)
	case cmd.Rem != nil:
		return rt.executeRem(cmd.Rem, w)
	case cmd.Time != nil:
		rt.executeTime(w)
	case cmd.Ue != nil:
		return rt.executeUe(cmd.Ue, w)
	case cmd.Ues != nil:
		rt.executeUes(w)
	default:
		logger.Panicf("unimplemented command")
	}
	return nil
}

func (rt *CmdRunner) executeGo(cmd *GoCmd, w io.Writer) error {
	if rt.sim.IsStopped() {
		return errors.New("simulation is stopped")
	}
	var d time.Duration
	if cmd.Ever != nil {
		d = (rt.sim.StopTime() - rt.sim.Now()).Duration()
	} else {
		if cmd.Seconds <= 0 {
			return errors.Errorf("invalid duration: %v", cmd.Seconds)
		}
		d = time.Duration(cmd.Seconds * float64(time.Second))
	}
	now := rt.sim.Go(d)
	if err := rt.ctx.Err(); err != nil {
		return errors.Wrap(err, "go interrupted")
	}
	_, _ = fmt.Fprintf(w, "%.6f\n", now.Seconds())
	return nil
}

func (rt *CmdRunner) executeTime(w io.Writer) {
	now := rt.sim.Now()
	_, _ = fmt.Fprintf(w, "%.6f s (%d us), stop at %.6f s", now.Seconds(), uint64(now), rt.sim.StopTime().Seconds())
	if next := rt.sim.Scheduler().NextTimestamp(); next != Ever {
		_, _ = fmt.Fprintf(w, ", next event at %.6f s", next.Seconds())
	}
	_, _ = fmt.Fprintln(w)
}

func (rt *CmdRunner) executeCells(w io.Writer) {
	topo := rt.sim.Topology()
	_, _ = fmt.Fprintf(w, "%-5s %-5s %-6s %-8s %-8s %s\n", "cell", "site", "sector", "azimuth", "txPower", "position")
	for _, site := range topo.Sites {
		for _, id := range site.Cells {
			c := topo.Cells[id]
			_, _ = fmt.Fprintf(w, "%-5d %-5d %-6d %-8.0f %-8.1f %s\n", c.Id, c.Site, c.Sector,
				c.Antenna.OrientationDeg, c.TxPowerDbm, c.Position)
		}
	}
}

func (rt *CmdRunner) sortedUes() []*simulation.Ue {
	ues := make([]*simulation.Ue, 0, len(rt.sim.Topology().Ues))
	for _, ue := range rt.sim.Topology().Ues {
		ues = append(ues, ue)
	}
	sort.Slice(ues, func(i, j int) bool {
		return ues[i].Id < ues[j].Id
	})
	return ues
}

func (rt *CmdRunner) executeUes(w io.Writer) {
	ho := rt.sim.Handover()
	_, _ = fmt.Fprintf(w, "%-4s %-22s %-8s %-22s %s\n", "ue", "position", "serving", "state", "handovers")
	for _, ue := range rt.sortedUes() {
		state, _, err := ho.State(ue.Id)
		stateStr := state.String()
		if err != nil {
			stateStr = "DETACHED"
		}
		_, _ = fmt.Fprintf(w, "%-4d %-22s %-8d %-22s %d\n", ue.Id, ue.Position, ho.ServingCell(ue.Id),
			stateStr, ho.HandoverCount(ue.Id))
	}
}

func (rt *CmdRunner) executeUe(cmd *UeCmd, w io.Writer) error {
	id := NodeId(cmd.Id)
	ue, ok := rt.sim.Topology().Ues[id]
	if !ok {
		return errors.Errorf("ue %d not found", cmd.Id)
	}
	ho := rt.sim.Handover()
	state, target, err := ho.State(id)
	if err != nil {
		return err
	}
	serving := ho.ServingCell(id)

	_, _ = fmt.Fprintf(w, "ue %d at %s\n", ue.Id, ue.Position)
	_, _ = fmt.Fprintf(w, "serving cell %d, %s", serving, state)
	if state == handover.HandoverInProgress {
		_, _ = fmt.Fprintf(w, " to cell %d", target)
	}
	_, _ = fmt.Fprintf(w, ", %d handovers\n", ho.HandoverCount(id))
	if b := rt.sim.Bearers().Bearer(id); b != nil {
		_, _ = fmt.Fprintf(w, "%s\n", b)
	}

	engine := rt.sim.Measurement()
	_, _ = fmt.Fprintf(w, "%-5s %-10s %-10s %-10s %s\n", "cell", "rsrpDbm", "rsrqDb", "sinrDb", "rsrqRange")
	for _, cell := range engine.MeasuredCells(id) {
		s, ok := engine.Latest(id, cell)
		if !ok {
			continue
		}
		mark := ""
		if cell == serving {
			mark = " *"
		}
		_, _ = fmt.Fprintf(w, "%-5d %-10.2f %-10.2f %-10.2f %d%s\n", cell, s.FilteredRsrpDbm, s.FilteredRsrqDb,
			s.SinrDb, s.RsrqRange(), mark)
	}
	return nil
}

func (rt *CmdRunner) executeRem(cmd *RemCmd, w io.Writer) error {
	path, err := rt.sim.SaveRem(rt.ctx, unquote(cmd.File))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "%s\n", path)
	return nil
}

func (rt *CmdRunner) executeKpi(w io.Writer) error {
	data, err := json.MarshalIndent(rt.sim.Kpi().Data(), "", "    ")
	if err != nil {
		return errors.Wrap(err, "marshal KPI data")
	}
	_, _ = fmt.Fprintf(w, "%s\n", data)
	return nil
}

func (rt *CmdRunner) executeLog(cmd *LogCmd, w io.Writer) error {
	if cmd.Level == "" {
		_, _ = fmt.Fprintf(w, "%s\n", logger.GetLevelString(logger.GetLevel()))
		return nil
	}
	if !logger.IsLevelString(cmd.Level) {
		return errors.Errorf("unknown log level: %s", cmd.Level)
	}
	logger.SetLevel(logger.ParseLevel(cmd.Level))
	return nil
}

func (rt *CmdRunner) executeHelp(w io.Writer) {
	for _, e := range helpEntries {
		text := wordwrap.WrapString(e.text, uint(rt.width-4))
		_, _ = fmt.Fprintf(w, "%s\n    %s\n", e.usage, strings.ReplaceAll(text, "\n", "\n    "))
	}
}

// unquote strips the quotes of a string token, if the lexer left them in place.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '`') {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}
