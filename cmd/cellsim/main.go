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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/cellsim/cellsim/cli"
	"github.com/cellsim/cellsim/logger"
	"github.com/cellsim/cellsim/observability"
	"github.com/cellsim/cellsim/simulation"
	"github.com/cellsim/cellsim/types"
	webSite "github.com/cellsim/cellsim/web/site"
)

type MainArgs struct {
	ConfigFile  string
	SaveConfig  string
	StopTime    time.Duration
	OutputDir   string
	LogLevel    string
	Seed        int64
	Id          int
	RemFile     string
	NoRem       bool
	Interactive bool
	MetricsAddr string
	DebugPort   int
	Trace       bool
	UeLogFiles  bool
}

var args MainArgs

func parseArgs() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  Simulates UEs measuring a sectorised LTE network and handing over between its cells.\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&args.ConfigFile, "config", "", "YAML scenario file; the built-in reference scenario when empty")
	flag.StringVar(&args.SaveConfig, "save-config", "", "write the effective configuration to this file and exit")
	flag.DurationVar(&args.StopTime, "stop", simulation.DefaultStopTime, "simulated stop time")
	flag.StringVar(&args.OutputDir, "out", types.DefaultOutputDir, "output directory")
	flag.StringVar(&args.LogLevel, "log", "info", "log level: trace, debug, info, note, warn, error, off")
	flag.Int64Var(&args.Seed, "seed", 1, "random seed")
	flag.IntVar(&args.Id, "id", simulation.DefaultSimulationId, "simulation ID, prefix of all output files")
	flag.StringVar(&args.RemFile, "rem", simulation.DefaultRemFile, "REM output file, relative to the output directory")
	flag.BoolVar(&args.NoRem, "no-rem", false, "do not render the radio environment map")
	flag.BoolVar(&args.Interactive, "interactive", false, "read commands from stdin instead of running to the stop time")
	flag.StringVar(&args.MetricsAddr, "metrics", "", "serve Prometheus metrics on this address, e.g. localhost:9100")
	flag.IntVar(&args.DebugPort, "debug-port", 0, "serve Go pprof on this localhost port")
	flag.BoolVar(&args.Trace, "trace", false, "write OpenTelemetry spans to stderr")
	flag.BoolVar(&args.UeLogFiles, "ue-log", false, "write a log file per UE")
	flag.Parse()

	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(2)
	}
}

// loadConfig loads the scenario and applies the flags given explicitly on the command line.
func loadConfig() (*simulation.Config, error) {
	cfg := simulation.DefaultConfig()
	if args.ConfigFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(args.ConfigFile); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "stop":
			cfg.StopTime = args.StopTime
		case "out":
			cfg.OutputDir = args.OutputDir
		case "log":
			cfg.LogLevel = args.LogLevel
		case "seed":
			cfg.Seed = args.Seed
		case "id":
			cfg.Id = args.Id
		case "rem":
			cfg.Rem.File = args.RemFile
		case "ue-log":
			cfg.UeLogFiles = args.UeLogFiles
		}
	})
	if args.NoRem {
		cfg.Rem.Enabled = false
	}
	return cfg, cfg.Validate()
}

func main() {
	parseArgs()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if args.SaveConfig != "" {
		return cfg.Save(args.SaveConfig)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tracing := observability.DefaultTracingConfig()
	tracing.Enabled = args.Trace
	shutdown, err := observability.InitTracing(ctx, tracing)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown)

	var opts []simulation.Option
	if args.MetricsAddr != "" {
		collector, err := observability.NewCollector(prometheus.NewRegistry())
		if err != nil {
			return err
		}
		opts = append(opts, simulation.WithMetrics(collector))
		go func() {
			if err := webSite.Serve(args.MetricsAddr, collector.Handler()); !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("metrics webserver failed: %v", err)
			}
		}()
		<-webSite.Started
	}
	var progress *remProgressBar
	if cfg.Rem.Enabled && !args.Interactive && term.IsTerminal(int(os.Stderr.Fd())) {
		progress = newRemProgressBar(cfg)
		opts = append(opts, simulation.WithRemProgress(progress))
	}
	if args.DebugPort > 0 {
		webSite.ServeDebugPort(args.DebugPort)
	}
	defer webSite.StopServe()

	sim, err := simulation.NewSimulation(cfg, opts...)
	if err != nil {
		return err
	}
	defer sim.Stop()

	if args.Interactive {
		err = cli.NewCmdRunner(ctx, sim).Run(os.Stdin, os.Stdout)
	} else {
		err = sim.Run(ctx)
	}
	if err != nil {
		return err
	}

	if cfg.Rem.Enabled {
		_, err = sim.SaveRem(ctx, "")
		if progress != nil {
			progress.Finish()
		}
		if err != nil {
			return err
		}
	}
	return nil
}
