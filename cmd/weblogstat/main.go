/*************************************************************************
* Copyright 2026 Gravwell, Inc. All rights reserved.
* Contact: <legal@gravwell.io>
*
* This software may be modified and distributed under the terms of the
* BSD 2-clause license. See the LICENSE file for details.
**************************************************************************/

// Command weblogstat is the core engine's driver: it loads a config
// file, runs one full pass over the configured input, then (for a
// tailable regular file) keeps following appended lines until
// interrupted, and finally writes a CSV report per module to stdout.
// The terminal UI, JSON/HTML renderers, and a richer CLI surface are
// external collaborators outside the core's scope (Non-goals).
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gravwell/logstat/internal/aggregate"
	"github.com/gravwell/logstat/internal/config"
	"github.com/gravwell/logstat/internal/export"
	"github.com/gravwell/logstat/internal/geo"
	"github.com/gravwell/logstat/internal/logging"
	"github.com/gravwell/logstat/internal/logparser"
	"github.com/gravwell/logstat/internal/logsrc"
	"github.com/gravwell/logstat/internal/metricstore"
	"github.com/gravwell/logstat/internal/resolve"
	"github.com/gravwell/logstat/internal/tail"
)

var (
	confPath = flag.String("config", "", "path to a logstat config file")
	input = flag.String("input", "", "input file to process, overrides the config's Input-Path ('-' for stdin)")
)

func main() {
	flag.Parse()
	if *confPath == "" {
		fmt.Fprintln(os.Stderr, "a -config path is required")
		os.Exit(1)
	}

	opts, err := config.Load(*confPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *input != "" {
		opts.Input_Path = *input
	}

	lgr, err := logging.NewStderrLogger(opts.Log_File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start logger: %v\n", err)
		os.Exit(1)
	}
	if err := lgr.SetLevelString(opts.Log_Level); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q: %v\n", opts.Log_Level, err)
		os.Exit(1)
	}

	if err := run(opts, lgr); err != nil {
		lgr.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(opts *config.Options, lgr *logging.Logger) error {
	parser, err := logparser.New(opts.ParserConfig())
	if err != nil {
		return fmt.Errorf("building parser: %w", err)
	}

	aggCfg, err := opts.AggregateConfig(geo.NoOp{})
	if err != nil {
		return fmt.Errorf("building aggregate config: %w", err)
	}
	agg := aggregate.New(aggCfg)

	resolver := resolve.New(opts.DNS_Server)
	resolver.Start()
	defer resolver.Shutdown()

	tail.SkipPredicate = func(err error) bool { return errors.Is(err, logparser.ErrSkipLine) }

	src, err := logsrc.Open(opts.Input_Path)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}

	for {
		line, rerr := src.ReadLine()
		if line != "" {
			entry, perr := parser.Parse(line)
			switch {
			case perr == nil:
				agg.Ingest(entry)
			case errors.Is(perr, logparser.ErrSkipLine):
				// comment/blank line, not counted as invalid
			default:
				agg.CountInvalid()
				lgr.Warn("line invalid", logging.KV("reason", perr.Error()))
			}
		}
		if rerr != nil {
			if rerr != io.EOF {
				src.Close()
				return fmt.Errorf("reading input: %w", rerr)
			}
			break
		}
	}

	var follower *tail.Follower
	if src.Tailable {
		src.Close()
		follower, err = tail.New(opts.Input_Path, parser, agg,
			tail.WithDNSWaker(resolver),
			tail.WithInvalidHandler(func(line string, err error) {
					agg.CountInvalid()
					lgr.Warn("line invalid", logging.KV("reason", err.Error()))
				}))
		if err != nil {
			return fmt.Errorf("starting tail follower: %w", err)
		}
		go follower.Run(func(err error) { lgr.Errorf("tail error: %v", err) })
		defer follower.Stop()
	} else {
		src.Close()
	}

	initial := agg.Counters()
	lgr.Info("initial pass complete", logging.KV("processed", initial.Processed), logging.KV("invalid", initial.Invalid))

	eng := &engine{agg: agg, resolver: resolver, follower: follower}

	if follower != nil {
		waitForSignal(lgr)
	}

	final := agg.Counters()
	return writeReport(os.Stdout, eng, final.Processed, final.Invalid)
}

func waitForSignal(lgr *logging.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	lgr.Info("shutting down", logging.KV("signal", sig.String()))
}

func writeReport(w io.Writer, snap export.Snapshotter, processed, invalid uint64) error {
	if err := export.WriteSummary(w, map[string]uint64{
			"processed": processed,
			"invalid": invalid,
		}); err != nil {
		return err
	}

	csv := export.CSVWriter{}
	for _, m := range metricstore.AllModules() {
		if err := csv.WriteModule(w, m, snap.Snapshot(m)); err != nil {
			return err
		}
	}
	return nil
}
