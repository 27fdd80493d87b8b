// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aibor/sandboxer/internal/guest"
)

const (
	name = "sandboxer"

	baseDirDefault = "out/computers"

	// Upper bound of link buffers, 0 means unbounded.
	bufferCapacityMax = 1 << 30

	usageMessage = `Usage of 'sandboxer':
    sandboxer [flags...]

Runs the computers of a topology and prints their console output. Without
-config a demo topology is run: a "receiver" and a "sender" computer running
the hello program, connected by an ethernet link.

All sandboxer flags can also be provided via environment variable
SANDBOXER_ARGS:
	SANDBOXER_ARGS="-debug -keepComputers" sandboxer

All sandboxer flags can also be provided via file ./.sandboxer-args, with one
argument per line.
`
)

type flags struct {
	ConfigPath     string
	BaseDir        string
	BufferCapacity uint64
	KeepComputers  bool
	ExportDir      string
	Debug          bool
	Version        bool
}

func (f *flags) logLevel() slog.Level {
	if f.Debug {
		return slog.LevelDebug
	}

	return slog.LevelWarn
}

func newFlagSet(cfg *flags, output io.Writer) *flag.FlagSet {
	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usageMessage)
		fmt.Fprintf(output, "\nPrograms: %s\n", strings.Join(guest.Programs(), ", "))
		fmt.Fprintln(output, "\nFlags:")
		flagSet.PrintDefaults()
	}

	flagSet.Var(
		(*FilePath)(&cfg.ConfigPath),
		"config",
		"topology file (YAML). Runs the demo topology if not given",
	)

	flagSet.Var(
		(*FilePath)(&cfg.BaseDir),
		"baseDir",
		"directory the computers' storage roots are created in",
	)

	flagSet.Var(
		LimitedUintValue{
			Value: &cfg.BufferCapacity,
			Upper: bufferCapacityMax,
		},
		"bufferCapacity",
		"capacity in bytes of each link buffer direction, 0 means unbounded",
	)

	flagSet.BoolVar(
		&cfg.KeepComputers,
		"keepComputers",
		cfg.KeepComputers,
		"do not delete the computers' storage roots on exit. Intended for "+
			"debugging",
	)

	flagSet.Var(
		(*FilePath)(&cfg.ExportDir),
		"exportDir",
		"export the computers' storage roots as cpio images into this "+
			"directory after the run, one <name>.cpio per computer",
	)

	flagSet.BoolVar(
		&cfg.Debug,
		"debug",
		cfg.Debug,
		"enable debug output",
	)

	flagSet.BoolVar(
		&cfg.Version,
		"version",
		cfg.Version,
		"show version and exit",
	)

	return flagSet
}

func parseArgs(args []string, output io.Writer) (*flags, error) {
	cfg := &flags{
		BaseDir: MustAbsoluteFilePath(baseDirDefault),
	}

	flagSet := newFlagSet(cfg, output)

	err := flagSet.Parse(args)
	if err != nil {
		return nil, &ParseArgsError{msg: "flag parse", err: err}
	}

	if flagSet.NArg() > 0 {
		err := &ParseArgsError{
			msg: "unexpected positional arguments: " +
				strings.Join(flagSet.Args(), " "),
		}

		fmt.Fprintln(output, err.Error())
		flagSet.Usage()

		return nil, err
	}

	return cfg, nil
}
