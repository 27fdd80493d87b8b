// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/aibor/sandboxer/internal/guest"
	"github.com/aibor/sandboxer/internal/pipe"
	"github.com/aibor/sandboxer/internal/sim"
)

const localConfigFile = ".sandboxer-args"

// IO provides input and output details for the command.
type IO struct {
	Stdout io.Writer
	Stderr io.Writer
}

func newFlags(args []string, cfg IO) (*flags, error) {
	args, err := MergedArgs(args, os.DirFS("."), localConfigFile)
	if err != nil {
		return nil, err
	}

	flags, err := parseArgs(args, cfg.Stderr)
	if err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}

	return flags, nil
}

func loadTopology(flags *flags) (*sim.Topology, error) {
	if flags.ConfigPath == "" {
		slog.Debug("No topology file given, using demo topology")
		return sim.DemoTopology(), nil
	}

	topology, err := sim.LoadTopology(flags.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load topology: %w", err)
	}

	return topology, nil
}

func run(ctx context.Context, flags *flags, cfg IO) error {
	topology, err := loadTopology(flags)
	if err != nil {
		return err
	}

	simCfg := sim.Config{
		BaseDir:        flags.BaseDir,
		BufferCapacity: int(flags.BufferCapacity), //nolint:gosec
		KeepComputers:  flags.KeepComputers,
		ExportDir:      flags.ExportDir,
		Output:         cfg.Stdout,
	}

	if flags.KeepComputers {
		defer slog.Info("Preserving computers",
			slog.String("path", flags.BaseDir))
	}

	err = sim.Run(ctx, topology, simCfg)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	return nil
}

func handleParseArgsError(err error) int {
	// [ErrHelp] is returned when help is requested. So exit without error
	// in this case.
	if errors.Is(err, ErrHelp) {
		return 0
	}

	// ParseArgs already prints errors, so we just exit without an error.
	if !errors.Is(err, &ParseArgsError{}) {
		slog.Error(err.Error())
	}

	return -1
}

func handleRunError(err error) int {
	exitCode := -1

	var guestErr *sim.GuestError
	if errors.As(err, &guestErr) {
		exitCode = 1

		if errors.Is(err, guest.ErrUnknownProgram) {
			slog.Warn("available programs", slog.Any("programs", guest.Programs()))
		}
	}

	var pipeErr *pipe.Error
	if errors.As(err, &pipeErr) {
		if errors.Is(err, pipe.ErrNoOutput) {
			slog.Warn(
				"guest program did not print anything",
				slog.String("pipe", pipeErr.Name),
			)
		}
	}

	slog.Error(err.Error())

	return exitCode
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, cfg IO) int {
	setupLogging(cfg.Stderr, slog.LevelWarn)

	flags, err := newFlags(args, cfg)
	if err != nil {
		return handleParseArgsError(err)
	}

	setupLogging(cfg.Stderr, flags.logLevel())

	if flags.Version {
		buildInfo, err := getBuildInfo()
		if err != nil {
			slog.Error(err.Error())
			return -1
		}

		fmt.Fprintf(cfg.Stdout, "Version: %s\n", buildInfo.Main.Version)

		return 0
	}

	err = run(ctx, flags, cfg)
	if err != nil {
		return handleRunError(err)
	}

	return 0
}

func getBuildInfo() (*debug.BuildInfo, error) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, ErrReadBuildInfo
	}

	return buildInfo, nil
}
