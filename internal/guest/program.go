// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
)

// Program is a guest program. It returns when the program terminates.
type Program func(ctx context.Context, proc *Process) error

var programs = map[string]Program{
	"hello": Hello,
	"echo":  Echo,
}

// Programs returns the names of all available programs in sorted order.
func Programs() []string {
	return slices.Sorted(maps.Keys(programs))
}

// Lookup returns the program with the given name.
func Lookup(name string) (Program, error) {
	program, exists := programs[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, name)
	}

	return program, nil
}

// Run runs the named program in the given process. Errors of the program are
// returned as [ExitError].
func Run(ctx context.Context, name string, proc *Process) error {
	program, err := Lookup(name)
	if err != nil {
		return err
	}

	slog.Debug("Run program",
		slog.String("program", name),
		slog.Any("args", proc.Args()))

	err = program(ctx, proc)
	if err != nil {
		return &ExitError{Program: name, Err: err}
	}

	return nil
}
