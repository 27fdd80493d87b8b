// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aibor/sandboxer/internal/computer"
	"github.com/aibor/sandboxer/internal/guest"
	"github.com/aibor/sandboxer/internal/hostlink"
	"github.com/aibor/sandboxer/internal/link"
	"github.com/aibor/sandboxer/internal/pipe"
	"golang.org/x/sync/errgroup"
)

const consoleTimeout = 5 * time.Second

// OpenTAPFunc opens the host frame device with the given name.
type OpenTAPFunc func(name string) (io.ReadWriteCloser, error)

// OpenTAP creates a TAP interface, see [hostlink.CreateTAP].
func OpenTAP(name string) (io.ReadWriteCloser, error) {
	return hostlink.CreateTAP(name)
}

// Config is the configuration of a simulation run.
type Config struct {
	// BaseDir is the directory the computers' storage roots are created in.
	BaseDir string

	// BufferCapacity bounds the buffers of all links. 0 means unbounded.
	BufferCapacity int

	// KeepComputers keeps the storage roots after the run.
	KeepComputers bool

	// ExportDir is the directory the storage roots are exported to as cpio
	// images after the run, one "<name>.cpio" per computer. Nothing is
	// exported if empty.
	ExportDir string

	// Output receives the console output of all guests, each line prefixed
	// with the computer name.
	Output io.Writer

	// OpenTAP opens the host side of host links. Defaults to [OpenTAP].
	OpenTAP OpenTAPFunc
}

type node struct {
	spec     Computer
	computer *computer.Computer
}

// Run runs the topology. It returns once all guest programs terminated. If
// one guest fails, the others are canceled.
//
// Guest failures are returned as [GuestError].
func Run(ctx context.Context, topology *Topology, cfg Config) error {
	err := topology.Validate()
	if err != nil {
		return err
	}

	nodes, err := createNodes(topology, cfg)
	if !cfg.KeepComputers {
		defer removeNodes(nodes)
	}

	if err != nil {
		return err
	}

	options := []link.Option{}
	if cfg.BufferCapacity > 0 {
		options = append(options, link.WithCapacity(cfg.BufferCapacity))
	}

	err = wireLinks(topology, nodes, options)
	if err != nil {
		return err
	}

	bridgeCtx, stopBridges := context.WithCancel(ctx)
	defer stopBridges()

	bridges, err := startBridges(bridgeCtx, topology, nodes, cfg, options)
	if err != nil {
		stopBridges()
		_ = bridges.Wait()

		return err
	}

	guestErr := runGuests(ctx, topology, nodes, cfg)

	stopBridges()

	bridgeErr := bridges.Wait()

	var exportErr error
	if cfg.ExportDir != "" {
		exportErr = exportNodes(topology, nodes, cfg.ExportDir)
	}

	return errors.Join(guestErr, bridgeErr, exportErr)
}

func createNodes(topology *Topology, cfg Config) (map[string]*node, error) {
	nodes := make(map[string]*node, len(topology.Computers))

	for _, spec := range topology.Computers {
		c, err := computer.Create(cfg.BaseDir)
		if err != nil {
			return nodes, fmt.Errorf("computer %s: %w", spec.Name, err)
		}

		nodes[spec.Name] = &node{spec: spec, computer: c}

		slog.Debug("Computer created",
			slog.String("name", spec.Name),
			slog.String("id", c.ID().String()))

		if spec.Image != "" {
			err := seed(c, spec.Image)
			if err != nil {
				return nodes, fmt.Errorf("computer %s: %w", spec.Name, err)
			}
		}
	}

	return nodes, nil
}

// exportNodes exports the storage root of every computer, also of those
// whose program failed.
func exportNodes(topology *Topology, nodes map[string]*node, dir string) error {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	var errs []error

	for _, spec := range topology.Computers {
		path := filepath.Join(dir, spec.Name+".cpio")

		err := export(nodes[spec.Name].computer, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("computer %s: %w", spec.Name, err))
			continue
		}

		slog.Debug("Computer exported",
			slog.String("name", spec.Name),
			slog.String("path", path))
	}

	return errors.Join(errs...)
}

func export(c *computer.Computer, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}

	err = c.ExportImage(file)
	if err != nil {
		_ = file.Close()
		return err //nolint:wrapcheck
	}

	return file.Close() //nolint:wrapcheck
}

func seed(c *computer.Computer, image string) error {
	file, err := os.Open(image)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	return c.SeedImage(file) //nolint:wrapcheck
}

func removeNodes(nodes map[string]*node) {
	for name, n := range nodes {
		err := n.computer.Remove()
		if err != nil {
			slog.Warn("Failed to remove computer",
				slog.String("name", name),
				slog.Any("error", err))
		}
	}
}

func wireLinks(topology *Topology, nodes map[string]*node, options []link.Option) error {
	for _, l := range topology.Links {
		a, b := link.NewPair(options...)

		indexA, err := nodes[l.A].computer.Attach(l.Family, a)
		if err != nil {
			return fmt.Errorf("link %s-%s: %w", l.A, l.B, err)
		}

		indexB, err := nodes[l.B].computer.Attach(l.Family, b)
		if err != nil {
			return fmt.Errorf("link %s-%s: %w", l.A, l.B, err)
		}

		slog.Debug("Link created",
			slog.String("family", l.Family.String()),
			slog.String("a", fmt.Sprintf("%s/%s%d", l.A, l.Family, indexA)),
			slog.String("b", fmt.Sprintf("%s/%s%d", l.B, l.Family, indexB)))
	}

	return nil
}

func startBridges(
	ctx context.Context,
	topology *Topology,
	nodes map[string]*node,
	cfg Config,
	options []link.Option,
) (*errgroup.Group, error) {
	openTAP := cfg.OpenTAP
	if openTAP == nil {
		openTAP = OpenTAP
	}

	var group errgroup.Group

	for _, h := range topology.HostLinks {
		device, err := openTAP(h.TAP)
		if err != nil {
			return &group, fmt.Errorf("host link %s: %w", h.TAP, err)
		}

		guestSide, hostSide := link.NewPair(options...)

		index, err := nodes[h.Computer].computer.Attach(h.Family, guestSide)
		if err != nil {
			_ = device.Close()
			return &group, fmt.Errorf("host link %s: %w", h.TAP, err)
		}

		bridge := &hostlink.Bridge{
			Name:     fmt.Sprintf("%s/%s%d-%s", h.Computer, h.Family, index, h.TAP),
			Endpoint: hostSide,
			Device:   device,
		}

		group.Go(func() error {
			return bridge.Run(ctx)
		})
	}

	return &group, nil
}

func runGuests(
	ctx context.Context,
	topology *Topology,
	nodes map[string]*node,
	cfg Config,
) error {
	output := cfg.Output
	if output == nil {
		output = io.Discard
	}

	output = pipe.Synchronized(output)

	var (
		consoles pipe.Pipes
		writers  []io.Closer
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	for _, spec := range topology.Computers {
		stdoutReader, stdoutWriter := io.Pipe()
		stderrReader, stderrWriter := io.Pipe()
		writers = append(writers, stdoutWriter, stderrWriter)

		for _, p := range []*pipe.Pipe{
			{
				Name:        spec.Name + " stdout",
				InputReader: stdoutReader,
				InputCloser: stdoutReader,
			},
			{
				Name:        spec.Name + " stderr",
				InputReader: stderrReader,
				InputCloser: stderrReader,
				MayBeSilent: true,
			},
		} {
			p.Output = output
			p.CopyFunc = pipe.PrefixLines(spec.Name)
			consoles.Run(p)
		}

		proc, err := guest.NewProcess(nodes[spec.Name].computer, guest.Config{
			Args:   spec.Args,
			Stdout: stdoutWriter,
			Stderr: stderrWriter,
		})
		if err != nil {
			cancel()
			_ = group.Wait()

			closeAll(writers)
			_ = consoles.Wait(consoleTimeout)

			return fmt.Errorf("computer %s: %w", spec.Name, err)
		}

		group.Go(func() error {
			defer stdoutWriter.Close()
			defer stderrWriter.Close()

			slog.Debug("Guest started",
				slog.String("name", spec.Name),
				slog.String("program", spec.Program))

			err := guest.Run(ctx, spec.Program, proc)

			slog.Debug("Guest exited",
				slog.String("name", spec.Name),
				slog.Any("error", err))

			err = errors.Join(err, proc.Shutdown())
			if err != nil {
				return &GuestError{Computer: spec.Name, Err: err}
			}

			return nil
		})
	}

	guestErr := group.Wait()

	consoleErr := consoles.Wait(consoleTimeout)
	if guestErr != nil {
		return guestErr //nolint:wrapcheck
	}

	if consoleErr != nil {
		return fmt.Errorf("console: %w", consoleErr)
	}

	return nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}
