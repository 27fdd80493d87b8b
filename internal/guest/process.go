// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/aibor/sandboxer/internal/computer"
	"github.com/aibor/sandboxer/internal/devfs"
	"github.com/aibor/sandboxer/internal/readiness"
	"golang.org/x/sys/unix"
)

// Standard stream descriptors.
const (
	Stdin uint32 = iota
	Stdout
	Stderr
)

const (
	devDir = "/dev"

	defaultMemoryPages = 1
	readChunkSize      = 4096
)

// Config is the configuration of a new [Process].
type Config struct {
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// MemoryPages is the size of the linear memory in pages. Defaults to a
	// single page.
	MemoryPages uint32
}

var _ readiness.Resolver = (*Process)(nil)

// Process is a guest program instance running on a computer.
//
// Paths are resolved in the computer's storage root. Relative paths are
// relative to the home directory. Paths below /dev are served by the device
// directory of the computer.
type Process struct {
	args    []string
	root    *os.Root
	devices *devfs.Dir
	host    *readiness.Host
	memory  *Memory

	mu     sync.Mutex
	fds    map[uint32]descriptor
	nextFD uint32
}

// NewProcess creates a new process on the given computer.
func NewProcess(c *computer.Computer, cfg Config) (*Process, error) {
	root, err := c.OpenRoot()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	pages := cfg.MemoryPages
	if pages == 0 {
		pages = defaultMemoryPages
	}

	p := &Process{
		args:    cfg.Args,
		root:    root,
		devices: devfs.New(c.Devices()),
		memory:  NewMemory(pages),
		fds: map[uint32]descriptor{
			Stdin:  stream{Reader: cfg.Stdin},
			Stdout: stream{Writer: cfg.Stdout},
			Stderr: stream{Writer: cfg.Stderr},
		},
		nextFD: Stderr + 1,
	}

	p.host = readiness.NewHost(c.Devices(), p)

	return p, nil
}

// Args returns the program arguments.
func (p *Process) Args() []string {
	return p.args
}

// Arg returns the argument at idx or an empty string if there is none.
func (p *Process) Arg(idx int) string {
	if idx < 0 || idx >= len(p.args) {
		return ""
	}

	return p.args[idx]
}

// Memory returns the linear memory of the process.
func (p *Process) Memory() *Memory {
	return p.memory
}

// Open opens the file with the given name. The flags are the ones of
// [os.OpenFile].
func (p *Process) Open(name string, flag int, perm fs.FileMode) (uint32, error) {
	var desc descriptor

	if devName, ok := deviceName(name); ok {
		oflags, fdflags, read, write := devfsFlags(flag)

		file, err := p.devices.Open(devName, oflags, read, write, fdflags)
		if err != nil {
			return 0, err //nolint:wrapcheck
		}

		desc = deviceFile{file}
	} else {
		file, err := p.root.OpenFile(resolve(name), flag, perm)
		if err != nil {
			return 0, err //nolint:wrapcheck
		}

		desc = hostFile{file}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	fd := p.nextFD
	p.nextFD++
	p.fds[fd] = desc

	return fd, nil
}

func (p *Process) descriptor(fd uint32) (descriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	desc, exists := p.fds[fd]
	if !exists {
		return nil, fmt.Errorf("descriptor %d: %w", fd, ErrBadDescriptor)
	}

	return desc, nil
}

// Read reads from the descriptor. Reading devices never blocks, it returns 0
// if no data is available.
func (p *Process) Read(fd uint32, b []byte) (int, error) {
	desc, err := p.descriptor(fd)
	if err != nil {
		return 0, err
	}

	return desc.Read(b) //nolint:wrapcheck
}

// ReadAvailable reads everything available from the descriptor until a read
// returns no more data.
func (p *Process) ReadAvailable(fd uint32) ([]byte, error) {
	var data []byte

	buf := make([]byte, readChunkSize)

	for {
		n, err := p.Read(fd, buf)
		data = append(data, buf[:n]...)

		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			return data, nil
		} else if err != nil {
			return data, err
		}
	}
}

// Write writes to the descriptor.
func (p *Process) Write(fd uint32, b []byte) (int, error) {
	desc, err := p.descriptor(fd)
	if err != nil {
		return 0, err
	}

	return desc.Write(b) //nolint:wrapcheck
}

// Printf formats and writes to stdout.
func (p *Process) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(descriptorWriter{p, Stdout}, format, args...)
}

// Close closes the descriptor.
func (p *Process) Close(fd uint32) error {
	p.mu.Lock()
	desc, exists := p.fds[fd]
	delete(p.fds, fd)
	p.mu.Unlock()

	if !exists {
		return fmt.Errorf("descriptor %d: %w", fd, ErrBadDescriptor)
	}

	return desc.Close() //nolint:wrapcheck
}

// DeviceNumber returns the device number of the descriptor's file.
func (p *Process) DeviceNumber(fd uint32) (uint64, error) {
	desc, err := p.descriptor(fd)
	if err != nil {
		return 0, err
	}

	return desc.deviceNumber()
}

// ReadDir returns the names of the entries of the named directory.
func (p *Process) ReadDir(name string) ([]string, error) {
	var names []string

	if devName, ok := deviceName(name); ok {
		if devName != "." {
			_, err := p.devices.OpenDir(devName)
			return nil, err //nolint:wrapcheck
		}

		for entry := range p.devices.ReadDir(0) {
			names = append(names, entry.Name)
		}

		return names, nil
	}

	entries, err := fs.ReadDir(p.root.FS(), resolve(name))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return names, nil
}

// WaitUntilReadyForRead blocks until at least one of the given descriptors
// is ready for reading and returns all that are ready. The returned set is
// only empty if no descriptors are given. It may not contain a specific
// descriptor the caller waits for, so callers must check and call again.
//
// The interests are passed to the host through the linear memory.
func (p *Process) WaitUntilReadyForRead(ctx context.Context, fds ...uint32) ([]uint32, error) {
	interests := make([]readiness.Interest, 0, len(fds))
	for _, fd := range fds {
		interests = append(interests, readiness.Interest{
			Descriptor: fd,
			Flags:      readiness.Read,
		})
	}

	encoded := readiness.EncodeInterests(interests)
	size := uint32(len(encoded)) //nolint:gosec

	interestsPtr, err := p.memory.Alloc(size)
	if err != nil {
		return nil, err
	}
	defer p.memory.Release(interestsPtr)

	readyPtr, err := p.memory.Alloc(size)
	if err != nil {
		return nil, err
	}

	p.memory.Write(interestsPtr, encoded)

	stack := []uint64{uint64(interestsPtr), uint64(readyPtr), uint64(len(fds))}

	err = p.host.Call(ctx, p.memory, stack)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", readiness.ModuleName, readiness.FunctionName, err)
	}

	raw, _ := p.memory.Read(readyPtr, uint32(stack[0])*readiness.RecordSize) //nolint:gosec

	ready := make([]uint32, 0, stack[0])
	for _, record := range readiness.DecodeInterests(raw) {
		ready = append(ready, record.Descriptor)
	}

	return ready, nil
}

// Shutdown closes all descriptors and releases the process' resources.
func (p *Process) Shutdown() error {
	p.mu.Lock()
	fds := p.fds
	p.fds = map[uint32]descriptor{}
	p.mu.Unlock()

	errs := make([]error, 0, len(fds)+1)
	for _, desc := range fds {
		errs = append(errs, desc.Close())
	}

	errs = append(errs, p.root.Close())

	return errors.Join(errs...)
}

type descriptorWriter struct {
	process *Process
	fd      uint32
}

func (w descriptorWriter) Write(b []byte) (int, error) {
	return w.process.Write(w.fd, b)
}

// deviceName returns the name in the device directory if name refers to it.
func deviceName(name string) (string, bool) {
	name = path.Clean(name)
	if name == devDir {
		return ".", true
	}

	return strings.CutPrefix(name, devDir+"/")
}

// resolve returns the path relative to the storage root.
func resolve(name string) string {
	if path.IsAbs(name) {
		name = strings.TrimPrefix(path.Clean(name), "/")
		if name == "" {
			return "."
		}

		return name
	}

	return path.Join(computer.HomeDir, name)
}

func devfsFlags(flag int) (devfs.OpenFlag, devfs.FDFlag, bool, bool) {
	var (
		oflags  devfs.OpenFlag
		fdflags devfs.FDFlag
	)

	for osFlag, devFlag := range map[int]devfs.OpenFlag{
		os.O_CREATE: devfs.OpenCreate,
		os.O_EXCL:   devfs.OpenExclusive,
		os.O_TRUNC:  devfs.OpenTruncate,
	} {
		if flag&osFlag != 0 {
			oflags |= devFlag
		}
	}

	for osFlag, devFlag := range map[int]devfs.FDFlag{
		os.O_APPEND:     devfs.FDAppend,
		os.O_SYNC:       devfs.FDSync,
		unix.O_DSYNC:    devfs.FDDataSync,
		unix.O_NONBLOCK: devfs.FDNonblock,
	} {
		if flag&osFlag == osFlag {
			fdflags |= devFlag
		}
	}

	accessMode := flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR)

	return oflags, fdflags, accessMode != os.O_WRONLY, accessMode != os.O_RDONLY
}
