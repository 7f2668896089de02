//go:build linux

package process_linux

import (
	"fmt"
	"os"
	"sync"

	"pvztk/process"
	"pvztk/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// lowest address ever handed out to user space mappings
const minMappedAddress = 0x10000

// LinuxProcess implements the process.Process interface for Linux systems.
// There is no handle to hold: the pid is the handle and liveness is read
// from /proc on demand.
type LinuxProcess struct {
	pid process.ProcessID
	log *logger.Logger
	mm  memory_map.MemoryMap
	mu  sync.Mutex
}

var _ process.Process = (*LinuxProcess)(nil)

// New creates a new LinuxProcess instance
func New() *LinuxProcess {
	return &LinuxProcess{
		log: logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open")),
	}
}

// NewWithPID creates a new LinuxProcess instance and opens it with the given PID
func NewWithPID(pid process.ProcessID) (*LinuxProcess, error) {
	p := New()
	if err := p.Open(pid); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *LinuxProcess) Open(pid process.ProcessID) error {
	// Check if process exists
	procPath := fmt.Sprintf("/proc/%d", pid)
	if _, err := os.Stat(procPath); os.IsNotExist(err) {
		return fmt.Errorf("process with PID %d does not exist", pid)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pid = pid
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))

	if err := p.updateMemoryMapLocked(); err != nil {
		p.pid = 0
		return fmt.Errorf("failed to initialize memory map: %w", err)
	}

	p.log.Infoln("Process opened")

	return nil
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil
	}

	p.pid = 0
	p.mm = nil

	p.log.Infoln("Process closed")
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	return nil
}

// GetPID returns the process ID
func (p *LinuxProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// IsValid reports whether the process is open and has not exited.
func (p *LinuxProcess) IsValid() bool {
	pid := p.GetPID()
	if pid == 0 {
		return false
	}

	state, err := readProcessState(pid)
	if err != nil {
		return false
	}
	return state.StillRunning()
}

// UpdateMemoryMap refreshes the cached /proc/[pid]/maps snapshot.
func (p *LinuxProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updateMemoryMapLocked()
}

func (p *LinuxProcess) updateMemoryMapLocked() error {
	if p.pid == 0 {
		return process.ErrProcessNotOpen
	}

	mm, err := memory_map.ReadMemoryMap(int(p.pid))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	p.mm = mm
	return nil
}

// region returns the mapped region holding [addr, addr+size), refreshing the
// cached map once on a miss since the target keeps allocating while we poll.
// Must be called with p.mu held.
func (p *LinuxProcess) region(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) (*memory_map.MemoryMapItem, error) {
	if addr < minMappedAddress {
		return nil, process.ErrAddressNotMapped
	}

	lookup := func() *memory_map.MemoryMapItem {
		item := p.mm.Find(uint64(addr))
		if item == nil || !item.Contains(uint64(addr), uint64(size)) {
			return nil
		}
		return item
	}

	if item := lookup(); item != nil {
		return item, nil
	}

	if err := p.updateMemoryMapLocked(); err != nil {
		return nil, err
	}

	if item := lookup(); item != nil {
		return item, nil
	}
	return nil, process.ErrAddressNotMapped
}

// GetMemoryMap returns a copy of the cached memory map
func (p *LinuxProcess) GetMemoryMap() (memory_map.MemoryMap, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil, process.ErrProcessNotOpen
	}

	result := make(memory_map.MemoryMap, len(p.mm))
	copy(result, p.mm)
	return result, nil
}
