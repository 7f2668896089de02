// Package process provides the types and interfaces used to locate a running
// target process and to read and write values inside its address space.
package process

import (
	"errors"
	"fmt"
)

// Platform backends live in process_linux and process_windows. The types in
// this package are split across:
// - types.go: ProcessID, ProcessInfo
// - process_state.go: ProcessState constants
// - memory_types.go: ProcessMemoryAddress, ProcessMemorySize, PointerWidth
// - process_interface.go: Memory and Process interfaces
// - process_finder.go / process_helper.go: discovery and opening
// - window.go: WindowSystem
// - path.go / accessor.go: pointer chains and typed access
// - locator.go: Locator

var (
	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrEmptyPath is returned for a MemoryPath without offsets.
	ErrEmptyPath = errors.New("empty memory path")
)

// ShortIOError reports a read or write that moved fewer bytes than requested.
type ShortIOError struct {
	Addr ProcessMemoryAddress
	Want int
	Got  int
}

func (e *ShortIOError) Error() string {
	return fmt.Sprintf("partial transfer at %s: %d of %d bytes", e.Addr.ToString(), e.Got, e.Want)
}
