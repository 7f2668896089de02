package process

import (
	"fmt"
)

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// ProcessMemorySize represents a size of memory region, or an offset inside a MemoryPath
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

// PointerWidth is the size in bytes of a pointer in the foreign process.
// It is independent of the width of the process doing the reading.
type PointerWidth int

const (
	PointerWidth32 PointerWidth = 4
	PointerWidth64 PointerWidth = 8
)

// Valid reports whether w is a supported pointer width.
func (w PointerWidth) Valid() bool {
	return w == PointerWidth32 || w == PointerWidth64
}

func (w PointerWidth) String() string {
	return fmt.Sprintf("%d-bit", int(w)*8)
}
