// Package process_blob provides in-memory stand-ins for a foreign address
// space: a ProcessBlob is one contiguous region, a ProcessImage a sparse set
// of them that behaves like an open process.
package process_blob

import (
	"fmt"

	"pvztk/process"
)

type ProcessBlob struct {
	baseaddress process.ProcessMemoryAddress
	data        []byte
}

var _ process.Memory = (*ProcessBlob)(nil)

func NewProcessBlob(baseAddress process.ProcessMemoryAddress, data []byte) *ProcessBlob {
	return &ProcessBlob{
		baseaddress: baseAddress,
		data:        data,
	}
}

func (p *ProcessBlob) Data() []byte {
	return p.data
}

func (p *ProcessBlob) Base() process.ProcessMemoryAddress {
	return p.baseaddress
}

// Contains reports whether [addr, addr+size) lies inside the blob.
func (p *ProcessBlob) Contains(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) bool {
	if addr < p.baseaddress {
		return false
	}
	offset := uint64(addr - p.baseaddress)
	return offset <= uint64(len(p.data)) && uint64(size) <= uint64(len(p.data))-offset
}

// IsValid is always true; a blob cannot exit.
func (p *ProcessBlob) IsValid() bool {
	return true
}

// ReadMemory returns a copy of the requested range.
func (p *ProcessBlob) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if !p.Contains(addr, size) {
		return nil, fmt.Errorf("read %s at %s: %w", size.ToString(), addr.ToString(), process.ErrAddressNotMapped)
	}
	offset := uint64(addr - p.baseaddress)
	out := make([]byte, size)
	copy(out, p.data[offset:])
	return out, nil
}

func (p *ProcessBlob) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if !p.Contains(addr, process.ProcessMemorySize(len(data))) {
		return fmt.Errorf("write %d bytes at %s: %w", len(data), addr.ToString(), process.ErrAddressNotMapped)
	}
	copy(p.data[addr-p.baseaddress:], data)
	return nil
}
