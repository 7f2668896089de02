package process_blob

import (
	"encoding/binary"
	"fmt"
	"sync"

	"pvztk/process"
)

// ProcessImage is a sparse address space assembled from blobs. It implements
// process.Process so it can stand in for a live target: Open marks it
// running, Close and Exit end it.
type ProcessImage struct {
	mu      sync.Mutex
	blobs   []*ProcessBlob
	pid     process.ProcessID
	running bool
	closed  bool
}

var _ process.Process = (*ProcessImage)(nil)

// NewProcessImage creates a running image made of blobs.
func NewProcessImage(blobs ...*ProcessBlob) *ProcessImage {
	return &ProcessImage{
		blobs:   blobs,
		running: true,
	}
}

// Map adds a zero filled region of size bytes at base and returns it.
func (m *ProcessImage) Map(base process.ProcessMemoryAddress, size int) *ProcessBlob {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob := NewProcessBlob(base, make([]byte, size))
	m.blobs = append(m.blobs, blob)
	return blob
}

func (m *ProcessImage) find(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) *ProcessBlob {
	for _, blob := range m.blobs {
		if blob.Contains(addr, size) {
			return blob
		}
	}
	return nil
}

func (m *ProcessImage) Open(pid process.ProcessID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pid = pid
	m.running = true
	m.closed = false
	return nil
}

func (m *ProcessImage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called since the last Open.
func (m *ProcessImage) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Exit simulates the target process terminating.
func (m *ProcessImage) Exit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
}

func (m *ProcessImage) GetPID() process.ProcessID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pid
}

func (m *ProcessImage) IsValid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running && !m.closed
}

func (m *ProcessImage) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blob := m.find(addr, size)
	if blob == nil {
		return nil, fmt.Errorf("read %s at %s: %w", size.ToString(), addr.ToString(), process.ErrAddressNotMapped)
	}
	return blob.ReadMemory(addr, size)
}

func (m *ProcessImage) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	blob := m.find(addr, process.ProcessMemorySize(len(data)))
	if blob == nil {
		return fmt.Errorf("write %d bytes at %s: %w", len(data), addr.ToString(), process.ErrAddressNotMapped)
	}
	return blob.WriteMemory(addr, data)
}

// PutUint32 stores a little endian uint32, typically a 32-bit pointer.
func (m *ProcessImage) PutUint32(addr process.ProcessMemoryAddress, v uint32) error {
	return m.WriteMemory(addr, binary.LittleEndian.AppendUint32(nil, v))
}

// PutUint64 stores a little endian uint64, typically a 64-bit pointer.
func (m *ProcessImage) PutUint64(addr process.ProcessMemoryAddress, v uint64) error {
	return m.WriteMemory(addr, binary.LittleEndian.AppendUint64(nil, v))
}
