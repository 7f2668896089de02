package process

// Memory is the minimal surface needed to access a foreign address space.
// Process backends, the Locator and process_blob.ProcessBlob implement it.
type Memory interface {
	// IsValid reports whether the underlying process is open and still running
	IsValid() bool

	// ReadMemory reads memory from the process at the specified address
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)

	// WriteMemory writes data to the process memory at the specified address
	WriteMemory(addr ProcessMemoryAddress, data []byte) error
}

// Process is the interface that defines operations for interacting with a system process
type Process interface {
	// Open opens a process with the given PID for memory operations
	Open(pid ProcessID) error

	// Close closes the process and releases resources
	Close() error

	// GetPID returns the process ID
	GetPID() ProcessID

	Memory
}
