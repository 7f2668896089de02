package process

// ProcessID represents a unique identifier for a process
type ProcessID int

// ProcessInfo contains basic information about a process
type ProcessInfo struct {
	PID   ProcessID    // Process ID
	PPID  ProcessID    // Parent Process ID
	Name  string       // Executable file name (comm on Linux, szExeFile on Windows)
	Exe   string       // Path to the executable, when known
	Args  []string     // Command line arguments, when known
	State ProcessState // Process state (R, S, D, Z, etc.), empty on Windows
}
