package process

// ProcessHelper bundles process discovery with opening, which is everything
// a Locator needs from a platform backend.
type ProcessHelper interface {
	// NewWithPID creates a new Process instance and opens it with the given PID
	NewWithPID(pid ProcessID) (Process, error)

	ProcessFinder
}
