//go:build windows

package process_windows

import (
	"pvztk/process"
)

// WindowsProcessHelper implements the process.ProcessHelper interface
type WindowsProcessHelper struct {
	*WindowsProcessFinder
}

var _ process.ProcessHelper = (*WindowsProcessHelper)(nil)

// NewHelper creates a new WindowsProcessHelper
func NewHelper() *WindowsProcessHelper {
	return &WindowsProcessHelper{
		WindowsProcessFinder: NewProcessFinder(),
	}
}

// NewWithPID creates a new Process instance and opens it with the given PID
func (h *WindowsProcessHelper) NewWithPID(pid process.ProcessID) (process.Process, error) {
	p, err := NewWithPID(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}
