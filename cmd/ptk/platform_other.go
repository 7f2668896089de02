//go:build !linux && !windows

package main

import (
	"errors"
	"runtime"

	"pvztk/process"
)

var errUnsupported = errors.New("process access is not supported on " + runtime.GOOS)

type unsupportedHelper struct{}

func (unsupportedHelper) NewWithPID(process.ProcessID) (process.Process, error) {
	return nil, errUnsupported
}

func (unsupportedHelper) FindProcessByPID(process.ProcessID) (*process.ProcessInfo, error) {
	return nil, errUnsupported
}

func (unsupportedHelper) FindProcessByName(string) ([]process.ProcessInfo, error) {
	return nil, errUnsupported
}

func (unsupportedHelper) FindAllProcesses() ([]process.ProcessInfo, error) {
	return nil, errUnsupported
}

func newHelper() process.ProcessHelper {
	return unsupportedHelper{}
}

func newWindowSystem() process.WindowSystem {
	return nil
}
