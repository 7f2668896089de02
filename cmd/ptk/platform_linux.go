package main

import (
	"pvztk/process"
	"pvztk/process_linux"
)

func newHelper() process.ProcessHelper {
	return process_linux.NewHelper()
}

// The X11 connection is opened on first use; without a display every window
// lookup fails and LocateByExecutable finds nothing.
func newWindowSystem() process.WindowSystem {
	return process_linux.NewX11WindowSystem()
}
