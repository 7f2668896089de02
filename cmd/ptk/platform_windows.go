package main

import (
	"pvztk/process"
	"pvztk/process_windows"
)

func newHelper() process.ProcessHelper {
	return process_windows.NewHelper()
}

func newWindowSystem() process.WindowSystem {
	return process_windows.NewWindowSystem()
}
