package process

import "fmt"

// Window is an opaque top-level window handle (HWND on Windows, an X11 window id on Linux).
type Window uint64

func (w Window) String() string {
	return fmt.Sprintf("0x%X", uint64(w))
}

// WindowInfo describes one top-level window.
type WindowInfo struct {
	Handle Window
	PID    ProcessID
	Class  string
	Title  string
	Owned  bool // the window has an owner (GW_OWNER / WM_TRANSIENT_FOR)
}

// WindowSystem abstracts the desktop's top-level window list.
type WindowSystem interface {
	// FindWindow returns a top-level window matching class and title.
	// An empty class or title matches any value.
	FindWindow(class, title string) (Window, bool)

	// WindowProcessID returns the id of the process that created w.
	WindowProcessID(w Window) (ProcessID, bool)

	// TopLevelWindows lists the current top-level windows in Z order.
	TopLevelWindows() ([]WindowInfo, error)
}
