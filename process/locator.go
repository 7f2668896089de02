package process

import (
	"strings"
	"sync"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Locator finds the target process and owns the single handle to it.
// Every Locate call closes the previous handle before looking again, so two
// open handles never coexist. A Locator is itself a Memory that forwards to
// the current handle, which lets one Accessor outlive re-locating.
type Locator struct {
	helper          ProcessHelper
	windows         WindowSystem
	mainWindowClass string

	mu     sync.Mutex
	handle Process
	pid    ProcessID
	window Window
	log    *logger.Logger
}

var _ Memory = (*Locator)(nil)

// NewLocator creates a Locator. mainWindowClass is the window class preferred
// by LocateByExecutable when the process owns several top-level windows.
// windows may be nil when no window system is reachable; window based
// lookups then always fail.
func NewLocator(helper ProcessHelper, windows WindowSystem, mainWindowClass string) *Locator {
	return &Locator{
		helper:          helper,
		windows:         windows,
		mainWindowClass: mainWindowClass,
		log:             logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "locator")),
	}
}

// reset closes the current handle and clears the located identity.
// Must be called with l.mu held.
func (l *Locator) reset() error {
	var err error
	if l.handle != nil {
		if err = l.handle.Close(); err != nil {
			l.log.Warn("Failed to close process handle: ", err)
		}
	}
	l.handle = nil
	l.pid = 0
	l.window = 0
	return err
}

// LocateByWindow finds a top-level window by class and/or title (empty
// matches anything) and opens the process that owns it. It reports whether
// the window was found; a failure to open the process afterwards is logged
// but does not change the result. Use IsValid to check the handle.
func (l *Locator) LocateByWindow(class, title string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.reset()

	if l.windows == nil {
		return false
	}

	w, ok := l.windows.FindWindow(class, title)
	if !ok {
		l.log.Debugln("No window found for class", class, "title", title)
		return false
	}
	l.window = w

	if pid, ok := l.windows.WindowProcessID(w); ok && pid != 0 {
		l.pid = pid
		proc, err := l.helper.NewWithPID(pid)
		if err != nil {
			l.log.Warn("Window found but opening its process failed: ", err)
		} else {
			l.handle = proc
		}
	}

	l.log.Infoln("Located window", w, "pid", l.pid)
	return true
}

// LocateByExecutable opens the first running process whose executable name
// matches name, ignoring case, and then picks a representative top-level
// window of that process. If the process has no such window the handle is
// closed again and the whole lookup fails.
func (l *Locator) LocateByExecutable(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.reset()

	procs, err := l.helper.FindProcessByName(name)
	if err != nil {
		l.log.Warn("Process enumeration failed: ", err)
		return false
	}
	if len(procs) == 0 {
		l.log.Debugln("No process named", name)
		return false
	}

	pid := procs[0].PID
	proc, err := l.helper.NewWithPID(pid)
	if err != nil {
		l.log.Warn("Opening process ", pid, " failed: ", err)
		return false
	}

	var windows []WindowInfo
	if l.windows != nil {
		windows, err = l.windows.TopLevelWindows()
		if err != nil {
			l.log.Warn("Window enumeration failed: ", err)
		}
	}

	w, ok := pickWindow(windows, pid, l.mainWindowClass)
	if !ok {
		l.log.Debugln("Process", pid, "has no top-level window, releasing it")
		if err := proc.Close(); err != nil {
			l.log.Warn("Failed to close process handle: ", err)
		}
		return false
	}

	l.handle = proc
	l.pid = pid
	l.window = w

	l.log.Infoln("Located process", name, "pid", pid, "window", w)
	return true
}

// pickWindow returns an unowned top-level window of pid, preferring one
// whose class equals class.
func pickWindow(windows []WindowInfo, pid ProcessID, class string) (Window, bool) {
	var fallback *WindowInfo
	for i := range windows {
		w := &windows[i]
		if w.PID != pid || w.Owned {
			continue
		}
		if class != "" && strings.EqualFold(w.Class, class) {
			return w.Handle, true
		}
		if fallback == nil {
			fallback = w
		}
	}
	if fallback != nil {
		return fallback.Handle, true
	}
	return 0, false
}

func (l *Locator) current() Process {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle
}

// Process returns the current handle, or nil when nothing is located.
// The Locator keeps ownership; callers must not close it.
func (l *Locator) Process() Process {
	return l.current()
}

// IsValid reports whether a handle is held and the process is still running.
func (l *Locator) IsValid() bool {
	h := l.current()
	return h != nil && h.IsValid()
}

// ReadMemory reads from the located process.
func (l *Locator) ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error) {
	h := l.current()
	if h == nil {
		return nil, ErrProcessNotOpen
	}
	return h.ReadMemory(addr, size)
}

// WriteMemory writes to the located process.
func (l *Locator) WriteMemory(addr ProcessMemoryAddress, data []byte) error {
	h := l.current()
	if h == nil {
		return ErrProcessNotOpen
	}
	return h.WriteMemory(addr, data)
}

// PID returns the located process id, or 0.
func (l *Locator) PID() ProcessID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pid
}

// Window returns the located window, or 0.
func (l *Locator) Window() Window {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.window
}

// Close releases the current handle.
func (l *Locator) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reset()
}
