//go:build windows

package process_windows

import (
	"sync"
	"unsafe"

	"pvztk/process"

	"golang.org/x/sys/windows"
)

var (
	moduser32            = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW      = moduser32.NewProc("FindWindowW")
	procGetWindow        = moduser32.NewProc("GetWindow")
	procGetWindowTextW   = moduser32.NewProc("GetWindowTextW")
	procGetWindowTextLen = moduser32.NewProc("GetWindowTextLengthW")
)

const GW_OWNER = 4

// EnumWindows callbacks are a limited resource, so one is created for the
// whole program and fed through enumTarget.
var (
	enumMu       sync.Mutex
	enumTarget   *[]process.WindowInfo
	enumCallback = windows.NewCallback(func(hwnd windows.HWND, _ uintptr) uintptr {
		*enumTarget = append(*enumTarget, describeWindow(hwnd))
		return 1
	})
)

// User32WindowSystem implements process.WindowSystem with user32.dll
type User32WindowSystem struct{}

var _ process.WindowSystem = (*User32WindowSystem)(nil)

// NewWindowSystem creates a User32WindowSystem
func NewWindowSystem() *User32WindowSystem {
	return &User32WindowSystem{}
}

func utf16PtrOrNil(s string) *uint16 {
	if s == "" {
		return nil
	}
	p, err := windows.UTF16PtrFromString(s)
	if err != nil {
		return nil
	}
	return p
}

// FindWindow wraps FindWindowW; empty strings are passed as NULL.
func (u *User32WindowSystem) FindWindow(class, title string) (process.Window, bool) {
	hwnd, _, _ := procFindWindowW.Call(
		uintptr(unsafe.Pointer(utf16PtrOrNil(class))),
		uintptr(unsafe.Pointer(utf16PtrOrNil(title))),
	)
	return process.Window(hwnd), hwnd != 0
}

func (u *User32WindowSystem) WindowProcessID(w process.Window) (process.ProcessID, bool) {
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(windows.HWND(w), &pid); err != nil {
		return 0, false
	}
	return process.ProcessID(pid), pid != 0
}

// TopLevelWindows enumerates with EnumWindows.
func (u *User32WindowSystem) TopLevelWindows() ([]process.WindowInfo, error) {
	enumMu.Lock()
	defer enumMu.Unlock()

	var infos []process.WindowInfo
	enumTarget = &infos
	defer func() { enumTarget = nil }()

	if err := windows.EnumWindows(enumCallback, nil); err != nil {
		return nil, err
	}
	return infos, nil
}

func describeWindow(hwnd windows.HWND) process.WindowInfo {
	info := process.WindowInfo{Handle: process.Window(hwnd)}

	var pid uint32
	windows.GetWindowThreadProcessId(hwnd, &pid)
	info.PID = process.ProcessID(pid)

	owner, _, _ := procGetWindow.Call(uintptr(hwnd), GW_OWNER)
	info.Owned = owner != 0

	class := make([]uint16, 256)
	if n, err := windows.GetClassName(hwnd, &class[0], int32(len(class))); err == nil {
		info.Class = windows.UTF16ToString(class[:n])
	}

	length, _, _ := procGetWindowTextLen.Call(uintptr(hwnd))
	if length > 0 {
		title := make([]uint16, length+1)
		procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&title[0])), uintptr(len(title)))
		info.Title = windows.UTF16ToString(title)
	}

	return info
}
