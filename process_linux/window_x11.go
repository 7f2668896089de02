//go:build linux

package process_linux

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"pvztk/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// X11WindowSystem implements process.WindowSystem against the X server named
// by $DISPLAY. Wine maps every Win32 top-level window to an X11 client
// window, exporting the owning pid as _NET_WM_PID and the owner relationship
// as WM_TRANSIENT_FOR.
type X11WindowSystem struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
	log   *logger.Logger
}

var _ process.WindowSystem = (*X11WindowSystem)(nil)

// NewX11WindowSystem creates a window system; the connection is made lazily.
func NewX11WindowSystem() *X11WindowSystem {
	return &X11WindowSystem{
		atoms: make(map[string]xproto.Atom),
		log:   logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "x11")),
	}
}

// Close drops the X connection.
func (x *X11WindowSystem) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.disconnect()
	return nil
}

func (x *X11WindowSystem) disconnect() {
	if x.conn != nil {
		x.conn.Close()
	}
	x.conn = nil
	x.atoms = make(map[string]xproto.Atom)
}

// connect must be called with x.mu held.
func (x *X11WindowSystem) connect() error {
	if x.conn != nil {
		return nil
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("connect to X server: %w", err)
	}

	x.conn = conn
	x.root = xproto.Setup(conn).DefaultScreen(conn).Root
	x.log.Infoln("Connected to X server")
	return nil
}

func (x *X11WindowSystem) atom(name string) (xproto.Atom, error) {
	if a, ok := x.atoms[name]; ok {
		return a, nil
	}

	reply, err := xproto.InternAtom(x.conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern %s: %w", name, err)
	}

	x.atoms[name] = reply.Atom
	return reply.Atom, nil
}

// property returns the raw value of prop on w, or nil if unset.
func (x *X11WindowSystem) property(w xproto.Window, prop xproto.Atom) ([]byte, error) {
	if prop == 0 {
		return nil, nil
	}

	reply, err := xproto.GetProperty(x.conn, false, w, prop, xproto.GetPropertyTypeAny, 0, 1<<16).Reply()
	if err != nil {
		return nil, err
	}
	if reply.Format == 0 {
		return nil, nil
	}
	return reply.Value, nil
}

func (x *X11WindowSystem) namedProperty(w xproto.Window, name string) ([]byte, error) {
	a, err := x.atom(name)
	if err != nil {
		return nil, err
	}
	return x.property(w, a)
}

// clients lists managed top-level windows, falling back to the root's
// children when no EWMH window manager is running.
func (x *X11WindowSystem) clients() ([]xproto.Window, error) {
	value, err := x.namedProperty(x.root, "_NET_CLIENT_LIST")
	if err == nil && len(value) >= 4 {
		windows := make([]xproto.Window, 0, len(value)/4)
		for i := 0; i+4 <= len(value); i += 4 {
			windows = append(windows, xproto.Window(xgb.Get32(value[i:])))
		}
		return windows, nil
	}

	tree, err := xproto.QueryTree(x.conn, x.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("query tree: %w", err)
	}
	return tree.Children, nil
}

func (x *X11WindowSystem) describe(w xproto.Window) process.WindowInfo {
	info := process.WindowInfo{Handle: process.Window(w)}

	if value, err := x.property(w, xproto.AtomWmClass); err == nil && value != nil {
		// WM_CLASS is "instance\0class\0"
		parts := bytes.Split(bytes.TrimRight(value, "\x00"), []byte{0})
		info.Class = string(parts[len(parts)-1])
	}

	if value, err := x.namedProperty(w, "_NET_WM_NAME"); err == nil && value != nil {
		info.Title = string(value)
	} else if value, err := x.property(w, xproto.AtomWmName); err == nil {
		info.Title = string(value)
	}

	if value, err := x.namedProperty(w, "_NET_WM_PID"); err == nil && len(value) >= 4 {
		info.PID = process.ProcessID(xgb.Get32(value))
	}

	if value, err := x.property(w, xproto.AtomWmTransientFor); err == nil && len(value) >= 4 {
		info.Owned = xgb.Get32(value) != 0
	}

	return info
}

func (x *X11WindowSystem) topLevel() ([]process.WindowInfo, error) {
	if err := x.connect(); err != nil {
		return nil, err
	}

	windows, err := x.clients()
	if err != nil {
		// The server may have gone away; reconnect next time
		x.disconnect()
		return nil, err
	}

	infos := make([]process.WindowInfo, 0, len(windows))
	for _, w := range windows {
		infos = append(infos, x.describe(w))
	}
	return infos, nil
}

// FindWindow returns the first client window whose WM_CLASS (instance or
// class, ignoring case) and title match. Empty arguments match anything.
func (x *X11WindowSystem) FindWindow(class, title string) (process.Window, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	infos, err := x.topLevel()
	if err != nil {
		x.log.Debugln("Window lookup failed:", err)
		return 0, false
	}

	for _, info := range infos {
		if class != "" && !x.classMatches(xproto.Window(info.Handle), class) {
			continue
		}
		if title != "" && info.Title != title {
			continue
		}
		return info.Handle, true
	}
	return 0, false
}

func (x *X11WindowSystem) classMatches(w xproto.Window, class string) bool {
	value, err := x.property(w, xproto.AtomWmClass)
	if err != nil || value == nil {
		return false
	}
	for _, part := range bytes.Split(bytes.TrimRight(value, "\x00"), []byte{0}) {
		if strings.EqualFold(string(part), class) {
			return true
		}
	}
	return false
}

// WindowProcessID reads _NET_WM_PID.
func (x *X11WindowSystem) WindowProcessID(w process.Window) (process.ProcessID, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.connect(); err != nil {
		return 0, false
	}

	value, err := x.namedProperty(xproto.Window(w), "_NET_WM_PID")
	if err != nil || len(value) < 4 {
		return 0, false
	}
	return process.ProcessID(xgb.Get32(value)), true
}

// TopLevelWindows lists the client windows with their pid, class and owner flag.
func (x *X11WindowSystem) TopLevelWindows() ([]process.WindowInfo, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.topLevel()
}
