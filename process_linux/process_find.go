//go:build linux

package process_linux

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pvztk/process"
)

// LinuxProcessFinder implements the process.ProcessFinder interface on top of /proc
type LinuxProcessFinder struct{}

// NewProcessFinder creates a new LinuxProcessFinder
func NewProcessFinder() *LinuxProcessFinder {
	return &LinuxProcessFinder{}
}

// FindProcessByPID finds a process by its PID
func (f *LinuxProcessFinder) FindProcessByPID(pid process.ProcessID) (*process.ProcessInfo, error) {
	procPath := fmt.Sprintf("/proc/%d", pid)

	// Check if the process exists
	if _, err := os.Stat(procPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("process with PID %d does not exist", pid)
	}

	return getProcessInfo(pid)
}

// FindProcessByName finds processes whose executable name equals name, ignoring case.
// comm, the exe link and argv[0] are all consulted: comm is truncated to 15
// bytes and Wine hosted programs only show their .exe name in argv[0].
func (f *LinuxProcessFinder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	all, err := f.FindAllProcesses()
	if err != nil {
		return nil, err
	}

	var results []process.ProcessInfo
	for _, info := range all {
		if matchesExecutable(info, name) {
			results = append(results, info)
		}
	}
	return results, nil
}

// FindAllProcesses returns information about all running processes, by ascending PID
func (f *LinuxProcessFinder) FindAllProcesses() ([]process.ProcessInfo, error) {
	// List all directories in /proc that are numbers (PIDs)
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("failed to read /proc: %w", err)
	}

	selfPID := os.Getpid()
	var results []process.ProcessInfo

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid <= 0 || pid == selfPID {
			continue
		}

		info, err := getProcessInfo(process.ProcessID(pid))
		if err != nil {
			// Process may have terminated while we were reading
			continue
		}
		results = append(results, *info)
	}

	return results, nil
}

func matchesExecutable(info process.ProcessInfo, name string) bool {
	if strings.EqualFold(info.Name, name) {
		return true
	}
	if info.Exe != "" && strings.EqualFold(filepath.Base(info.Exe), name) {
		return true
	}
	if len(info.Args) > 0 && strings.EqualFold(executableBase(info.Args[0]), name) {
		return true
	}
	return false
}

// executableBase strips both '/' and '\' directories, the latter for Wine paths.
func executableBase(arg0 string) string {
	if i := strings.LastIndexAny(arg0, `/\`); i >= 0 {
		return arg0[i+1:]
	}
	return arg0
}

// Helper function to get process information
func getProcessInfo(pid process.ProcessID) (*process.ProcessInfo, error) {
	procPath := fmt.Sprintf("/proc/%d", pid)

	// Read process name from /proc/<pid>/comm
	nameBytes, err := os.ReadFile(filepath.Join(procPath, "comm"))
	if err != nil {
		return nil, fmt.Errorf("failed to read process name: %w", err)
	}

	// Some processes don't have an exe (e.g., kernel threads), or we may lack permission
	exe, _ := os.Readlink(filepath.Join(procPath, "exe"))

	info := &process.ProcessInfo{
		PID:  pid,
		Name: strings.TrimSpace(string(nameBytes)),
		Exe:  exe,
	}

	if cmdline, err := os.ReadFile(filepath.Join(procPath, "cmdline")); err == nil {
		cmdline = bytes.TrimRight(cmdline, "\x00")
		if len(cmdline) > 0 {
			for _, arg := range bytes.Split(cmdline, []byte{0}) {
				info.Args = append(info.Args, string(arg))
			}
		}
	}

	if state, ppid, err := readStat(pid); err == nil {
		info.State = state
		info.PPID = ppid
	}

	return info, nil
}

// readStat parses the state and parent pid out of /proc/<pid>/stat.
// The comm field may itself contain spaces and parentheses, so parsing
// starts after the last ')'.
func readStat(pid process.ProcessID) (process.ProcessState, process.ProcessID, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return "", 0, err
	}

	i := bytes.LastIndexByte(data, ')')
	if i < 0 {
		return "", 0, fmt.Errorf("malformed stat for pid %d", pid)
	}

	fields := strings.Fields(string(data[i+1:]))
	if len(fields) < 2 {
		return "", 0, fmt.Errorf("malformed stat for pid %d", pid)
	}

	ppid, _ := strconv.Atoi(fields[1])
	return process.ProcessState(fields[0]), process.ProcessID(ppid), nil
}

func readProcessState(pid process.ProcessID) (process.ProcessState, error) {
	state, _, err := readStat(pid)
	return state, err
}
