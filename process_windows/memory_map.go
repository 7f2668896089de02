//go:build windows

package process_windows

import (
	"unsafe"

	"pvztk/process"
	"pvztk/process/memory_map"

	"golang.org/x/sys/windows"
)

// MEMORY_BASIC_INFORMATION.Type of private allocations
const memPrivate = 0x20000

// GetMemoryMap walks the committed regions of the process with
// VirtualQueryEx and reports them in /proc/<pid>/maps permission notation.
func (p *WindowsProcess) GetMemoryMap() (memory_map.MemoryMap, error) {
	handle := p.currentHandle()
	if handle == 0 {
		return nil, process.ErrProcessNotOpen
	}

	var mm memory_map.MemoryMap
	var info windows.MemoryBasicInformation
	var addr uintptr
	for {
		if err := windows.VirtualQueryEx(handle, addr, &info, unsafe.Sizeof(info)); err != nil {
			// ERROR_INVALID_PARAMETER past the last region
			break
		}
		if info.RegionSize == 0 {
			break
		}

		if info.State == windows.MEM_COMMIT {
			mm = append(mm, memory_map.MemoryMapItem{
				Address: uint64(info.BaseAddress),
				Size:    uint64(info.RegionSize),
				Perms:   protectPerms(info.Protect, info.Type),
			})
		}

		next := info.BaseAddress + info.RegionSize
		if next <= addr {
			break
		}
		addr = next
	}

	return mm, nil
}

func protectPerms(protect, typ uint32) string {
	perms := []byte("---p")
	if protect&(windows.PAGE_GUARD|windows.PAGE_NOACCESS) == 0 {
		switch protect & 0xFF {
		case windows.PAGE_READONLY:
			perms[0] = 'r'
		case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
			perms[0], perms[1] = 'r', 'w'
		case windows.PAGE_EXECUTE:
			perms[2] = 'x'
		case windows.PAGE_EXECUTE_READ:
			perms[0], perms[2] = 'r', 'x'
		case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
			perms[0], perms[1], perms[2] = 'r', 'w', 'x'
		}
	}
	if typ != memPrivate {
		perms[3] = 's'
	}
	return string(perms)
}
