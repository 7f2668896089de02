// Package memory_map models the mapped regions of a process address space.
package memory_map

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// MemoryMapItem represents a memory region in a process's address space
type MemoryMapItem struct {
	Address uint64 // The starting address of the memory region
	Size    uint64 // The size of the memory region in bytes
	Perms   string // Permissions (e.g., "r-xp" for read, execute, private)
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	return fmt.Sprintf("Address: %x, Size: %d, Perms: %s", mmItem.Address, mmItem.Size, mmItem.Perms)
}

// End returns the first address past the region.
func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + mmItem.Size
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return len(mmItem.Perms) > 0 && mmItem.Perms[0] == 'r'
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return len(mmItem.Perms) > 1 && mmItem.Perms[1] == 'w'
}

// Contains reports whether [addr, addr+size) lies inside the region.
func (mmItem MemoryMapItem) Contains(addr, size uint64) bool {
	return addr >= mmItem.Address && addr+size <= mmItem.End() && addr+size >= addr
}

// MemoryMap is a list of regions sorted by address.
type MemoryMap []MemoryMapItem

// Sort orders the regions by start address, which Find requires.
func (mm MemoryMap) Sort() {
	sort.Slice(mm, func(i, j int) bool {
		return mm[i].Address < mm[j].Address
	})
}

// Find returns the region containing addr, or nil.
func (mm MemoryMap) Find(addr uint64) *MemoryMapItem {
	i := sort.Search(len(mm), func(i int) bool {
		return mm[i].End() > addr
	})
	if i < len(mm) && mm[i].Address <= addr {
		return &mm[i]
	}
	return nil
}

// ParseMaps parses the /proc/[pid]/maps text format.
func ParseMaps(r io.Reader) (MemoryMap, error) {
	var memoryMap MemoryMap
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		// Parse address range (e.g., "00400000-0040b000")
		start, end, ok := strings.Cut(fields[0], "-")
		if !ok {
			continue
		}

		startAddr, err := strconv.ParseUint(start, 16, 64)
		if err != nil {
			continue
		}

		endAddr, err := strconv.ParseUint(end, 16, 64)
		if err != nil || endAddr < startAddr {
			continue
		}

		memoryMap = append(memoryMap, MemoryMapItem{
			Address: startAddr,
			Size:    endAddr - startAddr,
			Perms:   fields[1],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	memoryMap.Sort()
	return memoryMap, nil
}
