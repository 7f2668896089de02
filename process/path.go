package process

import (
	"fmt"
	"strconv"
	"strings"
)

// MemoryPath describes a pointer chain inside a foreign process. Every offset
// except the last is added to the current base and dereferenced; the last
// offset is the field offset inside the final object. The walk starts at 0,
// so the first offset is usually a static address.
//
// Example:
//
//	// [[[0x6a9ec0] +0x768] +0x5560]
//	sun := process.Read[int32](acc, process.Path(0x6a9ec0, 0x768, 0x5560))
type MemoryPath []ProcessMemorySize

// Path builds a MemoryPath from offsets.
func Path(offsets ...ProcessMemorySize) MemoryPath {
	return MemoryPath(offsets)
}

// String renders the path the way the trace log prints it,
// e.g. [[[0x6a9ec0] +0x768] +0x5560].
func (p MemoryPath) String() string {
	var s string
	for i, off := range p {
		if i == 0 {
			s = fmt.Sprintf("[0x%x]", uint64(off))
			continue
		}
		s = fmt.Sprintf("[%s +0x%x]", s, uint64(off))
	}
	return s
}

// ParsePath parses a comma separated list of offsets such as
// "0x6a9ec0,0x768,0x5560". Decimal, 0x hex and 0o octal are accepted.
func ParsePath(s string) (MemoryPath, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyPath
	}

	parts := strings.Split(s, ",")
	path := make(MemoryPath, 0, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("offset %d (%q): %w", i, part, err)
		}
		path = append(path, ProcessMemorySize(v))
	}
	return path, nil
}
