// Package hexdump renders foreign memory for the command line tools, with
// addresses in the target's address space and pointer-sized words that land
// in a mapped region called out at the end of each line.
package hexdump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/Moonlight-Companies/gologger/coloransi"

	"pvztk/process"
	"pvztk/process/memory_map"
)

// Options defines how Dump lays out its output.
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// Address is the foreign address of the first byte
	Address uint64

	// PointerWidth selects the word size checked for pointers. Zero
	// disables the pointer column.
	PointerWidth process.PointerWidth

	// Regions is the memory map pointers are validated against
	Regions memory_map.MemoryMap

	// Color highlights pointers with ANSI colors
	Color bool
}

func DefaultOptions() Options {
	return Options{
		BytesPerLine: 16,
	}
}

// Dump creates a hex dump of data with the given options.
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of data to writer.
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}

	offsetWidth := 8
	if options.Address+uint64(len(data)) > 0xFFFFFFFF {
		offsetWidth = 16
	}

	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		end := min(offset+options.BytesPerLine, len(data))
		formatLine(writer, data[offset:end], options.Address+uint64(offset), offsetWidth, options)
	}
}

// formatLine writes one line:
//
//	006a9ec0  00 00 00 10 68 07 00 00  41 42 00 00 00 00 00 00  |....h...AB......|  0x10000000
func formatLine(writer io.Writer, data []byte, addr uint64, offsetWidth int, options Options) {
	fmt.Fprintf(writer, "%0*x  ", offsetWidth, addr)

	half := options.BytesPerLine / 2
	for i := 0; i < options.BytesPerLine; i++ {
		if i == half && half > 0 {
			fmt.Fprint(writer, " ")
		}
		if i < len(data) {
			fmt.Fprintf(writer, "%02x ", data[i])
		} else {
			fmt.Fprint(writer, "   ")
		}
	}

	fmt.Fprint(writer, " |")
	formatASCII(writer, data)
	fmt.Fprint(writer, "|")

	if pointers := findPointers(data, addr, options); len(pointers) > 0 {
		fmt.Fprint(writer, "  ", strings.Join(pointers, " "))
	}

	fmt.Fprintln(writer)
}

func formatASCII(writer io.Writer, data []byte) {
	for _, b := range data {
		if b >= 0x20 && b < 0x7f {
			fmt.Fprintf(writer, "%c", b)
		} else {
			fmt.Fprint(writer, ".")
		}
	}
}

// findPointers returns the aligned pointer-width words of data that point
// into a readable region.
func findPointers(data []byte, addr uint64, options Options) []string {
	width := int(options.PointerWidth)
	if !options.PointerWidth.Valid() || len(options.Regions) == 0 {
		return nil
	}

	var out []string
	for i := 0; i+width <= len(data); i++ {
		if (addr+uint64(i))%uint64(width) != 0 {
			continue
		}

		var ptr uint64
		if width == 4 {
			ptr = uint64(binary.LittleEndian.Uint32(data[i:]))
		} else {
			ptr = binary.LittleEndian.Uint64(data[i:])
		}

		if !isValidPointer(ptr, options.Regions) {
			continue
		}
		s := fmt.Sprintf("0x%x", ptr)
		if options.Color {
			s = coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, s)
		}
		out = append(out, s)
	}
	return out
}

func isValidPointer(ptr uint64, regions memory_map.MemoryMap) bool {
	region := regions.Find(ptr)
	return region != nil && region.IsReadable()
}
