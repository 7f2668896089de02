package pak

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	Magic   uint32 = 0xBAC04AC0
	Version uint32 = 0

	// HeaderSize is the encoded size of Header.
	HeaderSize = 8

	// MinArchiveSize is the smallest file Unpack will look at.
	MinArchiveSize = 10

	// MaxNameLen is the longest entry name the one byte length can carry.
	MaxNameLen = 255

	// MaxFileSize is the first size the signed 32-bit size field cannot carry.
	MaxFileSize = 1 << 31

	entryFlag byte = 0x00
	endFlag   byte = 0x80

	// flag, name length, size, timestamp
	entryOverhead = 1 + 1 + 4 + 8
)

var (
	ErrBadMagic       = errors.New("bad magic")
	ErrBadVersion     = errors.New("unsupported version")
	ErrTruncatedIndex = errors.New("index runs past end of archive")
)

// Header opens every archive.
type Header struct {
	Magic   uint32
	Version uint32
}

func (h Header) AppendBinary(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, h.Magic)
	return binary.LittleEndian.AppendUint32(b, h.Version)
}

// Validate reports why an archive with this header cannot be read.
func (h Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("%w: 0x%08x", ErrBadMagic, h.Magic)
	}
	if h.Version > Version {
		return fmt.Errorf("%w: %d", ErrBadVersion, h.Version)
	}
	return nil
}

// Entry is one index record. Name uses whichever separator the packing
// host used.
type Entry struct {
	Name      string
	Size      int32
	Timestamp uint64 // FILETIME
}

func (e Entry) EncodedLen() int {
	return entryOverhead + len(e.Name)
}

// AppendBinary appends the untransformed index record for e.
func (e Entry) AppendBinary(b []byte) []byte {
	b = append(b, entryFlag, byte(len(e.Name)))
	b = append(b, e.Name...)
	b = binary.LittleEndian.AppendUint32(b, uint32(e.Size))
	return binary.LittleEndian.AppendUint64(b, e.Timestamp)
}

// ModTime converts Timestamp back to a time.Time.
func (e Entry) ModTime() time.Time {
	return FromFiletime(e.Timestamp)
}

// 100ns ticks between 1601-01-01 and 1970-01-01
const filetimeEpochDelta = 116444736000000000

// ToFiletime encodes t as a Windows FILETIME. Times before 1601 encode as 0.
func ToFiletime(t time.Time) uint64 {
	ticks := t.UnixNano()/100 + filetimeEpochDelta
	if ticks < 0 {
		return 0
	}
	return uint64(ticks)
}

func FromFiletime(ft uint64) time.Time {
	ticks := int64(ft) - filetimeEpochDelta
	return time.Unix(ticks/1e7, (ticks%1e7)*100)
}

// Index is the decoded front of an archive.
type Index struct {
	Header     Header
	Entries    []Entry
	DataOffset int // first byte of the data section
}

// DataSize returns the sum of all entry sizes.
func (idx *Index) DataSize() int64 {
	var total int64
	for _, e := range idx.Entries {
		total += int64(e.Size)
	}
	return total
}

// ParseIndex decodes the header and index of an untransformed archive image.
// Any flag byte other than 0x00 ends the index, not just 0x80.
func ParseIndex(data []byte) (*Index, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d byte header", ErrBadMagic, len(data))
	}

	idx := &Index{
		Header: Header{
			Magic:   binary.LittleEndian.Uint32(data[0:]),
			Version: binary.LittleEndian.Uint32(data[4:]),
		},
	}
	if err := idx.Header.Validate(); err != nil {
		return nil, err
	}

	offset := HeaderSize
	for {
		if offset >= len(data) {
			return nil, ErrTruncatedIndex
		}
		flag := data[offset]
		offset++
		if flag != entryFlag {
			break
		}

		if offset >= len(data) {
			return nil, ErrTruncatedIndex
		}
		nameLen := int(data[offset])
		offset++

		if offset+nameLen+4+8 > len(data) {
			return nil, ErrTruncatedIndex
		}
		e := Entry{Name: string(data[offset : offset+nameLen])}
		offset += nameLen
		e.Size = int32(binary.LittleEndian.Uint32(data[offset:]))
		offset += 4
		e.Timestamp = binary.LittleEndian.Uint64(data[offset:])
		offset += 8

		idx.Entries = append(idx.Entries, e)
	}

	idx.DataOffset = offset
	return idx, nil
}
