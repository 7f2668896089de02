package process

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
	"strings"
	"unsafe"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Integer is the set of fixed size integer kinds the Accessor can transfer.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Float is the set of floating point kinds the Accessor can transfer.
type Float interface {
	~float32 | ~float64
}

// Scalar is any fixed size value kind.
type Scalar interface {
	Integer | Float
}

// ChainError reports the dereference that broke a MemoryPath.
type ChainError struct {
	Path MemoryPath
	Step int                  // index of the offset whose dereference failed
	Addr ProcessMemoryAddress // address the pointer was read from
	Err  error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("%s: dereference %d at %s: %v", e.Path, e.Step, e.Addr.ToString(), e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}

// Accessor resolves MemoryPaths and performs typed reads and writes against
// a foreign address space.
//
// The plain functions (Read, Write, ReadArray, ...) are best effort: a dead
// process or a broken chain reads as the zero value and writes are dropped.
// The Try variants perform the same operation and also return the reason.
// A successful write is never implied; callers that need to know read back.
type Accessor struct {
	mem   Memory
	width PointerWidth
	log   *logger.Logger
}

// NewAccessor creates an Accessor over mem. width is the pointer size of the
// foreign process, which may differ from the caller's.
func NewAccessor(mem Memory, width PointerWidth) *Accessor {
	if !width.Valid() {
		panic(fmt.Sprintf("process: unsupported pointer width %d", int(width)))
	}
	return &Accessor{
		mem:   mem,
		width: width,
		log:   logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "accessor")),
	}
}

// PointerWidth returns the configured foreign pointer width.
func (a *Accessor) PointerWidth() PointerWidth {
	return a.width
}

// resolve walks every offset but the last, strictly left to right, and
// returns the address of the final field.
func (a *Accessor) resolve(path MemoryPath) (ProcessMemoryAddress, error) {
	if !a.mem.IsValid() {
		return 0, ErrProcessNotOpen
	}
	if len(path) == 0 {
		return 0, ErrEmptyPath
	}

	var base ProcessMemoryAddress
	for i, off := range path[:len(path)-1] {
		addr := base + ProcessMemoryAddress(off)
		data, err := a.read(addr, int(a.width))
		if err != nil {
			return 0, &ChainError{Path: path, Step: i, Addr: addr, Err: err}
		}
		base = ProcessMemoryAddress(decodeUnsigned(data))
	}

	return base + ProcessMemoryAddress(path[len(path)-1]), nil
}

// Resolve dereferences path and returns the address of the final field.
func (a *Accessor) Resolve(path MemoryPath) (ProcessMemoryAddress, error) {
	return a.resolve(path)
}

func (a *Accessor) read(addr ProcessMemoryAddress, n int) ([]byte, error) {
	data, err := a.mem.ReadMemory(addr, ProcessMemorySize(n))
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, &ShortIOError{Addr: addr, Want: n, Got: len(data)}
	}
	return data, nil
}

// narrowed reports whether a value of type T is transferred as a single
// pointer-width quantity instead of its full size.
func narrowed[T Scalar](width PointerWidth) bool {
	var v T
	switch reflect.TypeOf(v).Kind() {
	case reflect.Float32, reflect.Float64:
		return false
	}
	return int(unsafe.Sizeof(v)) > int(width)
}

// TryRead reads a T at the end of path.
//
// Integer types wider than the foreign pointer width are read as a single
// pointer-width quantity and zero extended.
func TryRead[T Scalar](a *Accessor, path MemoryPath) (T, error) {
	var v T
	addr, err := a.resolve(path)
	if err != nil {
		return v, err
	}

	if narrowed[T](a.width) {
		data, err := a.read(addr, int(a.width))
		if err != nil {
			return v, err
		}
		v = T(decodeUnsigned(data))
	} else {
		data, err := a.read(addr, int(unsafe.Sizeof(v)))
		if err != nil {
			return v, err
		}
		if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &v); err != nil {
			return v, err
		}
	}

	a.log.Debugln(path.String(), "-->", v)
	return v, nil
}

// Read is TryRead without the error; failures yield the zero value.
func Read[T Scalar](a *Accessor, path MemoryPath) T {
	v, _ := TryRead[T](a, path)
	return v
}

// TryWrite writes value at the end of path, using the same byte span TryRead
// would consume.
func TryWrite[T Scalar](a *Accessor, path MemoryPath, value T) error {
	addr, err := a.resolve(path)
	if err != nil {
		return err
	}

	var data []byte
	if narrowed[T](a.width) {
		data = encodeUnsigned(uint64(value), int(a.width))
	} else {
		var buf bytes.Buffer
		if err := binary.Write(&buf, binary.LittleEndian, value); err != nil {
			return err
		}
		data = buf.Bytes()
	}

	if err := a.mem.WriteMemory(addr, data); err != nil {
		return err
	}

	a.log.Debugln(path.String(), "<--", value)
	return nil
}

// Write is TryWrite with failures dropped.
func Write[T Scalar](a *Accessor, path MemoryPath, value T) {
	_ = TryWrite(a, path, value)
}

// TryReadArray reads n contiguous T values at the end of path in one
// transfer. On any failure the returned slice is all zero.
func TryReadArray[T Scalar](a *Accessor, path MemoryPath, n int) ([]T, error) {
	out := make([]T, n)
	addr, err := a.resolve(path)
	if err != nil {
		return out, err
	}
	if n <= 0 {
		return out, nil
	}

	var zero T
	data, err := a.read(addr, n*int(unsafe.Sizeof(zero)))
	if err != nil {
		return out, err
	}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, out); err != nil {
		return make([]T, n), err
	}

	a.log.Debugln(path.String(), "-->", out)
	return out, nil
}

// ReadArray is TryReadArray without the error.
func ReadArray[T Scalar](a *Accessor, path MemoryPath, n int) []T {
	out, _ := TryReadArray[T](a, path, n)
	return out
}

// TryWriteArray writes values contiguously at the end of path in one transfer.
// Elements are never narrowed.
func TryWriteArray[T Scalar](a *Accessor, path MemoryPath, values []T) error {
	addr, err := a.resolve(path)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, values); err != nil {
		return err
	}
	if err := a.mem.WriteMemory(addr, buf.Bytes()); err != nil {
		return err
	}

	a.log.Debugln(path.String(), "<--", values)
	return nil
}

// WriteArray is TryWriteArray with failures dropped.
func WriteArray[T Scalar](a *Accessor, path MemoryPath, values []T) {
	_ = TryWriteArray(a, path, values)
}

// TryReadString reads a NUL terminated string at the end of path, one byte
// at a time. There is no length limit. A failed byte read ends the string;
// the bytes collected so far are returned along with the error.
func (a *Accessor) TryReadString(path MemoryPath) (string, error) {
	addr, err := a.resolve(path)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for {
		b, err := a.read(addr, 1)
		if err != nil {
			return sb.String(), err
		}
		if b[0] == 0 {
			break
		}
		sb.WriteByte(b[0])
		addr++
	}

	a.log.Debugln(path.String(), "-->", sb.String())
	return sb.String(), nil
}

// ReadString is TryReadString without the error.
func (a *Accessor) ReadString(path MemoryPath) string {
	s, _ := a.TryReadString(path)
	return s
}

// TryWriteString writes s followed by a NUL byte at the end of path.
func (a *Accessor) TryWriteString(path MemoryPath, s string) error {
	addr, err := a.resolve(path)
	if err != nil {
		return err
	}

	data := make([]byte, len(s)+1)
	copy(data, s)
	if err := a.mem.WriteMemory(addr, data); err != nil {
		return err
	}

	a.log.Debugln(path.String(), "<--", s)
	return nil
}

// WriteString is TryWriteString with failures dropped.
func (a *Accessor) WriteString(path MemoryPath, s string) {
	_ = a.TryWriteString(path, s)
}

func decodeUnsigned(data []byte) uint64 {
	switch len(data) {
	case 4:
		return uint64(binary.LittleEndian.Uint32(data))
	case 8:
		return binary.LittleEndian.Uint64(data)
	}
	var v uint64
	for i := len(data) - 1; i >= 0; i-- {
		v = v<<8 | uint64(data[i])
	}
	return v
}

func encodeUnsigned(v uint64, n int) []byte {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, v)
	return data[:n]
}
