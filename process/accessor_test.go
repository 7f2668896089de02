package process_test

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pvztk/process"
	"pvztk/process_blob"
)

const (
	staticBase = 0x6a9000
	boardBase  = 0x10000000
	gameBase   = 0x10002000
)

// recorder counts transfers so tests can check that nothing happens after a
// failure.
type recorder struct {
	process.Memory
	reads  []process.ProcessMemoryAddress
	writes []process.ProcessMemoryAddress
}

func (r *recorder) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	r.reads = append(r.reads, addr)
	return r.Memory.ReadMemory(addr, size)
}

func (r *recorder) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	r.writes = append(r.writes, addr)
	return r.Memory.WriteMemory(addr, data)
}

// newGame lays out a 32-bit chain [[[0x6a9ec0] +0x768] +0x5560].
func newGame(t *testing.T) (*process_blob.ProcessImage, *recorder, *process.Accessor) {
	t.Helper()
	image := process_blob.NewProcessImage()
	image.Map(staticBase, 0x1000)
	image.Map(boardBase, 0x10000)

	require.NoError(t, image.PutUint32(0x6a9ec0, boardBase))
	require.NoError(t, image.PutUint32(boardBase+0x768, gameBase))
	require.NoError(t, image.PutUint32(gameBase+0x5560, 9990))

	rec := &recorder{Memory: image}
	return image, rec, process.NewAccessor(rec, process.PointerWidth32)
}

var sunPath = process.Path(0x6a9ec0, 0x768, 0x5560)

func TestReadChain(t *testing.T) {
	_, rec, acc := newGame(t)

	assert.Equal(t, int32(9990), process.Read[int32](acc, sunPath))
	assert.Equal(t, []process.ProcessMemoryAddress{0x6a9ec0, boardBase + 0x768, gameBase + 0x5560}, rec.reads)
}

func TestResolve(t *testing.T) {
	_, rec, acc := newGame(t)

	addr, err := acc.Resolve(sunPath)
	require.NoError(t, err)
	assert.Equal(t, process.ProcessMemoryAddress(gameBase+0x5560), addr)
	assert.Len(t, rec.reads, 2)
}

func TestReadSingleOffsetIsAbsolute(t *testing.T) {
	_, rec, acc := newGame(t)

	assert.Equal(t, uint32(boardBase), process.Read[uint32](acc, process.Path(0x6a9ec0)))
	assert.Len(t, rec.reads, 1)
}

func TestBrokenChainStopsEarly(t *testing.T) {
	image, rec, acc := newGame(t)
	require.NoError(t, image.PutUint32(0x6a9ec0, 0xdead0000))

	assert.Equal(t, int32(0), process.Read[int32](acc, sunPath))
	assert.Equal(t, []process.ProcessMemoryAddress{0x6a9ec0, 0xdead0768}, rec.reads)

	_, err := process.TryRead[int32](acc, sunPath)
	var chainErr *process.ChainError
	require.ErrorAs(t, err, &chainErr)
	assert.Equal(t, 1, chainErr.Step)
	assert.Equal(t, process.ProcessMemoryAddress(0xdead0768), chainErr.Addr)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)

	process.Write[int32](acc, sunPath, 1)
	assert.Empty(t, rec.writes)
}

func TestBadFinalAddress(t *testing.T) {
	image, rec, acc := newGame(t)
	require.NoError(t, image.PutUint32(boardBase+0x768, 0xdead0000))

	_, err := process.TryRead[int32](acc, sunPath)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)
	assert.Len(t, rec.reads, 3)

	assert.Error(t, process.TryWrite[int32](acc, sunPath, 1))
}

func TestWriteThenRead(t *testing.T) {
	_, rec, acc := newGame(t)

	process.Write[int32](acc, sunPath, 8000)
	assert.Equal(t, []process.ProcessMemoryAddress{gameBase + 0x5560}, rec.writes)
	assert.Equal(t, int32(8000), process.Read[int32](acc, sunPath))

	process.Write[uint8](acc, process.Path(0x6a9ec0, 0x768, 0x5564), 0xAB)
	assert.Equal(t, uint8(0xAB), process.Read[uint8](acc, process.Path(0x6a9ec0, 0x768, 0x5564)))
	assert.Equal(t, int32(8000), process.Read[int32](acc, sunPath))
}

func TestWideIntegersAreNarrowed(t *testing.T) {
	image, _, acc := newGame(t)
	field := process.ProcessMemoryAddress(gameBase + 0x100)
	require.NoError(t, image.PutUint64(field, 0x8877665544332211))

	path := process.Path(0x6a9ec0, 0x768, 0x100)
	assert.Equal(t, uint64(0x44332211), process.Read[uint64](acc, path))
	assert.Equal(t, int64(0x44332211), process.Read[int64](acc, path))

	process.Write[int64](acc, path, -1)
	data, err := image.ReadMemory(field, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x88776655FFFFFFFF), binary.LittleEndian.Uint64(data))
	assert.Equal(t, int64(0xFFFFFFFF), process.Read[int64](acc, path))
}

func TestFloatsAreNotNarrowed(t *testing.T) {
	image, _, acc := newGame(t)
	path := process.Path(0x6a9ec0, 0x768, 0x200)

	process.Write[float64](acc, path, 3.5)
	data, err := image.ReadMemory(gameBase+0x200, 8)
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(3.5), binary.LittleEndian.Uint64(data))
	assert.Equal(t, 3.5, process.Read[float64](acc, path))

	process.Write[float32](acc, path, 0.25)
	assert.Equal(t, float32(0.25), process.Read[float32](acc, path))
}

func TestWidth64(t *testing.T) {
	image := process_blob.NewProcessImage()
	image.Map(0x140000000, 0x1000)
	image.Map(0x7ff000000000, 0x1000)
	require.NoError(t, image.PutUint64(0x140000010, 0x7ff000000100))
	require.NoError(t, image.PutUint64(0x7ff000000108, 0x1122334455667788))

	acc := process.NewAccessor(image, process.PointerWidth64)
	assert.Equal(t, process.PointerWidth64, acc.PointerWidth())
	assert.Equal(t, uint64(0x1122334455667788), process.Read[uint64](acc, process.Path(0x140000010, 0x8)))
}

func TestArrays(t *testing.T) {
	_, rec, acc := newGame(t)
	path := process.Path(0x6a9ec0, 0x768, 0x300)

	process.WriteArray(acc, path, []int32{1, -2, 3})
	rec.reads = nil
	assert.Equal(t, []int32{1, -2, 3}, process.ReadArray[int32](acc, path, 3))
	assert.Len(t, rec.reads, 3, "two dereferences and a single transfer")

	process.WriteArray(acc, path, []uint64{0xFFFFFFFFFFFFFFFF})
	assert.Equal(t, []uint32{0xFFFFFFFF, 0xFFFFFFFF}, process.ReadArray[uint32](acc, path, 2))

	tooFar := process.Path(0x6a9ec0, 0x768, 0xfff8)
	out, err := process.TryReadArray[int32](acc, tooFar, 4)
	assert.Error(t, err)
	assert.Equal(t, []int32{0, 0, 0, 0}, out)

	assert.Empty(t, process.ReadArray[int32](acc, path, 0))
}

func TestStrings(t *testing.T) {
	image, _, acc := newGame(t)
	path := process.Path(0x6a9ec0, 0x768, 0x400)

	acc.WriteString(path, "Crazy Dave")
	assert.Equal(t, "Crazy Dave", acc.ReadString(path))

	data, err := image.ReadMemory(gameBase+0x400, 11)
	require.NoError(t, err)
	assert.Equal(t, byte(0), data[10])

	acc.WriteString(path, "")
	assert.Equal(t, "", acc.ReadString(path))

	// no terminator before the end of the mapping
	require.NoError(t, image.WriteMemory(boardBase+0xfffd, []byte("abc")))
	s, err := acc.TryReadString(process.Path(0x6a9ec0, 0xfffd))
	assert.Equal(t, "abc", s)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)
}

func TestInvalidHandleDoesNoIO(t *testing.T) {
	image, rec, acc := newGame(t)
	image.Exit()

	assert.Equal(t, int32(0), process.Read[int32](acc, sunPath))
	assert.Equal(t, []int32{0, 0}, process.ReadArray[int32](acc, sunPath, 2))
	assert.Equal(t, "", acc.ReadString(sunPath))
	process.Write[int32](acc, sunPath, 1)
	process.WriteArray(acc, sunPath, []int32{1})
	acc.WriteString(sunPath, "x")

	assert.Empty(t, rec.reads)
	assert.Empty(t, rec.writes)

	_, err := process.TryRead[int32](acc, sunPath)
	assert.ErrorIs(t, err, process.ErrProcessNotOpen)
	assert.ErrorIs(t, process.TryWrite[int32](acc, sunPath, 1), process.ErrProcessNotOpen)
}

func TestEmptyPath(t *testing.T) {
	_, rec, acc := newGame(t)

	_, err := process.TryRead[int32](acc, nil)
	assert.ErrorIs(t, err, process.ErrEmptyPath)
	assert.Empty(t, rec.reads)
}

type shortMemory struct {
	process.Memory
}

func (s shortMemory) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	data, err := s.Memory.ReadMemory(addr, size)
	if err != nil || len(data) == 0 {
		return data, err
	}
	return data[:len(data)-1], nil
}

func TestShortReadIsFailure(t *testing.T) {
	_, rec, _ := newGame(t)
	acc := process.NewAccessor(shortMemory{rec}, process.PointerWidth32)

	v, err := process.TryRead[int32](acc, process.Path(0x6a9ec0))
	assert.Equal(t, int32(0), v)
	var shortErr *process.ShortIOError
	require.True(t, errors.As(err, &shortErr))
	assert.Equal(t, 4, shortErr.Want)
	assert.Equal(t, 3, shortErr.Got)
}

func TestNewAccessorRejectsWidth(t *testing.T) {
	assert.Panics(t, func() {
		process.NewAccessor(process_blob.NewProcessImage(), process.PointerWidth(2))
	})
}
