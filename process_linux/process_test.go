//go:build linux

package process_linux

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pvztk/process"
)

func TestSelfReadWrite(t *testing.T) {
	p, err := NewWithPID(process.ProcessID(os.Getpid()))
	require.NoError(t, err)
	defer p.Close()

	assert.True(t, p.IsValid())

	buf := []byte("plants vs zombies\x00")
	addr := process.ProcessMemoryAddress(uintptr(unsafe.Pointer(&buf[0])))

	data, err := p.ReadMemory(addr, process.ProcessMemorySize(len(buf)))
	require.NoError(t, err)
	assert.Equal(t, buf, data)

	require.NoError(t, p.WriteMemory(addr, []byte("PLANTS")))
	assert.Equal(t, "PLANTS vs zombies\x00", string(buf))

	acc := process.NewAccessor(p, process.PointerWidth64)
	assert.Equal(t, "PLANTS vs zombies", acc.ReadString(process.Path(process.ProcessMemorySize(addr))))
}

func TestReadUnmapped(t *testing.T) {
	p, err := NewWithPID(process.ProcessID(os.Getpid()))
	require.NoError(t, err)
	defer p.Close()

	_, err = p.ReadMemory(0x100, 4)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)
}

func TestClosedProcess(t *testing.T) {
	p, err := NewWithPID(process.ProcessID(os.Getpid()))
	require.NoError(t, err)
	require.NoError(t, p.Close())

	assert.False(t, p.IsValid())
	_, err = p.ReadMemory(0x10000, 4)
	assert.ErrorIs(t, err, process.ErrProcessNotOpen)
}

func TestFindSelf(t *testing.T) {
	finder := NewProcessFinder()

	info, err := finder.FindProcessByPID(process.ProcessID(os.Getpid()))
	require.NoError(t, err)
	assert.Equal(t, process.ProcessID(os.Getpid()), info.PID)

	exe, err := os.Executable()
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(exe), filepath.Base(info.Exe))
}

func TestExecutableBase(t *testing.T) {
	assert.Equal(t, "PlantsVsZombies.exe", executableBase(`C:\Games\PvZ\PlantsVsZombies.exe`))
	assert.Equal(t, "PlantsVsZombies.exe", executableBase("/home/u/.wine/drive_c/PvZ/PlantsVsZombies.exe"))
	assert.Equal(t, "game", executableBase("game"))
}
