//go:build linux

package process_linux

import (
	"fmt"

	"pvztk/process"

	"golang.org/x/sys/unix"
)

// process_vm_writev writes localBuf to remoteAddr in pid.
func process_vm_writev(pid process.ProcessID, localBuf []byte, remoteAddr process.ProcessMemoryAddress) (int, error) {
	localIov := []unix.Iovec{{Base: &localBuf[0]}}
	localIov[0].SetLen(len(localBuf))

	remoteIov := []unix.RemoteIovec{{
		Base: uintptr(remoteAddr),
		Len:  len(localBuf),
	}}

	n, err := unix.ProcessVMWritev(int(pid), localIov, remoteIov, 0)
	if err != nil {
		return n, fmt.Errorf("process_vm_writev failed: %w", err)
	}
	return n, nil
}

// WriteMemory writes data to the process memory at the specified address
func (p *LinuxProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	p.mu.Lock()
	pid := p.pid
	if pid == 0 {
		p.mu.Unlock()
		return process.ErrProcessNotOpen
	}

	region, err := p.region(addr, process.ProcessMemorySize(len(data)))
	// Release the lock before the system call
	p.mu.Unlock()

	if err != nil {
		return err
	}
	if !region.IsWritable() {
		return fmt.Errorf("memory region at %s is not writable", addr.ToString())
	}

	// Create a copy of the data to avoid potential modification during the write
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	written, err := process_vm_writev(pid, dataCopy, addr)
	if err != nil {
		return err
	}
	if written != len(data) {
		return &process.ShortIOError{Addr: addr, Want: len(data), Got: written}
	}

	return nil
}
