package pak

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Pack writes every regular file under sourceDir into a new archive at
// destFile, creating destFile's directory if needed.
//
// Everything that can be checked up front is checked before destFile is
// created. Once writing has started a failure leaves the partial archive in
// place.
func (c *Codec) Pack(sourceDir, destFile string) error {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return newError(OpPack, SourceMissing, sourceDir, err)
	}
	if !info.IsDir() {
		return newError(OpPack, SourceMissing, sourceDir, errors.New("not a directory"))
	}

	files, err := Walk(sourceDir, c.Ignore)
	if err != nil {
		return newError(OpPack, SourceReadError, sourceDir, err)
	}
	if len(files) == 0 {
		return newError(OpPack, SourceEmpty, sourceDir, nil)
	}
	c.log.Debugln("Found", len(files), "files in", sourceDir)

	entries := make([]Entry, len(files))
	for i, f := range files {
		if len(f.RelPath) > MaxNameLen {
			return newError(OpPack, SourceReadError, f.RelPath,
				fmt.Errorf("name is %d bytes, at most %d fit", len(f.RelPath), MaxNameLen))
		}
		if f.Size >= MaxFileSize {
			return newError(OpPack, SourceReadError, f.RelPath,
				fmt.Errorf("file is %d bytes, at most %d fit", f.Size, MaxFileSize-1))
		}
		entries[i] = Entry{
			Name:      f.RelPath,
			Size:      int32(f.Size),
			Timestamp: ToFiletime(f.ModTime),
		}
	}

	if dir := filepath.Dir(destFile); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return newError(OpPack, PathCreateError, dir, err)
		}
	}

	out, err := os.Create(destFile)
	if err != nil {
		return newError(OpPack, FileCreateError, destFile, err)
	}

	if err := c.writeArchive(out, sourceDir, entries); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return newError(OpPack, FileWriteError, destFile, err)
	}

	c.log.Infoln("Packed", len(entries), "files into", destFile)
	return nil
}

func (c *Codec) writeArchive(out *os.File, sourceDir string, entries []Entry) error {
	bw := bufio.NewWriter(out)
	w := newTransformWriter(bw)
	name := out.Name()

	front := Header{Magic: Magic, Version: Version}.AppendBinary(nil)
	for _, e := range entries {
		front = e.AppendBinary(front)
	}
	front = append(front, endFlag)
	if _, err := w.Write(front); err != nil {
		return newError(OpPack, FileWriteError, name, err)
	}

	buf := make([]byte, 64*1024)
	for _, e := range entries {
		c.log.Debugln("Packing", e.Name, e.Size, "bytes")
		if err := copyEntry(w, filepath.Join(sourceDir, e.Name), int64(e.Size), buf); err != nil {
			var perr *Error
			if errors.As(err, &perr) && perr.Path == "" {
				perr.Path = name
			}
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return newError(OpPack, FileWriteError, name, err)
	}
	return nil
}

// copyEntry streams exactly size bytes of path into w. A file that changed
// length since the walk is a read error.
func copyEntry(w io.Writer, path string, size int64, buf []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return newError(OpPack, SourceReadError, path, err)
	}
	defer f.Close()

	var copied int64
	for copied < size {
		chunk := buf
		if remaining := size - copied; remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}
		n, err := io.ReadFull(f, chunk)
		if err != nil {
			return newError(OpPack, SourceReadError, path,
				fmt.Errorf("read %d of %d bytes: %w", copied+int64(n), size, err))
		}
		if _, err := w.Write(chunk[:n]); err != nil {
			return newError(OpPack, FileWriteError, "", err)
		}
		copied += int64(n)
	}
	return nil
}
