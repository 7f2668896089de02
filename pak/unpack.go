package pak

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Unpack restores the archive srcFile below destDir.
//
// The whole archive is loaded and its index checked before anything is
// written: the entry sizes must add up to exactly the data that follows the
// index, and every name must stay inside destDir. Existing files are
// overwritten. A failure while writing leaves the files restored so far.
func (c *Codec) Unpack(srcFile, destDir string) error {
	image, err := c.load(srcFile)
	if err != nil {
		return err
	}
	Transform(image)

	idx, err := ParseIndex(image)
	if err != nil {
		if errors.Is(err, ErrTruncatedIndex) {
			return newError(OpUnpack, DataError, srcFile, err)
		}
		return newError(OpUnpack, HeaderError, srcFile, err)
	}

	paths, err := checkIndex(idx, len(image), destDir)
	if err != nil {
		return newError(OpUnpack, DataError, srcFile, err)
	}
	c.log.Debugln("Archive", srcFile, "holds", len(idx.Entries), "files")

	offset := idx.DataOffset
	for i, e := range idx.Entries {
		out := paths[i]
		data := image[offset : offset+int(e.Size)]
		offset += int(e.Size)

		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return newError(OpUnpack, PathCreateError, filepath.Dir(out), err)
		}
		if err := writeEntry(out, data); err != nil {
			return err
		}
		c.log.Debugln("Unpacked", e.Name, e.Size, "bytes")
	}

	c.log.Infoln("Unpacked", len(idx.Entries), "files into", destDir)
	return nil
}

func (c *Codec) load(srcFile string) ([]byte, error) {
	f, err := os.Open(srcFile)
	if err != nil {
		return nil, newError(OpUnpack, SourceMissing, srcFile, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, newError(OpUnpack, SourceSizeError, srcFile, err)
	}
	if info.IsDir() {
		return nil, newError(OpUnpack, SourceMissing, srcFile, errors.New("is a directory"))
	}
	if info.Size() < MinArchiveSize || info.Size() > int64(^uint32(0)) {
		return nil, newError(OpUnpack, SourceSizeError, srcFile,
			fmt.Errorf("%d bytes", info.Size()))
	}

	image := make([]byte, info.Size())
	if _, err := io.ReadFull(f, image); err != nil {
		return nil, newError(OpUnpack, SourceLoadError, srcFile, err)
	}
	return image, nil
}

// checkIndex validates idx against an image of imageLen bytes and returns
// the output path of every entry.
func checkIndex(idx *Index, imageLen int, destDir string) ([]string, error) {
	var total int64
	for _, e := range idx.Entries {
		if e.Size < 0 {
			return nil, fmt.Errorf("%q: negative size %d", e.Name, e.Size)
		}
		total += int64(e.Size)
	}
	if int64(idx.DataOffset)+total != int64(imageLen) {
		return nil, fmt.Errorf("index describes %d data bytes, archive holds %d",
			total, imageLen-idx.DataOffset)
	}

	paths := make([]string, len(idx.Entries))
	for i, e := range idx.Entries {
		rel, err := localName(e.Name)
		if err != nil {
			return nil, err
		}
		paths[i] = filepath.Join(destDir, rel)
	}
	return paths, nil
}

// localName converts an archive name to a host relative path. Both '\' and
// '/' separate components, whatever host wrote the archive.
func localName(name string) (string, error) {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '\\' || r == '/'
	})
	rel := filepath.Join(parts...)
	if rel == "" || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%q: name escapes the destination", name)
	}
	return rel, nil
}

func writeEntry(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return newError(OpUnpack, FileCreateError, path, err)
	}
	n, err := f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return newError(OpUnpack, FileWriteError, path, err)
	}
	if n != len(data) {
		return newError(OpUnpack, FileWriteError, path, io.ErrShortWrite)
	}
	return nil
}
