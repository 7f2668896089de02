package pak

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultIgnore lists the names Walk skips when no ignore list is given.
var DefaultIgnore = []string{"thumbs.db"}

// FileInfo describes one regular file found by Walk.
type FileInfo struct {
	RelPath string // relative to the walk root, host separators
	Size    int64
	ModTime time.Time
}

// Walk lists every regular file below root, depth first with directory
// entries in name order. Names in ignore are skipped case-insensitively,
// files and directories alike; a nil ignore means DefaultIgnore.
//
// A symlink that resolves to a regular file is reported as that file.
// Symlinked directories are not descended.
func Walk(root string, ignore []string) ([]FileInfo, error) {
	if ignore == nil {
		ignore = DefaultIgnore
	}

	root, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(root); err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	var files []FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		if ignored(d.Name(), ignore) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		var info fs.FileInfo
		if d.Type()&fs.ModeSymlink != 0 {
			info, err = os.Stat(path)
			if err != nil {
				// dangling
				return nil
			}
		} else {
			info, err = d.Info()
			if err != nil {
				return err
			}
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, FileInfo{
			RelPath: rel,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func ignored(name string, ignore []string) bool {
	for _, n := range ignore {
		if strings.EqualFold(name, n) {
			return true
		}
	}
	return false
}
