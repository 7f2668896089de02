// Package pak reads and writes the game's resource archives: a flat index of
// relative file names followed by the file contents, the whole image XORed
// with 0xF7.
//
// Layout (before the transform, little endian):
//
//	header   magic 0xBAC04AC0 u32, version 0 u32
//	index    { flag 0x00 u8, nameLen u8, name, size i32, FILETIME u64 } ...
//	end      0x80 u8
//	data     each entry's bytes, in index order
package pak

import (
	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Codec packs and unpacks archives. The zero value is not usable; use
// NewCodec.
type Codec struct {
	// Ignore lists file and directory names left out when packing,
	// compared case-insensitively. nil means DefaultIgnore.
	Ignore []string

	log *logger.Logger
}

func NewCodec(ignore []string) *Codec {
	return &Codec{
		Ignore: ignore,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "pak")),
	}
}

// Pack writes every regular file under sourceDir, except thumbs.db, into a
// new archive at destFile.
func Pack(sourceDir, destFile string) error {
	return NewCodec(nil).Pack(sourceDir, destFile)
}

// Unpack restores the archive srcFile below destDir.
func Unpack(srcFile, destDir string) error {
	return NewCodec(nil).Unpack(srcFile, destDir)
}
