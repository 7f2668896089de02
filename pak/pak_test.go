package pak

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
}

// buildArchive encodes entries followed by data, already transformed.
func buildArchive(entries []Entry, data ...string) []byte {
	b := Header{Magic: Magic, Version: Version}.AppendBinary(nil)
	for _, e := range entries {
		b = e.AppendBinary(b)
	}
	b = append(b, endFlag)
	for _, d := range data {
		b = append(b, d...)
	}
	Transform(b)
	return b
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}
	files, err := Walk(root, []string{})
	require.NoError(t, err)
	for _, f := range files {
		out = append(out, filepath.ToSlash(f.RelPath))
	}
	return out
}

func TestPackUnpackRoundTrip(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "hello")
	writeFile(t, filepath.Join(src, "images", "zombie.png"), strings.Repeat("\x00\xff\xf7", 1000))
	writeFile(t, filepath.Join(src, "images", "deep", "nested", "sun.dat"), "sun")
	writeFile(t, filepath.Join(src, "images", "Thumbs.db"), "cache")
	writeFile(t, filepath.Join(src, "empty.bin"), "")

	archive := filepath.Join(t.TempDir(), "out", "main.pak")
	require.NoError(t, Pack(src, archive))

	dst := t.TempDir()
	require.NoError(t, Unpack(archive, dst))

	assert.Equal(t, []string{
		"a.txt",
		"empty.bin",
		"images/deep/nested/sun.dat",
		"images/zombie.png",
	}, listFiles(t, dst))

	for _, name := range []string{"a.txt", "empty.bin", "images/zombie.png", "images/deep/nested/sun.dat"} {
		want, err := os.ReadFile(filepath.Join(src, filepath.FromSlash(name)))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(name)))
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestPackSingleFileLayout(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "hi")
	mtime := time.Date(2009, 5, 5, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(src, "a.txt"), mtime, mtime))

	archive := filepath.Join(t.TempDir(), "a.pak")
	require.NoError(t, Pack(src, archive))

	raw, err := os.ReadFile(archive)
	require.NoError(t, err)
	require.Len(t, raw, 30)
	assert.Equal(t, []byte{0x37, 0xBD, 0x37, 0x4D}, raw[:4])
	assert.Equal(t, []byte{0xF7, 0xF7, 0xF7, 0xF7}, raw[4:8])

	Transform(raw)
	idx, err := ParseIndex(raw)
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)
	assert.Equal(t, "a.txt", idx.Entries[0].Name)
	assert.Equal(t, int32(2), idx.Entries[0].Size)
	assert.True(t, idx.Entries[0].ModTime().Equal(mtime))
	assert.Equal(t, 28, idx.DataOffset)
	assert.Equal(t, byte(0x80), raw[27])
	assert.Equal(t, "hi", string(raw[28:]))
}

func TestPackIgnoresThumbsOnly(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "thumbs.db"), "x")
	writeFile(t, filepath.Join(src, "sub", "THUMBS.DB"), "x")

	archive := filepath.Join(t.TempDir(), "a.pak")
	err := Pack(src, archive)
	require.Error(t, err)
	assert.Equal(t, SourceEmpty, ResultOf(err))
	assert.NoFileExists(t, archive)
}

func TestPackCustomIgnore(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "keep.txt"), "k")
	writeFile(t, filepath.Join(src, ".git", "HEAD"), "ref")
	writeFile(t, filepath.Join(src, "thumbs.db"), "t")

	archive := filepath.Join(t.TempDir(), "a.pak")
	require.NoError(t, NewCodec([]string{".GIT"}).Pack(src, archive))

	dst := t.TempDir()
	require.NoError(t, Unpack(archive, dst))
	assert.Equal(t, []string{"keep.txt", "thumbs.db"}, listFiles(t, dst))
}

func TestPackSourceMissing(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "a.pak")

	err := Pack(filepath.Join(t.TempDir(), "nope"), archive)
	assert.Equal(t, SourceMissing, ResultOf(err))

	file := filepath.Join(t.TempDir(), "file")
	writeFile(t, file, "x")
	err = Pack(file, archive)
	assert.Equal(t, SourceMissing, ResultOf(err))
	assert.NoFileExists(t, archive)
}

func TestPackNameTooLong(t *testing.T) {
	src := t.TempDir()
	long := filepath.Join(strings.Repeat("d", 130), strings.Repeat("e", 130), "file.txt")
	writeFile(t, filepath.Join(src, long), "x")

	archive := filepath.Join(t.TempDir(), "a.pak")
	err := Pack(src, archive)
	assert.Equal(t, SourceReadError, ResultOf(err))
	assert.NoFileExists(t, archive)
}

func TestUnpackTruncatedWritesNothing(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.pak")
	raw := buildArchive([]Entry{{Name: "a.txt", Size: 2}, {Name: "b.txt", Size: 3}}, "hi", "abc")
	require.NoError(t, os.WriteFile(archive, raw[:len(raw)-1], 0644))

	dst := filepath.Join(dir, "out")
	err := Unpack(archive, dst)
	require.Error(t, err)
	assert.Equal(t, DataError, ResultOf(err))
	assert.Empty(t, listFiles(t, dst))
}

func TestUnpackTrailingBytes(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.pak")
	raw := buildArchive([]Entry{{Name: "a.txt", Size: 2}}, "hi", "!")
	require.NoError(t, os.WriteFile(archive, raw, 0644))

	err := Unpack(archive, filepath.Join(dir, "out"))
	assert.Equal(t, DataError, ResultOf(err))
}

func TestUnpackHeader(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.pak")

	raw := buildArchive([]Entry{{Name: "a.txt", Size: 2}}, "hi")
	raw[0] ^= 0xFF
	require.NoError(t, os.WriteFile(archive, raw, 0644))
	err := Unpack(archive, filepath.Join(dir, "out"))
	assert.Equal(t, HeaderError, ResultOf(err))
	assert.ErrorIs(t, err, ErrBadMagic)

	raw = buildArchive([]Entry{{Name: "a.txt", Size: 2}}, "hi")
	raw[4] ^= 0x01
	require.NoError(t, os.WriteFile(archive, raw, 0644))
	err = Unpack(archive, filepath.Join(dir, "out"))
	assert.Equal(t, HeaderError, ResultOf(err))
	assert.ErrorIs(t, err, ErrBadVersion)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestUnpackSource(t *testing.T) {
	dir := t.TempDir()

	err := Unpack(filepath.Join(dir, "missing.pak"), dir)
	assert.Equal(t, SourceMissing, ResultOf(err))

	small := filepath.Join(dir, "small.pak")
	require.NoError(t, os.WriteFile(small, make([]byte, 9), 0644))
	err = Unpack(small, dir)
	assert.Equal(t, SourceSizeError, ResultOf(err))
}

func TestUnpackEmptyIndex(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.pak")
	raw := buildArchive(nil)
	raw = append(raw, 0x80^XORKey)
	// header, end flag, then one stray byte
	require.NoError(t, os.WriteFile(archive, raw, 0644))

	err := Unpack(archive, filepath.Join(dir, "out"))
	assert.Equal(t, DataError, ResultOf(err))

	require.NoError(t, os.WriteFile(archive, append(buildArchive(nil), 0x00^XORKey), 0644))
	err = Unpack(archive, filepath.Join(dir, "out"))
	assert.Equal(t, DataError, ResultOf(err))
}

func TestUnpackSeparators(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.pak")
	raw := buildArchive([]Entry{
		{Name: `reanim\Sun.reanim`, Size: 3},
		{Name: "particles/Pea.xml", Size: 2},
	}, "sun", "pe")
	require.NoError(t, os.WriteFile(archive, raw, 0644))

	dst := filepath.Join(dir, "out")
	require.NoError(t, Unpack(archive, dst))

	got, err := os.ReadFile(filepath.Join(dst, "reanim", "Sun.reanim"))
	require.NoError(t, err)
	assert.Equal(t, "sun", string(got))
	got, err = os.ReadFile(filepath.Join(dst, "particles", "Pea.xml"))
	require.NoError(t, err)
	assert.Equal(t, "pe", string(got))
}

func TestUnpackRejectsEscapingNames(t *testing.T) {
	for _, name := range []string{`..\evil.txt`, "../evil.txt", "/etc/evil", "a/../../evil", ""} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, "a.pak")
			raw := buildArchive([]Entry{{Name: "ok.txt", Size: 1}, {Name: name, Size: 1}}, "o", "e")
			require.NoError(t, os.WriteFile(archive, raw, 0644))

			dst := filepath.Join(dir, "out")
			err := Unpack(archive, dst)
			assert.Equal(t, DataError, ResultOf(err))
			assert.NoDirExists(t, dst)
			assert.NoFileExists(t, filepath.Join(dir, "evil.txt"))
		})
	}
}

func TestUnpackOverwrites(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.pak")
	require.NoError(t, os.WriteFile(archive, buildArchive([]Entry{{Name: "a.txt", Size: 2}}, "hi"), 0644))

	dst := filepath.Join(dir, "out")
	writeFile(t, filepath.Join(dst, "a.txt"), "a much longer old file")
	require.NoError(t, Unpack(archive, dst))

	got, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got))
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 0, Success.ExitCode(OpUnpack))
	assert.Equal(t, 0, Success.ExitCode(OpPack))

	assert.Equal(t, 1, SourceMissing.ExitCode(OpUnpack))
	assert.Equal(t, 2, SourceSizeError.ExitCode(OpUnpack))
	assert.Equal(t, 3, SourceLoadError.ExitCode(OpUnpack))
	assert.Equal(t, 4, HeaderError.ExitCode(OpUnpack))
	assert.Equal(t, 5, DataError.ExitCode(OpUnpack))
	assert.Equal(t, 6, PathCreateError.ExitCode(OpUnpack))
	assert.Equal(t, 7, FileCreateError.ExitCode(OpUnpack))
	assert.Equal(t, 8, FileWriteError.ExitCode(OpUnpack))

	assert.Equal(t, 1, SourceMissing.ExitCode(OpPack))
	assert.Equal(t, 2, SourceEmpty.ExitCode(OpPack))
	assert.Equal(t, 3, PathCreateError.ExitCode(OpPack))
	assert.Equal(t, 4, FileCreateError.ExitCode(OpPack))
	assert.Equal(t, 5, FileWriteError.ExitCode(OpPack))
	assert.Equal(t, 6, SourceReadError.ExitCode(OpPack))

	assert.Equal(t, InvalidExitCode, HeaderError.ExitCode(OpPack))
	assert.Equal(t, InvalidExitCode, Unknown.ExitCode(OpUnpack))
}

func TestResultOf(t *testing.T) {
	assert.Equal(t, Success, ResultOf(nil))
	assert.Equal(t, Unknown, ResultOf(os.ErrNotExist))

	err := newError(OpUnpack, DataError, "x.pak", os.ErrClosed)
	assert.Equal(t, DataError, ResultOf(err))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.Equal(t, "pak: unpack x.pak: data error: "+os.ErrClosed.Error(), err.Error())
}

func TestFiletime(t *testing.T) {
	assert.Equal(t, uint64(116444736000000000), ToFiletime(time.Unix(0, 0)))

	ts := time.Date(2024, 2, 29, 23, 59, 58, 123456700, time.UTC)
	assert.True(t, FromFiletime(ToFiletime(ts)).Equal(ts))
}

func TestTransformIsSelfInverse(t *testing.T) {
	data := []byte{0x00, 0xF7, 0x80, 0xFF}
	Transform(data)
	assert.Equal(t, []byte{0xF7, 0x00, 0x77, 0x08}, data)
	Transform(data)
	assert.Equal(t, []byte{0x00, 0xF7, 0x80, 0xFF}, data)
}
