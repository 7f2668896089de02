package pak

import "io"

// XORKey is applied to every byte of an archive.
const XORKey byte = 0xF7

// Transform applies the archive obfuscation to data in place. It is its own
// inverse.
func Transform(data []byte) {
	for i := range data {
		data[i] ^= XORKey
	}
}

// transformWriter obfuscates everything written through it. The caller's
// buffer is never modified.
type transformWriter struct {
	w   io.Writer
	buf []byte
}

func newTransformWriter(w io.Writer) *transformWriter {
	return &transformWriter{w: w}
}

func (t *transformWriter) Write(p []byte) (int, error) {
	if cap(t.buf) < len(p) {
		t.buf = make([]byte, len(p))
	}
	buf := t.buf[:len(p)]
	copy(buf, p)
	Transform(buf)
	return t.w.Write(buf)
}
