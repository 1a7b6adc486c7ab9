package test

import (
	"errors"
	"io"
)

// ErrEntropy is returned by FailingReader.
var ErrEntropy = errors.New("test: entropy source unavailable")

// FailingReader returns an io.Reader which yields n bytes from r, and then fails.
func FailingReader(r io.Reader, n int) io.Reader {
	return &failingReader{r: r, left: n}
}

type failingReader struct {
	r    io.Reader
	left int
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.left <= 0 {
		return 0, ErrEntropy
	}
	if len(p) > f.left {
		p = p[:f.left]
	}
	n, err := f.r.Read(p)
	f.left -= n
	return n, err
}
