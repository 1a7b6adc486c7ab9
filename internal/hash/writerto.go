package hash

import (
	"encoding/binary"
	"io"
)

// WriterToWithDomain represents a type writing itself, and knowing its domain.
//
// Providing a domain string lets us distinguish the output of different types
// implementing this same interface.
type WriterToWithDomain interface {
	io.WriterTo

	// Domain returns a context string, which should be unique for each implementor
	Domain() string
}

// writeWithDomain writes out `(<len><domain><len><data>)`.
//
// Both the domain and the data are length prefixed, so that no concatenation of
// two writes can be confused with a different pair of writes.
func writeWithDomain(w io.Writer, object WriterToWithDomain) error {
	var body countingBuffer
	if _, err := object.WriteTo(&body); err != nil {
		return err
	}
	domain := object.Domain()

	var size [8]byte
	if _, err := w.Write([]byte("(")); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(size[:], uint64(len(domain)))
	if _, err := w.Write(size[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte(domain)); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(size[:], uint64(len(body)))
	if _, err := w.Write(size[:]); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if _, err := w.Write([]byte(")")); err != nil {
		return err
	}
	return nil
}

type countingBuffer []byte

func (b *countingBuffer) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}

// BytesWithDomain is a useful wrapper to annotate some chunk of data with a domain.
//
// The intention is to wrap some data using this struct, and then call WriteAny,
// or use this struct as a WriterToWithDomain somewhere else.
type BytesWithDomain struct {
	TheDomain string
	Bytes     []byte
}

// WriteTo implements io.WriterTo.
func (b BytesWithDomain) WriteTo(w io.Writer) (int64, error) {
	if b.Bytes == nil {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := w.Write(b.Bytes)
	return int64(n), err
}

// Domain implements WriterToWithDomain.
func (b BytesWithDomain) Domain() string {
	return b.TheDomain
}
