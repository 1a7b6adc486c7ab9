package types

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Pad is a byte slice used as one half of a split identity.
// Two pads of the same length can be XOR'ed together. An empty slice is considered invalid.
type Pad []byte

// NewPad reads length random bytes from r.
func NewPad(r io.Reader, length int) (Pad, error) {
	if length <= 0 {
		return nil, fmt.Errorf("pad: invalid length %d", length)
	}
	pad := make(Pad, length)
	if _, err := io.ReadFull(r, pad); err != nil {
		return nil, fmt.Errorf("pad: %w", err)
	}
	return pad, nil
}

// XOR returns a new Pad containing pad ⊕ other.
func (pad Pad) XOR(other Pad) (Pad, error) {
	if len(pad) != len(other) {
		return nil, fmt.Errorf("pad: length mismatch (%d vs %d)", len(pad), len(other))
	}
	out := make(Pad, len(pad))
	for b := range pad {
		out[b] = pad[b] ^ other[b]
	}
	return out, nil
}

// HasPrefix reports whether the pad starts with prefix.
func (pad Pad) HasPrefix(prefix string) bool {
	return bytes.HasPrefix(pad, []byte(prefix))
}

// WriteTo implements io.WriterTo interface.
func (pad Pad) WriteTo(w io.Writer) (int64, error) {
	if pad == nil {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := w.Write(pad)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (Pad) Domain() string { return "Pad" }

// Validate ensures that the Pad is not empty.
func (pad Pad) Validate() error {
	if len(pad) == 0 {
		return errors.New("pad: empty")
	}
	return nil
}

func (pad Pad) Copy() Pad {
	other := make(Pad, len(pad))
	copy(other, pad)
	return other
}
