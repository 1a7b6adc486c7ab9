package sample

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
)

const maxIterations = 255

var ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", maxIterations)

func readBits(rand io.Reader, buf []byte) error {
	if _, err := io.ReadFull(rand, buf); err != nil {
		return fmt.Errorf("sample: entropy source: %w", err)
	}
	return nil
}

// Bytes returns length bytes read from rand.
func Bytes(rand io.Reader, length int) ([]byte, error) {
	buf := make([]byte, length)
	if err := readBits(rand, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Bit returns an unbiased random bit, taken from the low bit of a fresh byte.
func Bit(rand io.Reader) (uint8, error) {
	var buf [1]byte
	if err := readBits(rand, buf[:]); err != nil {
		return 0, err
	}
	return buf[0] & 1, nil
}

// ModN samples an element of ℤₙ
func ModN(rand io.Reader, n *saferith.Modulus) (*saferith.Nat, error) {
	out := new(saferith.Nat)
	buf := make([]byte, (n.BitLen()+7)/8)
	// clearing the excess top bits keeps the rejection rate below 1/2
	excess := uint(len(buf)*8 - n.BitLen())
	for i := 0; i < maxIterations; i++ {
		if err := readBits(rand, buf); err != nil {
			return nil, err
		}
		buf[0] &= 0xff >> excess
		out.SetBytes(buf)
		_, _, lt := out.CmpMod(n)
		if lt == 1 {
			return out, nil
		}
	}
	return nil, ErrMaxIterations
}

// UnitModN returns a u ∈ ℤₙˣ
func UnitModN(rand io.Reader, n *saferith.Modulus) (*saferith.Nat, error) {
	for i := 0; i < maxIterations; i++ {
		u, err := ModN(rand, n)
		if err != nil {
			return nil, err
		}
		if u.IsUnit(n) == 1 {
			return u, nil
		}
	}
	return nil, ErrMaxIterations
}
