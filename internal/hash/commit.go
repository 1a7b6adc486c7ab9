package hash

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
)

// Commitment is the published digest of a value that stays secret until it is revealed.
type Commitment []byte

// Commit hashes data under domain, and returns the commitment h(domain, data...).
//
// The committed values are expected to carry enough entropy on their own,
// so no decommitment nonce is mixed in.
func Commit(domain string, data ...interface{}) (Commitment, error) {
	h := New(domain)
	if err := h.WriteAny(data...); err != nil {
		return nil, fmt.Errorf("hash.Commit: failed to write data: %w", err)
	}
	return h.Sum(), nil
}

// Decommit verifies that the commitment corresponds to the data such that
// commitment = h(domain, data...).
func Decommit(c Commitment, domain string, data ...interface{}) bool {
	if err := c.Validate(); err != nil {
		return false
	}
	computed, err := Commit(domain, data...)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(computed, c) == 1
}

// CommitmentFromHex decodes a lowercase hexadecimal commitment.
func CommitmentFromHex(s string) (Commitment, error) {
	if len(s) != 2*DigestLengthBytes {
		return nil, fmt.Errorf("commitment: incorrect hex length (got %d, expected %d)", len(s), 2*DigestLengthBytes)
	}
	c, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("commitment: %w", err)
	}
	// only the lowercase encoding round-trips
	if hex.EncodeToString(c) != s {
		return nil, fmt.Errorf("commitment: %q is not lowercase hex", s)
	}
	return c, nil
}

// String returns the lowercase hexadecimal encoding of c.
func (c Commitment) String() string {
	return hex.EncodeToString(c)
}

// Equal reports whether c and other are the same commitment.
func (c Commitment) Equal(other Commitment) bool {
	return subtle.ConstantTimeCompare(c, other) == 1
}

// WriteTo implements the io.WriterTo interface for Commitment.
func (c Commitment) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c)
	return int64(n), err
}

// Domain implements WriterToWithDomain, and separates this type within hash.Hash.
func (Commitment) Domain() string {
	return "Commitment"
}

func (c Commitment) Validate() error {
	if l := len(c); l != DigestLengthBytes {
		return fmt.Errorf("commitment: incorrect length (got %d, expected %d)", l, DigestLengthBytes)
	}
	return nil
}
