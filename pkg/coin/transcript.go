package coin

import (
	"bytes"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/ecash/pkg/blind"
)

// Share is a value revealed by a coin, in answer to a merchant's challenge.
type Share struct {
	Position int
	Side     Side
	Value    []byte
}

// Transcript is the record of one acceptance. A merchant submits it to the bank
// to redeem the coin.
type Transcript struct {
	// Merchant is the name of the merchant who accepted the coin.
	Merchant string
	// CanonicalForm of the coin, as signed by the bank.
	CanonicalForm string
	// Signature is the big-endian encoding of the bank's signature.
	Signature []byte
	// Shares holds one revealed share per position, in position order.
	Shares []Share
}

// SameCoin returns true if both transcripts are about the same coin.
func (t *Transcript) SameCoin(other *Transcript) bool {
	return t.CanonicalForm == other.CanonicalForm
}

// Equal returns true if both transcripts reveal exactly the same shares of the same coin.
// The merchant names are ignored.
func (t *Transcript) Equal(other *Transcript) bool {
	if !t.SameCoin(other) || len(t.Shares) != len(other.Shares) {
		return false
	}
	for i := range t.Shares {
		a, b := t.Shares[i], other.Shares[i]
		if a.Position != b.Position || a.Side != b.Side || !bytes.Equal(a.Value, b.Value) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of t.
func (t *Transcript) Clone() *Transcript {
	shares := make([]Share, len(t.Shares))
	for i, share := range t.Shares {
		shares[i] = Share{
			Position: share.Position,
			Side:     share.Side,
			Value:    bytes.Clone(share.Value),
		}
	}
	return &Transcript{
		Merchant:      t.Merchant,
		CanonicalForm: t.CanonicalForm,
		Signature:     bytes.Clone(t.Signature),
		Shares:        shares,
	}
}

// SignatureNat decodes the signature.
func (t *Transcript) SignatureNat() *saferith.Nat {
	return new(saferith.Nat).SetBytes(t.Signature)
}

// Validate checks the transcript as the bank would before crediting it:
// the signature must verify under pk, the canonical form must carry the given tag and
// splitCount positions, and every share must open its commitment.
//
// It returns the parsed canonical form.
func (t *Transcript) Validate(pk *blind.PublicKey, tag string, splitCount int) (*Canonical, error) {
	if len(t.Signature) == 0 || !pk.Verify(t.SignatureNat(), []byte(t.CanonicalForm)) {
		return nil, blind.ErrInvalidSignature
	}
	canonical, err := Parse(t.CanonicalForm)
	if err != nil {
		return nil, err
	}
	if err = canonical.Check(tag, splitCount); err != nil {
		return nil, err
	}
	if len(t.Shares) != splitCount {
		return nil, fmt.Errorf("%w: transcript has %d shares, expected %d", ErrMalformedCoin, len(t.Shares), splitCount)
	}
	for i, share := range t.Shares {
		if share.Position != i {
			return nil, Error{Position: i, Err: fmt.Errorf("%w: share for position %d out of order", ErrMalformedCoin, share.Position)}
		}
		if !canonical.VerifyShare(i, share.Side, share.Value) {
			return nil, Error{Position: i, Err: ErrTamperedCoin}
		}
	}
	return canonical, nil
}

// Check verifies that c was issued under tag, with splitCount positions.
func (c *Canonical) Check(tag string, splitCount int) error {
	if c.Tag != tag {
		return fmt.Errorf("%w: tag %q, expected %q", ErrMalformedCoin, c.Tag, tag)
	}
	if n := c.SplitCount(); n != splitCount {
		return fmt.Errorf("%w: %d positions, expected %d", ErrMalformedCoin, n, splitCount)
	}
	return nil
}

// MarshalBinary encodes the transcript with CBOR.
func (t *Transcript) MarshalBinary() ([]byte, error) {
	type plain Transcript
	return cbor.Marshal((*plain)(t))
}

// UnmarshalBinary decodes a transcript produced by MarshalBinary.
func (t *Transcript) UnmarshalBinary(data []byte) error {
	type plain Transcript
	return cbor.Unmarshal(data, (*plain)(t))
}
