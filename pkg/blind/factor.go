package blind

import (
	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/ecash/pkg/math/arith"
)

// BlindingFactor holds the secret r used to blind one message under (N, e).
// It must only be used to unblind the signature of that message.
type BlindingFactor struct {
	r *saferith.Nat
	n *arith.Modulus
	e uint64
}

// Unblind removes the blinding factor from the signer's response.
//
// s = s'⋅r⁻¹ (mod N)
//
// If s' = m'ᵈ, then s = mᵈ is an ordinary RSA signature of the original message.
func (b *BlindingFactor) Unblind(blindSignature *saferith.Nat) (*saferith.Nat, error) {
	if !arith.IsReduced(blindSignature, b.n.Modulus) {
		return nil, ErrInvalidMessage
	}
	rInv := b.n.Inverse(b.r)
	return b.n.Mul(blindSignature, rInv), nil
}

// PublicKey returns the key this factor was drawn for.
func (b *BlindingFactor) PublicKey() *PublicKey {
	return &PublicKey{n: b.n, e: b.e}
}
