package blind

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/ecash/internal/params"
	"github.com/taurusgroup/ecash/pkg/math/arith"
	"github.com/taurusgroup/ecash/pkg/math/sample"
	"golang.org/x/crypto/sha3"
)

// fdhDomain customizes the cSHAKE instance used as full-domain hash.
const fdhDomain = "ecash/blind FDH"

// PublicKey is the published half of a bank's RSA key: the modulus N and the
// verification exponent e.
type PublicKey struct {
	n *arith.Modulus
	e uint64
}

// NewPublicKey returns the public key (N, e). The modulus is not copied.
func NewPublicKey(n *saferith.Modulus, e uint64) *PublicKey {
	return &PublicKey{
		n: arith.ModulusFromN(n),
		e: e,
	}
}

// N returns the modulus of the public key.
// For efficiency, the value returned is a pointer to the same underlying N.
// WARNING: Do not modify the returned value.
func (pk *PublicKey) N() *saferith.Modulus {
	return pk.n.Modulus
}

// E returns the public exponent.
func (pk *PublicKey) E() uint64 {
	return pk.e
}

func (pk *PublicKey) exponent() *saferith.Nat {
	return new(saferith.Nat).SetUint64(pk.e)
}

// Equal returns true if pk = other.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if pk == nil || other == nil {
		return pk == other
	}
	return pk.e == other.e && pk.n.Equal(other.n)
}

// Validate checks that N is an odd modulus of at least params.MinBitsModulus bits,
// and that e is an odd exponent greater than 1.
func (pk *PublicKey) Validate() error {
	if pk == nil || pk.n == nil || pk.n.Modulus == nil {
		return fmt.Errorf("public key is nil: %w", ErrKeyGeneration)
	}
	if bits := pk.n.BitLen(); bits < params.MinBitsModulus {
		return fmt.Errorf("modulus has %d bits, need at least %d: %w", bits, params.MinBitsModulus, ErrKeyGeneration)
	}
	if pk.n.Nat().Big().Bit(0) != 1 {
		return fmt.Errorf("modulus is even: %w", ErrKeyGeneration)
	}
	if pk.e < 3 || pk.e&1 != 1 {
		return fmt.Errorf("public exponent %d: %w", pk.e, ErrKeyGeneration)
	}
	return nil
}

// HashToInt maps message to an integer in [0, N) using cSHAKE256 as a full-domain hash.
//
// The output has BitLen(N)-1 bits, so it is always smaller than N.
func (pk *PublicKey) HashToInt(message []byte) *saferith.Nat {
	bits := pk.n.BitLen()
	buf := make([]byte, (bits+7)/8)
	h := sha3.NewCShake256(nil, []byte(fdhDomain))
	// the underlying hash function never returns an error
	_, _ = h.Write(message)
	_, _ = h.Read(buf)
	excess := uint(len(buf)*8 - (bits - 1))
	buf[0] &= 0xff >> excess
	return new(saferith.Nat).SetBytes(buf)
}

// Blind hashes message into ℤₙ and blinds it with a fresh factor r ∈ ℤₙˣ read from rand.
//
// m' = H(m)⋅rᵉ (mod N)
//
// m' is the only value that should be shown to the signer.
func (pk *PublicKey) Blind(rand io.Reader, message []byte) (*saferith.Nat, *BlindingFactor, error) {
	return pk.BlindNat(rand, pk.HashToInt(message))
}

// BlindNat blinds an integer message m ∈ [0, N) which is already encoded.
//
// It returns ErrInvalidMessage if m ∉ [0, N) and ErrDegenerateMessage if
// m = 0 or gcd(m, N) ≠ 1, since such messages cannot be unblinded.
func (pk *PublicKey) BlindNat(rand io.Reader, m *saferith.Nat) (*saferith.Nat, *BlindingFactor, error) {
	if !arith.IsReduced(m, pk.n.Modulus) {
		return nil, nil, ErrInvalidMessage
	}
	if !arith.IsUnit(m, pk.n.Modulus) {
		return nil, nil, ErrDegenerateMessage
	}
	r, err := sample.UnitModN(rand, pk.n.Modulus)
	if err != nil {
		return nil, nil, fmt.Errorf("blind: failed to sample blinding factor: %w", err)
	}
	// m' = m⋅rᵉ (mod N)
	blinded := pk.n.Mul(m, pk.n.Exp(r, pk.exponent()))
	return blinded, &BlindingFactor{r: r, n: pk.n, e: pk.e}, nil
}

// VerifyNat checks whether sᵉ = m (mod N).
func (pk *PublicKey) VerifyNat(signature, m *saferith.Nat) bool {
	if !arith.IsReduced(signature, pk.n.Modulus) || !arith.IsReduced(m, pk.n.Modulus) {
		return false
	}
	return pk.n.Exp(signature, pk.exponent()).Eq(m) == 1
}

// Verify checks whether signature is a valid signature of message,
// that is sᵉ = H(m) (mod N).
func (pk *PublicKey) Verify(signature *saferith.Nat, message []byte) bool {
	return pk.VerifyNat(signature, pk.HashToInt(message))
}
