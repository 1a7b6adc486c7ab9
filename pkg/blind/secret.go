package blind

import (
	"fmt"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/ecash/internal/params"
	"github.com/taurusgroup/ecash/pkg/math/arith"
	"github.com/taurusgroup/ecash/pkg/math/sample"
	"github.com/taurusgroup/ecash/pkg/pool"
)

// primalityIterations is the number of Miller-Rabin rounds applied to imported primes.
const primalityIterations = 20

// SecretKey is the secret key corresponding to a PublicKey.
//
// It contains the factorization N = P⋅Q, which lets it compute signatures
// with the Chinese remainder theorem.
//
// A SecretKey is never modified after creation, and can be used to sign concurrently.
type SecretKey struct {
	*PublicKey
	// p, q such that N = p⋅q
	p, q *saferith.Nat
	// d = e⁻¹ mod λ(N)
	d *saferith.Nat
	// n with its factorization
	crt *arith.Modulus
}

// P returns the first of the two factors composing this key.
func (sk *SecretKey) P() *saferith.Nat {
	return sk.p
}

// Q returns the second of the two factors composing this key.
func (sk *SecretKey) Q() *saferith.Nat {
	return sk.q
}

// D returns the signing exponent d.
func (sk *SecretKey) D() *saferith.Nat {
	return sk.d
}

// KeyGen generates a new SecretKey with a modulus of the given size, and public
// exponent params.PublicExponent.
//
// It fails with ErrKeyGeneration if bits is smaller than params.MinBitsModulus, or odd.
func KeyGen(rand io.Reader, pl *pool.Pool, bits int) (*SecretKey, error) {
	if bits < params.MinBitsModulus {
		return nil, fmt.Errorf("%d bit modulus is below the minimum of %d: %w", bits, params.MinBitsModulus, ErrKeyGeneration)
	}
	if bits%2 != 0 {
		return nil, fmt.Errorf("%d bit modulus is odd: %w", bits, ErrKeyGeneration)
	}
	p, q, err := sample.RSA(rand, pl, bits/2, params.PublicExponent)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
	}
	return NewSecretKeyFromPrimes(p, q, params.PublicExponent)
}

// NewSecretKeyFromPrimes creates the SecretKey for N = P⋅Q and public exponent e.
//
// It checks that P and Q are distinct primes, that N is large enough, and that e
// is invertible modulo λ(N) = lcm(P-1, Q-1).
func NewSecretKeyFromPrimes(P, Q *big.Int, e uint64) (*SecretKey, error) {
	if P == nil || Q == nil {
		return nil, fmt.Errorf("prime is nil: %w", ErrKeyGeneration)
	}
	if P.Cmp(Q) == 0 {
		return nil, fmt.Errorf("primes are equal: %w", ErrKeyGeneration)
	}
	if !P.ProbablyPrime(primalityIterations) || !Q.ProbablyPrime(primalityIterations) {
		return nil, fmt.Errorf("factor is not prime: %w", ErrKeyGeneration)
	}
	n := new(big.Int).Mul(P, Q)
	if bits := n.BitLen(); bits < params.MinBitsModulus {
		return nil, fmt.Errorf("modulus has %d bits, need at least %d: %w", bits, params.MinBitsModulus, ErrKeyGeneration)
	}

	one := big.NewInt(1)
	pMinus1 := new(big.Int).Sub(P, one)
	qMinus1 := new(big.Int).Sub(Q, one)
	// λ(N) = (P-1)(Q-1) / gcd(P-1, Q-1)
	gcd := new(big.Int).GCD(nil, nil, pMinus1, qMinus1)
	lambda := new(big.Int).Mul(pMinus1, qMinus1)
	lambda.Quo(lambda, gcd)

	d := new(big.Int).ModInverse(new(big.Int).SetUint64(e), lambda)
	if d == nil {
		return nil, fmt.Errorf("e = %d is not invertible mod λ(N): %w", e, ErrKeyGeneration)
	}

	pNat := new(saferith.Nat).SetBig(P, P.BitLen())
	qNat := new(saferith.Nat).SetBig(Q, Q.BitLen())
	crt := arith.ModulusFromFactors(pNat, qNat)
	sk := &SecretKey{
		PublicKey: &PublicKey{
			n: crt.Public(),
			e: e,
		},
		p:   pNat,
		q:   qNat,
		d:   new(saferith.Nat).SetBig(d, lambda.BitLen()),
		crt: crt,
	}
	if err := sk.PublicKey.Validate(); err != nil {
		return nil, err
	}
	return sk, nil
}

// Sign returns s' = m'ᵈ (mod N) for a blinded message m'.
//
// The signer only ever sees m', which is statistically independent of the
// message it hides. Sign can equally be applied to an unblinded H(m), producing an
// ordinary RSA signature.
//
// It fails with ErrInvalidMessage if m' ∉ [0, N), and with ErrDegenerateMessage if
// m' = 0 or gcd(m', N) ≠ 1.
func (sk *SecretKey) Sign(blinded *saferith.Nat) (*saferith.Nat, error) {
	if !arith.IsReduced(blinded, sk.crt.Modulus) {
		return nil, ErrInvalidMessage
	}
	if !arith.IsUnit(blinded, sk.crt.Modulus) {
		return nil, ErrDegenerateMessage
	}
	s := sk.crt.Exp(blinded, sk.d)
	// a faulty CRT half would make s reveal a factor of N
	if !sk.PublicKey.VerifyNat(s, blinded) {
		return nil, fmt.Errorf("blind: signature self-check failed: %w", ErrInvalidSignature)
	}
	return s, nil
}
