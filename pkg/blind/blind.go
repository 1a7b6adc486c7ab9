// Package blind implements RSA blind signatures.
//
// A requester hides a message m behind a random factor r ∈ ℤₙˣ before handing it to
// the signer:
//
//	m' = H(m)⋅rᵉ (mod N)
//
// The signer returns s' = m'ᵈ (mod N) without learning anything about m, and the
// requester removes the factor to obtain an ordinary RSA signature
//
//	s = s'⋅r⁻¹ = H(m)ᵈ (mod N)
//
// which verifies against the untouched message. H is a full-domain hash into ℤₙ.
package blind

import "errors"

var (
	// ErrKeyGeneration is returned when a key pair cannot be generated, or a
	// given key pair is unsuitable.
	ErrKeyGeneration = errors.New("blind: key generation failed")
	// ErrInvalidMessage is returned when a message does not map into [0, N).
	ErrInvalidMessage = errors.New("blind: message not in [0, N)")
	// ErrDegenerateMessage is returned when a message is 0 or shares a factor with N.
	ErrDegenerateMessage = errors.New("blind: message is not a unit mod N")
	// ErrInvalidSignature is returned when a signature does not verify.
	ErrInvalidSignature = errors.New("blind: invalid signature")
)
