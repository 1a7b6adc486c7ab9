// Package coin implements the purchaser's side of the e-cash scheme.
//
// A Coin hides the identity of its purchaser in SplitCount one-time-pad pairs.
// At every position i, the left share is a random pad and the right share is
//
//	"IDENT:" || name ⊕ pad
//
// so that either share alone says nothing about the name, while both together reveal it.
// Only commitments to the shares appear in the coin's canonical form, which is what the
// bank blindly signs. A merchant accepting the coin asks for one side per position; two
// merchants asking for different sides at some position can unmask a purchaser who
// spent the same coin twice.
package coin

import (
	"errors"
	"fmt"
)

var (
	// ErrCoinConstruction is returned when a Coin cannot be built.
	ErrCoinConstruction = errors.New("coin: construction failed")
	// ErrMalformedCoin is returned when a canonical form cannot be parsed, or does not match
	// the bank's parameters.
	ErrMalformedCoin = errors.New("coin: malformed canonical form")
	// ErrTamperedCoin is returned when a revealed share does not match its published commitment.
	ErrTamperedCoin = errors.New("coin: share does not match its commitment")
	// ErrInvalidState is returned when an operation is called in the wrong lifecycle state.
	ErrInvalidState = errors.New("coin: invalid state")
)

// Side selects one of the two shares at a position.
type Side uint8

const (
	// Left designates the pad.
	Left Side = iota
	// Right designates the encrypted identity.
	Right
)

// Other returns the opposite side.
func (s Side) Other() Side {
	return s ^ 1
}

// Valid returns true for Left and Right.
func (s Side) Valid() bool {
	return s == Left || s == Right
}

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// State is a step in the lifecycle of a Coin.
type State uint8

const (
	// Constructed coins have their shares and canonical form, but no blinding factor.
	Constructed State = iota
	// Blinded coins wait for the bank's blind signature.
	Blinded
	// Signed coins hold a blind signature which has not been removed yet.
	Signed
	// Unblinded coins carry a valid bank signature, and can be spent.
	Unblinded
	// Spent coins have revealed at least one share to a merchant.
	Spent
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Blinded:
		return "blinded"
	case Signed:
		return "signed"
	case Unblinded:
		return "unblinded"
	case Spent:
		return "spent"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Error is returned when the check of a specific position fails.
type Error struct {
	// Position of the share responsible for the failure
	Position int
	// Err is the underlying error
	Err error
}

func (e Error) Error() string {
	return fmt.Sprintf("position %d: %s", e.Position, e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}
