package coin

import (
	"fmt"
	"io"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/ecash/internal/hash"
	"github.com/taurusgroup/ecash/internal/params"
	"github.com/taurusgroup/ecash/internal/types"
	"github.com/taurusgroup/ecash/pkg/blind"
)

// Spendable is what a merchant needs from a coin to accept it.
type Spendable interface {
	// CanonicalForm returns the signed string.
	CanonicalForm() string
	// Signature returns the bank's signature on CanonicalForm, or nil.
	Signature() *saferith.Nat
	// Reveal returns the share at the given position and side.
	Reveal(position int, side Side) ([]byte, error)
}

type pair struct {
	left, right types.Pad
}

func (p pair) share(side Side) types.Pad {
	if side == Left {
		return p.left
	}
	return p.right
}

// Coin is a purchaser's coin, along with the secrets needed to spend it.
//
// The canonical form is fixed by New. All methods are safe for concurrent use, so that
// the same coin can be presented to several merchants at once.
type Coin struct {
	mtx   sync.Mutex
	state State

	pk        *blind.PublicKey
	canonical *Canonical
	form      string
	pairs     []pair

	// set while Blinded or Signed
	blinded *saferith.Nat
	factor  *blind.BlindingFactor
	// blind signature while Signed, signature once Unblinded
	signature *saferith.Nat
}

var _ Spendable = (*Coin)(nil)

// New creates a coin of the given amount, hiding the purchaser's identity in splitCount
// pairs of shares, and blinds its canonical form under the bank key pk.
//
// The returned coin is Blinded. Any failure, including of the randomness source,
// is reported as ErrCoinConstruction.
func New(rand io.Reader, pk *blind.PublicKey, tag, purchaser string, amount uint64, splitCount int) (*Coin, error) {
	c, err := construct(rand, pk, tag, purchaser, amount, splitCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCoinConstruction, err)
	}
	if err = c.Blind(rand); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCoinConstruction, err)
	}
	return c, nil
}

func construct(rand io.Reader, pk *blind.PublicKey, tag, purchaser string, amount uint64, splitCount int) (*Coin, error) {
	if err := pk.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateTag(tag); err != nil {
		return nil, err
	}
	if purchaser == "" {
		return nil, fmt.Errorf("empty purchaser")
	}
	if amount == 0 {
		return nil, fmt.Errorf("amount is zero")
	}
	if splitCount < 1 {
		return nil, fmt.Errorf("split count %d is not positive", splitCount)
	}

	identifier, err := types.NewPad(rand, params.IdentifierBytes)
	if err != nil {
		return nil, fmt.Errorf("identifier: %w", err)
	}

	identity := types.Pad(params.IdentityPrefix + purchaser)
	canonical := &Canonical{
		Tag:        tag,
		Amount:     amount,
		Identifier: identifier,
		Left:       make([]hash.Commitment, splitCount),
		Right:      make([]hash.Commitment, splitCount),
	}
	pairs := make([]pair, splitCount)
	for i := range pairs {
		key, err := types.NewPad(rand, len(identity))
		if err != nil {
			return nil, Error{Position: i, Err: err}
		}
		ciphertext, err := identity.XOR(key)
		if err != nil {
			return nil, Error{Position: i, Err: err}
		}
		pairs[i] = pair{left: key, right: ciphertext}

		if canonical.Left[i], err = commitShare(i, Left, key); err != nil {
			return nil, Error{Position: i, Err: err}
		}
		if canonical.Right[i], err = commitShare(i, Right, ciphertext); err != nil {
			return nil, Error{Position: i, Err: err}
		}
	}

	return &Coin{
		state:     Constructed,
		pk:        pk,
		canonical: canonical,
		form:      Format(canonical),
		pairs:     pairs,
	}, nil
}

// Blind hides the canonical form behind a fresh blinding factor.
// It moves the coin from Constructed to Blinded.
func (c *Coin) Blind(rand io.Reader) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.state != Constructed {
		return fmt.Errorf("%w: cannot blind a %s coin", ErrInvalidState, c.state)
	}
	blinded, factor, err := c.pk.Blind(rand, []byte(c.form))
	if err != nil {
		return err
	}
	c.blinded, c.factor = blinded, factor
	c.state = Blinded
	return nil
}

// Blinded returns the value to submit to the bank for signing.
func (c *Coin) Blinded() (*saferith.Nat, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.state != Blinded {
		return nil, fmt.Errorf("%w: %s coin has no pending blinded value", ErrInvalidState, c.state)
	}
	return c.blinded, nil
}

// AttachBlindSignature stores the bank's signature on the blinded value.
// It moves the coin from Blinded to Signed.
func (c *Coin) AttachBlindSignature(blindSignature *saferith.Nat) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.state != Blinded {
		return fmt.Errorf("%w: cannot attach a signature to a %s coin", ErrInvalidState, c.state)
	}
	if blindSignature == nil {
		return fmt.Errorf("coin: nil blind signature: %w", blind.ErrInvalidSignature)
	}
	c.signature = blindSignature
	c.state = Signed
	return nil
}

// Unblind removes the blinding factor from the attached signature, and checks that
// the result is a valid signature of the canonical form.
//
// On success the coin moves from Signed to Unblinded and forgets its blinding factor.
// If the signature is invalid, it is discarded and the coin goes back to Blinded.
func (c *Coin) Unblind() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.state != Signed {
		return fmt.Errorf("%w: cannot unblind a %s coin", ErrInvalidState, c.state)
	}
	signature, err := c.factor.Unblind(c.signature)
	if err != nil || !c.pk.Verify(signature, []byte(c.form)) {
		c.signature = nil
		c.state = Blinded
		return fmt.Errorf("coin: unblinded signature: %w", blind.ErrInvalidSignature)
	}
	c.signature = signature
	c.blinded, c.factor = nil, nil
	c.state = Unblinded
	return nil
}

// Reveal returns the share at (position, side), for a merchant's challenge.
// It requires an Unblinded or Spent coin, and marks it Spent.
//
// Handing out both sides of a position, to one or several merchants, exposes
// the purchaser's identity.
func (c *Coin) Reveal(position int, side Side) ([]byte, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.state != Unblinded && c.state != Spent {
		return nil, fmt.Errorf("%w: cannot spend a %s coin", ErrInvalidState, c.state)
	}
	if position < 0 || position >= len(c.pairs) {
		return nil, Error{Position: position, Err: fmt.Errorf("out of range [0, %d)", len(c.pairs))}
	}
	if !side.Valid() {
		return nil, Error{Position: position, Err: fmt.Errorf("invalid %s", side)}
	}
	c.state = Spent
	return c.pairs[position].share(side).Copy(), nil
}

// Signature returns the bank's signature on the canonical form,
// or nil if the coin has not been unblinded yet.
func (c *Coin) Signature() *saferith.Nat {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.state != Unblinded && c.state != Spent {
		return nil
	}
	return c.signature
}

// CanonicalForm returns the string signed by the bank.
func (c *Coin) CanonicalForm() string {
	return c.form
}

// Canonical returns the decoded canonical form. It must not be modified.
func (c *Coin) Canonical() *Canonical {
	return c.canonical
}

// Identifier returns a copy of the coin's serial.
func (c *Coin) Identifier() []byte {
	return types.Pad(c.canonical.Identifier).Copy()
}

// Amount returns the value of the coin.
func (c *Coin) Amount() uint64 {
	return c.canonical.Amount
}

// SplitCount returns the number of share pairs in the coin.
func (c *Coin) SplitCount() int {
	return len(c.pairs)
}

// State returns the current lifecycle state.
func (c *Coin) State() State {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.state
}
