package bank

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/ecash/internal/params"
	"github.com/taurusgroup/ecash/internal/types"
	"github.com/taurusgroup/ecash/pkg/coin"
)

var (
	// ErrReconciliation is returned when two transcripts cannot be compared.
	ErrReconciliation = errors.New("bank: transcripts cannot be reconciled")
	// ErrReconciliationInconclusive is returned when two different transcripts of the same
	// coin do not expose an identity. It never happens for honestly produced transcripts.
	ErrReconciliationInconclusive = errors.New("bank: reconciliation inconclusive")
)

// Kind is the outcome of a reconciliation.
type Kind uint8

const (
	// Accepted means the coin was deposited for the first time.
	Accepted Kind = iota
	// DoubleSpend means the purchaser spent the coin twice, and was identified.
	DoubleSpend
	// MerchantFraud means the same transcript was submitted twice.
	MerchantFraud
	// Inconclusive means the transcripts differ but no identity could be recovered.
	Inconclusive
)

func (k Kind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case DoubleSpend:
		return "double-spend"
	case MerchantFraud:
		return "merchant-fraud"
	case Inconclusive:
		return "inconclusive"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Verdict is the bank's judgement on a deposit or a pair of transcripts.
type Verdict struct {
	Kind Kind
	// Identity of the double spender, without the identity prefix.
	Identity string
	// Position at which the two transcripts revealed different sides.
	Position int
	// Compared holds the merchant names of the transcripts that were compared.
	Compared [2]string
}

func (v *Verdict) String() string {
	switch v.Kind {
	case DoubleSpend:
		return fmt.Sprintf("%s by %q (position %d, merchants %q and %q)", v.Kind, v.Identity, v.Position, v.Compared[0], v.Compared[1])
	case MerchantFraud, Inconclusive:
		return fmt.Sprintf("%s (merchants %q and %q)", v.Kind, v.Compared[0], v.Compared[1])
	default:
		return v.Kind.String()
	}
}

// DetermineCheater compares two transcripts of the same coin.
//
//   - If both reveal exactly the same shares, the verdict is MerchantFraud: a replayed
//     transcript carries no new information about the purchaser.
//   - Otherwise, at the first position where one transcript opened the left share and the
//     other the right share, the shares are XOR'ed together. If the result carries the
//     identity prefix, the verdict is DoubleSpend with the recovered identity.
//   - If no position yields an identity, ErrReconciliationInconclusive is returned along
//     with an Inconclusive verdict.
//
// Transcripts are not checked against the coin's commitments, see Bank.Deposit for that.
func DetermineCheater(a, b *coin.Transcript) (*Verdict, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: missing transcript", ErrReconciliation)
	}
	if !a.SameCoin(b) {
		return nil, fmt.Errorf("%w: transcripts are about different coins", ErrReconciliation)
	}
	if len(a.Shares) != len(b.Shares) {
		return nil, fmt.Errorf("%w: %d and %d shares", ErrReconciliation, len(a.Shares), len(b.Shares))
	}
	compared := [2]string{a.Merchant, b.Merchant}

	if a.Equal(b) {
		return &Verdict{Kind: MerchantFraud, Compared: compared}, nil
	}

	for i := range a.Shares {
		sa, sb := a.Shares[i], b.Shares[i]
		if sa.Position != sb.Position {
			return nil, fmt.Errorf("%w: share %d has positions %d and %d", ErrReconciliation, i, sa.Position, sb.Position)
		}
		if sa.Side == sb.Side {
			continue
		}
		plaintext, err := types.Pad(sa.Value).XOR(sb.Value)
		if err != nil {
			continue
		}
		if plaintext.HasPrefix(params.IdentityPrefix) {
			return &Verdict{
				Kind:     DoubleSpend,
				Identity: string(plaintext[len(params.IdentityPrefix):]),
				Position: sa.Position,
				Compared: compared,
			}, nil
		}
	}
	return &Verdict{Kind: Inconclusive, Compared: compared}, ErrReconciliationInconclusive
}
