// Package bank implements the issuing and redeeming side of the e-cash scheme.
//
// A Bank blindly signs coins, and accepts deposits of the transcripts merchants obtain
// when accepting coins. Two deposits of the same coin are reconciled: if they reveal
// different sides at some position, the purchaser spent the coin twice and is identified.
package bank

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/ecash/pkg/blind"
	"github.com/taurusgroup/ecash/pkg/coin"
)

// Bank signs coins and keeps track of deposited ones.
//
// Signing has no shared state. The deposit registry is guarded by a mutex, so a Bank
// can be used from any number of goroutines.
type Bank struct {
	params Params
	secret *blind.SecretKey

	mtx sync.Mutex
	// deposits maps a canonical form to the transcripts deposited for it
	deposits map[string][]*coin.Transcript

	Log zerolog.Logger
}

// New creates a Bank from a Config.
func New(cfg Config) (*Bank, error) {
	if cfg.Secret == nil {
		return nil, errors.New("bank: config has no secret key")
	}
	p := cfg.Params()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b := &Bank{
		params:   p,
		secret:   cfg.Secret,
		deposits: map[string][]*coin.Transcript{},
	}
	b.Log = zerolog.New(zerolog.NewConsoleWriter()).Level(cfg.LogLevel).With().
		Timestamp().
		Str("bank", p.Tag).
		Logger()
	return b, nil
}

// Params returns the bank's public parameters.
func (b *Bank) Params() Params {
	return b.params
}

// PublicKey returns the key verifying the bank's signatures.
func (b *Bank) PublicKey() *blind.PublicKey {
	return b.params.PublicKey
}

// SignCoin returns the bank's blind signature on a blinded canonical form.
//
// The bank learns nothing about the coin it signs, so there is nothing to validate
// besides the blinded value being an element of ℤₙˣ.
func (b *Bank) SignCoin(blinded *saferith.Nat) (*saferith.Nat, error) {
	s, err := b.secret.Sign(blinded)
	if err != nil {
		b.Log.Warn().Err(err).Msg("refused to sign")
		return nil, fmt.Errorf("bank: %w", err)
	}
	b.Log.Debug().Msg("signed coin")
	return s, nil
}

// Deposit redeems a transcript submitted by a merchant.
//
// The transcript must carry a valid signature, and every share must open its commitment.
// The first deposit of a coin is Accepted. A transcript equal to one already recorded is
// MerchantFraud and is not recorded again. Any other deposit is reconciled with the
// earlier ones, and the resulting verdict identifies the double spender.
//
// Coins are told apart by their whole canonical form, so two signed coins sharing an
// identifier are redeemed independently.
func (b *Bank) Deposit(t *coin.Transcript) (*Verdict, error) {
	if t == nil {
		return nil, errors.New("bank: nil transcript")
	}
	log := b.Log.With().Str("merchant", t.Merchant).Logger()

	canonical, err := t.Validate(b.params.PublicKey, b.params.Tag, b.params.SplitCount)
	if err != nil {
		log.Warn().Err(err).Msg("rejected deposit")
		return nil, fmt.Errorf("bank: deposit: %w", err)
	}
	log = log.With().Hex("coin", canonical.Identifier).Logger()

	b.mtx.Lock()
	defer b.mtx.Unlock()

	earlier := b.deposits[t.CanonicalForm]
	if len(earlier) == 0 {
		b.deposits[t.CanonicalForm] = []*coin.Transcript{t.Clone()}
		log.Info().Uint64("amount", canonical.Amount).Msg("coin deposited")
		return &Verdict{Kind: Accepted, Compared: [2]string{t.Merchant, ""}}, nil
	}

	for _, prev := range earlier {
		if prev.Equal(t) {
			verdict := &Verdict{Kind: MerchantFraud, Compared: [2]string{prev.Merchant, t.Merchant}}
			log.Error().Stringer("verdict", verdict).Msg("transcript replayed")
			return verdict, nil
		}
	}

	var inconclusive *Verdict
	for _, prev := range earlier {
		verdict, err := DetermineCheater(prev, t)
		switch {
		case err == nil:
			b.deposits[t.CanonicalForm] = append(earlier, t.Clone())
			log.Error().Stringer("verdict", verdict).Msg("double spend")
			return verdict, nil
		case errors.Is(err, ErrReconciliationInconclusive):
			inconclusive = verdict
		default:
			return nil, err
		}
	}
	b.deposits[t.CanonicalForm] = append(earlier, t.Clone())
	log.Error().Stringer("verdict", inconclusive).Msg("reconciliation inconclusive")
	return inconclusive, ErrReconciliationInconclusive
}

// Deposits returns the number of transcripts recorded for the coin with the given canonical form.
func (b *Bank) Deposits(canonicalForm string) int {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return len(b.deposits[canonicalForm])
}
