// Package merchant implements the acceptance of coins.
//
// A merchant verifies the bank's signature on a coin, then challenges the coin at every
// position with a random side, and checks each revealed share against the commitment
// published in the coin. The resulting transcript is what the merchant deposits at the bank.
package merchant

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/ecash/pkg/bank"
	"github.com/taurusgroup/ecash/pkg/blind"
	"github.com/taurusgroup/ecash/pkg/coin"
	"github.com/taurusgroup/ecash/pkg/pool"
)

// Config holds everything needed to run a merchant.
type Config struct {
	// Name identifies the merchant in its transcripts.
	Name string
	// Bank holds the parameters of the bank whose coins are accepted.
	Bank bank.Params
	// Chooser picks the sides to reveal. If nil, sides are drawn from crypto/rand.
	Chooser Chooser
	// LogLevel of the merchant's logger.
	LogLevel zerolog.Level
}

// Merchant accepts coins from a single bank.
type Merchant struct {
	name    string
	bank    bank.Params
	chooser Chooser

	Log zerolog.Logger
}

// New creates a Merchant from a Config.
func New(cfg Config) (*Merchant, error) {
	if cfg.Name == "" {
		return nil, errors.New("merchant: empty name")
	}
	if err := cfg.Bank.Validate(); err != nil {
		return nil, fmt.Errorf("merchant: %w", err)
	}
	m := &Merchant{
		name:    cfg.Name,
		bank:    cfg.Bank,
		chooser: cfg.Chooser,
	}
	if m.chooser == nil {
		m.chooser = RandomChooser{}
	}
	m.Log = zerolog.New(zerolog.NewConsoleWriter()).Level(cfg.LogLevel).With().
		Timestamp().
		Str("merchant", cfg.Name).
		Logger()
	return m, nil
}

// Name returns the merchant's name.
func (m *Merchant) Name() string {
	return m.name
}

// AcceptCoin verifies c and challenges it at every position.
//
// It fails with
//   - blind.ErrInvalidSignature if the bank's signature does not verify,
//   - coin.ErrMalformedCoin if the canonical form was not issued with the bank's parameters,
//   - coin.ErrTamperedCoin, wrapped in a coin.Error, if a revealed share does not match
//     its commitment.
//
// A coin is either fully accepted or rejected: no transcript is returned with an error.
// Only the chosen side of every position is revealed to the merchant.
func (m *Merchant) AcceptCoin(c coin.Spendable) (*coin.Transcript, error) {
	t, err := m.accept(c)
	if err != nil {
		m.Log.Warn().Err(err).Msg("rejected coin")
		return nil, err
	}
	m.Log.Info().Int("shares", len(t.Shares)).Msg("accepted coin")
	return t, nil
}

func (m *Merchant) accept(c coin.Spendable) (*coin.Transcript, error) {
	form := c.CanonicalForm()
	signature := c.Signature()
	if signature == nil || !m.bank.PublicKey.Verify(signature, []byte(form)) {
		return nil, fmt.Errorf("merchant: %w", blind.ErrInvalidSignature)
	}

	canonical, err := coin.Parse(form)
	if err != nil {
		return nil, fmt.Errorf("merchant: %w", err)
	}
	if err = canonical.Check(m.bank.Tag, m.bank.SplitCount); err != nil {
		return nil, fmt.Errorf("merchant: %w", err)
	}

	t := &coin.Transcript{
		Merchant:      m.name,
		CanonicalForm: form,
		Signature:     signature.Big().Bytes(),
		Shares:        make([]coin.Share, 0, m.bank.SplitCount),
	}
	for i := 0; i < m.bank.SplitCount; i++ {
		side, err := m.chooser.Choose(i)
		if err != nil {
			return nil, fmt.Errorf("merchant: %w", coin.Error{Position: i, Err: err})
		}
		if !side.Valid() {
			return nil, fmt.Errorf("merchant: %w", coin.Error{Position: i, Err: fmt.Errorf("chooser returned %s", side)})
		}
		value, err := c.Reveal(i, side)
		if err != nil {
			return nil, fmt.Errorf("merchant: %w", coin.Error{Position: i, Err: err})
		}
		if !canonical.VerifyShare(i, side, value) {
			return nil, fmt.Errorf("merchant: %w", coin.Error{Position: i, Err: coin.ErrTamperedCoin})
		}
		t.Shares = append(t.Shares, coin.Share{Position: i, Side: side, Value: value})
	}
	return t, nil
}

// AcceptAll accepts several coins in parallel, using the pool.
// Transcripts are returned in the order of the coins. The first rejection cancels the
// remaining acceptances, and is returned.
func (m *Merchant) AcceptAll(ctx context.Context, pl *pool.Pool, coins []coin.Spendable) ([]*coin.Transcript, error) {
	transcripts := make([]*coin.Transcript, len(coins))
	err := pl.Parallelize(ctx, len(coins), func(_ context.Context, i int) error {
		t, err := m.AcceptCoin(coins[i])
		if err != nil {
			return fmt.Errorf("coin %d: %w", i, err)
		}
		transcripts[i] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transcripts, nil
}

// AcceptConcurrently presents the same coin to several merchants in parallel, as a
// purchaser spending it more than once would. Transcripts are returned in the order
// of the merchants.
func AcceptConcurrently(ctx context.Context, pl *pool.Pool, c coin.Spendable, merchants ...*Merchant) ([]*coin.Transcript, error) {
	transcripts := make([]*coin.Transcript, len(merchants))
	err := pl.Parallelize(ctx, len(merchants), func(_ context.Context, i int) error {
		t, err := merchants[i].AcceptCoin(c)
		if err != nil {
			return fmt.Errorf("merchant %s: %w", merchants[i].name, err)
		}
		transcripts[i] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transcripts, nil
}
