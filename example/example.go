package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/ecash/pkg/bank"
	"github.com/taurusgroup/ecash/pkg/coin"
	"github.com/taurusgroup/ecash/pkg/merchant"
	"github.com/taurusgroup/ecash/pkg/pool"
)

func Withdraw(b *bank.Bank, purchaser string, amount uint64) (*coin.Coin, error) {
	p := b.Params()
	c, err := coin.New(rand.Reader, p.PublicKey, p.Tag, purchaser, amount, p.SplitCount)
	if err != nil {
		return nil, err
	}
	blinded, err := c.Blinded()
	if err != nil {
		return nil, err
	}
	blindSignature, err := b.SignCoin(blinded)
	if err != nil {
		return nil, err
	}
	if err = c.AttachBlindSignature(blindSignature); err != nil {
		return nil, err
	}
	if err = c.Unblind(); err != nil {
		return nil, err
	}
	return c, nil
}

func Merchants(b *bank.Bank, level zerolog.Level, names ...string) ([]*merchant.Merchant, error) {
	merchants := make([]*merchant.Merchant, 0, len(names))
	for _, name := range names {
		m, err := merchant.New(merchant.Config{
			Name:     name,
			Bank:     b.Params(),
			LogLevel: level,
		})
		if err != nil {
			return nil, err
		}
		merchants = append(merchants, m)
	}
	return merchants, nil
}

func Redeem(b *bank.Bank, transcripts ...*coin.Transcript) ([]*bank.Verdict, error) {
	verdicts := make([]*bank.Verdict, 0, len(transcripts))
	for _, t := range transcripts {
		v, err := b.Deposit(t)
		if err != nil {
			return nil, fmt.Errorf("deposit from %s: %w", t.Merchant, err)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, nil
}

func All(log zerolog.Logger, pl *pool.Pool, purchaser string, amount uint64) error {
	// BANK
	cfg, err := bank.NewConfig(rand.Reader, pl)
	if err != nil {
		return err
	}
	cfg.LogLevel = log.GetLevel()
	b, err := bank.New(*cfg)
	if err != nil {
		return err
	}
	log.Info().Int("bits", b.PublicKey().N().BitLen()).Msg("bank key generated")

	// WITHDRAW
	c, err := Withdraw(b, purchaser, amount)
	if err != nil {
		return err
	}
	log.Info().Hex("coin", c.Identifier()).Uint64("amount", c.Amount()).Msg("coin withdrawn")

	// SPEND TWICE
	merchants, err := Merchants(b, log.GetLevel(), "A", "B")
	if err != nil {
		return err
	}
	transcripts, err := merchant.AcceptConcurrently(context.Background(), pl, c, merchants...)
	if err != nil {
		return err
	}

	// RECONCILE
	verdict, err := bank.DetermineCheater(transcripts[0], transcripts[1])
	if err != nil {
		return err
	}
	log.Info().Stringer("verdict", verdict).Msg("A against B")
	if verdict.Kind != bank.DoubleSpend || verdict.Identity != purchaser {
		return errors.New("failed to identify the double spender")
	}

	verdict, err = bank.DetermineCheater(transcripts[0], transcripts[0])
	if err != nil {
		return err
	}
	log.Info().Stringer("verdict", verdict).Msg("A against itself")
	if verdict.Kind != bank.MerchantFraud {
		return errors.New("failed to detect a replayed transcript")
	}

	// DEPOSIT
	verdicts, err := Redeem(b, transcripts[0], transcripts[1], transcripts[0])
	if err != nil {
		return err
	}
	for _, v := range verdicts {
		log.Info().Stringer("verdict", v).Msg("deposit")
	}
	return nil
}

func main() {
	pl := pool.NewPool(0)
	log := zerolog.New(zerolog.NewConsoleWriter()).Level(zerolog.InfoLevel).With().
		Timestamp().
		Str("purchaser", "alice").
		Logger()

	if err := All(log, pl, "alice", 20); err != nil {
		log.Error().Err(err).Msg("example failed")
		os.Exit(1)
	}
}
