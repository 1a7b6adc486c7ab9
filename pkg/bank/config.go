package bank

import (
	"errors"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/ecash/internal/params"
	"github.com/taurusgroup/ecash/pkg/blind"
	"github.com/taurusgroup/ecash/pkg/pool"
)

// Config holds everything needed to run a bank.
//
// A zero Tag or SplitCount is replaced by params.BankTag and params.SplitCount.
type Config struct {
	Tag        string
	SplitCount int
	// Secret is the bank's signing key.
	Secret *blind.SecretKey
	// LogLevel of the bank's logger.
	LogLevel zerolog.Level
}

// NewConfig generates a fresh signing key of params.BitsModulus bits,
// and returns a Config with default parameters.
func NewConfig(rand io.Reader, pl *pool.Pool) (*Config, error) {
	sk, err := blind.KeyGen(rand, pl, params.BitsModulus)
	if err != nil {
		return nil, err
	}
	return &Config{
		Tag:        params.BankTag,
		SplitCount: params.SplitCount,
		Secret:     sk,
		LogLevel:   zerolog.InfoLevel,
	}, nil
}

// Params returns the public parameters derived from c, with defaults applied.
func (c *Config) Params() Params {
	p := Params{
		Tag:        c.Tag,
		SplitCount: c.SplitCount,
	}
	if p.Tag == "" {
		p.Tag = params.BankTag
	}
	if p.SplitCount == 0 {
		p.SplitCount = params.SplitCount
	}
	if c.Secret != nil {
		p.PublicKey = c.Secret.PublicKey
	}
	return p
}

type configMarshal struct {
	Tag        string
	SplitCount int
	Secret     cbor.RawMessage
	LogLevel   zerolog.Level
}

// MarshalBinary encodes the configuration, including the secret key, with CBOR.
func (c *Config) MarshalBinary() ([]byte, error) {
	if c.Secret == nil {
		return nil, errors.New("bank: config has no secret key")
	}
	sk, err := c.Secret.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(&configMarshal{
		Tag:        c.Tag,
		SplitCount: c.SplitCount,
		Secret:     sk,
		LogLevel:   c.LogLevel,
	})
}

// UnmarshalBinary decodes a configuration produced by MarshalBinary.
// The secret key is validated.
func (c *Config) UnmarshalBinary(data []byte) error {
	var cm configMarshal
	if err := cbor.Unmarshal(data, &cm); err != nil {
		return err
	}
	sk := new(blind.SecretKey)
	if err := sk.UnmarshalBinary(cm.Secret); err != nil {
		return err
	}
	*c = Config{
		Tag:        cm.Tag,
		SplitCount: cm.SplitCount,
		Secret:     sk,
		LogLevel:   cm.LogLevel,
	}
	return nil
}
