package bank_test

import (
	"crypto/rand"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/ecash/internal/params"
	"github.com/taurusgroup/ecash/internal/test"
	"github.com/taurusgroup/ecash/pkg/bank"
	"github.com/taurusgroup/ecash/pkg/pool"
)

func TestParamsMarshal(t *testing.T) {
	p := newBank(t, 1, 7).Params()
	data, err := p.MarshalBinary()
	require.NoError(t, err, "failed to marshal")

	var decoded bank.Params
	require.NoError(t, decoded.UnmarshalBinary(data), "failed to unmarshal")
	assert.Equal(t, p.Tag, decoded.Tag)
	assert.Equal(t, p.SplitCount, decoded.SplitCount)
	assert.True(t, p.PublicKey.Equal(decoded.PublicKey))

	invalid := p
	invalid.SplitCount = 0
	data, err = invalid.MarshalBinary()
	require.NoError(t, err)
	assert.Error(t, decoded.UnmarshalBinary(data))

	_, err = (&bank.Params{Tag: "X"}).MarshalBinary()
	assert.Error(t, err)
}

func TestConfigMarshal(t *testing.T) {
	cfg := bank.Config{
		Tag:        "TEST",
		SplitCount: 12,
		Secret:     test.SecretKey(1),
		LogLevel:   zerolog.WarnLevel,
	}
	data, err := cfg.MarshalBinary()
	require.NoError(t, err)

	var decoded bank.Config
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, cfg.Tag, decoded.Tag)
	assert.Equal(t, cfg.SplitCount, decoded.SplitCount)
	assert.Equal(t, cfg.LogLevel, decoded.LogLevel)
	assert.True(t, cfg.Secret.PublicKey.Equal(decoded.Secret.PublicKey))

	// a bank restored from its config redeems coins issued before
	before, err := bank.New(cfg)
	require.NoError(t, err)
	before.Log = zerolog.Nop()
	c := withdraw(t, before, "alice", 1)

	decoded.LogLevel = zerolog.Disabled
	after, err := bank.New(decoded)
	require.NoError(t, err)
	tr, err := newMerchant(t, "A", after, nil).AcceptCoin(c)
	require.NoError(t, err)
	verdict, err := after.Deposit(tr)
	require.NoError(t, err)
	assert.Equal(t, bank.Accepted, verdict.Kind)

	_, err = (&bank.Config{}).MarshalBinary()
	assert.Error(t, err)

	garbage, err := cbor.Marshal(map[string]interface{}{"Tag": "X", "Secret": []byte{1, 2, 3}})
	require.NoError(t, err)
	assert.Error(t, decoded.UnmarshalBinary(garbage))
}

func TestNewConfig(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping key generation in short mode")
	}
	cfg, err := bank.NewConfig(rand.Reader, pool.NewPool(0))
	require.NoError(t, err)
	assert.Equal(t, params.BankTag, cfg.Tag)
	assert.Equal(t, params.SplitCount, cfg.SplitCount)
	assert.Equal(t, params.BitsModulus, cfg.Secret.N().BitLen())
	require.NoError(t, cfg.Params().Validate())
}
