package coin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/ecash/internal/params"
	"github.com/taurusgroup/ecash/internal/test"
	"github.com/taurusgroup/ecash/pkg/blind"
)

// reveal builds the transcript a merchant would produce with the given sides.
func reveal(t *testing.T, c *Coin, merchant string, sides []Side) *Transcript {
	t.Helper()
	tr := &Transcript{
		Merchant:      merchant,
		CanonicalForm: c.CanonicalForm(),
		Signature:     c.Signature().Big().Bytes(),
	}
	for i, side := range sides {
		value, err := c.Reveal(i, side)
		require.NoError(t, err)
		tr.Shares = append(tr.Shares, Share{Position: i, Side: side, Value: value})
	}
	return tr
}

func alternating(n int, first Side) []Side {
	sides := make([]Side, n)
	for i := range sides {
		sides[i] = first
		first = first.Other()
	}
	return sides
}

func TestTranscriptValidate(t *testing.T) {
	sk := test.SecretKey(0)
	const splitCount = 6
	c := issue(t, sk, "alice", 3, splitCount)
	tr := reveal(t, c, "A", alternating(splitCount, Left))

	canonical, err := tr.Validate(sk.PublicKey, params.BankTag, splitCount)
	require.NoError(t, err)
	assert.Equal(t, c.Canonical(), canonical)

	_, err = tr.Validate(test.SecretKey(1).PublicKey, params.BankTag, splitCount)
	assert.ErrorIs(t, err, blind.ErrInvalidSignature, "wrong bank")
	_, err = tr.Validate(sk.PublicKey, "OTHER", splitCount)
	assert.ErrorIs(t, err, ErrMalformedCoin)
	_, err = tr.Validate(sk.PublicKey, params.BankTag, splitCount+1)
	assert.ErrorIs(t, err, ErrMalformedCoin)

	short := *tr
	short.Shares = tr.Shares[:splitCount-1]
	_, err = short.Validate(sk.PublicKey, params.BankTag, splitCount)
	assert.ErrorIs(t, err, ErrMalformedCoin)

	swapped := *tr
	swapped.Shares = append([]Share(nil), tr.Shares...)
	swapped.Shares[3].Side = swapped.Shares[3].Side.Other()
	_, err = swapped.Validate(sk.PublicKey, params.BankTag, splitCount)
	require.ErrorIs(t, err, ErrTamperedCoin)
	var posErr Error
	require.ErrorAs(t, err, &posErr)
	assert.Equal(t, 3, posErr.Position)

	reordered := *tr
	reordered.Shares = append([]Share(nil), tr.Shares...)
	reordered.Shares[0], reordered.Shares[1] = reordered.Shares[1], reordered.Shares[0]
	_, err = reordered.Validate(sk.PublicKey, params.BankTag, splitCount)
	assert.ErrorIs(t, err, ErrMalformedCoin)

	unsigned := *tr
	unsigned.Signature = nil
	_, err = unsigned.Validate(sk.PublicKey, params.BankTag, splitCount)
	assert.ErrorIs(t, err, blind.ErrInvalidSignature)
}

func TestTranscriptEqual(t *testing.T) {
	c := issue(t, test.SecretKey(0), "alice", 3, 4)
	a := reveal(t, c, "A", alternating(4, Left))
	b := reveal(t, c, "B", alternating(4, Left))
	d := reveal(t, c, "D", alternating(4, Right))

	assert.True(t, a.SameCoin(d))
	assert.True(t, a.Equal(b), "merchant names are not compared")
	assert.False(t, a.Equal(d))

	other := issue(t, test.SecretKey(0), "alice", 3, 4)
	e := reveal(t, other, "A", alternating(4, Left))
	assert.False(t, a.SameCoin(e))
	assert.False(t, a.Equal(e))
}

func TestTranscriptMarshal(t *testing.T) {
	sk := test.SecretKey(0)
	c := issue(t, sk, "alice", 3, 5)
	tr := reveal(t, c, "A", alternating(5, Right))

	data, err := tr.MarshalBinary()
	require.NoError(t, err)
	var decoded Transcript
	require.NoError(t, decoded.UnmarshalBinary(data))

	assert.Equal(t, tr.Merchant, decoded.Merchant)
	assert.True(t, tr.Equal(&decoded))
	_, err = decoded.Validate(sk.PublicKey, params.BankTag, 5)
	assert.NoError(t, err)
}
