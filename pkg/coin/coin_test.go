package coin

import (
	"bytes"
	"crypto/rand"
	"strings"
	"sync"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/ecash/internal/params"
	"github.com/taurusgroup/ecash/internal/test"
	"github.com/taurusgroup/ecash/internal/types"
	"github.com/taurusgroup/ecash/pkg/blind"
)

// issue runs a coin through the bank with sk, and returns it Unblinded.
func issue(t *testing.T, sk *blind.SecretKey, purchaser string, amount uint64, splitCount int) *Coin {
	t.Helper()
	c, err := New(rand.Reader, sk.PublicKey, params.BankTag, purchaser, amount, splitCount)
	require.NoError(t, err)
	blinded, err := c.Blinded()
	require.NoError(t, err)
	blindSig, err := sk.Sign(blinded)
	require.NoError(t, err)
	require.NoError(t, c.AttachBlindSignature(blindSig))
	require.NoError(t, c.Unblind())
	return c
}

func TestNew(t *testing.T) {
	pk := test.SecretKey(0).PublicKey
	c, err := New(rand.Reader, pk, params.BankTag, "alice", 20, params.SplitCount)
	require.NoError(t, err)

	assert.Equal(t, Blinded, c.State())
	assert.Equal(t, uint64(20), c.Amount())
	assert.Equal(t, params.SplitCount, c.SplitCount())
	assert.Len(t, c.Identifier(), params.IdentifierBytes)
	assert.Nil(t, c.Signature(), "no signature before unblinding")

	form := c.CanonicalForm()
	assert.True(t, strings.HasPrefix(form, params.BankTag+"-20-"))
	fields := strings.Split(form, "-")
	require.Len(t, fields, 5)
	for _, list := range fields[3:] {
		hashes := strings.Split(list, ",")
		require.Len(t, hashes, params.SplitCount)
		for _, h := range hashes {
			assert.Len(t, h, params.HashHexLength)
		}
	}

	identity := types.Pad(params.IdentityPrefix + "alice")
	for i, p := range c.pairs {
		assert.Len(t, p.left, len(identity))
		decoded, err := p.left.XOR(p.right)
		require.NoError(t, err)
		assert.Equal(t, identity, decoded, "left ⊕ right should decode to the identity at position %d", i)
		assert.True(t, c.Canonical().VerifyShare(i, Left, p.left))
		assert.True(t, c.Canonical().VerifyShare(i, Right, p.right))
		assert.False(t, c.Canonical().VerifyShare(i, Left, p.right))
	}

	other, err := New(rand.Reader, pk, params.BankTag, "alice", 20, params.SplitCount)
	require.NoError(t, err)
	assert.NotEqual(t, c.Identifier(), other.Identifier(), "identifiers should be unique")
	assert.NotEqual(t, c.CanonicalForm(), other.CanonicalForm())
}

func TestNewInvalid(t *testing.T) {
	pk := test.SecretKey(0).PublicKey
	tests := []struct {
		name       string
		pk         *blind.PublicKey
		tag        string
		purchaser  string
		amount     uint64
		splitCount int
	}{
		{"zero amount", pk, params.BankTag, "alice", 0, params.SplitCount},
		{"no positions", pk, params.BankTag, "alice", 1, 0},
		{"empty purchaser", pk, params.BankTag, "", 1, params.SplitCount},
		{"empty tag", pk, "", "alice", 1, params.SplitCount},
		{"dash in tag", pk, "E-CASH", "alice", 1, params.SplitCount},
		{"comma in tag", pk, "E,CASH", "alice", 1, params.SplitCount},
		{"no key", nil, params.BankTag, "alice", 1, params.SplitCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(rand.Reader, tt.pk, tt.tag, tt.purchaser, tt.amount, tt.splitCount)
			assert.ErrorIs(t, err, ErrCoinConstruction)
			assert.Nil(t, c)
		})
	}
}

func TestNewEntropyFailure(t *testing.T) {
	pk := test.SecretKey(0).PublicKey
	// fail at the identifier, in the middle of the pads, and while blinding
	for _, n := range []int{0, params.IdentifierBytes + 5*len("IDENT:alice"), params.IdentifierBytes + params.SplitCount*len("IDENT:alice")} {
		c, err := New(test.FailingReader(rand.Reader, n), pk, params.BankTag, "alice", 20, params.SplitCount)
		assert.ErrorIs(t, err, ErrCoinConstruction)
		assert.ErrorIs(t, err, test.ErrEntropy)
		assert.Nil(t, c, "no partial coin should be returned")
	}
}

func TestLifecycle(t *testing.T) {
	sk := test.SecretKey(0)
	c, err := New(rand.Reader, sk.PublicKey, params.BankTag, "bob", 5, 4)
	require.NoError(t, err)

	assert.ErrorIs(t, c.Blind(rand.Reader), ErrInvalidState, "already blinded")
	assert.ErrorIs(t, c.Unblind(), ErrInvalidState, "unblind before signed")
	_, err = c.Reveal(0, Left)
	assert.ErrorIs(t, err, ErrInvalidState, "reveal before unblinded")

	blinded, err := c.Blinded()
	require.NoError(t, err)
	blindSig, err := sk.Sign(blinded)
	require.NoError(t, err)
	require.NoError(t, c.AttachBlindSignature(blindSig))
	assert.Equal(t, Signed, c.State())
	assert.ErrorIs(t, c.AttachBlindSignature(blindSig), ErrInvalidState)
	_, err = c.Blinded()
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, c.Unblind())
	assert.Equal(t, Unblinded, c.State())
	require.NotNil(t, c.Signature())
	assert.True(t, sk.PublicKey.Verify(c.Signature(), []byte(c.CanonicalForm())))
	assert.ErrorIs(t, c.Unblind(), ErrInvalidState)

	share, err := c.Reveal(2, Right)
	require.NoError(t, err)
	assert.Equal(t, Spent, c.State())
	assert.True(t, c.Canonical().VerifyShare(2, Right, share))

	// a spent coin can still be presented; the bank catches the second spend
	_, err = c.Reveal(2, Left)
	assert.NoError(t, err)
	assert.NotNil(t, c.Signature())

	_, err = c.Reveal(4, Left)
	assert.Error(t, err)
	_, err = c.Reveal(-1, Left)
	assert.Error(t, err)
	_, err = c.Reveal(0, Side(2))
	assert.Error(t, err)
}

func TestUnblindWrongSignature(t *testing.T) {
	sk, other := test.SecretKey(0), test.SecretKey(1)
	c, err := New(rand.Reader, sk.PublicKey, params.BankTag, "carol", 1, 3)
	require.NoError(t, err)
	blinded, err := c.Blinded()
	require.NoError(t, err)

	bogus := new(saferith.Nat).SetUint64(12345)
	require.NoError(t, c.AttachBlindSignature(bogus))
	assert.ErrorIs(t, c.Unblind(), blind.ErrInvalidSignature)
	assert.Equal(t, Blinded, c.State(), "a rejected signature should be discarded")

	// a signature from another bank is rejected too; reducing modulo our N keeps it in range
	wrong, err := other.Sign(new(saferith.Nat).Mod(blinded, other.N()))
	require.NoError(t, err)
	require.NoError(t, c.AttachBlindSignature(new(saferith.Nat).Mod(wrong, sk.N())))
	assert.ErrorIs(t, c.Unblind(), blind.ErrInvalidSignature)

	blindSig, err := sk.Sign(blinded)
	require.NoError(t, err)
	require.NoError(t, c.AttachBlindSignature(blindSig))
	require.NoError(t, c.Unblind())
}

func TestRevealCopies(t *testing.T) {
	c := issue(t, test.SecretKey(0), "dave", 1, 2)
	share, err := c.Reveal(0, Left)
	require.NoError(t, err)
	share[0] ^= 0xff
	again, err := c.Reveal(0, Left)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(share, again), "revealed share should not alias the coin's secret")
	assert.True(t, c.Canonical().VerifyShare(0, Left, again))
}

func TestConcurrentReveal(t *testing.T) {
	c := issue(t, test.SecretKey(0), "erin", 3, params.SplitCount)
	var wg sync.WaitGroup
	for side := Left; side <= Right; side++ {
		wg.Add(1)
		go func(side Side) {
			defer wg.Done()
			for i := 0; i < c.SplitCount(); i++ {
				value, err := c.Reveal(i, side)
				assert.NoError(t, err)
				assert.True(t, c.Canonical().VerifyShare(i, side, value))
			}
		}(side)
	}
	wg.Wait()
	assert.Equal(t, Spent, c.State())
}

func TestSide(t *testing.T) {
	assert.Equal(t, Right, Left.Other())
	assert.Equal(t, Left, Right.Other())
	assert.Equal(t, "left", Left.String())
	assert.Equal(t, "right", Right.String())
	assert.False(t, Side(7).Valid())
	assert.Equal(t, "spent", Spent.String())
}
