package coin

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/ecash/internal/hash"
	"github.com/taurusgroup/ecash/internal/params"
	"github.com/taurusgroup/ecash/internal/test"
)

func TestFormatParse(t *testing.T) {
	c, err := New(rand.Reader, test.SecretKey(0).PublicKey, params.BankTag, "alice", 20, params.SplitCount)
	require.NoError(t, err)

	parsed, err := Parse(c.CanonicalForm())
	require.NoError(t, err)
	assert.Equal(t, c.Canonical(), parsed)
	assert.Equal(t, c.CanonicalForm(), Format(parsed))
	assert.Equal(t, c.CanonicalForm(), parsed.String())
	assert.Equal(t, params.SplitCount, parsed.SplitCount())
	assert.NoError(t, parsed.Check(params.BankTag, params.SplitCount))
	assert.ErrorIs(t, parsed.Check("OTHER", params.SplitCount), ErrMalformedCoin)
	assert.ErrorIs(t, parsed.Check(params.BankTag, params.SplitCount-1), ErrMalformedCoin)
}

func sampleCanonical(t *testing.T) *Canonical {
	identifier := make([]byte, params.IdentifierBytes)
	_, err := rand.Read(identifier)
	require.NoError(t, err)
	c := &Canonical{Tag: "BANK", Amount: 7, Identifier: identifier}
	for i := 0; i < 3; i++ {
		l, err := hash.Commit("left", i)
		require.NoError(t, err)
		r, err := hash.Commit("right", i)
		require.NoError(t, err)
		c.Left = append(c.Left, l)
		c.Right = append(c.Right, r)
	}
	return c
}

func TestParseMalformed(t *testing.T) {
	c := sampleCanonical(t)
	valid := Format(c)
	fields := strings.Split(valid, "-")
	_, err := Parse(valid)
	require.NoError(t, err)

	replace := func(i int, value string) string {
		f := append([]string(nil), fields...)
		f[i] = value
		return strings.Join(f, "-")
	}
	left := strings.Split(fields[3], ",")

	tests := map[string]string{
		"empty":               "",
		"too few fields":      strings.Join(fields[:4], "-"),
		"too many fields":     valid + "-" + fields[4],
		"empty tag":           replace(0, ""),
		"comma in tag":        replace(0, "BA,NK"),
		"zero amount":         replace(1, "0"),
		"leading zero":        replace(1, "07"),
		"signed amount":       replace(1, "+7"),
		"negative amount":     replace(1, "−7"),
		"non decimal amount":  replace(1, "0x7"),
		"amount overflow":     replace(1, "18446744073709551616"),
		"uppercase id":        replace(2, strings.ToUpper(fields[2])),
		"odd id":              replace(2, fields[2][1:]),
		"short id":            replace(2, fields[2][:32]),
		"empty left":          replace(3, ""),
		"empty right":         replace(4, ""),
		"unequal lists":       replace(3, strings.Join(left[:2], ",")),
		"short hash":          replace(3, strings.Join(append([]string{left[0][:62]}, left[1:]...), ",")),
		"long hash":           replace(3, strings.Join(append([]string{left[0] + "00"}, left[1:]...), ",")),
		"non hex hash":        replace(3, strings.Join(append([]string{"zz" + left[0][2:]}, left[1:]...), ",")),
		"uppercase hash":      replace(3, strings.ToUpper(fields[3])),
		"trailing comma":      replace(3, fields[3]+","),
		"space in hash list":  replace(3, strings.Join(left, ", ")),
		"whitespace suffix":   valid + " ",
	}
	for name, s := range tests {
		t.Run(name, func(t *testing.T) {
			parsed, err := Parse(s)
			assert.ErrorIs(t, err, ErrMalformedCoin)
			assert.Nil(t, parsed)
		})
	}
}

func TestVerifyShare(t *testing.T) {
	c := issue(t, test.SecretKey(0), "alice", 1, 4)
	canonical := c.Canonical()
	value, err := c.Reveal(1, Left)
	require.NoError(t, err)

	assert.True(t, canonical.VerifyShare(1, Left, value))
	assert.False(t, canonical.VerifyShare(0, Left, value), "commitments are bound to their position")
	assert.False(t, canonical.VerifyShare(1, Right, value), "commitments are bound to their side")
	assert.False(t, canonical.VerifyShare(4, Left, value))
	assert.False(t, canonical.VerifyShare(1, Side(3), value))

	value[0] ^= 1
	assert.False(t, canonical.VerifyShare(1, Left, value))

	_, err = canonical.Commitment(-1, Left)
	assert.Error(t, err)
}
