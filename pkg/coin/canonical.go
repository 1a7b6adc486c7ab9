package coin

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/taurusgroup/ecash/internal/hash"
	"github.com/taurusgroup/ecash/internal/params"
)

const (
	fieldSeparator = "-"
	listSeparator  = ","
	fieldCount     = 5

	shareDomain = "ecash/share"
)

// Canonical is the parsed form of the string a bank signs:
//
//	<tag>-<amount>-<identifier>-<L₁,…,Lₙ>-<R₁,…,Rₙ>
//
// where the identifier and all commitments are lowercase hex.
type Canonical struct {
	Tag        string
	Amount     uint64
	Identifier []byte
	// Left[i] and Right[i] commit to the shares at position i.
	Left, Right []hash.Commitment
}

// SplitCount returns the number of positions.
func (c *Canonical) SplitCount() int {
	return len(c.Left)
}

// String returns the canonical encoding of c.
func (c *Canonical) String() string {
	return Format(c)
}

// Format encodes c. Parse(Format(c)) returns a Canonical equal to c.
func Format(c *Canonical) string {
	var b strings.Builder
	b.WriteString(c.Tag)
	b.WriteString(fieldSeparator)
	b.WriteString(strconv.FormatUint(c.Amount, 10))
	b.WriteString(fieldSeparator)
	b.WriteString(hex.EncodeToString(c.Identifier))
	for _, list := range [][]hash.Commitment{c.Left, c.Right} {
		b.WriteString(fieldSeparator)
		for i, h := range list {
			if i > 0 {
				b.WriteString(listSeparator)
			}
			b.WriteString(h.String())
		}
	}
	return b.String()
}

// Parse decodes a canonical form. The decoding is strict: only strings produced by
// Format are accepted, every other input fails with ErrMalformedCoin.
func Parse(s string) (*Canonical, error) {
	fields := strings.Split(s, fieldSeparator)
	if len(fields) != fieldCount {
		return nil, fmt.Errorf("%w: got %d fields, expected %d", ErrMalformedCoin, len(fields), fieldCount)
	}
	tag := fields[0]
	if err := ValidateTag(tag); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCoin, err)
	}

	amount, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %w", ErrMalformedCoin, err)
	}
	if amount == 0 {
		return nil, fmt.Errorf("%w: amount is zero", ErrMalformedCoin)
	}
	if strconv.FormatUint(amount, 10) != fields[1] {
		return nil, fmt.Errorf("%w: amount %q is not in canonical decimal form", ErrMalformedCoin, fields[1])
	}

	identifier, err := hex.DecodeString(fields[2])
	if err != nil {
		return nil, fmt.Errorf("%w: identifier: %w", ErrMalformedCoin, err)
	}
	if hex.EncodeToString(identifier) != fields[2] {
		return nil, fmt.Errorf("%w: identifier is not lowercase hex", ErrMalformedCoin)
	}
	if len(identifier) < params.IdentifierBytes {
		return nil, fmt.Errorf("%w: identifier has %d bytes, need at least %d", ErrMalformedCoin, len(identifier), params.IdentifierBytes)
	}

	left, err := parseList(fields[3])
	if err != nil {
		return nil, fmt.Errorf("%w: left commitments: %w", ErrMalformedCoin, err)
	}
	right, err := parseList(fields[4])
	if err != nil {
		return nil, fmt.Errorf("%w: right commitments: %w", ErrMalformedCoin, err)
	}
	if len(left) != len(right) {
		return nil, fmt.Errorf("%w: %d left commitments but %d right commitments", ErrMalformedCoin, len(left), len(right))
	}

	return &Canonical{
		Tag:        tag,
		Amount:     amount,
		Identifier: identifier,
		Left:       left,
		Right:      right,
	}, nil
}

func parseList(field string) ([]hash.Commitment, error) {
	if field == "" {
		return nil, fmt.Errorf("empty list")
	}
	parts := strings.Split(field, listSeparator)
	list := make([]hash.Commitment, 0, len(parts))
	for i, part := range parts {
		c, err := hash.CommitmentFromHex(part)
		if err != nil {
			return nil, Error{Position: i, Err: err}
		}
		list = append(list, c)
	}
	return list, nil
}

// ValidateTag checks that tag can lead a canonical form: it must be non-empty and
// free of separators.
func ValidateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("empty tag")
	}
	if strings.ContainsAny(tag, fieldSeparator+listSeparator) {
		return fmt.Errorf("tag %q contains a separator", tag)
	}
	return nil
}

// Commitment returns the published commitment to the share at (position, side).
func (c *Canonical) Commitment(position int, side Side) (hash.Commitment, error) {
	if position < 0 || position >= len(c.Left) {
		return nil, fmt.Errorf("position %d out of range [0, %d)", position, len(c.Left))
	}
	switch side {
	case Left:
		return c.Left[position], nil
	case Right:
		return c.Right[position], nil
	default:
		return nil, fmt.Errorf("invalid %s", side)
	}
}

// VerifyShare checks value against the published commitment at (position, side).
func (c *Canonical) VerifyShare(position int, side Side, value []byte) bool {
	commitment, err := c.Commitment(position, side)
	if err != nil {
		return false
	}
	return hash.Decommit(commitment, shareDomain, position, side.String(), value)
}

func commitShare(position int, side Side, value []byte) (hash.Commitment, error) {
	return hash.Commit(shareDomain, position, side.String(), value)
}
