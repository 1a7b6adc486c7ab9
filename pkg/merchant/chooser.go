package merchant

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/taurusgroup/ecash/pkg/coin"
	"github.com/taurusgroup/ecash/pkg/math/sample"
)

// Chooser decides which share a merchant asks for at every position.
type Chooser interface {
	Choose(position int) (coin.Side, error)
}

// RandomChooser draws every side as an unbiased bit from Rand,
// or from crypto/rand if Rand is nil.
type RandomChooser struct {
	Rand io.Reader
}

func (c RandomChooser) Choose(int) (coin.Side, error) {
	r := c.Rand
	if r == nil {
		r = rand.Reader
	}
	b, err := sample.Bit(r)
	if err != nil {
		return 0, err
	}
	return coin.Side(b), nil
}

// FixedChooser asks for FixedChooser[i] at position i.
type FixedChooser []coin.Side

func (c FixedChooser) Choose(position int) (coin.Side, error) {
	if position < 0 || position >= len(c) {
		return 0, fmt.Errorf("merchant: no side fixed for position %d", position)
	}
	return c[position], nil
}

// ChooserFunc adapts a function to the Chooser interface.
type ChooserFunc func(position int) (coin.Side, error)

func (f ChooserFunc) Choose(position int) (coin.Side, error) {
	return f(position)
}
