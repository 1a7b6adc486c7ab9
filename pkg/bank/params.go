package bank

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/ecash/pkg/blind"
	"github.com/taurusgroup/ecash/pkg/coin"
)

// Params are the public parameters of a bank. Purchasers need them to build coins,
// and merchants to accept them.
type Params struct {
	// Tag leads the canonical form of every coin issued by the bank.
	Tag string
	// SplitCount is the number of identity challenges in every coin.
	SplitCount int
	// PublicKey verifies the bank's signatures.
	PublicKey *blind.PublicKey
}

// Validate checks that p describes a usable bank.
func (p Params) Validate() error {
	if err := coin.ValidateTag(p.Tag); err != nil {
		return fmt.Errorf("bank: %w", err)
	}
	if p.SplitCount < 1 {
		return fmt.Errorf("bank: split count %d is not positive", p.SplitCount)
	}
	if err := p.PublicKey.Validate(); err != nil {
		return fmt.Errorf("bank: %w", err)
	}
	return nil
}

type paramsMarshal struct {
	Tag        string
	SplitCount int
	PublicKey  cbor.RawMessage
}

// MarshalBinary encodes the parameters with CBOR.
func (p *Params) MarshalBinary() ([]byte, error) {
	if p.PublicKey == nil {
		return nil, errors.New("bank: params have no public key")
	}
	pk, err := p.PublicKey.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(&paramsMarshal{
		Tag:        p.Tag,
		SplitCount: p.SplitCount,
		PublicKey:  pk,
	})
}

// UnmarshalBinary decodes parameters produced by MarshalBinary, and validates them.
func (p *Params) UnmarshalBinary(data []byte) error {
	var pm paramsMarshal
	if err := cbor.Unmarshal(data, &pm); err != nil {
		return err
	}
	pk := new(blind.PublicKey)
	if err := pk.UnmarshalBinary(pm.PublicKey); err != nil {
		return err
	}
	out := Params{
		Tag:        pm.Tag,
		SplitCount: pm.SplitCount,
		PublicKey:  pk,
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*p = out
	return nil
}
