package blind

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
)

var (
	_ json.Marshaler             = (*PublicKey)(nil)
	_ json.Unmarshaler           = (*PublicKey)(nil)
	_ json.Marshaler             = (*SecretKey)(nil)
	_ json.Unmarshaler           = (*SecretKey)(nil)
	_ encoding.BinaryMarshaler   = (*PublicKey)(nil)
	_ encoding.BinaryUnmarshaler = (*PublicKey)(nil)
	_ encoding.BinaryMarshaler   = (*SecretKey)(nil)
	_ encoding.BinaryUnmarshaler = (*SecretKey)(nil)
)

type publicKeyMarshal struct {
	N []byte `json:"n"`
	E uint64 `json:"e"`
}

type secretKeyMarshal struct {
	P []byte `json:"p"`
	Q []byte `json:"q"`
	E uint64 `json:"e"`
}

func (pk *PublicKey) toMarshal() (*publicKeyMarshal, error) {
	if pk == nil || pk.n == nil {
		return nil, errors.New("blind: cannot marshal empty public key")
	}
	return &publicKeyMarshal{N: pk.n.Nat().Big().Bytes(), E: pk.e}, nil
}

func (pk *PublicKey) fromMarshal(x *publicKeyMarshal) error {
	if len(x.N) == 0 {
		return errors.New("blind: public key has no modulus")
	}
	*pk = *NewPublicKey(saferith.ModulusFromBytes(x.N), x.E)
	if err := pk.Validate(); err != nil {
		return fmt.Errorf("blind: invalid public key: %w", err)
	}
	return nil
}

func (sk *SecretKey) toMarshal() (*secretKeyMarshal, error) {
	if sk == nil || sk.PublicKey == nil {
		return nil, errors.New("blind: cannot marshal empty secret key")
	}
	return &secretKeyMarshal{
		P: sk.p.Big().Bytes(),
		Q: sk.q.Big().Bytes(),
		E: sk.e,
	}, nil
}

func (sk *SecretKey) fromMarshal(x *secretKeyMarshal) error {
	out, err := NewSecretKeyFromPrimes(new(big.Int).SetBytes(x.P), new(big.Int).SetBytes(x.Q), x.E)
	if err != nil {
		return fmt.Errorf("blind: invalid secret key: %w", err)
	}
	*sk = *out
	return nil
}

func (pk PublicKey) MarshalJSON() ([]byte, error) {
	x, err := pk.toMarshal()
	if err != nil {
		return nil, err
	}
	return json.Marshal(x)
}

func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var x publicKeyMarshal
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	return pk.fromMarshal(&x)
}

// MarshalBinary encodes (N, e) with CBOR.
func (pk *PublicKey) MarshalBinary() ([]byte, error) {
	x, err := pk.toMarshal()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(x)
}

// UnmarshalBinary decodes a key produced by MarshalBinary, and validates it.
func (pk *PublicKey) UnmarshalBinary(data []byte) error {
	var x publicKeyMarshal
	if err := cbor.Unmarshal(data, &x); err != nil {
		return err
	}
	return pk.fromMarshal(&x)
}

func (sk SecretKey) MarshalJSON() ([]byte, error) {
	x, err := sk.toMarshal()
	if err != nil {
		return nil, err
	}
	return json.Marshal(x)
}

func (sk *SecretKey) UnmarshalJSON(data []byte) error {
	var x secretKeyMarshal
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	return sk.fromMarshal(&x)
}

// MarshalBinary encodes the factors of N and e with CBOR. d is recomputed on decoding.
func (sk *SecretKey) MarshalBinary() ([]byte, error) {
	x, err := sk.toMarshal()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(x)
}

// UnmarshalBinary decodes a key produced by MarshalBinary, and validates it.
func (sk *SecretKey) UnmarshalBinary(data []byte) error {
	var x secretKeyMarshal
	if err := cbor.Unmarshal(data, &x); err != nil {
		return err
	}
	return sk.fromMarshal(&x)
}
