package hash

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/ecash/internal/params"
	"github.com/zeebo/blake3"
)

// DigestLengthBytes is the size of a commitment, 256 bits.
const DigestLengthBytes = params.HashBytes

// Hash is the hash function we use for share commitments.
//
// Internally, this is a wrapper around blake3.Hasher, where every value
// written is domain separated.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash struct where the internal hash function is initialized with
// the given domain.
func New(domain string) *Hash {
	hash := &Hash{h: blake3.New()}
	_ = writeWithDomain(hash.h, BytesWithDomain{
		TheDomain: "ecash",
		Bytes:     []byte(domain),
	})
	return hash
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of random bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// SumHex returns Sum as a lowercase hexadecimal string.
func (hash *Hash) SumHex() string {
	return hex.EncodeToString(hash.Sum())
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - []byte
//   - string
//   - int, uint64
//   - *saferith.Nat
//   - hash.WriterToWithDomain
//
// This function will apply its own domain separation for the first types.
// The last type already suggests which domain to use, and this function respects it.
func (hash *Hash) WriteAny(data ...interface{}) error {
	var toBeWritten WriterToWithDomain
	for _, d := range data {
		switch t := d.(type) {
		case []byte:
			if t == nil {
				t = []byte{}
			}
			toBeWritten = &BytesWithDomain{"[]byte", t}
		case string:
			toBeWritten = &BytesWithDomain{"string", []byte(t)}
		case int:
			if t < 0 {
				return fmt.Errorf("hash.Hash: write int: negative value %d", t)
			}
			toBeWritten = &BytesWithDomain{"uint64", uint64Bytes(uint64(t))}
		case uint64:
			toBeWritten = &BytesWithDomain{"uint64", uint64Bytes(t)}
		case *saferith.Nat:
			if t == nil {
				return fmt.Errorf("hash.Hash: write *saferith.Nat: nil")
			}
			toBeWritten = &BytesWithDomain{"saferith.Nat", t.Bytes()}
		case WriterToWithDomain:
			toBeWritten = t
		default:
			panic("hash.Hash: unsupported type")
		}
		if err := writeWithDomain(hash.h, toBeWritten); err != nil {
			return fmt.Errorf("hash.Hash: write %s: %w", toBeWritten.Domain(), err)
		}
	}
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}

func uint64Bytes(x uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], x)
	return b[:]
}
