package sample

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/taurusgroup/ecash/pkg/pool"
)

// trialPrimes contains the first 128 odd prime numbers
//
// This amount is chosen to optimize the speed of potentialPrime
// for 1024 bits. This is the main size we need.
var trialPrimes = []uint64{
	3, 5, 7, 11, 13, 17, 19, 23,
	29, 31, 37, 41, 43, 47, 53, 59,
	61, 67, 71, 73, 79, 83, 89, 97,
	101, 103, 107, 109, 113, 127, 131, 137,
	139, 149, 151, 157, 163, 167, 173, 179,
	181, 191, 193, 197, 199, 211, 223, 227,
	229, 233, 239, 241, 251, 257, 263, 269,
	271, 277, 281, 283, 293, 307, 311, 313,
	317, 331, 337, 347, 349, 353, 359, 367,
	373, 379, 383, 389, 397, 401, 409, 419,
	421, 431, 433, 439, 443, 449, 457, 461,
	463, 467, 479, 487, 491, 499, 503, 509,
	521, 523, 541, 547, 557, 563, 569, 571,
	577, 587, 593, 599, 601, 607, 613, 617,
	619, 631, 641, 643, 647, 653, 659, 661,
	673, 677, 683, 691, 701, 709, 719, 727,
	733, 739, 743, 751, 757, 761, 769, 773,
}

// potentialPrime generates a candidate prime, of a certain bit size.
//
// The candidate returned by this function will have undergone trial division
// by the small primes, but not the heavier primality tests like Lucas, or Miller-Rabin.
func potentialPrime(rand io.Reader, bits int) (p *big.Int, err error) {
	// The general strategy is to generate random numbers without an obviously
	// deficient bit pattern, and then check that this number, or one nearby,
	// isn't divisible by any of our trial primes.

	if bits < 16 {
		err = errors.New("math/sample: prime size must be at least 16-bit")
		return
	}

	// The number of significant bits in the first byte of our number
	lastBits := uint(bits % 8)
	if lastBits == 0 {
		lastBits = 8
	}

	bytes := make([]byte, (bits+7)/8)
	p = new(big.Int)
	scratch := new(big.Int)
	// We store a different remainder for each prime, so that we can then adjust
	// these values with deltas, instead of adjusting our large prime, and
	// then recalculating the remainder.
	mods := make([]uint64, len(trialPrimes))

	for {
		if err = readBits(rand, bytes); err != nil {
			return nil, err
		}

		// Clear bits in the first byte to make sure the candidate has a size <= bits.
		bytes[0] &= uint8(int(1<<lastBits) - 1)
		// Setting the top two bits, rather than just the top bit,
		// means that when two of these values are multiplied together,
		// the result isn't ever one bit short.
		if lastBits >= 2 {
			bytes[0] |= 0b11 << (lastBits - 2)
		} else {
			bytes[0] |= 1
			bytes[1] |= 0b1000_0000
		}
		// odd
		bytes[len(bytes)-1] |= 1

		p.SetBytes(bytes)

		for i := 0; i < len(trialPrimes); i++ {
			scratch.SetUint64(trialPrimes[i])
			mods[i] = scratch.Mod(p, scratch).Uint64()
		}
		// This is a heuristic cap used by OpenSSL.
		maxDelta := (uint64(1) << 32) - trialPrimes[len(trialPrimes)-1]
	NextDelta:
		// We add 2 each iteration, to remain odd.
		for delta := uint64(0); delta < maxDelta; delta += 2 {
			for i := 0; i < len(trialPrimes); i++ {
				if (mods[i]+delta)%trialPrimes[i] == 0 {
					continue NextDelta
				}
			}
			scratch.SetUint64(delta)
			p.Add(p, scratch)

			// There is a tiny possibility that, by adding delta, we caused
			// the number to be one bit too long. Thus we check BitLen
			// here.
			if p.BitLen() == bits {
				return
			}
			break
		}
	}
}

// the number of iterations to use when checking primality
//
// More iterations mean fewer false positives, but more expensive calculations.
//
// 20 is the same number that Go uses internally.
const primalityIterations = 20

// maxPrimeIterations is the number of times to try generating a new prime.
const maxPrimeIterations = 100_000

// ErrMaxPrimeIterations is the error we return when we fail to generate a prime.
var ErrMaxPrimeIterations = fmt.Errorf("sample: failed to generate prime after %d iterations", maxPrimeIterations)

var one = big.NewInt(1)

// tryRSAPrime returns a prime p of the given size such that gcd(e, p-1) = 1,
// or nil if the candidate it drew was rejected.
func tryRSAPrime(rand io.Reader, bits int, e *big.Int) (*big.Int, error) {
	p, err := potentialPrime(rand, bits)
	if err != nil {
		return nil, err
	}
	if !p.ProbablyPrime(primalityIterations) {
		return nil, nil
	}
	pMinus1 := new(big.Int).Sub(p, one)
	if new(big.Int).GCD(nil, nil, pMinus1, e).Cmp(one) != 0 {
		return nil, nil
	}
	return p, nil
}

// Prime returns a prime p of exactly bits bits, with gcd(e, p-1) = 1.
func Prime(rand io.Reader, bits int, e uint64) (*big.Int, error) {
	eBig := new(big.Int).SetUint64(e)
	for i := 0; i < maxPrimeIterations; i++ {
		p, err := tryRSAPrime(rand, bits, eBig)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}
	return nil, ErrMaxPrimeIterations
}

// RSA generates two distinct primes p, q of bits bits each, suitable for an RSA
// modulus n = p⋅q with public exponent e.
// The search for both primes is spread over the pool.
func RSA(rand io.Reader, pl *pool.Pool, bits int, e uint64) (p, q *big.Int, err error) {
	reader := pool.NewLockedReader(rand)
	eBig := new(big.Int).SetUint64(e)
	for i := 0; i < maxIterations; i++ {
		var results []interface{}
		results, err = pl.Search(context.Background(), 2, func() (interface{}, error) {
			p, err := tryRSAPrime(reader, bits, eBig)
			// You have to do this, because of how Go handles nil.
			if p == nil {
				return nil, err
			}
			return p, nil
		})
		if err != nil {
			return nil, nil, err
		}
		p, q = results[0].(*big.Int), results[1].(*big.Int)
		if p.Cmp(q) != 0 {
			return p, q, nil
		}
	}
	return nil, nil, ErrMaxIterations
}
