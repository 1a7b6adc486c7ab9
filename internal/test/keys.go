package test

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/taurusgroup/ecash/internal/params"
	"github.com/taurusgroup/ecash/pkg/blind"
)

// fixedPrimes holds 1024-bit primes p, q with gcd(e, p-1) = gcd(e, q-1) = 1,
// so that tests do not have to search for primes.
var fixedPrimes = [][2]string{
	{
		"D08769E92F80F7FDFB85EC02AFFDAED0FDE2782070757F191DCDC4D108110AC1E31C07FC253B5F7B91C5D9F203AA0572D3F2062A3D2904C535C6ACCA7D5674E1C2640720E762C72B66931F483C2D910908CF02EA6723A0CBBB1016CA696C38FEAC59B31E40584C8141889A11F7A38F5B17811D11F42CD15B8470F11C6183802B",
		"C21239C3484FC3C8409F40A9A22FABFFE26CA10C27506E3E017C2EC8C4B98D7A6D30DED0686869884BE9BAD27F5241B7313F73D19E9E4B384FABF9554B5BB4D517CBAC0268420C63D545612C9ADABEEDF20F94244E7F8F2080B0C675AC98D97C580D43375F999B1AC127EC580B89B2D302EF33DD5FD8474A241B0398F6088CA7",
	},
	{
		"FEEA48993AAFEB52ED527D5D4F1D1A1209F6504E7A6BCC090A344129E7FAB166C633BE1E8BD56CCAFDDBEFDFD8A15844A615A6AFF9804A1C17A9C3C8570C283053E2FC1BDDDCDFBF9A7A1F55371570F1901CE135D42B917DB3E2048D6E008D72D4850E273828EE8DBD59B1B08CF06A243F5B43A2AB7172E76E976F6474F6FB4D",
		"CD1B180955458AED428D62539522DF2A2A91F831585345D100FFBB7E8F94AF9A12CF91001F10278B18A4E1DFFF38E30CE95A211C8A394D7E9DB37731E0BFB3F4D300EA945F4E648436E67D0A94F18BA8A0D19CAEC40865299D20220381A7ABE8B4AD6BA5933DED6EA8A52155C49D7639622425E0BB293332D6EF42A7D37A8511",
	},
}

// KeyCount is the number of distinct fixed keys available through SecretKey.
var KeyCount = len(fixedPrimes)

var (
	keys     = make([]*blind.SecretKey, len(fixedPrimes))
	keysOnce = make([]sync.Once, len(fixedPrimes))
)

// Primes returns the i-th pair of fixed primes.
func Primes(i int) (p, q *big.Int) {
	p, _ = new(big.Int).SetString(fixedPrimes[i][0], 16)
	q, _ = new(big.Int).SetString(fixedPrimes[i][1], 16)
	return
}

// SecretKey returns the i-th fixed 2048-bit bank key. Keys are built once per test binary.
func SecretKey(i int) *blind.SecretKey {
	keysOnce[i].Do(func() {
		p, q := Primes(i)
		sk, err := blind.NewSecretKeyFromPrimes(p, q, params.PublicExponent)
		if err != nil {
			panic(fmt.Sprintf("test: fixed key %d: %v", i, err))
		}
		keys[i] = sk
	})
	return keys[i]
}
