package params

const (
	SecParam = 256
	SecBytes = SecParam / 8

	// MinBitsModulus is the smallest RSA modulus a bank may use.
	MinBitsModulus = 2048
	BitsModulus    = MinBitsModulus
	BitsPrime      = BitsModulus / 2

	// PublicExponent is the RSA verification exponent e.
	PublicExponent = 65537

	// SplitCount is the number of identity challenges embedded in every coin.
	// A double spend goes unnoticed only if two merchants choose the same side at
	// every position, which happens with probability 2⁻ˢᵖˡⁱᵗᶜᵒᵘⁿᵗ.
	SplitCount = 20

	// IdentifierBytes is the number of random bytes making up a coin's serial.
	IdentifierBytes = 48

	HashBytes     = SecBytes      // = 32
	HashHexLength = 2 * HashBytes // = 64

	// IdentityPrefix is prepended to the purchaser's name before it is split into pads.
	IdentityPrefix = "IDENT:"

	// BankTag is the default tag leading every canonical coin string.
	BankTag = "ECASH"
)
