package arith

import "github.com/cronokirby/saferith"

// IsUnit returns true if x ∈ ℤₙˣ, that is 0 < x < n and gcd(x, n) = 1.
func IsUnit(x *saferith.Nat, n *saferith.Modulus) bool {
	if x == nil || n == nil {
		return false
	}
	if _, _, lt := x.CmpMod(n); lt != 1 {
		return false
	}
	return x.IsUnit(n) == 1
}

// IsReduced returns true if 0 ≤ x < n.
func IsReduced(x *saferith.Nat, n *saferith.Modulus) bool {
	if x == nil || n == nil {
		return false
	}
	_, _, lt := x.CmpMod(n)
	return lt == 1
}
