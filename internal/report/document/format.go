package document

import (
	"math"
	"math/big"
	"strings"
)

// NotAvailable is rendered for every absent numeric value.
const NotAvailable = "N/A"

func absent(v *float64) bool {
	return v == nil || math.IsNaN(*v) || math.IsInf(*v, 0)
}

// FractionPercent renders a share stored as a fraction: 0.25 -> "25.0%".
func FractionPercent(v *float64) string {
	if absent(v) {
		return NotAvailable
	}
	scaled := *v * 100
	if math.IsInf(scaled, 0) {
		return NotAvailable
	}
	return toFixed(scaled, 1) + "%"
}

// Percent renders a value already stored as a percentage: 10 -> "10.0%".
func Percent(v *float64) string {
	if absent(v) {
		return NotAvailable
	}
	return toFixed(*v, 1) + "%"
}

// Rating renders a score out of ten: 7.25 -> "7.3/10".
func Rating(v *float64) string {
	if absent(v) {
		return NotAvailable
	}
	return toFixed(*v, 1) + "/10"
}

// Score renders a whole-number score: 72.5 -> "73".
func Score(v *float64) string {
	if absent(v) {
		return NotAvailable
	}
	return toFixed(*v, 0)
}

// toFixed formats x with the given number of decimals the way
// Number.prototype.toFixed does: the exact binary value is rounded and
// exact ties go away from zero, so 0.125 becomes "0.13" rather than "0.12".
func toFixed(x float64, digits int) string {
	neg := x < 0
	if neg {
		x = -x
	}

	r := new(big.Rat).SetFloat64(x)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	r.Add(r, big.NewRat(1, 2))
	n := new(big.Int).Quo(r.Num(), r.Denom())

	s := n.String()
	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}
	if neg {
		s = "-" + s
	}
	return s
}
