// Package fixed provides checked arithmetic and conversions for scaled
// int64 values with 9 decimal places. Every operation that can wrap
// returns an explicit error; nothing in this package saturates or
// silently truncates.
package fixed

import (
	"fmt"
	"math"
	"math/bits"
)

// Scale is 10^Digits, the scaling factor of every fixed-point value.
const (
	Digits       = 9
	Scale  int64 = 1_000_000_000
)

const (
	maxInt64 = math.MaxInt64
	minInt64 = math.MinInt64
)

// OverflowError reports an arithmetic operation whose result does not
// fit in int64.
type OverflowError struct {
	Op string
	A  int64
	B  int64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("fixed: %s overflow: a=%d b=%d", e.Op, e.A, e.B)
}

// ConversionError reports a value that cannot be represented as a
// scaled int64.
type ConversionError struct {
	Input  string
	Reason string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("fixed: cannot convert %q: %s", e.Input, e.Reason)
}

// Add returns a+b or an OverflowError.
func Add(a, b int64) (int64, error) {
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		return 0, &OverflowError{Op: "add", A: a, B: b}
	}
	return sum, nil
}

// Sub returns a-b or an OverflowError.
func Sub(a, b int64) (int64, error) {
	diff := a - b
	if (a >= 0 && b < 0 && diff < 0) || (a < 0 && b > 0 && diff >= 0) {
		return 0, &OverflowError{Op: "sub", A: a, B: b}
	}
	return diff, nil
}

// Mul returns a*b or an OverflowError.
func Mul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/b != a {
		return 0, &OverflowError{Op: "mul", A: a, B: b}
	}
	return product, nil
}

// MulDiv returns a*b/div using a 128-bit intermediate so that the
// product itself may exceed int64 as long as the quotient fits.
func MulDiv(a, b, div int64) (int64, error) {
	if div == 0 {
		return 0, &OverflowError{Op: "muldiv", A: a, B: b}
	}
	if a == 0 || b == 0 {
		return 0, nil
	}

	neg := false
	ua, ub, udiv := absU64(a), absU64(b), absU64(div)
	if (a < 0) != (b < 0) {
		neg = !neg
	}
	if div < 0 {
		neg = !neg
	}

	hi, lo := bits.Mul64(ua, ub)
	if hi >= udiv {
		return 0, &OverflowError{Op: "muldiv", A: a, B: b}
	}
	quo, _ := bits.Div64(hi, lo, udiv)

	if neg {
		if quo > uint64(maxInt64)+1 {
			return 0, &OverflowError{Op: "muldiv", A: a, B: b}
		}
		return -int64(quo), nil
	}
	if quo > uint64(maxInt64) {
		return 0, &OverflowError{Op: "muldiv", A: a, B: b}
	}
	return int64(quo), nil
}

// MulScaled multiplies two scaled values, keeping the scale:
// result = a*b/Scale.
func MulScaled(a, b int64) (int64, error) {
	return MulDiv(a, b, Scale)
}

// FromFloat converts a float to a scaled int64, rejecting values that
// cannot be represented.
func FromFloat(v float64) (int64, error) {
	if math.IsNaN(v) {
		return 0, &ConversionError{Input: "NaN", Reason: "not a number"}
	}
	if math.IsInf(v, 0) {
		return 0, &ConversionError{Input: "Inf", Reason: "infinite"}
	}
	scaled := v * float64(Scale)
	if scaled >= float64(maxInt64) || scaled <= float64(minInt64) {
		return 0, &ConversionError{Input: fmt.Sprintf("%g", v), Reason: "out of range"}
	}
	return int64(math.Round(scaled)), nil
}

// ToFloat converts a scaled int64 back to a float. Precision loss is
// acceptable only for display.
func ToFloat(v int64) float64 {
	return float64(v) / float64(Scale)
}

func absU64(v int64) uint64 {
	if v < 0 {
		return uint64(^v) + 1
	}
	return uint64(v)
}
