package fixed

import (
	"strconv"
	"strings"

	"github.com/yanun0323/decimal"
)

// FromString parses a decimal string into a scaled int64 without going
// through float64, so every value representable at the scale round
// trips exactly.
func FromString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ConversionError{Input: s, Reason: "empty"}
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" || s == "." {
		return 0, &ConversionError{Input: s, Reason: "no digits"}
	}

	intStr, fracStr := s, ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intStr, fracStr = s[:idx], s[idx+1:]
	}
	if intStr == "" {
		intStr = "0"
	}
	if len(fracStr) > Digits {
		for _, c := range fracStr[Digits:] {
			if c != '0' {
				return 0, &ConversionError{Input: s, Reason: "too many decimal places"}
			}
		}
		fracStr = fracStr[:Digits]
	}

	intPart, err := strconv.ParseUint(intStr, 10, 64)
	if err != nil {
		return 0, &ConversionError{Input: s, Reason: "invalid integer part"}
	}

	var fracPart uint64
	if fracStr != "" {
		fracPart, err = strconv.ParseUint(fracStr, 10, 64)
		if err != nil {
			return 0, &ConversionError{Input: s, Reason: "invalid fraction part"}
		}
		for i := len(fracStr); i < Digits; i++ {
			fracPart *= 10
		}
	}

	limit := uint64(maxInt64)
	if neg {
		limit++
	}
	if intPart > limit/uint64(Scale) {
		return 0, &ConversionError{Input: s, Reason: "out of range"}
	}
	value := intPart * uint64(Scale)
	if value > limit-fracPart {
		return 0, &ConversionError{Input: s, Reason: "out of range"}
	}
	value += fracPart

	if neg {
		return -int64(value), nil
	}
	return int64(value), nil
}

// FromDecimal converts a decimal value parsed at the config boundary
// into a scaled int64.
func FromDecimal(d decimal.Decimal) (int64, error) {
	return FromString(d.String())
}

// AppendString formats a scaled int64 as a decimal string.
func AppendString(buf []byte, value int64) []byte {
	neg := value < 0
	u := uint64(value)
	if neg {
		u = uint64(^value) + 1
	}

	var tmp [32]byte
	digits := strconv.AppendUint(tmp[:0], u, 10)

	if neg {
		buf = append(buf, '-')
	}
	if len(digits) <= Digits {
		buf = append(buf, '0', '.')
		for i := 0; i < Digits-len(digits); i++ {
			buf = append(buf, '0')
		}
		return append(buf, digits...)
	}
	idx := len(digits) - Digits
	buf = append(buf, digits[:idx]...)
	buf = append(buf, '.')
	return append(buf, digits[idx:]...)
}
