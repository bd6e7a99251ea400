package schema

import "strconv"

// FixedScale is the number of decimal places carried by every scaled
// integer in the system. One unit of Price is 1e-9 of the quote currency.
const FixedScale = 9

// FixedUnit is 10^FixedScale.
const FixedUnit int64 = 1_000_000_000

// Price is a scaled integer with FixedScale decimal places.
type Price int64

func (p Price) AppendString(buf []byte) []byte {
	return appendScaledInt(buf, int64(p), FixedScale)
}

func (p Price) String() string {
	return string(p.AppendString(nil))
}

// Quantity is a scaled integer with FixedScale decimal places.
type Quantity int64

func (q Quantity) AppendString(buf []byte) []byte {
	return appendScaledInt(buf, int64(q), FixedScale)
}

func (q Quantity) String() string {
	return string(q.AppendString(nil))
}

// Notional is a scaled integer with FixedScale decimal places.
type Notional int64

func (n Notional) AppendString(buf []byte) []byte {
	return appendScaledInt(buf, int64(n), FixedScale)
}

func (n Notional) String() string {
	return string(n.AppendString(nil))
}

// Fee is a scaled integer with FixedScale decimal places.
// Negative fees are rebates.
type Fee int64

func (f Fee) AppendString(buf []byte) []byte {
	return appendScaledInt(buf, int64(f), FixedScale)
}

func (f Fee) String() string {
	return string(f.AppendString(nil))
}

func appendScaledInt(buf []byte, value int64, scale int) []byte {
	if scale <= 0 {
		return strconv.AppendInt(buf, value, 10)
	}

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

	if len(digits) <= scale {
		buf = append(buf, '0', '.')
		for i := 0; i < scale-len(digits); i++ {
			buf = append(buf, '0')
		}
		buf = append(buf, digits...)
		return buf
	}

	idx := len(digits) - scale
	buf = append(buf, digits[:idx]...)
	buf = append(buf, '.')
	buf = append(buf, digits[idx:]...)
	return buf
}
