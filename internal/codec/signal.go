package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const SignalPayloadSize = 48

// EncodeSignal serializes a strategy signal into a fixed-size payload.
func EncodeSignal(dst []byte, sig schema.Signal) []byte {
	if cap(dst) < SignalPayloadSize {
		dst = make([]byte, SignalPayloadSize)
	} else {
		dst = dst[:SignalPayloadSize]
	}

	binary.LittleEndian.PutUint16(dst[0:2], uint16(sig.Action))
	binary.LittleEndian.PutUint16(dst[2:4], sig.Flags)
	binary.LittleEndian.PutUint32(dst[4:8], 0)
	binary.LittleEndian.PutUint64(dst[8:16], uint64(sig.BidPrice))
	binary.LittleEndian.PutUint64(dst[16:24], uint64(sig.BidSize))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(sig.AskPrice))
	binary.LittleEndian.PutUint64(dst[32:40], uint64(sig.AskSize))
	binary.LittleEndian.PutUint64(dst[40:48], uint64(sig.TsNano))

	return dst
}

// DecodeSignal parses a fixed-size signal payload.
func DecodeSignal(src []byte) (schema.Signal, bool) {
	if len(src) < SignalPayloadSize {
		return schema.Signal{}, false
	}
	return schema.Signal{
		Action:   schema.SignalAction(binary.LittleEndian.Uint16(src[0:2])),
		Flags:    binary.LittleEndian.Uint16(src[2:4]),
		BidPrice: schema.Price(int64(binary.LittleEndian.Uint64(src[8:16]))),
		BidSize:  schema.Quantity(int64(binary.LittleEndian.Uint64(src[16:24]))),
		AskPrice: schema.Price(int64(binary.LittleEndian.Uint64(src[24:32]))),
		AskSize:  schema.Quantity(int64(binary.LittleEndian.Uint64(src[32:40]))),
		TsNano:   int64(binary.LittleEndian.Uint64(src[40:48])),
	}, true
}
