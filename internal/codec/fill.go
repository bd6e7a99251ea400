package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const FillPayloadSize = 56

// EncodeFill serializes a fill into a fixed-size payload.
func EncodeFill(dst []byte, fill schema.Fill) []byte {
	if cap(dst) < FillPayloadSize {
		dst = make([]byte, FillPayloadSize)
	} else {
		dst = dst[:FillPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], uint64(fill.OrderID))
	binary.LittleEndian.PutUint64(dst[8:16], fill.MarketID)
	binary.LittleEndian.PutUint16(dst[16:18], uint16(fill.Side))
	binary.LittleEndian.PutUint16(dst[18:20], fill.Flags)
	binary.LittleEndian.PutUint32(dst[20:24], 0)
	binary.LittleEndian.PutUint64(dst[24:32], uint64(fill.Price))
	binary.LittleEndian.PutUint64(dst[32:40], uint64(fill.Qty))
	binary.LittleEndian.PutUint64(dst[40:48], uint64(fill.Fee))
	binary.LittleEndian.PutUint64(dst[48:56], uint64(fill.TsNano))

	return dst
}

// DecodeFill parses a fixed-size fill payload.
func DecodeFill(src []byte) (schema.Fill, bool) {
	if len(src) < FillPayloadSize {
		return schema.Fill{}, false
	}
	return schema.Fill{
		OrderID:  schema.OrderID(binary.LittleEndian.Uint64(src[0:8])),
		MarketID: binary.LittleEndian.Uint64(src[8:16]),
		Side:     schema.OrderSide(binary.LittleEndian.Uint16(src[16:18])),
		Flags:    binary.LittleEndian.Uint16(src[18:20]),
		Price:    schema.Price(int64(binary.LittleEndian.Uint64(src[24:32]))),
		Qty:      schema.Quantity(int64(binary.LittleEndian.Uint64(src[32:40]))),
		Fee:      schema.Fee(int64(binary.LittleEndian.Uint64(src[40:48]))),
		TsNano:   int64(binary.LittleEndian.Uint64(src[48:56])),
	}, true
}
