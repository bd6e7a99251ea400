package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

// SnapshotPayloadSize is the fixed wire size of one market snapshot:
// a 72-byte header, two depth arrays of 16-byte levels, and a flags
// byte padded to 8 bytes.
const SnapshotPayloadSize = 72 + 2*schema.DepthLevels*16 + 8

// EncodeSnapshot serializes a market snapshot into a fixed-size payload.
func EncodeSnapshot(dst []byte, s *schema.MarketSnapshot) []byte {
	if cap(dst) < SnapshotPayloadSize {
		dst = make([]byte, SnapshotPayloadSize)
	} else {
		dst = dst[:SnapshotPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], s.MarketID)
	binary.LittleEndian.PutUint64(dst[8:16], s.Sequence)
	binary.LittleEndian.PutUint64(dst[16:24], uint64(s.ExchangeTsNano))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(s.LocalTsNano))
	binary.LittleEndian.PutUint64(dst[32:40], uint64(s.BestBidPrice))
	binary.LittleEndian.PutUint64(dst[40:48], uint64(s.BestBidSize))
	binary.LittleEndian.PutUint64(dst[48:56], uint64(s.BestAskPrice))
	binary.LittleEndian.PutUint64(dst[56:64], uint64(s.BestAskSize))
	binary.LittleEndian.PutUint64(dst[64:72], 0)

	off := 72
	for i := 0; i < schema.DepthLevels; i++ {
		binary.LittleEndian.PutUint64(dst[off:off+8], uint64(s.Bids[i].Price))
		binary.LittleEndian.PutUint64(dst[off+8:off+16], uint64(s.Bids[i].Size))
		off += 16
	}
	for i := 0; i < schema.DepthLevels; i++ {
		binary.LittleEndian.PutUint64(dst[off:off+8], uint64(s.Asks[i].Price))
		binary.LittleEndian.PutUint64(dst[off+8:off+16], uint64(s.Asks[i].Size))
		off += 16
	}
	dst[off] = s.Flags
	for i := 1; i < 8; i++ {
		dst[off+i] = 0
	}

	return dst
}

// DecodeSnapshot parses a fixed-size market snapshot payload.
func DecodeSnapshot(src []byte) (schema.MarketSnapshot, bool) {
	if len(src) < SnapshotPayloadSize {
		return schema.MarketSnapshot{}, false
	}
	s := schema.MarketSnapshot{
		MarketID:       binary.LittleEndian.Uint64(src[0:8]),
		Sequence:       binary.LittleEndian.Uint64(src[8:16]),
		ExchangeTsNano: int64(binary.LittleEndian.Uint64(src[16:24])),
		LocalTsNano:    int64(binary.LittleEndian.Uint64(src[24:32])),
		BestBidPrice:   schema.Price(int64(binary.LittleEndian.Uint64(src[32:40]))),
		BestBidSize:    schema.Quantity(int64(binary.LittleEndian.Uint64(src[40:48]))),
		BestAskPrice:   schema.Price(int64(binary.LittleEndian.Uint64(src[48:56]))),
		BestAskSize:    schema.Quantity(int64(binary.LittleEndian.Uint64(src[56:64]))),
	}

	off := 72
	for i := 0; i < schema.DepthLevels; i++ {
		s.Bids[i] = schema.Level{
			Price: schema.Price(int64(binary.LittleEndian.Uint64(src[off : off+8]))),
			Size:  schema.Quantity(int64(binary.LittleEndian.Uint64(src[off+8 : off+16]))),
		}
		off += 16
	}
	for i := 0; i < schema.DepthLevels; i++ {
		s.Asks[i] = schema.Level{
			Price: schema.Price(int64(binary.LittleEndian.Uint64(src[off : off+8]))),
			Size:  schema.Quantity(int64(binary.LittleEndian.Uint64(src[off+8 : off+16]))),
		}
		off += 16
	}
	s.Flags = src[off]

	return s, true
}
