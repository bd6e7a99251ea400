package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const RiskDecisionPayloadSize = 56

// EncodeRiskDecision serializes a risk decision into a fixed-size payload.
func EncodeRiskDecision(dst []byte, decision schema.RiskDecision) []byte {
	if cap(dst) < RiskDecisionPayloadSize {
		dst = make([]byte, RiskDecisionPayloadSize)
	} else {
		dst = dst[:RiskDecisionPayloadSize]
	}

	binary.LittleEndian.PutUint16(dst[0:2], uint16(decision.Action))
	binary.LittleEndian.PutUint16(dst[2:4], uint16(decision.Reason))
	binary.LittleEndian.PutUint16(dst[4:6], uint16(decision.Side))
	binary.LittleEndian.PutUint16(dst[6:8], decision.Flags)
	binary.LittleEndian.PutUint64(dst[8:16], uint64(decision.ProposedQty))
	binary.LittleEndian.PutUint64(dst[16:24], uint64(decision.ProposedPrice))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(decision.CurrentPos))
	binary.LittleEndian.PutUint64(dst[32:40], uint64(decision.MaxPos))
	binary.LittleEndian.PutUint64(dst[40:48], uint64(decision.MaxNotional))
	binary.LittleEndian.PutUint64(dst[48:56], 0)

	return dst
}

// DecodeRiskDecision parses a fixed-size risk decision payload.
func DecodeRiskDecision(src []byte) (schema.RiskDecision, bool) {
	if len(src) < RiskDecisionPayloadSize {
		return schema.RiskDecision{}, false
	}
	return schema.RiskDecision{
		Action:        schema.RiskAction(binary.LittleEndian.Uint16(src[0:2])),
		Reason:        schema.RiskReason(binary.LittleEndian.Uint16(src[2:4])),
		Side:          schema.OrderSide(binary.LittleEndian.Uint16(src[4:6])),
		Flags:         binary.LittleEndian.Uint16(src[6:8]),
		ProposedQty:   schema.Quantity(int64(binary.LittleEndian.Uint64(src[8:16]))),
		ProposedPrice: schema.Price(int64(binary.LittleEndian.Uint64(src[16:24]))),
		CurrentPos:    schema.Quantity(int64(binary.LittleEndian.Uint64(src[24:32]))),
		MaxPos:        schema.Quantity(int64(binary.LittleEndian.Uint64(src[32:40]))),
		MaxNotional:   schema.Notional(int64(binary.LittleEndian.Uint64(src[40:48]))),
	}, true
}
