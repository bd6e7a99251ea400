package schema

import "testing"

func TestAppendString(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  string
	}{
		{"zero", 0, "0.000000000"},
		{"one unit", 1, "0.000000001"},
		{"whole", 50_000 * FixedUnit, "50000.000000000"},
		{"fraction", 49_975 * FixedUnit, "49975.000000000"},
		{"mixed", 1_500_000_000, "1.500000000"},
		{"negative", -2_500_000_000, "-2.500000000"},
		{"sub unit", 123, "0.000000123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(Price(tt.value).AppendString(nil))
			if got != tt.want {
				t.Fatalf("AppendString(%d) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestMidPrice(t *testing.T) {
	tests := []struct {
		name string
		bid  Price
		ask  Price
		want Price
	}{
		{"even", 100, 200, 150},
		{"odd", 101, 102, 101},
		{"large", Price(50_000 * FixedUnit), Price(50_010 * FixedUnit), Price(50_005 * FixedUnit)},
		{"near max", Price(int64(^uint64(0)>>1) - 1), Price(int64(^uint64(0) >> 1)), Price(int64(^uint64(0)>>1) - 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MarketSnapshot{BestBidPrice: tt.bid, BestAskPrice: tt.ask}
			if got := s.MidPrice(); got != tt.want {
				t.Fatalf("MidPrice(%d, %d) = %d, want %d", tt.bid, tt.ask, got, tt.want)
			}
		})
	}
}

func TestSpreadBps(t *testing.T) {
	s := MarketSnapshot{
		BestBidPrice: Price(50_000 * FixedUnit),
		BestAskPrice: Price(50_050 * FixedUnit),
	}
	if got := s.SpreadBps(); got != 10 {
		t.Fatalf("SpreadBps() = %d, want 10", got)
	}

	empty := MarketSnapshot{}
	if got := empty.SpreadBps(); got != 0 {
		t.Fatalf("SpreadBps() on empty book = %d, want 0", got)
	}
}
