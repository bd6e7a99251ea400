package fixed

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	got, err := Add(1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(3), got)

	_, err = Add(math.MaxInt64, 1)
	require.Error(t, err)
	var overflow *OverflowError
	require.True(t, errors.As(err, &overflow))
	require.Equal(t, "add", overflow.Op)

	_, err = Add(math.MinInt64, -1)
	require.Error(t, err)
}

func TestSub(t *testing.T) {
	got, err := Sub(5, 7)
	require.NoError(t, err)
	require.Equal(t, int64(-2), got)

	_, err = Sub(math.MinInt64, 1)
	require.Error(t, err)

	_, err = Sub(math.MaxInt64, -1)
	require.Error(t, err)
}

func TestMul(t *testing.T) {
	got, err := Mul(1_000_000, 1_000)
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000_000), got)

	got, err = Mul(0, math.MaxInt64)
	require.NoError(t, err)
	require.Equal(t, int64(0), got)

	_, err = Mul(math.MaxInt64, 2)
	require.Error(t, err)
}

func TestMulDiv(t *testing.T) {
	// 50,000 * 2 units, both scaled: the raw product exceeds int64 but
	// the scaled result does not.
	a := 50_000 * Scale
	b := 2 * Scale
	got, err := MulDiv(a, b, Scale)
	require.NoError(t, err)
	require.Equal(t, 100_000*Scale, got)

	got, err = MulDiv(-a, b, Scale)
	require.NoError(t, err)
	require.Equal(t, -100_000*Scale, got)

	_, err = MulDiv(math.MaxInt64, math.MaxInt64, 1)
	require.Error(t, err)

	_, err = MulDiv(1, 1, 0)
	require.Error(t, err)
}

func TestFromFloat(t *testing.T) {
	got, err := FromFloat(50_000.0)
	require.NoError(t, err)
	require.Equal(t, 50_000*Scale, got)

	_, err = FromFloat(math.NaN())
	require.Error(t, err)

	_, err = FromFloat(math.Inf(1))
	require.Error(t, err)

	_, err = FromFloat(1e30)
	require.Error(t, err)
}

func TestFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"0", 0, false},
		{"1", Scale, false},
		{"50000", 50_000 * Scale, false},
		{"0.000000001", 1, false},
		{"-2.5", -2_500_000_000, false},
		{"49975.000000000", 49_975 * Scale, false},
		{"1.0000000001", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"99999999999999999999", 0, true},
	}

	for _, tt := range tests {
		got, err := FromString(tt.in)
		if tt.wantErr {
			require.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		require.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestStringRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, Scale, -Scale, 50_000 * Scale, 123_456_789, -987_654_321_000}
	for _, v := range values {
		s := string(AppendString(nil, v))
		back, err := FromString(s)
		require.NoError(t, err, "value %d rendered %q", v, s)
		require.Equal(t, v, back, "value %d rendered %q", v, s)
	}
}
