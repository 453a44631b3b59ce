package pointmath

import (
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromString(t *testing.T, s string) *uint256.Int {
	t.Helper()
	v, err := uint256.FromDecimal(s)
	require.NoError(t, err)
	return v
}

func TestGetSqrtPrice(t *testing.T) {
	testCases := []struct {
		name     string
		point    int64
		expected string
	}{
		{"zero", 0, "79228162514264337593543950336"},
		{"one", 1, "79232123823359799118286999568"},
		{"minus one", -1, "79224201403219477170569942574"},
		{"near right most", 799999, "18610953120514014497639399516106032187649727623"},
		{"right most", 800000, "18611883644907511909590774894315720731532604461"},
		{"left most", -800000, "337263108622"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := new(uint256.Int)
			err := GetSqrtPrice(got, tc.point)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got.Dec())
		})
	}

	t.Run("out of bounds", func(t *testing.T) {
		var v uint256.Int
		assert.ErrorIs(t, GetSqrtPrice(&v, 800001), ErrPointOutOfBounds)
		assert.ErrorIs(t, GetSqrtPrice(&v, -800001), ErrPointOutOfBounds)
	})
}

func TestGetLogSqrtPriceFloor(t *testing.T) {
	t.Run("literal round trips", func(t *testing.T) {
		for _, point := range []int64{0, 1, -1, 799999, -800000, 800000} {
			price := new(uint256.Int)
			require.NoError(t, GetSqrtPrice(price, point))
			got, err := GetLogSqrtPriceFloor(price)
			require.NoError(t, err)
			assert.Equal(t, point, got, "point %d", point)
		}
	})

	t.Run("floor just below next point", func(t *testing.T) {
		for _, point := range []int64{-100000, -1, 0, 1, 33333, 700001} {
			next := new(uint256.Int)
			require.NoError(t, GetSqrtPrice(next, point+1))
			next.SubUint64(next, 1)
			got, err := GetLogSqrtPriceFloor(next)
			require.NoError(t, err)
			assert.Equal(t, point, got, "point %d", point)
		}
	})

	t.Run("random round trips", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		price := new(uint256.Int)
		for i := 0; i < 1000; i++ {
			point := rng.Int63n(1600001) - 800000
			require.NoError(t, GetSqrtPrice(price, point))
			got, err := GetLogSqrtPriceFloor(price)
			require.NoError(t, err)
			require.Equal(t, point, got, "point %d", point)
		}
	})

	t.Run("out of bounds", func(t *testing.T) {
		low := new(uint256.Int).SubUint64(MIN_PRICE, 1)
		_, err := GetLogSqrtPriceFloor(low)
		assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)

		high := new(uint256.Int).AddUint64(MAX_PRICE, 1)
		_, err = GetLogSqrtPriceFloor(high)
		assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)
	})
}

func TestMulFraction(t *testing.T) {
	testCases := []struct {
		name                           string
		number, numerator, denominator string
		floor, ceil                    string
	}{
		{"exact", "100", "30", "10", "300", "300"},
		{"rounds", "100", "1", "3", "33", "34"},
		{"wide intermediate", "340282366920938463463374607431768211455", "340282366920938463463374607431768211455", "340282366920938463463374607431768211456", "340282366920938463463374607431768211454", "340282366920938463463374607431768211455"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			number := fromString(t, tc.number)
			numerator := fromString(t, tc.numerator)
			denominator := fromString(t, tc.denominator)

			got := new(uint256.Int)
			MulFractionFloor(got, number, numerator, denominator)
			assert.Equal(t, tc.floor, got.Dec())

			MulFractionCeil(got, number, numerator, denominator)
			assert.Equal(t, tc.ceil, got.Dec())
		})
	}
}
