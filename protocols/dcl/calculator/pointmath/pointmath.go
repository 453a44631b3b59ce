package pointmath

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"
)

var (
	// LEFT_MOST_POINT is the minimum point that may be passed to GetSqrtPrice.
	LEFT_MOST_POINT = int64(-800000)
	// RIGHT_MOST_POINT is the maximum point that may be passed to GetSqrtPrice.
	RIGHT_MOST_POINT = int64(800000)

	// MIN_PRICE is sqrt(1.0001^-800000) in 2^96 scale, the smallest valid sqrt price.
	MIN_PRICE = uint256.MustFromDecimal("337263108622")
	// MAX_PRICE is sqrt(1.0001^800000) in 2^96 scale, the largest valid sqrt price.
	MAX_PRICE = uint256.MustFromDecimal("18611883644907511909590774894315720731532604461")

	// POW_96 is 2^96, the scale of sqrt prices.
	POW_96 = uint256.MustFromHex("0x1000000000000000000000000")
	// POW_128 is 2^128, the scale of fee growth accumulators.
	POW_128 = uint256.MustFromHex("0x100000000000000000000000000000000")
	// SQRT_RATE_96 is sqrt(1.0001) in 2^96 scale, the price ratio of adjacent points.
	SQRT_RATE_96 = uint256.MustFromDecimal("79232123823359799118286999568")
	// MAX_UINT_128 is 2^128-1, the largest liquidity amount.
	MAX_UINT_128 = uint256.MustFromHex("0xffffffffffffffffffffffffffffffff")

	ErrPointOutOfBounds     = errors.New("point out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")

	one        = uint256.NewInt(1)
	maxUint256 = uint256.MustFromHex("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	// Constants for GetSqrtPrice, one per bit of |point|.
	// ratioConstants[0] is sqrt(1.0001^-1) in UQ128.128, ratioConstants[1] is 1,
	// ratioConstants[i] for i>=2 is sqrt(1.0001^-2^(i-1)).
	ratioConstants = [22]*uint256.Int{
		uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
		uint256.MustFromHex("0x100000000000000000000000000000000"),
		uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
		uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
		uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
		uint256.MustFromHex("0xffffffff"), // rounding mask
	}

	// Constants for GetLogSqrtPriceFloor.
	logScale       = uint256.MustFromDecimal("255738958999603826347141")
	logFloorOffset = uint256.MustFromDecimal("3402992956809132418596140100660247210")
	logUpperOffset = uint256.MustFromDecimal("291339464771989622907027621153398088495")
)

// pointMath holds reusable uint256 objects to avoid memory allocations.
type pointMath struct {
	value *uint256.Int
	rem   *uint256.Int
	x     *uint256.Int
	l2    *uint256.Int
	bit   *uint256.Int
	t1    *uint256.Int
	t2    *uint256.Int
}

// pool manages a pool of pointMath objects for safe concurrent use.
var pool = sync.Pool{
	New: func() any {
		return &pointMath{
			value: new(uint256.Int),
			rem:   new(uint256.Int),
			x:     new(uint256.Int),
			l2:    new(uint256.Int),
			bit:   new(uint256.Int),
			t1:    new(uint256.Int),
			t2:    new(uint256.Int),
		}
	},
}

// GetSqrtPrice calculates sqrt(1.0001^point) * 2^96, rounding up.
// This is a high-performance, allocation-free implementation.
func GetSqrtPrice(dest *uint256.Int, point int64) error {
	if point < LEFT_MOST_POINT || point > RIGHT_MOST_POINT {
		return ErrPointOutOfBounds
	}

	pm := pool.Get().(*pointMath)
	defer pool.Put(pm)

	absPoint := point
	if point < 0 {
		absPoint = -point
	}

	// Initialize based on the least significant bit of absPoint.
	if (absPoint & 0x1) != 0 {
		pm.value.Set(ratioConstants[0])
	} else {
		pm.value.Set(ratioConstants[1])
	}

	for i := 2; i < 21; i++ {
		if (absPoint & (1 << (i - 1))) != 0 {
			pm.value.Mul(pm.value, ratioConstants[i]).Rsh(pm.value, 128)
		}
	}

	// Positive points take the reciprocal of the negative-point product.
	if point > 0 {
		pm.value.Div(maxUint256, pm.value)
	}

	// Divide by 2^32, rounding up.
	pm.rem.And(pm.value, ratioConstants[21])
	pm.value.Rsh(pm.value, 32)
	if pm.rem.Sign() > 0 {
		pm.value.Add(pm.value, one)
	}

	dest.Set(pm.value)
	return nil
}

// GetLogSqrtPriceFloor calculates the greatest point whose sqrt price does
// not exceed sqrtPrice96, via a fixed-point base-2 logarithm scaled to base
// sqrt(1.0001). The log yields a floor and an upper candidate one point
// apart; the ambiguity is settled by re-evaluating GetSqrtPrice.
func GetLogSqrtPriceFloor(sqrtPrice96 *uint256.Int) (int64, error) {
	if sqrtPrice96.Cmp(MIN_PRICE) < 0 || sqrtPrice96.Cmp(MAX_PRICE) > 0 {
		return 0, ErrSqrtPriceOutOfBounds
	}

	pm := pool.Get().(*pointMath)
	defer pool.Put(pm)

	// Work in UQ128.128.
	sqrtPrice128 := pm.t1.Lsh(sqrtPrice96, 32)
	m := int64(sqrtPrice128.BitLen() - 1)

	// Normalize x into [2^127, 2^128).
	x := pm.x
	if m >= 128 {
		x.Rsh(sqrtPrice128, uint(m-127))
	} else {
		x.Lsh(sqrtPrice128, uint(127-m))
	}

	// Q64 log2 with the integer part above bit 64, two's complement.
	l2 := pm.l2
	if m >= 128 {
		l2.SetUint64(uint64(m - 128))
	} else {
		l2.SetUint64(uint64(128 - m))
	}
	l2.Lsh(l2, 64)
	if m < 128 {
		l2.Neg(l2)
	}

	for offset := 63; offset >= 50; offset-- {
		x.Mul(x, x).Rsh(x, 127)
		if x.BitLen() > 128 {
			l2.Or(l2, pm.bit.Lsh(one, uint(offset)))
			if offset > 50 {
				x.Rsh(x, 1)
			}
		}
	}

	// Scale log2 to log base sqrt(1.0001) and bracket the answer.
	ls10001 := l2.Mul(l2, logScale)
	logFloor := toPoint(pm.t1.Sub(ls10001, logFloorOffset).SRsh(pm.t1, 128))
	logUpper := toPoint(pm.t2.Add(ls10001, logUpperOffset).SRsh(pm.t2, 128))

	if logFloor == logUpper {
		return logFloor, nil
	}
	if logUpper <= RIGHT_MOST_POINT {
		if err := GetSqrtPrice(pm.t1, logUpper); err == nil && pm.t1.Cmp(sqrtPrice96) <= 0 {
			return logUpper, nil
		}
	}
	return logFloor, nil
}

// MulFractionFloor computes floor(number * numerator / denominator) into dest.
// Amounts fit 128 bits and the fraction terms stay within the price bounds, so
// the quotient always fits 256 bits and the overflow flag stays false.
func MulFractionFloor(dest, number, numerator, denominator *uint256.Int) *uint256.Int {
	dest.MulDivOverflow(number, numerator, denominator)
	return dest
}

// MulFractionCeil computes ceil(number * numerator / denominator) into dest.
// The same operand bounds as MulFractionFloor apply.
func MulFractionCeil(dest, number, numerator, denominator *uint256.Int) *uint256.Int {
	pm := pool.Get().(*pointMath)
	defer pool.Put(pm)

	exact := pm.rem.MulMod(number, numerator, denominator).IsZero()
	dest.MulDivOverflow(number, numerator, denominator)
	if !exact {
		dest.Add(dest, one)
	}
	return dest
}

// toPoint interprets a two's complement value known to fit an int64.
func toPoint(v *uint256.Int) int64 {
	if v.Sign() < 0 {
		neg := new(uint256.Int).Neg(v)
		return -int64(neg.Uint64())
	}
	return int64(v.Uint64())
}
