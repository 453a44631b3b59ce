// Package amountmath provides the closed-form token amount formulas for a
// liquidity range [leftPt, rightPt). Token Y amounts depend only on the two
// boundary sqrt prices; token X amounts additionally need the point span
// because X is summed over a geometric series of per-point prices.
package amountmath

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/pointmath"
)

var (
	// rateMinusPow96 is sqrt(1.0001)*2^96 - 2^96, the per-point price increment ratio.
	rateMinusPow96 = new(uint256.Int).Sub(pointmath.SQRT_RATE_96, pointmath.POW_96)
)

type amountMath struct {
	num *uint256.Int
	den *uint256.Int
	t1  *uint256.Int
	t2  *uint256.Int
}

var pool = sync.Pool{
	New: func() any {
		return &amountMath{
			num: new(uint256.Int),
			den: new(uint256.Int),
			t1:  new(uint256.Int),
			t2:  new(uint256.Int),
		}
	},
}

// GetAmountY computes the token Y amount equivalent to liquidity over the
// price range [sqrtPriceL96, sqrtPriceR96). upper selects ceiling rounding.
func GetAmountY(dest, liquidity, sqrtPriceL96, sqrtPriceR96 *uint256.Int, upper bool) *uint256.Int {
	am := pool.Get().(*amountMath)
	defer pool.Put(am)

	am.num.Sub(sqrtPriceR96, sqrtPriceL96)
	if upper {
		return pointmath.MulFractionCeil(dest, liquidity, am.num, rateMinusPow96)
	}
	return pointmath.MulFractionFloor(dest, liquidity, am.num, rateMinusPow96)
}

// GetAmountX computes the token X amount equivalent to liquidity over the
// point range [leftPt, rightPt) whose right boundary price is sqrtPriceR96.
// upper selects ceiling rounding.
func GetAmountX(dest, liquidity *uint256.Int, leftPt, rightPt int64, sqrtPriceR96 *uint256.Int, upper bool) (*uint256.Int, error) {
	am := pool.Get().(*amountMath)
	defer pool.Put(am)

	// sqrt price of the span width, and of one point below the right boundary.
	if err := pointmath.GetSqrtPrice(am.t1, rightPt-leftPt); err != nil {
		return nil, err
	}
	pointmath.MulFractionFloor(am.t2, sqrtPriceR96, pointmath.POW_96, pointmath.SQRT_RATE_96)

	am.num.Sub(am.t1, pointmath.POW_96)
	am.den.Sub(sqrtPriceR96, am.t2)
	if upper {
		return pointmath.MulFractionCeil(dest, liquidity, am.num, am.den), nil
	}
	return pointmath.MulFractionFloor(dest, liquidity, am.num, am.den), nil
}

// GetAmountYUnitLiquidity96 computes the token Y needed per 2^96 units of
// liquidity over [sqrtPriceL96, sqrtPriceR96), rounding up.
func GetAmountYUnitLiquidity96(dest, sqrtPriceL96, sqrtPriceR96 *uint256.Int) *uint256.Int {
	am := pool.Get().(*amountMath)
	defer pool.Put(am)

	am.num.Sub(sqrtPriceR96, sqrtPriceL96)
	return pointmath.MulFractionCeil(dest, pointmath.POW_96, am.num, rateMinusPow96)
}

// GetAmountXUnitLiquidity96 computes the token X needed per 2^96 units of
// liquidity over [leftPt, rightPt), rounding up.
func GetAmountXUnitLiquidity96(dest *uint256.Int, leftPt, rightPt int64, sqrtPriceR96 *uint256.Int) (*uint256.Int, error) {
	am := pool.Get().(*amountMath)
	defer pool.Put(am)

	if err := pointmath.GetSqrtPrice(am.t1, rightPt-leftPt+1); err != nil {
		return nil, err
	}
	if err := pointmath.GetSqrtPrice(am.t2, rightPt+1); err != nil {
		return nil, err
	}

	am.num.Sub(am.t1, pointmath.SQRT_RATE_96)
	am.den.Sub(am.t2, sqrtPriceR96)
	return pointmath.MulFractionCeil(dest, pointmath.POW_96, am.num, am.den), nil
}

// GetMostLeftPoint locates the lowest point a given token X input can push
// the price to, swapping right-to-left against liquidity that ends at
// rightPt. A result equal to rightPt means nothing is swapped in the range.
func GetMostLeftPoint(liquidity, amountX *uint256.Int, rightPt int64, sqrtPriceR96 *uint256.Int) (int64, error) {
	am := pool.Get().(*amountMath)
	defer pool.Put(am)

	pointmath.MulFractionCeil(am.t1, sqrtPriceR96, pointmath.POW_96, pointmath.SQRT_RATE_96)
	am.num.Sub(sqrtPriceR96, am.t1)
	pointmath.MulFractionFloor(am.t2, amountX, am.num, liquidity)
	am.t2.Add(am.t2, pointmath.POW_96)

	logValue, err := pointmath.GetLogSqrtPriceFloor(am.t2)
	if err != nil {
		return 0, err
	}
	return rightPt - logValue, nil
}

// GetMostRightPoint locates the highest point a given token Y input can push
// the price to, swapping left-to-right from sqrtPriceL96. A result equal to
// the left point means nothing is swapped in the range.
func GetMostRightPoint(liquidity, amountY, sqrtPriceL96 *uint256.Int) (int64, error) {
	am := pool.Get().(*amountMath)
	defer pool.Put(am)

	pointmath.MulFractionFloor(am.t1, amountY, rateMinusPow96, liquidity)
	am.t1.Add(am.t1, sqrtPriceL96)
	return pointmath.GetLogSqrtPriceFloor(am.t1)
}

// ComputeDepositXY computes the token X and token Y needed to add liquidity
// over [leftPoint, rightPoint) with the pool at currentPoint, rounding both
// sides up.
func ComputeDepositXY(liquidity *uint256.Int, leftPoint, rightPoint, currentPoint int64) (amountX, amountY *uint256.Int, err error) {
	amountX = new(uint256.Int)
	amountY = new(uint256.Int)

	sqrtPrice96 := new(uint256.Int)
	if err = pointmath.GetSqrtPrice(sqrtPrice96, currentPoint); err != nil {
		return nil, nil, err
	}
	sqrtPriceR96 := new(uint256.Int)
	if err = pointmath.GetSqrtPrice(sqrtPriceR96, rightPoint); err != nil {
		return nil, nil, err
	}

	if leftPoint < currentPoint {
		sqrtPriceL96 := new(uint256.Int)
		if err = pointmath.GetSqrtPrice(sqrtPriceL96, leftPoint); err != nil {
			return nil, nil, err
		}
		if rightPoint < currentPoint {
			GetAmountY(amountY, liquidity, sqrtPriceL96, sqrtPriceR96, true)
		} else {
			GetAmountY(amountY, liquidity, sqrtPriceL96, sqrtPrice96, true)
		}
	}

	if rightPoint > currentPoint {
		xrLeft := currentPoint + 1
		if leftPoint > currentPoint {
			xrLeft = leftPoint
		}
		if _, err = GetAmountX(amountX, liquidity, xrLeft, rightPoint, sqrtPriceR96, true); err != nil {
			return nil, nil, err
		}
	}

	// The current point itself holds liquidity on the Y side.
	if leftPoint <= currentPoint && rightPoint > currentPoint {
		onPoint := pointmath.MulFractionCeil(new(uint256.Int), liquidity, sqrtPrice96, pointmath.POW_96)
		amountY.Add(amountY, onPoint)
	}

	return amountX, amountY, nil
}

// ComputeWithdrawXY computes the token X and token Y released by removing
// liquidity over [leftPoint, rightPoint), rounding both sides down. When the
// range straddles currentPoint the pool's active liquidity split is consumed
// and the updated (liquidity, liquidityX) pair is returned.
func ComputeWithdrawXY(liquidity *uint256.Int, leftPoint, rightPoint, currentPoint int64, poolLiquidity, poolLiquidityX *uint256.Int) (amountX, amountY, newLiquidity, newLiquidityX *uint256.Int, err error) {
	amountX = new(uint256.Int)
	amountY = new(uint256.Int)
	newLiquidity = new(uint256.Int).Set(poolLiquidity)
	newLiquidityX = new(uint256.Int).Set(poolLiquidityX)

	sqrtPrice96 := new(uint256.Int)
	if err = pointmath.GetSqrtPrice(sqrtPrice96, currentPoint); err != nil {
		return nil, nil, nil, nil, err
	}
	sqrtPriceR96 := new(uint256.Int)
	if err = pointmath.GetSqrtPrice(sqrtPriceR96, rightPoint); err != nil {
		return nil, nil, nil, nil, err
	}

	if leftPoint < currentPoint {
		sqrtPriceL96 := new(uint256.Int)
		if err = pointmath.GetSqrtPrice(sqrtPriceL96, leftPoint); err != nil {
			return nil, nil, nil, nil, err
		}
		if rightPoint < currentPoint {
			GetAmountY(amountY, liquidity, sqrtPriceL96, sqrtPriceR96, false)
		} else {
			GetAmountY(amountY, liquidity, sqrtPriceL96, sqrtPrice96, false)
		}
	}

	if rightPoint > currentPoint {
		xrLeft := currentPoint + 1
		if leftPoint > currentPoint {
			xrLeft = leftPoint
		}
		if _, err = GetAmountX(amountX, liquidity, xrLeft, rightPoint, sqrtPriceR96, false); err != nil {
			return nil, nil, nil, nil, err
		}
	}

	if leftPoint <= currentPoint && rightPoint > currentPoint {
		withdrawnY := new(uint256.Int).Sub(newLiquidity, newLiquidityX)
		if withdrawnY.Cmp(liquidity) >= 0 {
			withdrawnY.Set(liquidity)
		}
		withdrawnX := new(uint256.Int).Sub(liquidity, withdrawnY)

		onPoint := new(uint256.Int)
		amountY.Add(amountY, pointmath.MulFractionFloor(onPoint, withdrawnY, sqrtPrice96, pointmath.POW_96))
		amountX.Add(amountX, pointmath.MulFractionFloor(onPoint, withdrawnX, pointmath.POW_96, sqrtPrice96))

		newLiquidity.Sub(newLiquidity, liquidity)
		newLiquidityX.Sub(newLiquidityX, withdrawnX)
	}

	return amountX, amountY, newLiquidity, newLiquidityX, nil
}
