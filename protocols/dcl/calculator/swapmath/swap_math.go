// Package swapmath implements the single-point and whole-range swap steps.
// A point's liquidity is split into an X side and a Y side at liquidityX;
// the at-price functions transform liquidity between the two sides at one
// price, the range-complete functions either exhaust a [leftPoint,
// rightPoint) segment or locate the partial stopping point. Rounding always
// favors the pool: costs round up, acquisitions round down.
package swapmath

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/amountmath"
	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/pointmath"
)

var (
	// ErrRangeLocation reports a partial-range stopping point outside the
	// segment, which contradicts the full-swap check that preceded it.
	ErrRangeLocation = errors.New("partial swap located point outside range")

	rateMinusPow96 = new(uint256.Int).Sub(pointmath.SQRT_RATE_96, pointmath.POW_96)
)

// X2YRangeCompResult reports a right-to-left whole-range attempt.
type X2YRangeCompResult struct {
	CostX             *uint256.Int
	AcquireY          *uint256.Int
	CompleteLiquidity bool
	LocPt             int64
	SqrtLoc96         *uint256.Int
}

// Y2XRangeCompResult reports a left-to-right whole-range attempt.
type Y2XRangeCompResult struct {
	CostY             *uint256.Int
	AcquireX          *uint256.Int
	CompleteLiquidity bool
	LocPt             int64
	SqrtLoc96         *uint256.Int
}

func minInto(dest, a, b *uint256.Int) *uint256.Int {
	if a.Cmp(b) > 0 {
		return dest.Set(b)
	}
	return dest.Set(a)
}

// XSwapYAtPriceLiquidity swaps X into the Y-side liquidity resident at one
// price. Returns the X cost (rounded up), the Y acquired (rounded down) and
// the new liquidityX.
func XSwapYAtPriceLiquidity(amountX, sqrtPrice96, liquidity, liquidityX *uint256.Int) (costX, acquireY, newLiquidityX *uint256.Int) {
	liquidityY := new(uint256.Int).Sub(liquidity, liquidityX)
	maxTransform := pointmath.MulFractionFloor(new(uint256.Int), amountX, sqrtPrice96, pointmath.POW_96)
	transform := minInto(new(uint256.Int), maxTransform, liquidityY)

	costX = pointmath.MulFractionCeil(new(uint256.Int), transform, pointmath.POW_96, sqrtPrice96)
	acquireY = pointmath.MulFractionFloor(new(uint256.Int), transform, sqrtPrice96, pointmath.POW_96)
	newLiquidityX = new(uint256.Int).Add(liquidityX, transform)
	return costX, acquireY, newLiquidityX
}

// YSwapXAtPriceLiquidity swaps Y into the X-side liquidity resident at one
// price. Returns the Y cost (rounded up), the X acquired (rounded down) and
// the new liquidityX.
func YSwapXAtPriceLiquidity(amountY, sqrtPrice96, liquidityX *uint256.Int) (costY, acquireX, newLiquidityX *uint256.Int) {
	maxTransform := pointmath.MulFractionFloor(new(uint256.Int), amountY, pointmath.POW_96, sqrtPrice96)
	transform := minInto(new(uint256.Int), maxTransform, liquidityX)

	costY = pointmath.MulFractionCeil(new(uint256.Int), transform, sqrtPrice96, pointmath.POW_96)
	acquireX = pointmath.MulFractionFloor(new(uint256.Int), transform, pointmath.POW_96, sqrtPrice96)
	newLiquidityX = new(uint256.Int).Sub(liquidityX, transform)
	return costY, acquireX, newLiquidityX
}

// XSwapYAtPrice fills a resident sell-Y order at one price, bounded by the
// order's currY.
func XSwapYAtPrice(amountX, sqrtPrice96, currY *uint256.Int) (costX, acquireY *uint256.Int) {
	l := pointmath.MulFractionFloor(new(uint256.Int), amountX, sqrtPrice96, pointmath.POW_96)

	acquireY = pointmath.MulFractionFloor(new(uint256.Int), l, sqrtPrice96, pointmath.POW_96)
	if acquireY.Cmp(currY) > 0 {
		acquireY.Set(currY)
	}

	pointmath.MulFractionCeil(l, acquireY, pointmath.POW_96, sqrtPrice96)
	costX = pointmath.MulFractionCeil(new(uint256.Int), l, pointmath.POW_96, sqrtPrice96)
	return costX, acquireY
}

// YSwapXAtPrice fills a resident sell-X order at one price, bounded by the
// order's currX.
func YSwapXAtPrice(amountY, sqrtPrice96, currX *uint256.Int) (costY, acquireX *uint256.Int) {
	l := pointmath.MulFractionFloor(new(uint256.Int), amountY, pointmath.POW_96, sqrtPrice96)

	acquireX = pointmath.MulFractionFloor(new(uint256.Int), l, pointmath.POW_96, sqrtPrice96)
	if acquireX.Cmp(currX) > 0 {
		acquireX.Set(currX)
	}

	pointmath.MulFractionCeil(l, acquireX, sqrtPrice96, pointmath.POW_96)
	costY = pointmath.MulFractionCeil(new(uint256.Int), l, sqrtPrice96, pointmath.POW_96)
	return costY, acquireX
}

// XSwapYRangeComplete tries to swap out the whole [leftPoint, rightPoint)
// segment right to left. If amountX falls short, LocPt is placed one point
// below the right-most unswapped point for the at-price step to finish.
func XSwapYRangeComplete(liquidity, sqrtPriceL96 *uint256.Int, leftPoint int64, sqrtPriceR96 *uint256.Int, rightPoint int64, amountX *uint256.Int) (*X2YRangeCompResult, error) {
	result := &X2YRangeCompResult{
		CostX:     new(uint256.Int),
		AcquireY:  new(uint256.Int),
		SqrtLoc96: new(uint256.Int),
	}

	maxX, err := amountmath.GetAmountX(new(uint256.Int), liquidity, leftPoint, rightPoint, sqrtPriceR96, true)
	if err != nil {
		return nil, err
	}

	if maxX.Cmp(amountX) <= 0 {
		result.CompleteLiquidity = true
		result.CostX.Set(maxX)
		amountmath.GetAmountY(result.AcquireY, liquidity, sqrtPriceL96, sqrtPriceR96, false)
		return result, nil
	}

	locPt, err := amountmath.GetMostLeftPoint(liquidity, amountX, rightPoint, sqrtPriceR96)
	if err != nil {
		return nil, err
	}
	if locPt > rightPoint || locPt <= leftPoint {
		return nil, ErrRangeLocation
	}

	result.LocPt = locPt
	if locPt != rightPoint {
		cost, err := amountmath.GetAmountX(new(uint256.Int), liquidity, locPt, rightPoint, sqrtPriceR96, true)
		if err != nil {
			return nil, err
		}
		minInto(result.CostX, cost, amountX)

		sqrtLocStart := new(uint256.Int)
		if err := pointmath.GetSqrtPrice(sqrtLocStart, locPt); err != nil {
			return nil, err
		}
		amountmath.GetAmountY(result.AcquireY, liquidity, sqrtLocStart, sqrtPriceR96, false)
	}

	// Leave the loc point itself for the single-point step.
	result.LocPt--
	if err := pointmath.GetSqrtPrice(result.SqrtLoc96, result.LocPt); err != nil {
		return nil, err
	}
	return result, nil
}

// YSwapXRangeComplete tries to swap out the whole [leftPoint, rightPoint)
// segment left to right. If amountY falls short, LocPt is the right-most
// point reached, left for the at-price step.
func YSwapXRangeComplete(liquidity, sqrtPriceL96 *uint256.Int, leftPoint int64, sqrtPriceR96 *uint256.Int, rightPoint int64, amountY *uint256.Int) (*Y2XRangeCompResult, error) {
	result := &Y2XRangeCompResult{
		CostY:     new(uint256.Int),
		AcquireX:  new(uint256.Int),
		SqrtLoc96: new(uint256.Int),
	}

	maxY := amountmath.GetAmountY(new(uint256.Int), liquidity, sqrtPriceL96, sqrtPriceR96, true)
	if maxY.Cmp(amountY) <= 0 {
		result.CostY.Set(maxY)
		if _, err := amountmath.GetAmountX(result.AcquireX, liquidity, leftPoint, rightPoint, sqrtPriceR96, false); err != nil {
			return nil, err
		}
		result.CompleteLiquidity = true
		return result, nil
	}

	locPt, err := amountmath.GetMostRightPoint(liquidity, amountY, sqrtPriceL96)
	if err != nil {
		return nil, err
	}
	if locPt < leftPoint || locPt >= rightPoint {
		return nil, ErrRangeLocation
	}

	result.LocPt = locPt
	if err := pointmath.GetSqrtPrice(result.SqrtLoc96, locPt); err != nil {
		return nil, err
	}
	if locPt == leftPoint {
		return result, nil
	}

	cost := amountmath.GetAmountY(new(uint256.Int), liquidity, sqrtPriceL96, result.SqrtLoc96, true)
	minInto(result.CostY, cost, amountY)

	if _, err := amountmath.GetAmountX(result.AcquireX, liquidity, leftPoint, locPt, result.SqrtLoc96, false); err != nil {
		return nil, err
	}
	return result, nil
}

// XSwapYAtPriceLiquidityDesire mirrors XSwapYAtPriceLiquidity driven by the
// desired Y output.
func XSwapYAtPriceLiquidityDesire(desireY, sqrtPrice96, liquidity, liquidityX *uint256.Int) (costX, acquireY, newLiquidityX *uint256.Int) {
	liquidityY := new(uint256.Int).Sub(liquidity, liquidityX)
	maxTransform := pointmath.MulFractionCeil(new(uint256.Int), desireY, pointmath.POW_96, sqrtPrice96)
	transform := minInto(new(uint256.Int), maxTransform, liquidityY)

	costX = pointmath.MulFractionCeil(new(uint256.Int), transform, pointmath.POW_96, sqrtPrice96)
	acquireY = pointmath.MulFractionFloor(new(uint256.Int), transform, sqrtPrice96, pointmath.POW_96)
	newLiquidityX = new(uint256.Int).Add(liquidityX, transform)
	return costX, acquireY, newLiquidityX
}

// YSwapXAtPriceLiquidityDesire mirrors YSwapXAtPriceLiquidity driven by the
// desired X output.
func YSwapXAtPriceLiquidityDesire(desireX, sqrtPrice96, liquidityX *uint256.Int) (costY, acquireX, newLiquidityX *uint256.Int) {
	maxTransform := pointmath.MulFractionCeil(new(uint256.Int), desireX, sqrtPrice96, pointmath.POW_96)
	transform := minInto(new(uint256.Int), maxTransform, liquidityX)

	costY = pointmath.MulFractionCeil(new(uint256.Int), transform, sqrtPrice96, pointmath.POW_96)
	acquireX = pointmath.MulFractionFloor(new(uint256.Int), transform, pointmath.POW_96, sqrtPrice96)
	newLiquidityX = new(uint256.Int).Sub(liquidityX, transform)
	return costY, acquireX, newLiquidityX
}

// XSwapYAtPriceDesire fills a resident sell-Y order bounded by the desired
// output and the order's currY.
func XSwapYAtPriceDesire(desireY, sqrtPrice96, currY *uint256.Int) (costX, acquireY *uint256.Int) {
	acquireY = minInto(new(uint256.Int), desireY, currY)

	l := pointmath.MulFractionCeil(new(uint256.Int), acquireY, pointmath.POW_96, sqrtPrice96)
	costX = pointmath.MulFractionCeil(new(uint256.Int), l, pointmath.POW_96, sqrtPrice96)
	return costX, acquireY
}

// YSwapXAtPriceDesire fills a resident sell-X order bounded by the desired
// output and the order's currX.
func YSwapXAtPriceDesire(desireX, sqrtPrice96, currX *uint256.Int) (costY, acquireX *uint256.Int) {
	acquireX = minInto(new(uint256.Int), desireX, currX)

	l := pointmath.MulFractionCeil(new(uint256.Int), acquireX, sqrtPrice96, pointmath.POW_96)
	costY = pointmath.MulFractionCeil(new(uint256.Int), l, sqrtPrice96, pointmath.POW_96)
	return costY, acquireX
}

// XSwapYRangeCompleteDesire mirrors XSwapYRangeComplete driven by the
// desired Y output.
func XSwapYRangeCompleteDesire(liquidity, sqrtPriceL96 *uint256.Int, leftPoint int64, sqrtPriceR96 *uint256.Int, rightPoint int64, desireY *uint256.Int) (*X2YRangeCompResult, error) {
	result := &X2YRangeCompResult{
		CostX:     new(uint256.Int),
		AcquireY:  new(uint256.Int),
		SqrtLoc96: new(uint256.Int),
	}

	maxY := amountmath.GetAmountY(new(uint256.Int), liquidity, sqrtPriceL96, sqrtPriceR96, false)
	if maxY.Cmp(desireY) <= 0 {
		result.AcquireY.Set(maxY)
		if _, err := amountmath.GetAmountX(result.CostX, liquidity, leftPoint, rightPoint, sqrtPriceR96, true); err != nil {
			return nil, err
		}
		result.CompleteLiquidity = true
		return result, nil
	}

	cl := pointmath.MulFractionFloor(new(uint256.Int), desireY, rateMinusPow96, liquidity)
	cl.Sub(sqrtPriceR96, cl)

	locPt, err := pointmath.GetLogSqrtPriceFloor(cl)
	if err != nil {
		return nil, err
	}
	locPt++
	if locPt > rightPoint {
		locPt = rightPoint
	}
	if locPt < leftPoint+1 {
		locPt = leftPoint + 1
	}
	result.LocPt = locPt

	if locPt == rightPoint {
		result.LocPt--
		if err := pointmath.GetSqrtPrice(result.SqrtLoc96, result.LocPt); err != nil {
			return nil, err
		}
		return result, nil
	}

	sqrtPricePrMloc96 := new(uint256.Int)
	if err := pointmath.GetSqrtPrice(sqrtPricePrMloc96, rightPoint-locPt); err != nil {
		return nil, err
	}
	sqrtPricePrM196 := pointmath.MulFractionCeil(new(uint256.Int), sqrtPriceR96, pointmath.POW_96, pointmath.SQRT_RATE_96)

	num := new(uint256.Int).Sub(sqrtPricePrMloc96, pointmath.POW_96)
	den := new(uint256.Int).Sub(sqrtPriceR96, sqrtPricePrM196)
	pointmath.MulFractionCeil(result.CostX, liquidity, num, den)

	result.LocPt--
	if err := pointmath.GetSqrtPrice(result.SqrtLoc96, result.LocPt); err != nil {
		return nil, err
	}

	sqrtLocA196 := pointmath.MulFractionFloor(new(uint256.Int), result.SqrtLoc96, rateMinusPow96, pointmath.POW_96)
	sqrtLocA196.Add(sqrtLocA196, result.SqrtLoc96)

	acquire := amountmath.GetAmountY(new(uint256.Int), liquidity, sqrtLocA196, sqrtPriceR96, false)
	minInto(result.AcquireY, acquire, desireY)
	return result, nil
}

// YSwapXRangeCompleteDesire mirrors YSwapXRangeComplete driven by the
// desired X output.
func YSwapXRangeCompleteDesire(liquidity, sqrtPriceL96 *uint256.Int, leftPoint int64, sqrtPriceR96 *uint256.Int, rightPoint int64, desireX *uint256.Int) (*Y2XRangeCompResult, error) {
	result := &Y2XRangeCompResult{
		CostY:     new(uint256.Int),
		AcquireX:  new(uint256.Int),
		SqrtLoc96: new(uint256.Int),
	}

	maxX, err := amountmath.GetAmountX(new(uint256.Int), liquidity, leftPoint, rightPoint, sqrtPriceR96, false)
	if err != nil {
		return nil, err
	}
	if maxX.Cmp(desireX) <= 0 {
		result.AcquireX.Set(maxX)
		amountmath.GetAmountY(result.CostY, liquidity, sqrtPriceL96, sqrtPriceR96, true)
		result.CompleteLiquidity = true
		return result, nil
	}

	sqrtPricePrPl96 := new(uint256.Int)
	if err := pointmath.GetSqrtPrice(sqrtPricePrPl96, rightPoint-leftPoint); err != nil {
		return nil, err
	}
	sqrtPricePrM196 := pointmath.MulFractionFloor(new(uint256.Int), sqrtPriceR96, pointmath.POW_96, pointmath.SQRT_RATE_96)

	div := new(uint256.Int).Sub(sqrtPriceR96, sqrtPricePrM196)
	pointmath.MulFractionFloor(div, desireX, div, liquidity)
	div.Sub(sqrtPricePrPl96, div)

	sqrtPriceLoc96 := pointmath.MulFractionFloor(new(uint256.Int), sqrtPriceR96, pointmath.POW_96, div)

	locPt, err := pointmath.GetLogSqrtPriceFloor(sqrtPriceLoc96)
	if err != nil {
		return nil, err
	}
	if locPt < leftPoint {
		locPt = leftPoint
	}
	if locPt > rightPoint-1 {
		locPt = rightPoint - 1
	}
	result.LocPt = locPt
	if err := pointmath.GetSqrtPrice(result.SqrtLoc96, locPt); err != nil {
		return nil, err
	}

	if locPt == leftPoint {
		return result, nil
	}

	acquire := new(uint256.Int)
	if _, err := amountmath.GetAmountX(acquire, liquidity, leftPoint, locPt, result.SqrtLoc96, false); err != nil {
		return nil, err
	}
	minInto(result.AcquireX, acquire, desireX)

	amountmath.GetAmountY(result.CostY, liquidity, sqrtPriceL96, result.SqrtLoc96, true)
	return result, nil
}
