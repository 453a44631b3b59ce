package dcl

import (
	"github.com/holiman/uint256"

	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/amountmath"
	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/pointmath"
	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/swapmath"
)

// sqrtRateMinusPow96 is sqrt(1.0001)*2^96 - 2^96, used to grow a price by one point.
var sqrtRateMinusPow96 = new(uint256.Int).Sub(pointmath.SQRT_RATE_96, pointmath.POW_96)

func floorDiv(a, d int64) int64 {
	q := a / d
	if a%d != 0 && (a < 0) != (d < 0) {
		q--
	}
	return q
}

func ceilDiv(a, d int64) int64 {
	q := a / d
	if a%d != 0 && (a < 0) == (d < 0) {
		q++
	}
	return q
}

// netAmount strips the pool fee from a gross input.
func netAmount(dest, amount *uint256.Int, poolFee uint32) *uint256.Int {
	return pointmath.MulFractionFloor(dest, amount, uint256.NewInt(uint64(FEE_DENOM-poolFee)), uint256.NewInt(FEE_DENOM))
}

// feeFromCost recovers the gross fee owed on a net swap cost.
func feeFromCost(dest, cost *uint256.Int, poolFee uint32) *uint256.Int {
	return pointmath.MulFractionCeil(dest, cost, uint256.NewInt(uint64(poolFee)), uint256.NewInt(uint64(FEE_DENOM-poolFee)))
}

// protocolFeePart is the protocol's cut of a fee amount.
func protocolFeePart(dest, feeAmount *uint256.Int, protocolFeeRate uint32) *uint256.Int {
	dest.Mul(feeAmount, uint256.NewInt(uint64(protocolFeeRate)))
	return dest.Div(dest, uint256.NewInt(BP_DENOM))
}

// chargeFeeX splits an X fee between the protocol and the fee scale. Without
// active liquidity the whole fee goes to the protocol. Returns the protocol part.
func (p *Pool) chargeFeeX(feeAmount *uint256.Int, protocolFeeRate uint32) *uint256.Int {
	if p.Liquidity.IsZero() {
		p.TotalFeeXCharged.Add(p.TotalFeeXCharged, feeAmount)
		return new(uint256.Int).Set(feeAmount)
	}
	charged := protocolFeePart(new(uint256.Int), feeAmount, protocolFeeRate)
	p.TotalFeeXCharged.Add(p.TotalFeeXCharged, charged)
	lpShare := new(uint256.Int).Sub(feeAmount, charged)
	p.FeeScaleX128.Add(p.FeeScaleX128, pointmath.MulFractionFloor(new(uint256.Int), lpShare, pointmath.POW_128, p.Liquidity))
	return charged
}

func (p *Pool) chargeFeeY(feeAmount *uint256.Int, protocolFeeRate uint32) *uint256.Int {
	if p.Liquidity.IsZero() {
		p.TotalFeeYCharged.Add(p.TotalFeeYCharged, feeAmount)
		return new(uint256.Int).Set(feeAmount)
	}
	charged := protocolFeePart(new(uint256.Int), feeAmount, protocolFeeRate)
	p.TotalFeeYCharged.Add(p.TotalFeeYCharged, charged)
	lpShare := new(uint256.Int).Sub(feeAmount, charged)
	p.FeeScaleY128.Add(p.FeeScaleY128, pointmath.MulFractionFloor(new(uint256.Int), lpShare, pointmath.POW_128, p.Liquidity))
	return charged
}

// growOnePoint advances a sqrt price by one point without a table lookup:
// sqrt(price)*1.0001 == sqrt(price) + sqrt(price)*(sqrt(1.0001)-1).
func growOnePoint(sqrtPrice96 *uint256.Int) {
	step := pointmath.MulFractionFloor(new(uint256.Int), sqrtPrice96, sqrtRateMinusPow96, pointmath.POW_96)
	sqrtPrice96.Add(sqrtPrice96, step)
}

// x2yRangeResult is the outcome of one leftward range pass.
type x2yRangeResult struct {
	Finished         bool
	CostX            *uint256.Int
	AcquireY         *uint256.Int
	FinalPt          int64
	SqrtFinalPrice96 *uint256.Int
	LiquidityX       *uint256.Int
}

func newX2YRangeResult() *x2yRangeResult {
	return &x2yRangeResult{
		CostX:            new(uint256.Int),
		AcquireY:         new(uint256.Int),
		SqrtFinalPrice96: new(uint256.Int),
		LiquidityX:       new(uint256.Int),
	}
}

// y2xRangeResult is the outcome of one rightward range pass.
type y2xRangeResult struct {
	Finished         bool
	CostY            *uint256.Int
	AcquireX         *uint256.Int
	FinalPt          int64
	SqrtFinalPrice96 *uint256.Int
	LiquidityX       *uint256.Int
}

func newY2XRangeResult() *y2xRangeResult {
	return &y2xRangeResult{
		CostY:            new(uint256.Int),
		AcquireX:         new(uint256.Int),
		SqrtFinalPrice96: new(uint256.Int),
		LiquidityX:       new(uint256.Int),
	}
}

func (p *Pool) bucketPoint(point int64) int64 {
	return floorDiv(point, p.PointDelta) * p.PointDelta
}

// recordLiquidityFillX2Y books stats for an X to Y fill against range
// liquidity at a single point.
func (p *Pool) recordLiquidityFillX2Y(point int64, costX, acquireY *uint256.Int, poolFee, protocolFeeRate uint32) {
	bucket := p.bucketPoint(point)
	stats := p.PointInfo.GetPointStatsOrDefault(bucket)

	feeAmount := feeFromCost(new(uint256.Int), costX, poolFee)
	charged := protocolFeePart(new(uint256.Int), feeAmount, protocolFeeRate)
	stats.FeeX.Add(stats.FeeX, new(uint256.Int).Sub(feeAmount, charged))
	stats.ProtocolFeeX.Add(stats.ProtocolFeeX, charged)

	stats.LiquidityVolumeXIn.Add(stats.LiquidityVolumeXIn, new(uint256.Int).Add(costX, feeAmount))
	stats.LiquidityVolumeYOut.Add(stats.LiquidityVolumeYOut, acquireY)
	p.PointInfo.SetPointStats(bucket, stats)
}

func (p *Pool) recordLiquidityFillY2X(point int64, costY, acquireX *uint256.Int, poolFee, protocolFeeRate uint32) {
	bucket := p.bucketPoint(point)
	stats := p.PointInfo.GetPointStatsOrDefault(bucket)

	feeAmount := feeFromCost(new(uint256.Int), costY, poolFee)
	charged := protocolFeePart(new(uint256.Int), feeAmount, protocolFeeRate)
	stats.FeeY.Add(stats.FeeY, new(uint256.Int).Sub(feeAmount, charged))
	stats.ProtocolFeeY.Add(stats.ProtocolFeeY, charged)

	stats.LiquidityVolumeYIn.Add(stats.LiquidityVolumeYIn, new(uint256.Int).Add(costY, feeAmount))
	stats.LiquidityVolumeXOut.Add(stats.LiquidityVolumeXOut, acquireX)
	p.PointInfo.SetPointStats(bucket, stats)
}

// recordLiquiditySweepX2Y attributes a completed leftward sweep from finalPt
// up to the current point across every stats bucket it crossed, re-deriving
// the per bucket amounts from the liquidity curve.
func (p *Pool) recordLiquiditySweepX2Y(finalPt int64, poolFee, protocolFeeRate uint32) error {
	leftEndpoint := floorDiv(finalPt, p.PointDelta)
	rightEndpoint := floorDiv(p.CurrentPoint, p.PointDelta)

	tokenXIn := new(uint256.Int)
	tokenYOut := new(uint256.Int)
	sqrtLo := new(uint256.Int)
	sqrtHi := new(uint256.Int)
	for i := leftEndpoint; i <= rightEndpoint; i++ {
		lo := i * p.PointDelta
		hi := (i + 1) * p.PointDelta
		if i == leftEndpoint {
			lo = finalPt
		}
		if i == rightEndpoint {
			hi = p.CurrentPoint
		}
		if err := pointmath.GetSqrtPrice(sqrtLo, lo); err != nil {
			return err
		}
		if err := pointmath.GetSqrtPrice(sqrtHi, hi); err != nil {
			return err
		}
		if _, err := amountmath.GetAmountX(tokenXIn, p.Liquidity, lo, hi, sqrtHi, true); err != nil {
			return err
		}
		amountmath.GetAmountY(tokenYOut, p.Liquidity, sqrtLo, sqrtHi, false)

		stats := p.PointInfo.GetPointStatsOrDefault(i * p.PointDelta)
		feeAmount := feeFromCost(new(uint256.Int), tokenXIn, poolFee)
		charged := protocolFeePart(new(uint256.Int), feeAmount, protocolFeeRate)
		stats.FeeX.Add(stats.FeeX, new(uint256.Int).Sub(feeAmount, charged))
		stats.ProtocolFeeX.Add(stats.ProtocolFeeX, charged)
		stats.LiquidityVolumeXIn.Add(stats.LiquidityVolumeXIn, new(uint256.Int).Add(tokenXIn, feeAmount))
		stats.LiquidityVolumeYOut.Add(stats.LiquidityVolumeYOut, tokenYOut)
		p.PointInfo.SetPointStats(i*p.PointDelta, stats)
	}
	return nil
}

// recordLiquiditySweepY2X attributes a completed rightward sweep from the
// current point up to finalPt.
func (p *Pool) recordLiquiditySweepY2X(finalPt int64, poolFee, protocolFeeRate uint32) error {
	leftEndpoint := floorDiv(p.CurrentPoint, p.PointDelta)
	rightEndpoint := floorDiv(finalPt, p.PointDelta)

	tokenYIn := new(uint256.Int)
	tokenXOut := new(uint256.Int)
	sqrtLo := new(uint256.Int)
	sqrtHi := new(uint256.Int)
	for i := leftEndpoint; i <= rightEndpoint; i++ {
		lo := i * p.PointDelta
		hi := (i + 1) * p.PointDelta
		if i == leftEndpoint {
			lo = p.CurrentPoint
		}
		if i == rightEndpoint {
			hi = finalPt
		}
		if err := pointmath.GetSqrtPrice(sqrtLo, lo); err != nil {
			return err
		}
		if err := pointmath.GetSqrtPrice(sqrtHi, hi); err != nil {
			return err
		}
		if _, err := amountmath.GetAmountX(tokenXOut, p.Liquidity, lo, hi, sqrtHi, false); err != nil {
			return err
		}
		amountmath.GetAmountY(tokenYIn, p.Liquidity, sqrtLo, sqrtHi, true)

		stats := p.PointInfo.GetPointStatsOrDefault(i * p.PointDelta)
		feeAmount := feeFromCost(new(uint256.Int), tokenYIn, poolFee)
		charged := protocolFeePart(new(uint256.Int), feeAmount, protocolFeeRate)
		stats.FeeY.Add(stats.FeeY, new(uint256.Int).Sub(feeAmount, charged))
		stats.ProtocolFeeY.Add(stats.ProtocolFeeY, charged)
		stats.LiquidityVolumeYIn.Add(stats.LiquidityVolumeYIn, new(uint256.Int).Add(tokenYIn, feeAmount))
		stats.LiquidityVolumeXOut.Add(stats.LiquidityVolumeXOut, tokenXOut)
		p.PointInfo.SetPointStats(i*p.PointDelta, stats)
	}
	return nil
}

// recordOrderFillX2Y books stats for an X to Y fill against resident orders
// at the current point.
func (p *Pool) recordOrderFillX2Y(consumedX, gainedY, feeAmount *uint256.Int, protocolFeeRate uint32) {
	stats := p.PointInfo.GetPointStatsOrDefault(p.CurrentPoint)
	stats.OrderVolumeYOut.Add(stats.OrderVolumeYOut, gainedY)
	stats.OrderVolumeXIn.Add(stats.OrderVolumeXIn, consumedX)
	charged := protocolFeePart(new(uint256.Int), feeAmount, protocolFeeRate)
	stats.ProtocolFeeX.Add(stats.ProtocolFeeX, charged)
	stats.FeeX.Add(stats.FeeX, new(uint256.Int).Sub(feeAmount, charged))
	p.PointInfo.SetPointStats(p.CurrentPoint, stats)
}

func (p *Pool) recordOrderFillY2X(consumedY, gainedX, feeAmount *uint256.Int, protocolFeeRate uint32) {
	stats := p.PointInfo.GetPointStatsOrDefault(p.CurrentPoint)
	stats.OrderVolumeYIn.Add(stats.OrderVolumeYIn, consumedY)
	stats.OrderVolumeXOut.Add(stats.OrderVolumeXOut, gainedX)
	charged := protocolFeePart(new(uint256.Int), feeAmount, protocolFeeRate)
	stats.ProtocolFeeY.Add(stats.ProtocolFeeY, charged)
	stats.FeeY.Add(stats.FeeY, new(uint256.Int).Sub(feeAmount, charged))
	p.PointInfo.SetPointStats(p.CurrentPoint, stats)
}

// processLimitOrderY fills resident Y orders at the current point with token
// X. Returns whether the swap leg finished, the gross X consumed including
// fee, the Y gained, the fee and the protocol cut.
func (p *Pool) processLimitOrderY(poolFee, protocolFeeRate uint32, orderData *OrderData, amountX *uint256.Int) (finished bool, consumedX, gainedY, feeAmount, protocolFee *uint256.Int) {
	consumedX = new(uint256.Int)
	gainedY = new(uint256.Int)
	feeAmount = new(uint256.Int)
	protocolFee = new(uint256.Int)

	net := netAmount(new(uint256.Int), amountX, poolFee)
	if net.IsZero() {
		return true, consumedX, gainedY, feeAmount, protocolFee
	}

	costX, acquireY := swapmath.XSwapYAtPrice(net, p.SqrtPrice96, orderData.SellingY)
	if acquireY.Cmp(orderData.SellingY) < 0 || costX.Cmp(net) >= 0 {
		finished = true
	}
	if costX.Cmp(net) >= 0 {
		// all x consumed
		feeAmount.Sub(amountX, costX)
	} else {
		feeFromCost(feeAmount, costX, poolFee)
	}

	// limit order fee goes to lp and protocol
	protocolFee.Set(p.chargeFeeX(feeAmount, protocolFeeRate))

	p.TotalOrderY.Sub(p.TotalOrderY, acquireY)

	orderData.SellingY.Sub(orderData.SellingY, acquireY)
	orderData.EarnX.Add(orderData.EarnX, costX)
	orderData.AccEarnX.Add(orderData.AccEarnX, costX)
	if orderData.SellingY.IsZero() {
		// point order fulfilled, move earnings to the legacy bucket
		orderData.EarnXLegacy.Add(orderData.EarnXLegacy, orderData.EarnX)
		orderData.AccEarnXLegacy.Set(orderData.AccEarnX)
		orderData.EarnX.Clear()
	}

	consumedX.Add(costX, feeAmount)
	gainedY.Set(acquireY)
	return finished, consumedX, gainedY, feeAmount, protocolFee
}

func (p *Pool) processLimitOrderX(poolFee, protocolFeeRate uint32, orderData *OrderData, amountY *uint256.Int) (finished bool, consumedY, gainedX, feeAmount, protocolFee *uint256.Int) {
	consumedY = new(uint256.Int)
	gainedX = new(uint256.Int)
	feeAmount = new(uint256.Int)
	protocolFee = new(uint256.Int)

	net := netAmount(new(uint256.Int), amountY, poolFee)
	if net.IsZero() {
		return true, consumedY, gainedX, feeAmount, protocolFee
	}

	costY, acquireX := swapmath.YSwapXAtPrice(net, p.SqrtPrice96, orderData.SellingX)
	if acquireX.Cmp(orderData.SellingX) < 0 || costY.Cmp(net) >= 0 {
		finished = true
	}
	if costY.Cmp(net) >= 0 {
		feeAmount.Sub(amountY, costY)
	} else {
		feeFromCost(feeAmount, costY, poolFee)
	}

	protocolFee.Set(p.chargeFeeY(feeAmount, protocolFeeRate))

	p.TotalOrderX.Sub(p.TotalOrderX, acquireX)

	orderData.SellingX.Sub(orderData.SellingX, acquireX)
	orderData.EarnY.Add(orderData.EarnY, costY)
	orderData.AccEarnY.Add(orderData.AccEarnY, costY)
	if orderData.SellingX.IsZero() {
		orderData.EarnYLegacy.Add(orderData.EarnYLegacy, orderData.EarnY)
		orderData.AccEarnYLegacy.Set(orderData.AccEarnY)
		orderData.EarnY.Clear()
	}

	consumedY.Add(costY, feeAmount)
	gainedX.Set(acquireX)
	return finished, consumedY, gainedX, feeAmount, protocolFee
}

// processLiquidityY swaps token X against range liquidity in
// [leftPt, currentPoint], moving the price left.
func (p *Pool) processLiquidityY(poolFee, protocolFeeRate uint32, amountX *uint256.Int, leftPt int64) (finished bool, consumedX, gainedY, feeAmount, protocolFee *uint256.Int, err error) {
	consumedX = new(uint256.Int)
	gainedY = new(uint256.Int)
	feeAmount = new(uint256.Int)
	protocolFee = new(uint256.Int)

	net := netAmount(new(uint256.Int), amountX, poolFee)
	if net.IsZero() {
		// swap has already completed
		return true, consumedX, gainedY, feeAmount, protocolFee, nil
	}
	if p.Liquidity.IsZero() {
		// swap hasn't completed but current range has no liquidity
		if p.CurrentPoint != leftPt {
			p.CurrentPoint = leftPt
			if err = pointmath.GetSqrtPrice(p.SqrtPrice96, leftPt); err != nil {
				return false, nil, nil, nil, nil, err
			}
			p.LiquidityX.Clear()
		}
		return false, consumedX, gainedY, feeAmount, protocolFee, nil
	}

	rangeResult, err := p.rangeXSwapY(leftPt, net, poolFee, protocolFeeRate)
	if err != nil {
		return false, nil, nil, nil, nil, err
	}

	if rangeResult.CostX.Cmp(net) < 0 {
		feeFromCost(feeAmount, rangeResult.CostX, poolFee)
	} else {
		feeAmount.Sub(amountX, rangeResult.CostX)
	}

	// distribute fee
	charged := protocolFeePart(new(uint256.Int), feeAmount, protocolFeeRate)
	p.TotalFeeXCharged.Add(p.TotalFeeXCharged, charged)
	lpShare := new(uint256.Int).Sub(feeAmount, charged)
	p.FeeScaleX128.Add(p.FeeScaleX128, pointmath.MulFractionFloor(new(uint256.Int), lpShare, pointmath.POW_128, p.Liquidity))

	// update current point liquidity info
	p.CurrentPoint = rangeResult.FinalPt
	p.SqrtPrice96.Set(rangeResult.SqrtFinalPrice96)
	p.LiquidityX.Set(rangeResult.LiquidityX)

	protocolFee.Set(charged)
	consumedX.Add(rangeResult.CostX, feeAmount)
	gainedY.Set(rangeResult.AcquireY)
	return rangeResult.Finished, consumedX, gainedY, feeAmount, protocolFee, nil
}

// processLiquidityX swaps token Y against range liquidity in
// [currentPoint, nextPt), moving the price right.
func (p *Pool) processLiquidityX(poolFee, protocolFeeRate uint32, amountY *uint256.Int, nextPt int64) (finished bool, consumedY, gainedX, feeAmount, protocolFee *uint256.Int, err error) {
	consumedY = new(uint256.Int)
	gainedX = new(uint256.Int)
	feeAmount = new(uint256.Int)
	protocolFee = new(uint256.Int)

	net := netAmount(new(uint256.Int), amountY, poolFee)
	if net.IsZero() {
		return true, consumedY, gainedX, feeAmount, protocolFee, nil
	}

	rangeResult, err := p.rangeYSwapX(nextPt, net, poolFee, protocolFeeRate)
	if err != nil {
		return false, nil, nil, nil, nil, err
	}

	if rangeResult.CostY.Cmp(net) < 0 {
		feeFromCost(feeAmount, rangeResult.CostY, poolFee)
	} else {
		feeAmount.Sub(amountY, rangeResult.CostY)
	}

	charged := protocolFeePart(new(uint256.Int), feeAmount, protocolFeeRate)
	p.TotalFeeYCharged.Add(p.TotalFeeYCharged, charged)
	lpShare := new(uint256.Int).Sub(feeAmount, charged)
	p.FeeScaleY128.Add(p.FeeScaleY128, pointmath.MulFractionFloor(new(uint256.Int), lpShare, pointmath.POW_128, p.Liquidity))

	p.CurrentPoint = rangeResult.FinalPt
	p.SqrtPrice96.Set(rangeResult.SqrtFinalPrice96)
	p.LiquidityX.Set(rangeResult.LiquidityX)

	protocolFee.Set(charged)
	consumedY.Add(rangeResult.CostY, feeAmount)
	gainedX.Set(rangeResult.AcquireX)
	return rangeResult.Finished, consumedY, gainedX, feeAmount, protocolFee, nil
}

// rangeXSwapY swaps token X leftward against liquidity down to leftPoint,
// treating the current point's Y remainder as a special first fill.
func (p *Pool) rangeXSwapY(leftPoint int64, amountX *uint256.Int, poolFee, protocolFeeRate uint32) (*x2yRangeResult, error) {
	result := newX2YRangeResult()
	amount := new(uint256.Int).Set(amountX)

	currentHasY := p.LiquidityX.Cmp(p.Liquidity) < 0
	switch {
	case currentHasY && (!p.LiquidityX.IsZero() || leftPoint == p.CurrentPoint):
		// current point as a special point to swap first
		costX, acquireY, newLiquidityX := swapmath.XSwapYAtPriceLiquidity(amount, p.SqrtPrice96, p.Liquidity, p.LiquidityX)
		result.CostX.Set(costX)
		result.AcquireY.Set(acquireY)
		result.LiquidityX.Set(newLiquidityX)
		if newLiquidityX.Cmp(p.Liquidity) < 0 || costX.Cmp(amount) >= 0 {
			result.Finished = true
			result.FinalPt = p.CurrentPoint
			result.SqrtFinalPrice96.Set(p.SqrtPrice96)
		} else {
			amount.Sub(amount, costX)
		}
		p.recordLiquidityFillX2Y(p.CurrentPoint, costX, acquireY, poolFee, protocolFeeRate)
	case currentHasY:
		// current point is all Y, fold it into the left range
		p.CurrentPoint++
		growOnePoint(p.SqrtPrice96)
	default:
		result.LiquidityX.Set(p.LiquidityX)
	}

	if result.Finished {
		return result, nil
	}

	if leftPoint < p.CurrentPoint {
		sqrtPriceL96 := new(uint256.Int)
		if err := pointmath.GetSqrtPrice(sqrtPriceL96, leftPoint); err != nil {
			return nil, err
		}
		comp, err := swapmath.XSwapYRangeComplete(p.Liquidity, sqrtPriceL96, leftPoint, p.SqrtPrice96, p.CurrentPoint, amount)
		if err != nil {
			return nil, err
		}
		result.CostX.Add(result.CostX, comp.CostX)
		amount.Sub(amount, comp.CostX)
		result.AcquireY.Add(result.AcquireY, comp.AcquireY)
		if comp.CompleteLiquidity {
			result.Finished = amount.IsZero()
			result.FinalPt = leftPoint
			result.SqrtFinalPrice96.Set(sqrtPriceL96)
			result.LiquidityX.Set(p.Liquidity)
			if err := p.recordLiquiditySweepX2Y(leftPoint, poolFee, protocolFeeRate); err != nil {
				return nil, err
			}
		} else {
			costX, acquireY, newLiquidityX := swapmath.XSwapYAtPriceLiquidity(amount, comp.SqrtLoc96, p.Liquidity, new(uint256.Int))
			result.CostX.Add(result.CostX, costX)
			result.AcquireY.Add(result.AcquireY, acquireY)
			result.Finished = true
			result.SqrtFinalPrice96.Set(comp.SqrtLoc96)
			result.FinalPt = comp.LocPt
			result.LiquidityX.Set(newLiquidityX)
			p.recordLiquidityFillX2Y(comp.LocPt, costX, acquireY, poolFee, protocolFeeRate)
		}
	} else {
		result.FinalPt = p.CurrentPoint
		result.SqrtFinalPrice96.Set(p.SqrtPrice96)
	}

	return result, nil
}

// rangeYSwapX swaps token Y rightward against liquidity up to rightPoint,
// converting the current point's X remainder first.
func (p *Pool) rangeYSwapX(rightPoint int64, amountY *uint256.Int, poolFee, protocolFeeRate uint32) (*y2xRangeResult, error) {
	result := newY2XRangeResult()
	amount := new(uint256.Int).Set(amountY)

	// if the current point is not all X, the price cannot move right yet
	startHasY := p.LiquidityX.Cmp(p.Liquidity) < 0
	if startHasY {
		costY, acquireX, newLiquidityX := swapmath.YSwapXAtPriceLiquidity(amount, p.SqrtPrice96, p.LiquidityX)
		result.CostY.Set(costY)
		result.AcquireX.Set(acquireX)
		result.LiquidityX.Set(newLiquidityX)

		p.recordLiquidityFillY2X(p.CurrentPoint, costY, acquireX, poolFee, protocolFeeRate)

		if !newLiquidityX.IsZero() || costY.Cmp(amount) >= 0 {
			// remaining Y cannot lift the price to the next point
			result.Finished = true
			result.FinalPt = p.CurrentPoint
			result.SqrtFinalPrice96.Set(p.SqrtPrice96)
			return result, nil
		}
		amount.Sub(amount, costY)
		p.CurrentPoint++
		if p.CurrentPoint == rightPoint {
			result.FinalPt = p.CurrentPoint
			// fixed sqrt price to cut accumulated error
			if err := pointmath.GetSqrtPrice(result.SqrtFinalPrice96, rightPoint); err != nil {
				return nil, err
			}
			return result, nil
		}
		growOnePoint(p.SqrtPrice96)
	}

	sqrtPriceR96 := new(uint256.Int)
	if err := pointmath.GetSqrtPrice(sqrtPriceR96, rightPoint); err != nil {
		return nil, err
	}
	comp, err := swapmath.YSwapXRangeComplete(p.Liquidity, p.SqrtPrice96, p.CurrentPoint, sqrtPriceR96, rightPoint, amount)
	if err != nil {
		return nil, err
	}
	result.CostY.Add(result.CostY, comp.CostY)
	amount.Sub(amount, comp.CostY)
	result.AcquireX.Add(result.AcquireX, comp.AcquireX)
	if comp.CompleteLiquidity {
		result.Finished = amount.IsZero()
		result.FinalPt = rightPoint
		result.SqrtFinalPrice96.Set(sqrtPriceR96)
		if err := p.recordLiquiditySweepY2X(rightPoint, poolFee, protocolFeeRate); err != nil {
			return nil, err
		}
	} else {
		// trade at the located point, where all liquidity is X side
		costY, acquireX, newLiquidityX := swapmath.YSwapXAtPriceLiquidity(amount, comp.SqrtLoc96, p.Liquidity)
		result.LiquidityX.Set(newLiquidityX)
		result.CostY.Add(result.CostY, costY)
		result.AcquireX.Add(result.AcquireX, acquireX)
		result.Finished = true
		result.SqrtFinalPrice96.Set(comp.SqrtLoc96)
		result.FinalPt = comp.LocPt
		p.recordLiquidityFillY2X(comp.LocPt, costY, acquireX, poolFee, protocolFeeRate)
	}
	return result, nil
}

// InternalXSwapY runs a full X to Y swap leg down to lowBoundaryPoint.
// Returns the gross X consumed, the Y acquired, whether the input ran out,
// and the total and protocol fee taken.
func (p *Pool) InternalXSwapY(poolFee, protocolFeeRate uint32, inputAmount *uint256.Int, lowBoundaryPoint int64, isQuote bool) (amountX, amountY *uint256.Int, finished bool, totalFee, protocolFee *uint256.Int, err error) {
	boundaryPoint := lowBoundaryPoint
	if boundaryPoint < pointmath.LEFT_MOST_POINT {
		boundaryPoint = pointmath.LEFT_MOST_POINT
	}
	amount := new(uint256.Int).Set(inputAmount)
	amountX = new(uint256.Int)
	amountY = new(uint256.Int)
	totalFee = new(uint256.Int)
	protocolFee = new(uint256.Int)

	for boundaryPoint <= p.CurrentPoint && !finished {
		currentOrderOrEndpt := p.PointInfo.GetPointTypeValue(p.CurrentPoint, p.PointDelta)

		// step 1: fill the resident orders on the current point
		if currentOrderOrEndpt&2 > 0 {
			pointData := p.PointInfo.GetPointData(p.CurrentPoint)
			orderData := pointData.OrderData
			if isQuote {
				pointData = pointData.Clone()
				orderData = pointData.OrderData
			}

			fin, consumedX, gainedY, fee, pFee := p.processLimitOrderY(poolFee, protocolFeeRate, orderData, amount)
			finished = fin
			amount.Sub(amount, consumedX)
			amountX.Add(amountX, consumedX)
			amountY.Add(amountY, gainedY)
			totalFee.Add(totalFee, fee)
			protocolFee.Add(protocolFee, pFee)

			p.recordOrderFillX2Y(consumedX, gainedY, fee, protocolFeeRate)

			if err = p.UpdatePointOrder(pointData, orderData, isQuote); err != nil {
				return nil, nil, false, nil, nil, err
			}
			if finished {
				break
			}
		}

		// step 2: consume the liquidity anchored on the current point.
		// The search start stays one left because the current point may sit
		// in the middle of a liquidity slot.
		searchStart := p.CurrentPoint - 1

		if currentOrderOrEndpt&1 > 0 {
			fin, consumedX, gainedY, fee, pFee, perr := p.processLiquidityY(poolFee, protocolFeeRate, amount, p.CurrentPoint)
			if perr != nil {
				return nil, nil, false, nil, nil, perr
			}
			finished = fin
			amount.Sub(amount, consumedX)
			amountX.Add(amountX, consumedX)
			amountY.Add(amountY, gainedY)
			totalFee.Add(totalFee, fee)
			protocolFee.Add(protocolFee, pFee)

			if !finished {
				p.PassEndpoint(p.CurrentPoint, isQuote, true)
				p.CurrentPoint--
				if err = pointmath.GetSqrtPrice(p.SqrtPrice96, p.CurrentPoint); err != nil {
					return nil, nil, false, nil, nil, err
				}
				p.LiquidityX.Clear()
			}
			if finished || p.CurrentPoint < boundaryPoint {
				break
			}
			// the new current point can itself be valued when pointDelta is one
			if p.PointInfo.GetPointTypeValue(p.CurrentPoint, p.PointDelta)&3 > 0 {
				continue
			}
			searchStart = p.CurrentPoint
		}

		// step 3a: locate the left boundary of the next range pass
		lackOnePointToRealLeft := false
		nextPt := boundaryPoint
		if point, ok := p.SlotBitmap.NearestLeftValuedSlot(searchStart, p.PointDelta, ceilDiv(boundaryPoint, p.PointDelta)); ok {
			if point < boundaryPoint {
				nextPt = boundaryPoint
			} else if p.PointInfo.GetPointTypeValue(point, p.PointDelta)&2 > 0 {
				// stop one short to protect the order on the located point
				lackOnePointToRealLeft = true
				nextPt = point + 1
			} else {
				nextPt = point
			}
		}

		// step 3b: range swap down to the located left point
		fin, consumedX, gainedY, fee, pFee, perr := p.processLiquidityY(poolFee, protocolFeeRate, amount, nextPt)
		if perr != nil {
			return nil, nil, false, nil, nil, perr
		}
		finished = fin
		amount.Sub(amount, consumedX)
		amountX.Add(amountX, consumedX)
		amountY.Add(amountY, gainedY)
		totalFee.Add(totalFee, fee)
		protocolFee.Add(protocolFee, pFee)

		if finished || p.CurrentPoint <= boundaryPoint {
			break
		}
		if lackOnePointToRealLeft {
			// must move one left, otherwise the loop cannot progress
			p.CurrentPoint--
			if err = pointmath.GetSqrtPrice(p.SqrtPrice96, p.CurrentPoint); err != nil {
				return nil, nil, false, nil, nil, err
			}
			p.LiquidityX.Clear()
		}
	}
	return amountX, amountY, finished, totalFee, protocolFee, nil
}

// InternalYSwapX runs a full Y to X swap leg up to highBoundaryPoint.
// Returns the gross Y consumed, the X acquired, whether the input ran out,
// and the total and protocol fee taken.
func (p *Pool) InternalYSwapX(poolFee, protocolFeeRate uint32, inputAmount *uint256.Int, highBoundaryPoint int64, isQuote bool) (amountY, amountX *uint256.Int, finished bool, totalFee, protocolFee *uint256.Int, err error) {
	boundaryPoint := highBoundaryPoint
	if boundaryPoint > pointmath.RIGHT_MOST_POINT {
		boundaryPoint = pointmath.RIGHT_MOST_POINT
	}
	amount := new(uint256.Int).Set(inputAmount)
	amountX = new(uint256.Int)
	amountY = new(uint256.Int)
	totalFee = new(uint256.Int)
	protocolFee = new(uint256.Int)

	currentOrderOrEndpt := p.PointInfo.GetPointTypeValue(p.CurrentPoint, p.PointDelta)
	for p.CurrentPoint < boundaryPoint && !finished {
		if currentOrderOrEndpt&2 > 0 {
			pointData := p.PointInfo.GetPointData(p.CurrentPoint)
			orderData := pointData.OrderData
			if isQuote {
				pointData = pointData.Clone()
				orderData = pointData.OrderData
			}

			fin, consumedY, gainedX, fee, pFee := p.processLimitOrderX(poolFee, protocolFeeRate, orderData, amount)
			finished = fin
			amount.Sub(amount, consumedY)
			amountX.Add(amountX, gainedX)
			amountY.Add(amountY, consumedY)
			totalFee.Add(totalFee, fee)
			protocolFee.Add(protocolFee, pFee)

			p.recordOrderFillY2X(consumedY, gainedX, fee, protocolFeeRate)

			if err = p.UpdatePointOrder(pointData, orderData, isQuote); err != nil {
				return nil, nil, false, nil, nil, err
			}
			if finished {
				break
			}
		}

		nextPt := boundaryPoint
		nextVal := 0
		if point, ok := p.SlotBitmap.NearestRightValuedSlot(p.CurrentPoint, p.PointDelta, floorDiv(boundaryPoint, p.PointDelta)); ok {
			if point > boundaryPoint {
				nextPt, nextVal = boundaryPoint, 0
			} else {
				nextPt, nextVal = point, p.PointInfo.GetPointTypeValue(point, p.PointDelta)
			}
		}

		if p.Liquidity.IsZero() {
			// no liquidity in [currentPoint, nextPt), jump
			p.CurrentPoint = nextPt
			if err = pointmath.GetSqrtPrice(p.SqrtPrice96, p.CurrentPoint); err != nil {
				return nil, nil, false, nil, nil, err
			}
			if nextVal&1 > 0 {
				p.PassEndpoint(nextPt, isQuote, false)
				p.LiquidityX.Set(p.Liquidity)
			}
			currentOrderOrEndpt = nextVal
		} else {
			fin, consumedY, gainedX, fee, pFee, perr := p.processLiquidityX(poolFee, protocolFeeRate, amount, nextPt)
			if perr != nil {
				return nil, nil, false, nil, nil, perr
			}
			finished = fin

			if p.CurrentPoint == nextPt {
				if nextVal&1 > 0 {
					p.PassEndpoint(nextPt, isQuote, false)
				}
				p.LiquidityX.Set(p.Liquidity)
				currentOrderOrEndpt = nextVal
			} else {
				currentOrderOrEndpt = 0
			}

			amount.Sub(amount, consumedY)
			amountX.Add(amountX, gainedX)
			amountY.Add(amountY, consumedY)
			totalFee.Add(totalFee, fee)
			protocolFee.Add(protocolFee, pFee)
		}
	}
	return amountY, amountX, finished, totalFee, protocolFee, nil
}
