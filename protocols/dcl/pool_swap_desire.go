package dcl

import (
	"github.com/holiman/uint256"

	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/pointmath"
	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/swapmath"
)

// subSaturating shrinks a remaining desire by what a fill produced, clamping
// at zero.
func subSaturating(amount, delta *uint256.Int) {
	if amount.Cmp(delta) > 0 {
		amount.Sub(amount, delta)
	} else {
		amount.Clear()
	}
}

// processLimitOrderYDesireY fills resident Y orders at the current point
// until desireY is bought.
func (p *Pool) processLimitOrderYDesireY(poolFee, protocolFeeRate uint32, orderData *OrderData, desireY *uint256.Int) (finished bool, consumedX, gainedY, feeAmount, protocolFee *uint256.Int) {
	consumedX = new(uint256.Int)
	gainedY = new(uint256.Int)
	feeAmount = new(uint256.Int)
	protocolFee = new(uint256.Int)

	costX, acquireY := swapmath.XSwapYAtPriceDesire(desireY, p.SqrtPrice96, orderData.SellingY)
	finished = acquireY.Cmp(desireY) >= 0

	feeFromCost(feeAmount, costX, poolFee)
	protocolFee.Set(p.chargeFeeX(feeAmount, protocolFeeRate))

	p.TotalOrderY.Sub(p.TotalOrderY, acquireY)

	orderData.SellingY.Sub(orderData.SellingY, acquireY)
	orderData.EarnX.Add(orderData.EarnX, costX)
	orderData.AccEarnX.Add(orderData.AccEarnX, costX)
	if orderData.SellingY.IsZero() {
		orderData.EarnXLegacy.Add(orderData.EarnXLegacy, orderData.EarnX)
		orderData.AccEarnXLegacy.Set(orderData.AccEarnX)
		orderData.EarnX.Clear()
	}

	consumedX.Add(costX, feeAmount)
	gainedY.Set(acquireY)
	return finished, consumedX, gainedY, feeAmount, protocolFee
}

func (p *Pool) processLimitOrderXDesireX(poolFee, protocolFeeRate uint32, orderData *OrderData, desireX *uint256.Int) (finished bool, consumedY, gainedX, feeAmount, protocolFee *uint256.Int) {
	consumedY = new(uint256.Int)
	gainedX = new(uint256.Int)
	feeAmount = new(uint256.Int)
	protocolFee = new(uint256.Int)

	costY, acquireX := swapmath.YSwapXAtPriceDesire(desireX, p.SqrtPrice96, orderData.SellingX)
	finished = acquireX.Cmp(desireX) >= 0

	feeFromCost(feeAmount, costY, poolFee)
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

// processLiquidityYDesireY buys up to desireY from range liquidity in
// [leftPt, currentPoint], moving the price left.
func (p *Pool) processLiquidityYDesireY(poolFee, protocolFeeRate uint32, desireY *uint256.Int, leftPt int64) (finished bool, consumedX, gainedY, feeAmount, protocolFee *uint256.Int, err error) {
	consumedX = new(uint256.Int)
	gainedY = new(uint256.Int)
	feeAmount = new(uint256.Int)
	protocolFee = new(uint256.Int)

	if desireY.IsZero() {
		return true, consumedX, gainedY, feeAmount, protocolFee, nil
	}
	if p.Liquidity.IsZero() {
		if p.CurrentPoint != leftPt {
			p.CurrentPoint = leftPt
			if err = pointmath.GetSqrtPrice(p.SqrtPrice96, leftPt); err != nil {
				return false, nil, nil, nil, nil, err
			}
			p.LiquidityX.Clear()
		}
		return false, consumedX, gainedY, feeAmount, protocolFee, nil
	}

	rangeResult, err := p.rangeXSwapYDesire(leftPt, desireY, poolFee, protocolFeeRate)
	if err != nil {
		return false, nil, nil, nil, nil, err
	}

	feeFromCost(feeAmount, rangeResult.CostX, poolFee)

	charged := protocolFeePart(new(uint256.Int), feeAmount, protocolFeeRate)
	p.TotalFeeXCharged.Add(p.TotalFeeXCharged, charged)
	lpShare := new(uint256.Int).Sub(feeAmount, charged)
	p.FeeScaleX128.Add(p.FeeScaleX128, pointmath.MulFractionFloor(new(uint256.Int), lpShare, pointmath.POW_128, p.Liquidity))

	p.CurrentPoint = rangeResult.FinalPt
	p.SqrtPrice96.Set(rangeResult.SqrtFinalPrice96)
	p.LiquidityX.Set(rangeResult.LiquidityX)

	protocolFee.Set(charged)
	consumedX.Add(rangeResult.CostX, feeAmount)
	gainedY.Set(rangeResult.AcquireY)
	return rangeResult.Finished, consumedX, gainedY, feeAmount, protocolFee, nil
}

// processLiquidityXDesireX buys up to desireX from range liquidity in
// [currentPoint, nextPt), moving the price right.
func (p *Pool) processLiquidityXDesireX(poolFee, protocolFeeRate uint32, desireX *uint256.Int, nextPt int64) (finished bool, consumedY, gainedX, feeAmount, protocolFee *uint256.Int, err error) {
	consumedY = new(uint256.Int)
	gainedX = new(uint256.Int)
	feeAmount = new(uint256.Int)
	protocolFee = new(uint256.Int)

	if desireX.IsZero() {
		return true, consumedY, gainedX, feeAmount, protocolFee, nil
	}

	rangeResult, err := p.rangeYSwapXDesire(nextPt, desireX, poolFee, protocolFeeRate)
	if err != nil {
		return false, nil, nil, nil, nil, err
	}

	feeFromCost(feeAmount, rangeResult.CostY, poolFee)

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

// rangeXSwapYDesire buys token Y leftward down to leftPoint.
func (p *Pool) rangeXSwapYDesire(leftPoint int64, desireY *uint256.Int, poolFee, protocolFeeRate uint32) (*x2yRangeResult, error) {
	result := newX2YRangeResult()
	desire := new(uint256.Int).Set(desireY)

	currentHasY := p.LiquidityX.Cmp(p.Liquidity) < 0
	switch {
	case currentHasY && (!p.LiquidityX.IsZero() || leftPoint == p.CurrentPoint):
		costX, acquireY, newLiquidityX := swapmath.XSwapYAtPriceLiquidityDesire(desire, p.SqrtPrice96, p.Liquidity, p.LiquidityX)
		result.CostX.Set(costX)
		result.AcquireY.Set(acquireY)
		result.LiquidityX.Set(newLiquidityX)
		if newLiquidityX.Cmp(p.Liquidity) < 0 || acquireY.Cmp(desire) >= 0 {
			result.Finished = true
			result.FinalPt = p.CurrentPoint
			result.SqrtFinalPrice96.Set(p.SqrtPrice96)
		} else {
			subSaturating(desire, acquireY)
		}
		p.recordLiquidityFillX2Y(p.CurrentPoint, costX, acquireY, poolFee, protocolFeeRate)
	case currentHasY:
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
		comp, err := swapmath.XSwapYRangeCompleteDesire(p.Liquidity, sqrtPriceL96, leftPoint, p.SqrtPrice96, p.CurrentPoint, desire)
		if err != nil {
			return nil, err
		}
		result.CostX.Add(result.CostX, comp.CostX)
		result.AcquireY.Add(result.AcquireY, comp.AcquireY)
		subSaturating(desire, comp.AcquireY)
		if comp.CompleteLiquidity {
			result.Finished = desire.IsZero()
			result.FinalPt = leftPoint
			result.SqrtFinalPrice96.Set(sqrtPriceL96)
			result.LiquidityX.Set(p.Liquidity)
			if err := p.recordLiquiditySweepX2Y(leftPoint, poolFee, protocolFeeRate); err != nil {
				return nil, err
			}
		} else {
			costX, acquireY, newLiquidityX := swapmath.XSwapYAtPriceLiquidityDesire(desire, comp.SqrtLoc96, p.Liquidity, new(uint256.Int))
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

// rangeYSwapXDesire buys token X rightward up to rightPoint.
func (p *Pool) rangeYSwapXDesire(rightPoint int64, desireX *uint256.Int, poolFee, protocolFeeRate uint32) (*y2xRangeResult, error) {
	result := newY2XRangeResult()
	desire := new(uint256.Int).Set(desireX)

	startHasY := p.LiquidityX.Cmp(p.Liquidity) < 0
	if startHasY {
		costY, acquireX, newLiquidityX := swapmath.YSwapXAtPriceLiquidityDesire(desire, p.SqrtPrice96, p.LiquidityX)
		result.CostY.Set(costY)
		result.AcquireX.Set(acquireX)
		result.LiquidityX.Set(newLiquidityX)

		p.recordLiquidityFillY2X(p.CurrentPoint, costY, acquireX, poolFee, protocolFeeRate)

		if !newLiquidityX.IsZero() || acquireX.Cmp(desire) >= 0 {
			result.Finished = true
			result.FinalPt = p.CurrentPoint
			result.SqrtFinalPrice96.Set(p.SqrtPrice96)
			return result, nil
		}
		subSaturating(desire, acquireX)
		p.CurrentPoint++
		if p.CurrentPoint == rightPoint {
			result.FinalPt = p.CurrentPoint
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
	comp, err := swapmath.YSwapXRangeCompleteDesire(p.Liquidity, p.SqrtPrice96, p.CurrentPoint, sqrtPriceR96, rightPoint, desire)
	if err != nil {
		return nil, err
	}
	result.CostY.Add(result.CostY, comp.CostY)
	result.AcquireX.Add(result.AcquireX, comp.AcquireX)
	subSaturating(desire, comp.AcquireX)
	if comp.CompleteLiquidity {
		result.Finished = desire.IsZero()
		result.FinalPt = rightPoint
		result.SqrtFinalPrice96.Set(sqrtPriceR96)
		if err := p.recordLiquiditySweepY2X(rightPoint, poolFee, protocolFeeRate); err != nil {
			return nil, err
		}
	} else {
		costY, acquireX, newLiquidityX := swapmath.YSwapXAtPriceLiquidityDesire(desire, comp.SqrtLoc96, p.Liquidity)
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

// InternalXSwapYDesireY runs an X to Y swap leg that stops once desireY of
// token Y has been bought or the price reaches lowBoundaryPoint.
func (p *Pool) InternalXSwapYDesireY(poolFee, protocolFeeRate uint32, desiredAmount *uint256.Int, lowBoundaryPoint int64, isQuote bool) (amountX, amountY *uint256.Int, finished bool, totalFee, protocolFee *uint256.Int, err error) {
	boundaryPoint := lowBoundaryPoint
	if boundaryPoint < pointmath.LEFT_MOST_POINT {
		boundaryPoint = pointmath.LEFT_MOST_POINT
	}
	desire := new(uint256.Int).Set(desiredAmount)
	amountX = new(uint256.Int)
	amountY = new(uint256.Int)
	totalFee = new(uint256.Int)
	protocolFee = new(uint256.Int)

	for boundaryPoint <= p.CurrentPoint && !finished {
		currentOrderOrEndpt := p.PointInfo.GetPointTypeValue(p.CurrentPoint, p.PointDelta)

		if currentOrderOrEndpt&2 > 0 {
			pointData := p.PointInfo.GetPointData(p.CurrentPoint)
			orderData := pointData.OrderData
			if isQuote {
				pointData = pointData.Clone()
				orderData = pointData.OrderData
			}

			fin, consumedX, gainedY, fee, pFee := p.processLimitOrderYDesireY(poolFee, protocolFeeRate, orderData, desire)
			finished = fin
			subSaturating(desire, gainedY)
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

		searchStart := p.CurrentPoint - 1

		if currentOrderOrEndpt&1 > 0 {
			fin, consumedX, gainedY, fee, pFee, perr := p.processLiquidityYDesireY(poolFee, protocolFeeRate, desire, p.CurrentPoint)
			if perr != nil {
				return nil, nil, false, nil, nil, perr
			}
			finished = fin
			subSaturating(desire, gainedY)
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
			if p.PointInfo.GetPointTypeValue(p.CurrentPoint, p.PointDelta)&3 > 0 {
				continue
			}
			searchStart = p.CurrentPoint
		}

		lackOnePointToRealLeft := false
		nextPt := boundaryPoint
		if point, ok := p.SlotBitmap.NearestLeftValuedSlot(searchStart, p.PointDelta, ceilDiv(boundaryPoint, p.PointDelta)); ok {
			if point < boundaryPoint {
				nextPt = boundaryPoint
			} else if p.PointInfo.GetPointTypeValue(point, p.PointDelta)&2 > 0 {
				lackOnePointToRealLeft = true
				nextPt = point + 1
			} else {
				nextPt = point
			}
		}

		fin, consumedX, gainedY, fee, pFee, perr := p.processLiquidityYDesireY(poolFee, protocolFeeRate, desire, nextPt)
		if perr != nil {
			return nil, nil, false, nil, nil, perr
		}
		finished = fin
		subSaturating(desire, gainedY)
		amountX.Add(amountX, consumedX)
		amountY.Add(amountY, gainedY)
		totalFee.Add(totalFee, fee)
		protocolFee.Add(protocolFee, pFee)

		if finished || p.CurrentPoint <= boundaryPoint {
			break
		}
		if lackOnePointToRealLeft {
			p.CurrentPoint--
			if err = pointmath.GetSqrtPrice(p.SqrtPrice96, p.CurrentPoint); err != nil {
				return nil, nil, false, nil, nil, err
			}
			p.LiquidityX.Clear()
		}
	}
	return amountX, amountY, finished, totalFee, protocolFee, nil
}

// InternalYSwapXDesireX runs a Y to X swap leg that stops once desireX of
// token X has been bought or the price reaches highBoundaryPoint.
func (p *Pool) InternalYSwapXDesireX(poolFee, protocolFeeRate uint32, desiredAmount *uint256.Int, highBoundaryPoint int64, isQuote bool) (amountY, amountX *uint256.Int, finished bool, totalFee, protocolFee *uint256.Int, err error) {
	boundaryPoint := highBoundaryPoint
	if boundaryPoint > pointmath.RIGHT_MOST_POINT {
		boundaryPoint = pointmath.RIGHT_MOST_POINT
	}
	desire := new(uint256.Int).Set(desiredAmount)
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

			fin, consumedY, gainedX, fee, pFee := p.processLimitOrderXDesireX(poolFee, protocolFeeRate, orderData, desire)
			finished = fin
			subSaturating(desire, gainedX)
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
			fin, consumedY, gainedX, fee, pFee, perr := p.processLiquidityXDesireX(poolFee, protocolFeeRate, desire, nextPt)
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

			subSaturating(desire, gainedX)
			amountX.Add(amountX, gainedX)
			amountY.Add(amountY, consumedY)
			totalFee.Add(totalFee, fee)
			protocolFee.Add(protocolFee, pFee)
		}
	}
	return amountY, amountX, finished, totalFee, protocolFee, nil
}
