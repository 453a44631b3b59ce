package dcl

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/pointmath"
)

// MARKET_QUERY_SLOT_LIMIT bounds how many slots a market depth scan may walk
// away from the current point in either direction.
const MARKET_QUERY_SLOT_LIMIT = 150000

// RangeInfo is one constant-liquidity segment of the curve.
type RangeInfo struct {
	LeftPoint  int64        `json:"left_point"`
	RightPoint int64        `json:"right_point"`
	AmountL    *uint256.Int `json:"amount_l"`
}

// PointOrderInfo is the resident order book at one point.
type PointOrderInfo struct {
	Point   int64        `json:"point"`
	AmountX *uint256.Int `json:"amount_x"`
	AmountY *uint256.Int `json:"amount_y"`
}

// MarketDepth is the order book view around the current point.
type MarketDepth struct {
	PoolID       PoolID                    `json:"pool_id"`
	CurrentPoint int64                     `json:"current_point"`
	AmountL      *uint256.Int              `json:"amount_l"`
	AmountLX     *uint256.Int              `json:"amount_l_x"`
	Liquidities  map[int64]*RangeInfo      `json:"liquidities"`
	Orders       map[int64]*PointOrderInfo `json:"orders"`
}

// GetLiquidityRange reports the constant-liquidity segments covering
// [leftPoint, rightPoint], keyed by segment left point.
func (d *Dcl) GetLiquidityRange(poolID PoolID, leftPoint, rightPoint int64) (map[int64]*RangeInfo, error) {
	if leftPoint > rightPoint || leftPoint < pointmath.LEFT_MOST_POINT || rightPoint > pointmath.RIGHT_MOST_POINT {
		return nil, ErrIllegalRange
	}
	pool, err := d.GetPool(poolID)
	if err != nil {
		return nil, err
	}

	ret := make(map[int64]*RangeInfo)
	switch {
	case leftPoint >= pool.CurrentPoint:
		collectRangesRightward(pool, leftPoint, rightPoint, ret)
	case rightPoint <= pool.CurrentPoint:
		collectRangesLeftward(pool, leftPoint, rightPoint, ret)
	default:
		collectRangesLeftward(pool, leftPoint, pool.CurrentPoint, ret)
		collectRangesRightward(pool, pool.CurrentPoint, rightPoint, ret)
	}
	return ret, nil
}

// collectRangesRightward walks endpoints from the current point up through
// [leftPoint, rightPoint], tracking liquidity by applying each crossed
// endpoint's delta.
func collectRangesRightward(pool *Pool, leftPoint, rightPoint int64, ret map[int64]*RangeInfo) {
	liquidity := new(uint256.Int).Set(pool.Liquidity)

	// roll liquidity forward from the current point to leftPoint
	if leftPoint != pool.CurrentPoint {
		current, ok := pool.SlotBitmap.NearestRightValuedSlot(pool.CurrentPoint, pool.PointDelta, floorDiv(leftPoint, pool.PointDelta))
		for ok && current < leftPoint {
			if pool.PointInfo.IsEndpoint(current, pool.PointDelta) {
				liquidityData := pool.PointInfo.GetLiquidityData(current)
				liquidityAddDelta(liquidity, liquidity, liquidityData.LiquidityDelta)
			}
			current, ok = pool.SlotBitmap.NearestRightValuedSlot(current, pool.PointDelta, floorDiv(leftPoint, pool.PointDelta))
		}
	}

	current := leftPoint
	rangeLeft := leftPoint
	for current < rightPoint {
		rangeRight := rightPoint
		if point, ok := pool.SlotBitmap.NearestRightValuedSlot(current, pool.PointDelta, floorDiv(rightPoint, pool.PointDelta)); ok {
			rangeRight = point
		}

		if pool.PointInfo.IsEndpoint(rangeRight, pool.PointDelta) {
			if rangeLeft != leftPoint {
				liquidityData := pool.PointInfo.GetLiquidityData(rangeLeft)
				liquidityAddDelta(liquidity, liquidity, liquidityData.LiquidityDelta)
			}
			ret[rangeLeft] = &RangeInfo{
				LeftPoint:  rangeLeft,
				RightPoint: min(rangeRight, rightPoint),
				AmountL:    new(uint256.Int).Set(liquidity),
			}
			rangeLeft = rangeRight
		} else if rangeRight == rightPoint {
			// tail segment ends on a non-endpoint valued slot or the query edge
			if rangeLeft != leftPoint {
				liquidityData := pool.PointInfo.GetLiquidityData(rangeLeft)
				liquidityAddDelta(liquidity, liquidity, liquidityData.LiquidityDelta)
			}
			ret[rangeLeft] = &RangeInfo{
				LeftPoint:  rangeLeft,
				RightPoint: rightPoint,
				AmountL:    new(uint256.Int).Set(liquidity),
			}
		}
		current = rangeRight
	}
}

// collectRangesLeftward mirrors collectRangesRightward below the current
// point, undoing each endpoint's delta while descending.
func collectRangesLeftward(pool *Pool, leftPoint, rightPoint int64, ret map[int64]*RangeInfo) {
	liquidity := new(uint256.Int).Set(pool.Liquidity)
	if pool.PointInfo.IsEndpoint(pool.CurrentPoint, pool.PointDelta) {
		liquidityData := pool.PointInfo.GetLiquidityData(pool.CurrentPoint)
		liquidity.Sub(liquidity, liquidityData.LiquidityDelta)
	}

	if rightPoint != pool.CurrentPoint {
		current, ok := pool.SlotBitmap.NearestLeftValuedSlot(pool.CurrentPoint-1, pool.PointDelta, ceilDiv(rightPoint, pool.PointDelta))
		for ok && current > rightPoint {
			if pool.PointInfo.IsEndpoint(current, pool.PointDelta) {
				liquidityData := pool.PointInfo.GetLiquidityData(current)
				liquidity.Sub(liquidity, liquidityData.LiquidityDelta)
			}
			current, ok = pool.SlotBitmap.NearestLeftValuedSlot(current-1, pool.PointDelta, ceilDiv(rightPoint, pool.PointDelta))
		}
	}

	current := rightPoint
	rangeRight := rightPoint
	for current > leftPoint {
		rangeLeft := leftPoint
		if point, ok := pool.SlotBitmap.NearestLeftValuedSlot(current-1, pool.PointDelta, ceilDiv(leftPoint, pool.PointDelta)); ok {
			rangeLeft = point
		}

		if pool.PointInfo.IsEndpoint(rangeLeft, pool.PointDelta) {
			if rangeRight != rightPoint {
				liquidityData := pool.PointInfo.GetLiquidityData(rangeRight)
				liquidity.Sub(liquidity, liquidityData.LiquidityDelta)
			}
			ret[rangeLeft] = &RangeInfo{
				LeftPoint:  max(rangeLeft, leftPoint),
				RightPoint: rangeRight,
				AmountL:    new(uint256.Int).Set(liquidity),
			}
			rangeRight = rangeLeft
		} else if rangeLeft == leftPoint {
			if rangeRight != rightPoint {
				liquidityData := pool.PointInfo.GetLiquidityData(rangeRight)
				liquidity.Sub(liquidity, liquidityData.LiquidityDelta)
			}
			ret[leftPoint] = &RangeInfo{
				LeftPoint:  leftPoint,
				RightPoint: rangeRight,
				AmountL:    new(uint256.Int).Set(liquidity),
			}
		}
		current = rangeLeft
	}
}

// GetPointOrderRange lists every point in [leftPoint, rightPoint] with a
// resident order, keyed by point.
func (d *Dcl) GetPointOrderRange(poolID PoolID, leftPoint, rightPoint int64) (map[int64]*PointOrderInfo, error) {
	if leftPoint > rightPoint || leftPoint < pointmath.LEFT_MOST_POINT || rightPoint > pointmath.RIGHT_MOST_POINT {
		return nil, ErrIllegalRange
	}
	pool, err := d.GetPool(poolID)
	if err != nil {
		return nil, err
	}

	ret := make(map[int64]*PointOrderInfo)
	current := leftPoint
	for current <= rightPoint {
		if pool.PointInfo.HasActiveOrder(current, pool.PointDelta) {
			orderData := pool.PointInfo.GetOrderData(current)
			ret[current] = &PointOrderInfo{
				Point:   current,
				AmountX: new(uint256.Int).Set(orderData.SellingX),
				AmountY: new(uint256.Int).Set(orderData.SellingY),
			}
		}
		point, ok := pool.SlotBitmap.NearestRightValuedSlot(current, pool.PointDelta, floorDiv(rightPoint, pool.PointDelta))
		if !ok {
			break
		}
		current = point
	}
	return ret, nil
}

// GetMarketDepth scans up to depth liquidity ranges and depth resident
// orders on each side of the current point.
func (d *Dcl) GetMarketDepth(poolID PoolID, depth uint8) (*MarketDepth, error) {
	pool, err := d.GetPool(poolID)
	if err != nil {
		return nil, err
	}

	leftSlotBoundary := max(ceilDiv(pointmath.LEFT_MOST_POINT, pool.PointDelta), ceilDiv(pool.CurrentPoint, pool.PointDelta)-MARKET_QUERY_SLOT_LIMIT)
	rightSlotBoundary := min(floorDiv(pointmath.RIGHT_MOST_POINT, pool.PointDelta), floorDiv(pool.CurrentPoint, pool.PointDelta)+MARKET_QUERY_SLOT_LIMIT)

	liquidities := make(map[int64]*RangeInfo)
	orders := make(map[int64]*PointOrderInfo)

	if pool.PointInfo.HasActiveOrder(pool.CurrentPoint, pool.PointDelta) {
		orderData := pool.PointInfo.GetOrderData(pool.CurrentPoint)
		orders[pool.CurrentPoint] = &PointOrderInfo{
			Point:   pool.CurrentPoint,
			AmountX: new(uint256.Int).Set(orderData.SellingX),
			AmountY: new(uint256.Int).Set(orderData.SellingY),
		}
	}

	// rightward scan
	rangeInfoCount := int(depth)
	orderCount := int(depth)
	rangeLeftPoint := pool.CurrentPoint
	currentPoint := pool.CurrentPoint
	currentLiquidity := new(uint256.Int).Set(pool.Liquidity)
	for rangeInfoCount != 0 || orderCount != 0 {
		rangeRightPoint, ok := pool.SlotBitmap.NearestRightValuedSlot(currentPoint, pool.PointDelta, rightSlotBoundary)
		if !ok {
			break
		}
		if pool.PointInfo.IsEndpoint(rangeRightPoint, pool.PointDelta) && rangeInfoCount != 0 {
			liquidities[rangeLeftPoint] = &RangeInfo{
				LeftPoint:  rangeLeftPoint,
				RightPoint: rangeRightPoint,
				AmountL:    new(uint256.Int).Set(currentLiquidity),
			}
			rangeLeftPoint = rangeRightPoint
			rangeInfoCount--
			liquidityData := pool.PointInfo.GetLiquidityData(rangeRightPoint)
			liquidityAddDelta(currentLiquidity, currentLiquidity, liquidityData.LiquidityDelta)
		}
		if pool.PointInfo.HasActiveOrder(rangeRightPoint, pool.PointDelta) && orderCount != 0 {
			orderData := pool.PointInfo.GetOrderData(rangeRightPoint)
			orders[rangeRightPoint] = &PointOrderInfo{
				Point:   rangeRightPoint,
				AmountX: new(uint256.Int).Set(orderData.SellingX),
				AmountY: new(uint256.Int).Set(orderData.SellingY),
			}
			orderCount--
		}
		currentPoint = rangeRightPoint
	}

	// leftward scan
	rangeInfoCount = int(depth)
	orderCount = int(depth)
	rangeRightPoint := pool.CurrentPoint
	currentPoint = pool.CurrentPoint
	currentLiquidity.Set(pool.Liquidity)
	if pool.PointInfo.IsEndpoint(pool.CurrentPoint, pool.PointDelta) {
		liquidityData := pool.PointInfo.GetLiquidityData(pool.CurrentPoint)
		currentLiquidity.Sub(currentLiquidity, liquidityData.LiquidityDelta)
	}
	for rangeInfoCount != 0 || orderCount != 0 {
		rangeLeft, ok := pool.SlotBitmap.NearestLeftValuedSlot(currentPoint-1, pool.PointDelta, leftSlotBoundary)
		if !ok {
			break
		}
		if pool.PointInfo.IsEndpoint(rangeLeft, pool.PointDelta) && rangeInfoCount != 0 {
			liquidities[rangeLeft] = &RangeInfo{
				LeftPoint:  rangeLeft,
				RightPoint: rangeRightPoint,
				AmountL:    new(uint256.Int).Set(currentLiquidity),
			}
			rangeRightPoint = rangeLeft
			rangeInfoCount--
			liquidityData := pool.PointInfo.GetLiquidityData(rangeLeft)
			currentLiquidity.Sub(currentLiquidity, liquidityData.LiquidityDelta)
		}
		if pool.PointInfo.HasActiveOrder(rangeLeft, pool.PointDelta) && orderCount != 0 {
			orderData := pool.PointInfo.GetOrderData(rangeLeft)
			orders[rangeLeft] = &PointOrderInfo{
				Point:   rangeLeft,
				AmountX: new(uint256.Int).Set(orderData.SellingX),
				AmountY: new(uint256.Int).Set(orderData.SellingY),
			}
			orderCount--
		}
		currentPoint = rangeLeft
	}

	return &MarketDepth{
		PoolID:       poolID,
		CurrentPoint: pool.CurrentPoint,
		AmountL:      new(uint256.Int).Set(pool.Liquidity),
		AmountLX:     new(uint256.Int).Set(pool.LiquidityX),
		Liquidities:  liquidities,
		Orders:       orders,
	}, nil
}

// CheckPoolState reconciles the pool's running totals against the sum of
// every position's withdrawable value and every order's remainder. It
// liquidates a full clone of the registry, the live state is untouched.
func (d *Dcl) CheckPoolState(poolID PoolID) error {
	replica := d.Clone()
	replica.State = RUNNING
	pool, err := replica.GetPool(poolID)
	if err != nil {
		return err
	}

	totalX := new(uint256.Int).Set(pool.TotalX)
	totalY := new(uint256.Int).Set(pool.TotalY)
	totalOrderX := new(uint256.Int).Set(pool.TotalOrderX)
	totalOrderY := new(uint256.Int).Set(pool.TotalOrderY)

	totalSellingX := new(uint256.Int)
	totalSellingY := new(uint256.Int)
	for point, pointData := range pool.PointInfo.Data {
		if pointData == nil || pointData.OrderData == nil {
			continue
		}
		if point >= pool.CurrentPoint {
			totalSellingX.Add(totalSellingX, pointData.OrderData.SellingX)
		}
		if point <= pool.CurrentPoint {
			totalSellingY.Add(totalSellingY, pointData.OrderData.SellingY)
		}
	}

	totalUserLiquidityX := new(uint256.Int)
	totalUserLiquidityY := new(uint256.Int)
	for _, userLiquidity := range replica.UserLiquidities {
		if userLiquidity.PoolID != poolID {
			continue
		}
		liquidityX, liquidityY, err := pool.ComputeWithdrawXY(userLiquidity.LeftPoint, userLiquidity.RightPoint, userLiquidity.Amount)
		if err != nil {
			return err
		}
		totalUserLiquidityX.Add(totalUserLiquidityX, liquidityX)
		totalUserLiquidityY.Add(totalUserLiquidityY, liquidityY)
	}

	totalUserOrderX := new(uint256.Int)
	totalUserOrderY := new(uint256.Int)
	totalUserOrderXEarned := new(uint256.Int)
	totalUserOrderYEarned := new(uint256.Int)
	orderIDs := make([]OrderID, 0, len(replica.UserOrders))
	for orderID, order := range replica.UserOrders {
		if order.PoolID == poolID {
			orderIDs = append(orderIDs, orderID)
		}
	}
	for _, orderID := range orderIDs {
		order := replica.UserOrders[orderID]
		earnY, err := order.IsEarnY()
		if err != nil {
			return err
		}
		remain, earned, err := replica.CancelOrder(order.OwnerID, orderID, nil)
		if err != nil {
			return err
		}
		if earnY {
			totalUserOrderX.Add(totalUserOrderX, remain)
			totalUserOrderYEarned.Add(totalUserOrderYEarned, earned)
		} else {
			totalUserOrderY.Add(totalUserOrderY, remain)
			totalUserOrderXEarned.Add(totalUserOrderXEarned, earned)
		}
	}

	userX := new(uint256.Int).Add(totalUserLiquidityX, totalUserOrderXEarned)
	userX.Add(userX, totalUserOrderX)
	if userX.Cmp(totalX) > 0 {
		return fmt.Errorf("%w: user claims %s of token x exceed pool total %s", ErrAuditFailed, userX, totalX)
	}
	userY := new(uint256.Int).Add(totalUserLiquidityY, totalUserOrderYEarned)
	userY.Add(userY, totalUserOrderY)
	if userY.Cmp(totalY) > 0 {
		return fmt.Errorf("%w: user claims %s of token y exceed pool total %s", ErrAuditFailed, userY, totalY)
	}
	if totalSellingX.Cmp(totalUserOrderX) != 0 {
		return fmt.Errorf("%w: resident selling x %s != user order remainders %s", ErrAuditFailed, totalSellingX, totalUserOrderX)
	}
	if totalSellingY.Cmp(totalUserOrderY) != 0 {
		return fmt.Errorf("%w: resident selling y %s != user order remainders %s", ErrAuditFailed, totalSellingY, totalUserOrderY)
	}
	if totalUserOrderX.Cmp(totalOrderX) > 0 {
		return fmt.Errorf("%w: order remainders %s of token x exceed tracked total %s", ErrAuditFailed, totalUserOrderX, totalOrderX)
	}
	if totalUserOrderY.Cmp(totalOrderY) > 0 {
		return fmt.Errorf("%w: order remainders %s of token y exceed tracked total %s", ErrAuditFailed, totalUserOrderY, totalOrderY)
	}
	return nil
}
