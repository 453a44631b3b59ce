package dcl

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/pointmath"
)

// AddOrder places a limit order at point. swappedAmount and swapEarnAmount
// carry the already-settled part when the order arrives via AddOrderWithSwap;
// plain placements pass zero for both.
func (d *Dcl) AddOrder(clientID, userID, sellToken string, amount *uint256.Int, poolID PoolID, point int64, buyToken string, swappedAmount, swapEarnAmount *uint256.Int, createdAt uint64) (OrderID, error) {
	if err := d.assertRunning(); err != nil {
		return "", err
	}
	pool, err := d.GetPool(poolID)
	if err != nil {
		return "", err
	}
	if point%pool.PointDelta != 0 {
		return "", ErrInvalidEndpoint
	}
	if amount.Cmp(swappedAmount) <= 0 {
		return "", ErrInvalidSellingAmount
	}
	remain := new(uint256.Int).Sub(amount, swappedAmount)

	tokenX, tokenY, _, err := poolID.Parse()
	if err != nil {
		return "", err
	}

	pointData := pool.PointInfo.GetPointDataOrDefault(point)
	prevActiveOrder := pointData.HasActiveOrder()
	pointOrder := pool.PointInfo.GetOrderData(point)

	order := NewUserOrder()
	order.ClientID = clientID
	order.OwnerID = userID
	order.PoolID = poolID
	order.Point = point
	order.SellToken = sellToken
	order.BuyToken = buyToken
	order.OriginalDepositAmount.Set(amount)
	order.SwapEarnAmount.Set(swapEarnAmount)
	order.OriginalAmount.Set(remain)
	order.RemainAmount.Set(remain)
	order.CreatedAt = createdAt

	switch sellToken {
	case tokenX:
		if buyToken != tokenY {
			return "", fmt.Errorf("%w: buy token %s", ErrTokenMismatch, buyToken)
		}
		if point < pool.CurrentPoint || point > pointmath.RIGHT_MOST_POINT {
			return "", ErrInvalidPoint
		}
		order.LastAccEarn.Set(pointOrder.AccEarnY)
		pointOrder.SellingX.Add(pointOrder.SellingX, remain)
		pool.TotalX.Add(pool.TotalX, remain)
		pool.TotalOrderX.Add(pool.TotalOrderX, remain)
	case tokenY:
		if buyToken != tokenX {
			return "", fmt.Errorf("%w: buy token %s", ErrTokenMismatch, buyToken)
		}
		if point > pool.CurrentPoint || point < pointmath.LEFT_MOST_POINT {
			return "", ErrInvalidPoint
		}
		order.LastAccEarn.Set(pointOrder.AccEarnX)
		pointOrder.SellingY.Add(pointOrder.SellingY, remain)
		pool.TotalY.Add(pool.TotalY, remain)
		pool.TotalOrderY.Add(pool.TotalOrderY, remain)
	default:
		return "", fmt.Errorf("%w: sell token %s", ErrTokenMismatch, sellToken)
	}
	pointOrder.UserOrderCount++

	pool.PointInfo.SetOrderData(point, pointOrder)
	if !prevActiveOrder && !pointData.HasActiveLiquidity() {
		if err := pool.SlotBitmap.SetOne(point, pool.PointDelta); err != nil {
			return "", err
		}
	}

	orderID := d.nextOrderID(poolID)
	order.OrderID = orderID
	d.UserOrders[orderID] = order

	user := d.getUser(userID)
	user.OrderKeys[userOrderKey{PoolID: poolID, Point: point}] = orderID
	d.Users[userID] = user

	return orderID, nil
}

// AddOrderWithSwap swaps towards the order point first and only places the
// remainder as an order. An empty order id means the swap consumed the full
// amount.
func (d *Dcl) AddOrderWithSwap(clientID, userID, sellToken string, amount *uint256.Int, poolID PoolID, point int64, buyToken string, createdAt uint64) (OrderID, error) {
	if err := d.assertRunning(); err != nil {
		return "", err
	}
	pool, err := d.GetPool(poolID)
	if err != nil {
		return "", err
	}
	if point%pool.PointDelta != 0 {
		return "", ErrInvalidEndpoint
	}
	vipInfo := d.VipUsers[userID]
	poolFee := pool.GetPoolFeeByUser(vipInfo)

	var swappedAmount, swapEarnAmount *uint256.Int
	var finished bool

	switch sellToken {
	case pool.TokenX:
		cost, out, fin, _, _, err := pool.InternalXSwapY(poolFee, d.ProtocolFeeRate, amount, point, false)
		if err != nil {
			return "", err
		}
		pool.TotalX.Add(pool.TotalX, cost)
		pool.TotalY.Sub(pool.TotalY, out)
		pool.VolumeXIn.Add(pool.VolumeXIn, cost)
		pool.VolumeYOut.Add(pool.VolumeYOut, out)
		swappedAmount, swapEarnAmount, finished = cost, out, fin
	case pool.TokenY:
		cost, out, fin, _, _, err := pool.InternalYSwapX(poolFee, d.ProtocolFeeRate, amount, point+1, false)
		if err != nil {
			return "", err
		}
		pool.TotalY.Add(pool.TotalY, cost)
		pool.TotalX.Sub(pool.TotalX, out)
		pool.VolumeYIn.Add(pool.VolumeYIn, cost)
		pool.VolumeXOut.Add(pool.VolumeXOut, out)
		swappedAmount, swapEarnAmount, finished = cost, out, fin
	default:
		return "", fmt.Errorf("%w: sell token %s", ErrTokenMismatch, sellToken)
	}

	if finished {
		return "", nil
	}
	return d.AddOrder(clientID, userID, sellToken, amount, poolID, point, buyToken, swappedAmount, swapEarnAmount, createdAt)
}

// CancelOrder claims everything the order has earned and cancels up to
// amount of the unsold remainder. A nil amount cancels the whole remainder,
// a zero amount claims only. Returns the cancelled and earned amounts.
func (d *Dcl) CancelOrder(userID string, orderID OrderID, amount *uint256.Int) (actualCancel, earned *uint256.Int, err error) {
	if err := d.assertRunning(); err != nil {
		return nil, nil, err
	}
	order, err := d.getUserOrder(orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.OwnerID != userID {
		return nil, nil, ErrNotAllowed
	}
	pool, err := d.GetPool(order.PoolID)
	if err != nil {
		return nil, nil, err
	}
	pointData := pool.PointInfo.GetPointData(order.Point)
	if pointData == nil || pointData.OrderData == nil {
		return nil, nil, fmt.Errorf("%w: no point order at %d", ErrOrderNotExist, order.Point)
	}
	pointOrder := pointData.OrderData

	earned, err = d.internalUpdatePointOrder(order, pointOrder)
	if err != nil {
		return nil, nil, err
	}

	actualCancel = new(uint256.Int).Set(order.RemainAmount)
	if amount != nil && amount.Cmp(order.RemainAmount) < 0 {
		actualCancel.Set(amount)
	}

	order.CancelAmount.Add(order.CancelAmount, actualCancel)
	order.RemainAmount.Sub(order.RemainAmount, actualCancel)

	earnY, err := order.IsEarnY()
	if err != nil {
		return nil, nil, err
	}
	if earnY {
		pool.TotalX.Sub(pool.TotalX, actualCancel)
		pool.TotalY.Sub(pool.TotalY, earned)
		pool.TotalOrderX.Sub(pool.TotalOrderX, actualCancel)
		pointOrder.SellingX.Sub(pointOrder.SellingX, actualCancel)
	} else {
		pool.TotalX.Sub(pool.TotalX, earned)
		pool.TotalY.Sub(pool.TotalY, actualCancel)
		pool.TotalOrderY.Sub(pool.TotalOrderY, actualCancel)
		pointOrder.SellingY.Sub(pointOrder.SellingY, actualCancel)
	}

	pointData.OrderData = pointOrder
	if order.RemainAmount.IsZero() {
		pointOrder.UserOrderCount--
		if pointOrder.UserOrderCount == 0 {
			// sweep the dust other cohorts left behind with the slot
			pool.TotalOrderX.Sub(pool.TotalOrderX, pointOrder.SellingX)
			pool.TotalOrderY.Sub(pool.TotalOrderY, pointOrder.SellingY)
			pool.TotalX.Sub(pool.TotalX, pointOrder.SellingX)
			pool.TotalY.Sub(pool.TotalY, pointOrder.SellingY)
			pointData.OrderData = nil
		}
	}

	if !pointData.HasActiveLiquidity() && !pointData.HasActiveOrder() {
		if err := pool.SlotBitmap.SetZero(order.Point, pool.PointDelta); err != nil {
			return nil, nil, err
		}
	}
	if pointData.HasOrder() || pointData.HasLiquidity() {
		pool.PointInfo.SetPointData(order.Point, pointData)
	} else {
		pool.PointInfo.Remove(order.Point)
	}

	if order.RemainAmount.IsZero() {
		user := d.getUser(userID)
		user.CompletedOrderCount++
		user.HistoryOrders = append(user.HistoryOrders, order)
		delete(user.OrderKeys, userOrderKey{PoolID: order.PoolID, Point: order.Point})
		d.Users[userID] = user
		delete(d.UserOrders, orderID)
	} else {
		d.UserOrders[orderID] = order
	}

	return actualCancel, earned, nil
}

// internalUpdatePointOrder settles a user order against the point order,
// claiming as much earning as the cohort accounting allows. Orders whose
// cursor predates the legacy accumulator claim from the legacy bucket at the
// full remaining amount; active orders compete for the live earnings pro
// rata to the accumulator delta, converting through the point price with
// ceiling rounding and a floor re-derivation when the ceiling oversells.
func (d *Dcl) internalUpdatePointOrder(order *UserOrder, po *OrderData) (*uint256.Int, error) {
	sqrtPrice96 := new(uint256.Int)
	if err := pointmath.GetSqrtPrice(sqrtPrice96, order.Point); err != nil {
		return nil, err
	}

	earnY, err := order.IsEarnY()
	if err != nil {
		return nil, err
	}

	totalEarn := po.EarnX
	totalLegacyEarn := po.EarnXLegacy
	accLegacyEarn := po.AccEarnXLegacy
	curAccEarn := po.AccEarnX
	if earnY {
		totalEarn = po.EarnY
		totalLegacyEarn = po.EarnYLegacy
		accLegacyEarn = po.AccEarnYLegacy
		curAccEarn = po.AccEarnY
	}

	earn := new(uint256.Int)
	liquidity := new(uint256.Int)

	if order.LastAccEarn.Cmp(accLegacyEarn) < 0 {
		// legacy cohort: the point sold out after this order's last sync, the
		// whole remainder converted at the point price
		if earnY {
			pointmath.MulFractionFloor(liquidity, order.RemainAmount, sqrtPrice96, pointmath.POW_96)
			pointmath.MulFractionFloor(earn, liquidity, sqrtPrice96, pointmath.POW_96)
		} else {
			pointmath.MulFractionFloor(liquidity, order.RemainAmount, pointmath.POW_96, sqrtPrice96)
			pointmath.MulFractionFloor(earn, liquidity, pointmath.POW_96, sqrtPrice96)
		}
		if earn.Cmp(totalLegacyEarn) > 0 {
			// rounding protection
			earn.Set(totalLegacyEarn)
		}
		totalLegacyEarn.Sub(totalLegacyEarn, earn)

		order.LastAccEarn.Set(curAccEarn)
		order.RemainAmount.Clear()
		order.BoughtAmount.Add(order.BoughtAmount, earn)
		order.UnclaimedAmount.Set(earn)
		return earn, nil
	}

	// active cohort: claim up to the accumulator delta since the last sync
	earn.Sub(curAccEarn, order.LastAccEarn)
	if earn.Cmp(totalEarn) > 0 {
		earn.Set(totalEarn)
	}

	sold := new(uint256.Int)
	if earnY {
		pointmath.MulFractionCeil(liquidity, earn, pointmath.POW_96, sqrtPrice96)
		pointmath.MulFractionCeil(sold, liquidity, pointmath.POW_96, sqrtPrice96)
	} else {
		pointmath.MulFractionCeil(liquidity, earn, sqrtPrice96, pointmath.POW_96)
		pointmath.MulFractionCeil(sold, liquidity, sqrtPrice96, pointmath.POW_96)
	}

	if sold.Cmp(order.RemainAmount) > 0 {
		sold.Set(order.RemainAmount)
		if earnY {
			pointmath.MulFractionFloor(liquidity, sold, sqrtPrice96, pointmath.POW_96)
			pointmath.MulFractionFloor(earn, liquidity, sqrtPrice96, pointmath.POW_96)
		} else {
			pointmath.MulFractionFloor(liquidity, sold, pointmath.POW_96, sqrtPrice96)
			pointmath.MulFractionFloor(earn, liquidity, pointmath.POW_96, sqrtPrice96)
		}
	}

	if earn.Cmp(totalEarn) > 0 {
		earn.Set(totalEarn)
	}
	totalEarn.Sub(totalEarn, earn)

	order.LastAccEarn.Set(curAccEarn)
	order.RemainAmount.Sub(order.RemainAmount, sold)
	order.BoughtAmount.Add(order.BoughtAmount, earn)
	order.UnclaimedAmount.Set(earn)
	return earn, nil
}
