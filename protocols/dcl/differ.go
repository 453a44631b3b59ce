package dcl

import (
	"sort"
	"strconv"
)

// FieldDiff records one mismatching field, values rendered as decimal
// strings. An empty side means the field (or its holder) is absent there.
type FieldDiff struct {
	Name string `json:"name"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

// PointDiff collects the mismatching fields of one point ledger entry.
type PointDiff struct {
	Point  int64       `json:"point"`
	Fields []FieldDiff `json:"fields"`
}

// PoolDiff collects everything that differs within one pool.
type PoolDiff struct {
	PoolID PoolID      `json:"pool_id"`
	Fields []FieldDiff `json:"fields,omitempty"`
	Points []PointDiff `json:"points,omitempty"`
}

// RegistryDiff is the audit comparison of two registry views.
type RegistryDiff struct {
	RootFields []FieldDiff `json:"root_fields,omitempty"`

	PoolsAdded   []PoolID    `json:"pools_added,omitempty"`
	PoolsRemoved []PoolID    `json:"pools_removed,omitempty"`
	Pools        []*PoolDiff `json:"pools,omitempty"`

	LiquiditiesAdded   []LptID `json:"liquidities_added,omitempty"`
	LiquiditiesRemoved []LptID `json:"liquidities_removed,omitempty"`
	LiquiditiesChanged []LptID `json:"liquidities_changed,omitempty"`

	OrdersAdded   []OrderID `json:"orders_added,omitempty"`
	OrdersRemoved []OrderID `json:"orders_removed,omitempty"`
	OrdersChanged []OrderID `json:"orders_changed,omitempty"`
}

// IsEmpty returns true if the diff contains no changes.
func (d *RegistryDiff) IsEmpty() bool {
	return len(d.RootFields) == 0 &&
		len(d.PoolsAdded) == 0 && len(d.PoolsRemoved) == 0 && len(d.Pools) == 0 &&
		len(d.LiquiditiesAdded) == 0 && len(d.LiquiditiesRemoved) == 0 && len(d.LiquiditiesChanged) == 0 &&
		len(d.OrdersAdded) == 0 && len(d.OrdersRemoved) == 0 && len(d.OrdersChanged) == 0
}

func itoa(v int64) string  { return strconv.FormatInt(v, 10) }
func utoa(v uint64) string { return strconv.FormatUint(v, 10) }

func amountStr(a *Amount) string {
	if a == nil {
		return ""
	}
	return a.Int.Dec()
}

func signedAmountStr(a *SignedAmount) string {
	if a == nil {
		return ""
	}
	raw, _ := a.MarshalJSON()
	return string(raw)
}

func diffAmount(out *[]FieldDiff, name string, old, new *Amount) {
	if old.value().Eq(new.value()) {
		return
	}
	*out = append(*out, FieldDiff{Name: name, Old: amountStr(old), New: amountStr(new)})
}

func diffSignedAmount(out *[]FieldDiff, name string, old, new *SignedAmount) {
	if old.value().Eq(new.value()) {
		return
	}
	*out = append(*out, FieldDiff{Name: name, Old: signedAmountStr(old), New: signedAmountStr(new)})
}

func diffString(out *[]FieldDiff, name, old, new string) {
	if old != new {
		*out = append(*out, FieldDiff{Name: name, Old: old, New: new})
	}
}

func diffInt(out *[]FieldDiff, name string, old, new int64) {
	if old != new {
		*out = append(*out, FieldDiff{Name: name, Old: itoa(old), New: itoa(new)})
	}
}

func diffUint(out *[]FieldDiff, name string, old, new uint64) {
	if old != new {
		*out = append(*out, FieldDiff{Name: name, Old: utoa(old), New: utoa(new)})
	}
}

// Differ computes the audit comparison between two registry views. Either
// side may be nil, standing for an empty registry.
func Differ(old, new *RegistryView) *RegistryDiff {
	if old == nil {
		old = &RegistryView{}
	}
	if new == nil {
		new = &RegistryView{}
	}

	diff := &RegistryDiff{}
	diffUint(&diff.RootFields, "latest_liquidity_id", old.Root.LatestLiquidityID, new.Root.LatestLiquidityID)
	diffUint(&diff.RootFields, "latest_order_id", old.Root.LatestOrderID, new.Root.LatestOrderID)

	for poolID, newPool := range new.Pools {
		oldPool, exists := old.Pools[poolID]
		if !exists {
			diff.PoolsAdded = append(diff.PoolsAdded, poolID)
			continue
		}
		poolDiff := diffPool(poolID, oldPool, newPool, old.PointInfo[poolID], new.PointInfo[poolID])
		if poolDiff != nil {
			diff.Pools = append(diff.Pools, poolDiff)
		}
	}
	for poolID := range old.Pools {
		if _, exists := new.Pools[poolID]; !exists {
			diff.PoolsRemoved = append(diff.PoolsRemoved, poolID)
		}
	}

	oldLiquidities := flattenLiquidities(old.UserLiquidities)
	newLiquidities := flattenLiquidities(new.UserLiquidities)
	for lptID, newLiquidity := range newLiquidities {
		oldLiquidity, exists := oldLiquidities[lptID]
		if !exists {
			diff.LiquiditiesAdded = append(diff.LiquiditiesAdded, lptID)
		} else if liquidityViewChanged(oldLiquidity, newLiquidity) {
			diff.LiquiditiesChanged = append(diff.LiquiditiesChanged, lptID)
		}
	}
	for lptID := range oldLiquidities {
		if _, exists := newLiquidities[lptID]; !exists {
			diff.LiquiditiesRemoved = append(diff.LiquiditiesRemoved, lptID)
		}
	}

	oldOrders := flattenOrders(old.UserOrders)
	newOrders := flattenOrders(new.UserOrders)
	for orderID, newOrder := range newOrders {
		oldOrder, exists := oldOrders[orderID]
		if !exists {
			diff.OrdersAdded = append(diff.OrdersAdded, orderID)
		} else if orderViewChanged(oldOrder, newOrder) {
			diff.OrdersChanged = append(diff.OrdersChanged, orderID)
		}
	}
	for orderID := range oldOrders {
		if _, exists := newOrders[orderID]; !exists {
			diff.OrdersRemoved = append(diff.OrdersRemoved, orderID)
		}
	}

	diff.sortForOutput()
	return diff
}

func diffPool(poolID PoolID, old, new *PoolView, oldPoints, newPoints map[int64]*PointDataView) *PoolDiff {
	poolDiff := &PoolDiff{PoolID: poolID}

	diffString(&poolDiff.Fields, "token_x", old.TokenX, new.TokenX)
	diffString(&poolDiff.Fields, "token_y", old.TokenY, new.TokenY)
	diffUint(&poolDiff.Fields, "fee", uint64(old.Fee), uint64(new.Fee))
	diffInt(&poolDiff.Fields, "point_delta", old.PointDelta, new.PointDelta)
	diffInt(&poolDiff.Fields, "current_point", old.CurrentPoint, new.CurrentPoint)
	diffAmount(&poolDiff.Fields, "sqrt_price_96", old.SqrtPrice96, new.SqrtPrice96)
	diffAmount(&poolDiff.Fields, "liquidity", old.Liquidity, new.Liquidity)
	diffAmount(&poolDiff.Fields, "liquidity_x", old.LiquidityX, new.LiquidityX)
	diffAmount(&poolDiff.Fields, "max_liquidity_per_point", old.MaxLiquidityPerPoint, new.MaxLiquidityPerPoint)
	diffAmount(&poolDiff.Fields, "fee_scale_x_128", old.FeeScaleX128, new.FeeScaleX128)
	diffAmount(&poolDiff.Fields, "fee_scale_y_128", old.FeeScaleY128, new.FeeScaleY128)
	diffAmount(&poolDiff.Fields, "total_fee_x_charged", old.TotalFeeXCharged, new.TotalFeeXCharged)
	diffAmount(&poolDiff.Fields, "total_fee_y_charged", old.TotalFeeYCharged, new.TotalFeeYCharged)
	diffAmount(&poolDiff.Fields, "volume_x_in", old.VolumeXIn, new.VolumeXIn)
	diffAmount(&poolDiff.Fields, "volume_y_in", old.VolumeYIn, new.VolumeYIn)
	diffAmount(&poolDiff.Fields, "volume_x_out", old.VolumeXOut, new.VolumeXOut)
	diffAmount(&poolDiff.Fields, "volume_y_out", old.VolumeYOut, new.VolumeYOut)
	diffAmount(&poolDiff.Fields, "total_liquidity", old.TotalLiquidity, new.TotalLiquidity)
	diffAmount(&poolDiff.Fields, "total_order_x", old.TotalOrderX, new.TotalOrderX)
	diffAmount(&poolDiff.Fields, "total_order_y", old.TotalOrderY, new.TotalOrderY)
	diffAmount(&poolDiff.Fields, "total_x", old.TotalX, new.TotalX)
	diffAmount(&poolDiff.Fields, "total_y", old.TotalY, new.TotalY)
	diffString(&poolDiff.Fields, "RunningState", string(old.RunningState), string(new.RunningState))

	points := make(map[int64]struct{}, len(oldPoints)+len(newPoints))
	for point := range oldPoints {
		points[point] = struct{}{}
	}
	for point := range newPoints {
		points[point] = struct{}{}
	}
	for point := range points {
		pointDiff := diffPointData(point, oldPoints[point], newPoints[point])
		if pointDiff != nil {
			poolDiff.Points = append(poolDiff.Points, *pointDiff)
		}
	}
	sort.Slice(poolDiff.Points, func(i, j int) bool { return poolDiff.Points[i].Point < poolDiff.Points[j].Point })

	if len(poolDiff.Fields) == 0 && len(poolDiff.Points) == 0 {
		return nil
	}
	return poolDiff
}

func diffPointData(point int64, old, new *PointDataView) *PointDiff {
	if old == nil {
		old = &PointDataView{}
	}
	if new == nil {
		new = &PointDataView{}
	}
	pointDiff := &PointDiff{Point: point}

	diffAmount(&pointDiff.Fields, "liquidity_sum", old.LiquidityData.LiquiditySum, new.LiquidityData.LiquiditySum)
	diffSignedAmount(&pointDiff.Fields, "liquidity_delta", old.LiquidityData.LiquidityDelta, new.LiquidityData.LiquidityDelta)
	diffAmount(&pointDiff.Fields, "acc_fee_x_out_128", old.LiquidityData.AccFeeXOut128, new.LiquidityData.AccFeeXOut128)
	diffAmount(&pointDiff.Fields, "acc_fee_y_out_128", old.LiquidityData.AccFeeYOut128, new.LiquidityData.AccFeeYOut128)

	diffAmount(&pointDiff.Fields, "selling_x", old.OrderData.SellingX, new.OrderData.SellingX)
	diffAmount(&pointDiff.Fields, "earn_y", old.OrderData.EarnY, new.OrderData.EarnY)
	diffAmount(&pointDiff.Fields, "earn_y_legacy", old.OrderData.EarnYLegacy, new.OrderData.EarnYLegacy)
	diffAmount(&pointDiff.Fields, "acc_earn_y", old.OrderData.AccEarnY, new.OrderData.AccEarnY)
	diffAmount(&pointDiff.Fields, "acc_earn_y_legacy", old.OrderData.AccEarnYLegacy, new.OrderData.AccEarnYLegacy)
	diffAmount(&pointDiff.Fields, "selling_y", old.OrderData.SellingY, new.OrderData.SellingY)
	diffAmount(&pointDiff.Fields, "earn_x", old.OrderData.EarnX, new.OrderData.EarnX)
	diffAmount(&pointDiff.Fields, "earn_x_legacy", old.OrderData.EarnXLegacy, new.OrderData.EarnXLegacy)
	diffAmount(&pointDiff.Fields, "acc_earn_x", old.OrderData.AccEarnX, new.OrderData.AccEarnX)
	diffAmount(&pointDiff.Fields, "acc_earn_x_legacy", old.OrderData.AccEarnXLegacy, new.OrderData.AccEarnXLegacy)
	diffUint(&pointDiff.Fields, "user_order_count", old.OrderData.UserOrderCount, new.OrderData.UserOrderCount)

	if len(pointDiff.Fields) == 0 {
		return nil
	}
	return pointDiff
}

func flattenLiquidities(byOwner map[string]map[LptID]*LiquidityView) map[LptID]*LiquidityView {
	flat := make(map[LptID]*LiquidityView)
	for _, owned := range byOwner {
		for lptID, liquidity := range owned {
			flat[lptID] = liquidity
		}
	}
	return flat
}

func flattenOrders(byOwner map[string]map[OrderID]*OrderView) map[OrderID]*OrderView {
	flat := make(map[OrderID]*OrderView)
	for _, owned := range byOwner {
		for orderID, order := range owned {
			flat[orderID] = order
		}
	}
	return flat
}

func liquidityViewChanged(old, new *LiquidityView) bool {
	return old.OwnerID != new.OwnerID ||
		old.PoolID != new.PoolID ||
		old.LeftPoint != new.LeftPoint ||
		old.RightPoint != new.RightPoint ||
		!old.LastFeeScaleX128.value().Eq(new.LastFeeScaleX128.value()) ||
		!old.LastFeeScaleY128.value().Eq(new.LastFeeScaleY128.value()) ||
		!old.Amount.value().Eq(new.Amount.value()) ||
		old.MftID != new.MftID ||
		!old.VLiquidity.value().Eq(new.VLiquidity.value()) ||
		!old.UnclaimedFeeX.value().Eq(new.UnclaimedFeeX.value()) ||
		!old.UnclaimedFeeY.value().Eq(new.UnclaimedFeeY.value())
}

func orderViewChanged(old, new *OrderView) bool {
	return old.OwnerID != new.OwnerID ||
		old.PoolID != new.PoolID ||
		old.Point != new.Point ||
		old.SellToken != new.SellToken ||
		old.BuyToken != new.BuyToken ||
		!old.OriginalDepositAmount.value().Eq(new.OriginalDepositAmount.value()) ||
		!old.SwapEarnAmount.value().Eq(new.SwapEarnAmount.value()) ||
		!old.OriginalAmount.value().Eq(new.OriginalAmount.value()) ||
		!old.CancelAmount.value().Eq(new.CancelAmount.value()) ||
		old.CreatedAt != new.CreatedAt ||
		!old.LastAccEarn.value().Eq(new.LastAccEarn.value()) ||
		!old.RemainAmount.value().Eq(new.RemainAmount.value()) ||
		!old.BoughtAmount.value().Eq(new.BoughtAmount.value()) ||
		!old.UnclaimedAmount.value().Eq(new.UnclaimedAmount.value())
}

func (d *RegistryDiff) sortForOutput() {
	sort.Slice(d.PoolsAdded, func(i, j int) bool { return d.PoolsAdded[i] < d.PoolsAdded[j] })
	sort.Slice(d.PoolsRemoved, func(i, j int) bool { return d.PoolsRemoved[i] < d.PoolsRemoved[j] })
	sort.Slice(d.Pools, func(i, j int) bool { return d.Pools[i].PoolID < d.Pools[j].PoolID })
	sort.Slice(d.LiquiditiesAdded, func(i, j int) bool { return d.LiquiditiesAdded[i] < d.LiquiditiesAdded[j] })
	sort.Slice(d.LiquiditiesRemoved, func(i, j int) bool { return d.LiquiditiesRemoved[i] < d.LiquiditiesRemoved[j] })
	sort.Slice(d.LiquiditiesChanged, func(i, j int) bool { return d.LiquiditiesChanged[i] < d.LiquiditiesChanged[j] })
	sort.Slice(d.OrdersAdded, func(i, j int) bool { return d.OrdersAdded[i] < d.OrdersAdded[j] })
	sort.Slice(d.OrdersRemoved, func(i, j int) bool { return d.OrdersRemoved[i] < d.OrdersRemoved[j] })
	sort.Slice(d.OrdersChanged, func(i, j int) bool { return d.OrdersChanged[i] < d.OrdersChanged[j] })
}
