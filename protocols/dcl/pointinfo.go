package dcl

import (
	"github.com/holiman/uint256"
)

// LiquidityData aggregates every range whose boundary sits on one endpoint.
// LiquidityDelta is stored in two's complement: ranges opening here add,
// ranges closing here subtract, and the net may be negative.
type LiquidityData struct {
	LiquiditySum   *uint256.Int
	LiquidityDelta *uint256.Int
	AccFeeXOut128  *uint256.Int
	AccFeeYOut128  *uint256.Int
}

func NewLiquidityData() *LiquidityData {
	return &LiquidityData{
		LiquiditySum:   new(uint256.Int),
		LiquidityDelta: new(uint256.Int),
		AccFeeXOut128:  new(uint256.Int),
		AccFeeYOut128:  new(uint256.Int),
	}
}

func (d *LiquidityData) Clone() *LiquidityData {
	if d == nil {
		return nil
	}
	return &LiquidityData{
		LiquiditySum:   new(uint256.Int).Set(d.LiquiditySum),
		LiquidityDelta: new(uint256.Int).Set(d.LiquidityDelta),
		AccFeeXOut128:  new(uint256.Int).Set(d.AccFeeXOut128),
		AccFeeYOut128:  new(uint256.Int).Set(d.AccFeeYOut128),
	}
}

// PassEndpoint re-anchors the outside fee accumulators when the current point
// crosses this endpoint. The accumulators only hold meaning relative to the
// global fee scale, so crossing flips them to scale minus the old value.
func (d *LiquidityData) PassEndpoint(feeScaleX128, feeScaleY128 *uint256.Int) {
	d.AccFeeXOut128.Sub(feeScaleX128, d.AccFeeXOut128)
	d.AccFeeYOut128.Sub(feeScaleY128, d.AccFeeYOut128)
}

// OrderData pools the resident limit orders of one point, both directions.
// Earn amounts split into an active part and a legacy part: once the selling
// side fully fills, earnings move to the legacy bucket and claims against them
// use the accumulated legacy counters instead of proportional shares.
type OrderData struct {
	SellingX       *uint256.Int
	EarnY          *uint256.Int
	EarnYLegacy    *uint256.Int
	AccEarnY       *uint256.Int
	AccEarnYLegacy *uint256.Int

	SellingY       *uint256.Int
	EarnX          *uint256.Int
	EarnXLegacy    *uint256.Int
	AccEarnX       *uint256.Int
	AccEarnXLegacy *uint256.Int

	UserOrderCount uint64
}

func NewOrderData() *OrderData {
	return &OrderData{
		SellingX:       new(uint256.Int),
		EarnY:          new(uint256.Int),
		EarnYLegacy:    new(uint256.Int),
		AccEarnY:       new(uint256.Int),
		AccEarnYLegacy: new(uint256.Int),
		SellingY:       new(uint256.Int),
		EarnX:          new(uint256.Int),
		EarnXLegacy:    new(uint256.Int),
		AccEarnX:       new(uint256.Int),
		AccEarnXLegacy: new(uint256.Int),
	}
}

func (d *OrderData) Clone() *OrderData {
	if d == nil {
		return nil
	}
	return &OrderData{
		SellingX:       new(uint256.Int).Set(d.SellingX),
		EarnY:          new(uint256.Int).Set(d.EarnY),
		EarnYLegacy:    new(uint256.Int).Set(d.EarnYLegacy),
		AccEarnY:       new(uint256.Int).Set(d.AccEarnY),
		AccEarnYLegacy: new(uint256.Int).Set(d.AccEarnYLegacy),
		SellingY:       new(uint256.Int).Set(d.SellingY),
		EarnX:          new(uint256.Int).Set(d.EarnX),
		EarnXLegacy:    new(uint256.Int).Set(d.EarnXLegacy),
		AccEarnX:       new(uint256.Int).Set(d.AccEarnX),
		AccEarnXLegacy: new(uint256.Int).Set(d.AccEarnXLegacy),
		UserOrderCount: d.UserOrderCount,
	}
}

// PointData is everything the pool stores at one point. Either side may be
// nil when the point carries no liquidity endpoint or no orders.
type PointData struct {
	LiquidityData *LiquidityData
	OrderData     *OrderData
}

func (p *PointData) Clone() *PointData {
	if p == nil {
		return nil
	}
	return &PointData{
		LiquidityData: p.LiquidityData.Clone(),
		OrderData:     p.OrderData.Clone(),
	}
}

// HasActiveLiquidity reports whether the liquidity side keeps the bitmap bit set.
func (p *PointData) HasActiveLiquidity() bool {
	return p.LiquidityData != nil && !p.LiquidityData.LiquiditySum.IsZero()
}

func (p *PointData) HasActiveOrderX() bool {
	return p.OrderData != nil && !p.OrderData.SellingX.IsZero()
}

func (p *PointData) HasActiveOrderY() bool {
	return p.OrderData != nil && !p.OrderData.SellingY.IsZero()
}

// HasActiveOrder reports whether the order side keeps the bitmap bit set.
func (p *PointData) HasActiveOrder() bool {
	return p.HasActiveOrderX() || p.HasActiveOrderY()
}

// HasLiquidity reports whether the liquidity entry must stay allocated.
func (p *PointData) HasLiquidity() bool {
	return p.LiquidityData != nil && !p.LiquidityData.LiquiditySum.IsZero()
}

// HasOrder reports whether the order entry must stay allocated. Fully filled
// orders keep the entry alive until every owner claims.
func (p *PointData) HasOrder() bool {
	return p.OrderData != nil && p.OrderData.UserOrderCount > 0
}

// PointStats accumulates per point replay volumes and fee attribution. It is
// bookkeeping for the stats sink and feeds no pricing decision.
type PointStats struct {
	LiquidityVolumeXIn  *uint256.Int
	LiquidityVolumeYIn  *uint256.Int
	LiquidityVolumeXOut *uint256.Int
	LiquidityVolumeYOut *uint256.Int
	OrderVolumeXIn      *uint256.Int
	OrderVolumeYIn      *uint256.Int
	OrderVolumeXOut     *uint256.Int
	OrderVolumeYOut     *uint256.Int
	FeeX                *uint256.Int
	FeeY                *uint256.Int
	ProtocolFeeX        *uint256.Int
	ProtocolFeeY        *uint256.Int
}

func NewPointStats() *PointStats {
	return &PointStats{
		LiquidityVolumeXIn:  new(uint256.Int),
		LiquidityVolumeYIn:  new(uint256.Int),
		LiquidityVolumeXOut: new(uint256.Int),
		LiquidityVolumeYOut: new(uint256.Int),
		OrderVolumeXIn:      new(uint256.Int),
		OrderVolumeYIn:      new(uint256.Int),
		OrderVolumeXOut:     new(uint256.Int),
		OrderVolumeYOut:     new(uint256.Int),
		FeeX:                new(uint256.Int),
		FeeY:                new(uint256.Int),
		ProtocolFeeX:        new(uint256.Int),
		ProtocolFeeY:        new(uint256.Int),
	}
}

func (s *PointStats) Clone() *PointStats {
	if s == nil {
		return nil
	}
	return &PointStats{
		LiquidityVolumeXIn:  new(uint256.Int).Set(s.LiquidityVolumeXIn),
		LiquidityVolumeYIn:  new(uint256.Int).Set(s.LiquidityVolumeYIn),
		LiquidityVolumeXOut: new(uint256.Int).Set(s.LiquidityVolumeXOut),
		LiquidityVolumeYOut: new(uint256.Int).Set(s.LiquidityVolumeYOut),
		OrderVolumeXIn:      new(uint256.Int).Set(s.OrderVolumeXIn),
		OrderVolumeYIn:      new(uint256.Int).Set(s.OrderVolumeYIn),
		OrderVolumeXOut:     new(uint256.Int).Set(s.OrderVolumeXOut),
		OrderVolumeYOut:     new(uint256.Int).Set(s.OrderVolumeYOut),
		FeeX:                new(uint256.Int).Set(s.FeeX),
		FeeY:                new(uint256.Int).Set(s.FeeY),
		ProtocolFeeX:        new(uint256.Int).Set(s.ProtocolFeeX),
		ProtocolFeeY:        new(uint256.Int).Set(s.ProtocolFeeY),
	}
}

// PointInfo is the sparse point ledger of one pool.
type PointInfo struct {
	Data      map[int64]*PointData
	StatsData map[int64]*PointStats
}

func NewPointInfo() *PointInfo {
	return &PointInfo{
		Data:      make(map[int64]*PointData),
		StatsData: make(map[int64]*PointStats),
	}
}

func (p *PointInfo) Clone() *PointInfo {
	clone := &PointInfo{
		Data:      make(map[int64]*PointData, len(p.Data)),
		StatsData: make(map[int64]*PointStats, len(p.StatsData)),
	}
	for point, data := range p.Data {
		clone.Data[point] = data.Clone()
	}
	for point, stats := range p.StatsData {
		clone.StatsData[point] = stats.Clone()
	}
	return clone
}

func (p *PointInfo) Remove(point int64) {
	delete(p.Data, point)
}

func (p *PointInfo) GetPointData(point int64) *PointData {
	return p.Data[point]
}

func (p *PointInfo) GetPointDataOrDefault(point int64) *PointData {
	if data, ok := p.Data[point]; ok {
		return data
	}
	return &PointData{}
}

func (p *PointInfo) SetPointData(point int64, data *PointData) {
	p.Data[point] = data
}

// GetLiquidityData returns the liquidity entry at point, allocating the point
// and the entry when absent.
func (p *PointInfo) GetLiquidityData(point int64) *LiquidityData {
	data, ok := p.Data[point]
	if !ok {
		data = &PointData{}
		p.Data[point] = data
	}
	if data.LiquidityData == nil {
		data.LiquidityData = NewLiquidityData()
	}
	return data.LiquidityData
}

func (p *PointInfo) SetLiquidityData(point int64, liquidityData *LiquidityData) {
	data, ok := p.Data[point]
	if !ok {
		data = &PointData{}
		p.Data[point] = data
	}
	data.LiquidityData = liquidityData
}

// GetOrderData returns the order entry at point, allocating the point and the
// entry when absent.
func (p *PointInfo) GetOrderData(point int64) *OrderData {
	data, ok := p.Data[point]
	if !ok {
		data = &PointData{}
		p.Data[point] = data
	}
	if data.OrderData == nil {
		data.OrderData = NewOrderData()
	}
	return data.OrderData
}

func (p *PointInfo) SetOrderData(point int64, orderData *OrderData) {
	data, ok := p.Data[point]
	if !ok {
		data = &PointData{}
		p.Data[point] = data
	}
	data.OrderData = orderData
}

func (p *PointInfo) HasActiveLiquidity(point, pointDelta int64) bool {
	if point%pointDelta != 0 {
		return false
	}
	data := p.GetPointData(point)
	return data != nil && data.HasActiveLiquidity()
}

func (p *PointInfo) HasActiveOrder(point, pointDelta int64) bool {
	if point%pointDelta != 0 {
		return false
	}
	data := p.GetPointData(point)
	return data != nil && data.HasActiveOrder()
}

// IsEndpoint reports whether point currently bounds at least one liquidity range.
func (p *PointInfo) IsEndpoint(point, pointDelta int64) bool {
	return p.HasActiveLiquidity(point, pointDelta)
}

// GetPointTypeValue encodes what a valued point holds: bit 0 for liquidity,
// bit 1 for orders.
func (p *PointInfo) GetPointTypeValue(point, pointDelta int64) int {
	pointType := 0
	if point%pointDelta == 0 {
		if p.HasActiveLiquidity(point, pointDelta) {
			pointType |= 1
		}
		if p.HasActiveOrder(point, pointDelta) {
			pointType |= 2
		}
	}
	return pointType
}

// GetFeeInRange computes the fee scale accumulated strictly inside
// [leftPoint, rightPoint) per unit liquidity, on both tokens. Subtractions
// wrap: the outside accumulators may formally exceed the global scale, and
// only differences carry meaning.
func (p *PointInfo) GetFeeInRange(leftPoint, rightPoint, currentPoint int64, feeScaleX128, feeScaleY128 *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	leftData, okLeft := p.Data[leftPoint]
	rightData, okRight := p.Data[rightPoint]
	if !okLeft || !okRight || leftData.LiquidityData == nil || rightData.LiquidityData == nil {
		return nil, nil, ErrMissingEndpoint
	}

	feeScaleLX128 := feeScaleL(leftPoint, currentPoint, feeScaleX128, leftData.LiquidityData.AccFeeXOut128)
	feeScaleGEX128 := feeScaleGE(rightPoint, currentPoint, feeScaleX128, rightData.LiquidityData.AccFeeXOut128)
	feeScaleLY128 := feeScaleL(leftPoint, currentPoint, feeScaleY128, leftData.LiquidityData.AccFeeYOut128)
	feeScaleGEY128 := feeScaleGE(rightPoint, currentPoint, feeScaleY128, rightData.LiquidityData.AccFeeYOut128)

	accFeeXIn128 := new(uint256.Int).Sub(feeScaleX128, feeScaleLX128)
	accFeeXIn128.Sub(accFeeXIn128, feeScaleGEX128)
	accFeeYIn128 := new(uint256.Int).Sub(feeScaleY128, feeScaleLY128)
	accFeeYIn128.Sub(accFeeYIn128, feeScaleGEY128)
	return accFeeXIn128, accFeeYIn128, nil
}

// UpdateEndpoint applies a signed liquidity change to one range boundary.
// liquidityDelta is two's complement. The bool result reports whether the
// endpoint was created or emptied by this change, which tells the caller to
// update the bitmap and possibly drop the entry.
func (p *PointInfo) UpdateEndpoint(endpoint int64, isLeft bool, currentPoint int64, liquidityDelta, maxLiquidityPerPoint, feeScaleX128, feeScaleY128 *uint256.Int) (bool, error) {
	data, ok := p.Data[endpoint]
	if !ok {
		data = &PointData{}
	}
	liquidityData := data.LiquidityData
	if liquidityData == nil {
		liquidityData = NewLiquidityData()
	}

	liquidAccBefore := new(uint256.Int).Set(liquidityData.LiquiditySum)
	liquidAccAfter := new(uint256.Int).Add(liquidAccBefore, liquidityDelta)
	if liquidAccAfter.Cmp(maxLiquidityPerPoint) > 0 {
		return false, ErrLiquidityOverflow
	}
	liquidityData.LiquiditySum.Set(liquidAccAfter)

	if isLeft {
		liquidityData.LiquidityDelta.Add(liquidityData.LiquidityDelta, liquidityDelta)
	} else {
		liquidityData.LiquidityDelta.Sub(liquidityData.LiquidityDelta, liquidityDelta)
	}

	newOrErase := false
	if liquidAccBefore.IsZero() {
		newOrErase = true
		// A fresh endpoint at or above the current point has seen every fee
		// so far accumulate on its outside.
		if endpoint >= currentPoint {
			liquidityData.AccFeeXOut128.Set(feeScaleX128)
			liquidityData.AccFeeYOut128.Set(feeScaleY128)
		}
	} else if liquidAccAfter.IsZero() {
		newOrErase = true
	}

	data.LiquidityData = liquidityData
	p.Data[endpoint] = data
	return newOrErase, nil
}

func (p *PointInfo) GetPointStatsOrDefault(point int64) *PointStats {
	if stats, ok := p.StatsData[point]; ok {
		return stats
	}
	return NewPointStats()
}

func (p *PointInfo) SetPointStats(point int64, stats *PointStats) {
	p.StatsData[point] = stats
}

// feeScaleL is the fee scale accumulated strictly below endpoint.
func feeScaleL(endpoint, currentPoint int64, feeScale128, feeScaleBeyond128 *uint256.Int) *uint256.Int {
	if endpoint <= currentPoint {
		return new(uint256.Int).Set(feeScaleBeyond128)
	}
	return new(uint256.Int).Sub(feeScale128, feeScaleBeyond128)
}

// feeScaleGE is the fee scale accumulated at or above endpoint.
func feeScaleGE(endpoint, currentPoint int64, feeScale128, feeScaleBeyond128 *uint256.Int) *uint256.Int {
	if endpoint > currentPoint {
		return new(uint256.Int).Set(feeScaleBeyond128)
	}
	return new(uint256.Int).Sub(feeScale128, feeScaleBeyond128)
}
