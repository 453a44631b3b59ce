package dcl

import (
	"github.com/holiman/uint256"

	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/amountmath"
	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/pointbitmap"
	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/pointmath"
)

// RunningState gates every mutating operation; paused pools and registries
// still answer queries.
type RunningState string

const (
	RUNNING RunningState = "Running"
	PAUSED  RunningState = "Paused"
)

const (
	// BP_DENOM is the basis point denominator for protocol fee and VIP discounts.
	BP_DENOM = 10_000
	// FEE_DENOM is the denominator of the per million pool fee.
	FEE_DENOM = 1_000_000
)

// Pool is the full replayed state of one trading pair at one fee tier.
// Amounts stay in raw token units; prices stay in sqrt Q96.
type Pool struct {
	PoolID        PoolID
	TokenX        string
	TokenY        string
	TokenXDecimal uint8
	TokenYDecimal uint8

	CurrentPoint int64
	Fee          uint32
	PointDelta   int64
	SqrtPrice96  *uint256.Int

	// Liquidity is the active liquidity at the current point; LiquidityX is
	// the part of it already converted to token X.
	Liquidity            *uint256.Int
	LiquidityX           *uint256.Int
	MaxLiquidityPerPoint *uint256.Int

	FeeScaleX128     *uint256.Int
	FeeScaleY128     *uint256.Int
	TotalFeeXCharged *uint256.Int
	TotalFeeYCharged *uint256.Int

	VolumeXIn  *uint256.Int
	VolumeYIn  *uint256.Int
	VolumeXOut *uint256.Int
	VolumeYOut *uint256.Int

	TotalLiquidity *uint256.Int
	TotalOrderX    *uint256.Int
	TotalOrderY    *uint256.Int
	TotalX         *uint256.Int
	TotalY         *uint256.Int

	PointInfo  *PointInfo
	SlotBitmap *pointbitmap.PointBitmap
	State      RunningState
}

func NewPool() *Pool {
	return &Pool{
		SqrtPrice96:          new(uint256.Int),
		Liquidity:            new(uint256.Int),
		LiquidityX:           new(uint256.Int),
		MaxLiquidityPerPoint: new(uint256.Int),
		FeeScaleX128:         new(uint256.Int),
		FeeScaleY128:         new(uint256.Int),
		TotalFeeXCharged:     new(uint256.Int),
		TotalFeeYCharged:     new(uint256.Int),
		VolumeXIn:            new(uint256.Int),
		VolumeYIn:            new(uint256.Int),
		VolumeXOut:           new(uint256.Int),
		VolumeYOut:           new(uint256.Int),
		TotalLiquidity:       new(uint256.Int),
		TotalOrderX:          new(uint256.Int),
		TotalOrderY:          new(uint256.Int),
		TotalX:               new(uint256.Int),
		TotalY:               new(uint256.Int),
		PointInfo:            NewPointInfo(),
		SlotBitmap:           pointbitmap.New(),
		State:                RUNNING,
	}
}

func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	clone.SqrtPrice96 = new(uint256.Int).Set(p.SqrtPrice96)
	clone.Liquidity = new(uint256.Int).Set(p.Liquidity)
	clone.LiquidityX = new(uint256.Int).Set(p.LiquidityX)
	clone.MaxLiquidityPerPoint = new(uint256.Int).Set(p.MaxLiquidityPerPoint)
	clone.FeeScaleX128 = new(uint256.Int).Set(p.FeeScaleX128)
	clone.FeeScaleY128 = new(uint256.Int).Set(p.FeeScaleY128)
	clone.TotalFeeXCharged = new(uint256.Int).Set(p.TotalFeeXCharged)
	clone.TotalFeeYCharged = new(uint256.Int).Set(p.TotalFeeYCharged)
	clone.VolumeXIn = new(uint256.Int).Set(p.VolumeXIn)
	clone.VolumeYIn = new(uint256.Int).Set(p.VolumeYIn)
	clone.VolumeXOut = new(uint256.Int).Set(p.VolumeXOut)
	clone.VolumeYOut = new(uint256.Int).Set(p.VolumeYOut)
	clone.TotalLiquidity = new(uint256.Int).Set(p.TotalLiquidity)
	clone.TotalOrderX = new(uint256.Int).Set(p.TotalOrderX)
	clone.TotalOrderY = new(uint256.Int).Set(p.TotalOrderY)
	clone.TotalX = new(uint256.Int).Set(p.TotalX)
	clone.TotalY = new(uint256.Int).Set(p.TotalY)
	clone.PointInfo = p.PointInfo.Clone()
	clone.SlotBitmap = p.SlotBitmap.Clone()
	return &clone
}

// liquidityAddDelta applies a two's complement signed delta to a liquidity
// amount. The wrap of uint256 addition carries the sign.
func liquidityAddDelta(dest, liquidity, delta *uint256.Int) *uint256.Int {
	return dest.Add(liquidity, delta)
}

// InternalAddLiquidity converts the offered token amounts into the largest
// mintable liquidity over [leftPoint, rightPoint) and books it on both
// endpoints. Returns the minted liquidity, the exact token amounts consumed
// and the in-range fee scales for the position snapshot.
func (p *Pool) InternalAddLiquidity(leftPoint, rightPoint int64, amountX, amountY, minAmountX, minAmountY *uint256.Int) (liquidity, needX, needY, accFeeXIn128, accFeeYIn128 *uint256.Int, err error) {
	liquidity, err = p.ComputeLiquidity(leftPoint, rightPoint, amountX, amountY)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if liquidity.IsZero() {
		return nil, nil, nil, nil, nil, ErrLiquidityTooSmall
	}
	accFeeXIn128, accFeeYIn128, err = p.UpdatePool(leftPoint, rightPoint, liquidity)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	needX, needY, err = p.ComputeDepositXY(leftPoint, rightPoint, liquidity)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if needX.Cmp(minAmountX) < 0 || needY.Cmp(minAmountY) < 0 {
		return nil, nil, nil, nil, nil, ErrSlippage
	}
	return liquidity, needX, needY, accFeeXIn128, accFeeYIn128, nil
}

// InternalRemoveLiquidity books the removal on both endpoints and converts the
// removed liquidity back to token amounts.
func (p *Pool) InternalRemoveLiquidity(liquidity *uint256.Int, leftPoint, rightPoint int64, minAmountX, minAmountY *uint256.Int) (removeX, removeY, accFeeXIn128, accFeeYIn128 *uint256.Int, err error) {
	negDelta := new(uint256.Int).Neg(liquidity)
	accFeeXIn128, accFeeYIn128, err = p.UpdatePool(leftPoint, rightPoint, negDelta)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	removeX, removeY, err = p.ComputeWithdrawXY(leftPoint, rightPoint, liquidity)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if removeX.Cmp(minAmountX) < 0 || removeY.Cmp(minAmountY) < 0 {
		return nil, nil, nil, nil, ErrSlippage
	}
	return removeX, removeY, accFeeXIn128, accFeeYIn128, nil
}

// ComputeDepositXY prices liquidity into token amounts, rounding up. A range
// straddling the current point activates immediately, so the pool's active
// liquidity grows here.
func (p *Pool) ComputeDepositXY(leftPoint, rightPoint int64, liquidity *uint256.Int) (amountX, amountY *uint256.Int, err error) {
	amountX, amountY, err = amountmath.ComputeDepositXY(liquidity, leftPoint, rightPoint, p.CurrentPoint)
	if err != nil {
		return nil, nil, err
	}
	if leftPoint <= p.CurrentPoint && rightPoint > p.CurrentPoint {
		p.Liquidity.Add(p.Liquidity, liquidity)
	}
	return amountX, amountY, nil
}

// ComputeWithdrawXY prices liquidity back into token amounts, rounding down,
// and shrinks the active liquidity split when the range covers the current
// point.
func (p *Pool) ComputeWithdrawXY(leftPoint, rightPoint int64, liquidity *uint256.Int) (amountX, amountY *uint256.Int, err error) {
	amountX, amountY, newLiquidity, newLiquidityX, err := amountmath.ComputeWithdrawXY(liquidity, leftPoint, rightPoint, p.CurrentPoint, p.Liquidity, p.LiquidityX)
	if err != nil {
		return nil, nil, err
	}
	p.Liquidity.Set(newLiquidity)
	p.LiquidityX.Set(newLiquidityX)
	return amountX, amountY, nil
}

// UpdatePool applies a signed liquidity delta to both endpoints of a range
// and returns the in-range fee scales. Endpoints created or emptied by the
// change are reflected in the bitmap, and entries whose liquidity side died
// are dropped unless orders keep the point alive.
func (p *Pool) UpdatePool(leftPoint, rightPoint int64, liquidityDelta *uint256.Int) (accFeeXIn128, accFeeYIn128 *uint256.Int, err error) {
	leftNewOrErase, rightNewOrErase := false, false
	if !liquidityDelta.IsZero() {
		if leftNewOrErase, err = p.PointInfo.UpdateEndpoint(leftPoint, true, p.CurrentPoint, liquidityDelta, p.MaxLiquidityPerPoint, p.FeeScaleX128, p.FeeScaleY128); err != nil {
			return nil, nil, err
		}
		if rightNewOrErase, err = p.PointInfo.UpdateEndpoint(rightPoint, false, p.CurrentPoint, liquidityDelta, p.MaxLiquidityPerPoint, p.FeeScaleX128, p.FeeScaleY128); err != nil {
			return nil, nil, err
		}
	}

	accFeeXIn128, accFeeYIn128, err = p.PointInfo.GetFeeInRange(leftPoint, rightPoint, p.CurrentPoint, p.FeeScaleX128, p.FeeScaleY128)
	if err != nil {
		return nil, nil, err
	}

	if leftNewOrErase {
		if err = p.refreshEndpoint(leftPoint); err != nil {
			return nil, nil, err
		}
	}
	if rightNewOrErase {
		if err = p.refreshEndpoint(rightPoint); err != nil {
			return nil, nil, err
		}
	}
	return accFeeXIn128, accFeeYIn128, nil
}

func (p *Pool) refreshEndpoint(point int64) error {
	endpoint := p.PointInfo.GetPointData(point)
	if endpoint == nil {
		return ErrMissingEndpoint
	}
	if endpoint.HasLiquidity() {
		return p.SlotBitmap.SetOne(point, p.PointDelta)
	}
	endpoint.LiquidityData = nil
	if !endpoint.HasActiveOrder() {
		if err := p.SlotBitmap.SetZero(point, p.PointDelta); err != nil {
			return err
		}
	}
	if endpoint.HasOrder() {
		p.PointInfo.SetPointData(point, endpoint)
	} else {
		p.PointInfo.Remove(point)
	}
	return nil
}

// ComputeLiquidity finds the largest liquidity both token budgets can fund
// over [leftPoint, rightPoint).
func (p *Pool) ComputeLiquidity(leftPoint, rightPoint int64, amountX, amountY *uint256.Int) (*uint256.Int, error) {
	liquidity := new(uint256.Int).Rsh(pointmath.MAX_UINT_128, 1)
	x, y, err := p.ComputeDepositXYPerUnit(leftPoint, rightPoint)
	if err != nil {
		return nil, err
	}
	if !x.IsZero() {
		xl := pointmath.MulFractionFloor(new(uint256.Int), amountX, pointmath.POW_96, x)
		if liquidity.Cmp(xl) > 0 {
			liquidity.Set(xl)
		}
	}
	if !y.IsZero() {
		if amountY.IsZero() {
			liquidity.Clear()
		} else {
			budget := new(uint256.Int).SubUint64(amountY, 1)
			yl := pointmath.MulFractionFloor(new(uint256.Int), budget, pointmath.POW_96, y)
			if liquidity.Cmp(yl) > 0 {
				liquidity.Set(yl)
			}
		}
	}
	return liquidity, nil
}

// ComputeDepositXYPerUnit prices one unit of liquidity in both tokens over
// [leftPoint, rightPoint), scaled by 2^96.
func (p *Pool) ComputeDepositXYPerUnit(leftPoint, rightPoint int64) (x, y *uint256.Int, err error) {
	x = new(uint256.Int)
	y = new(uint256.Int)

	sqrtPriceR96 := new(uint256.Int)
	if err = pointmath.GetSqrtPrice(sqrtPriceR96, rightPoint); err != nil {
		return nil, nil, err
	}

	if leftPoint < p.CurrentPoint {
		sqrtPriceL96 := new(uint256.Int)
		if err = pointmath.GetSqrtPrice(sqrtPriceL96, leftPoint); err != nil {
			return nil, nil, err
		}
		if rightPoint < p.CurrentPoint {
			amountmath.GetAmountYUnitLiquidity96(y, sqrtPriceL96, sqrtPriceR96)
		} else {
			amountmath.GetAmountYUnitLiquidity96(y, sqrtPriceL96, p.SqrtPrice96)
		}
	}

	if rightPoint > p.CurrentPoint {
		xrLeft := p.CurrentPoint + 1
		if leftPoint > p.CurrentPoint {
			xrLeft = leftPoint
		}
		if _, err = amountmath.GetAmountXUnitLiquidity96(x, xrLeft, rightPoint, sqrtPriceR96); err != nil {
			return nil, nil, err
		}
	}

	if leftPoint <= p.CurrentPoint && rightPoint > p.CurrentPoint {
		y.Add(y, p.SqrtPrice96)
	}
	return x, y, nil
}

// PassEndpoint crosses a liquidity endpoint during a swap: the outside fee
// accumulators flip and the endpoint's net delta joins or leaves the active
// liquidity, depending on the travel direction. Quote mode works on a copy.
func (p *Pool) PassEndpoint(point int64, isQuote, toTheLeft bool) {
	liquidityData := p.PointInfo.GetLiquidityData(point)
	if isQuote {
		liquidityData = liquidityData.Clone()
	}
	liquidityData.PassEndpoint(p.FeeScaleX128, p.FeeScaleY128)

	liquidityDelta := new(uint256.Int)
	if toTheLeft {
		liquidityDelta.Neg(liquidityData.LiquidityDelta)
	} else {
		liquidityDelta.Set(liquidityData.LiquidityDelta)
	}
	liquidityAddDelta(p.Liquidity, p.Liquidity, liquidityDelta)

	if !isQuote {
		p.PointInfo.SetLiquidityData(point, liquidityData)
	}
}

// UpdatePointOrder writes back the current point's order book after a fill
// and clears the bitmap bit when the point goes fully inactive.
func (p *Pool) UpdatePointOrder(pointData *PointData, orderData *OrderData, isQuote bool) error {
	if isQuote {
		return nil
	}
	pointData.OrderData = orderData
	if !pointData.HasActiveOrder() && !pointData.HasActiveLiquidity() {
		if err := p.SlotBitmap.SetZero(p.CurrentPoint, p.PointDelta); err != nil {
			return err
		}
	}
	p.PointInfo.SetPointData(p.CurrentPoint, pointData)
	return nil
}

// GetPoolFeeByUser discounts the pool fee for VIP users. vipInfo maps pool id
// to the retained fee in basis points.
func (p *Pool) GetPoolFeeByUser(vipInfo map[PoolID]uint32) uint32 {
	if rate, ok := vipInfo[p.PoolID]; ok {
		return uint32(uint64(p.Fee) * uint64(rate) / BP_DENOM)
	}
	return p.Fee
}
