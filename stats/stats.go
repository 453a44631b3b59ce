package stats

import (
	"math"
	"sort"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	dcl "github.com/defistate/dclstate-client-go/protocols/dcl"
	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/amountmath"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// EndpointStats is one persisted row: the per endpoint TVL, replay volumes and
// fee attribution of a pool. Amounts are normalized by token decimals;
// Liquidity stays in raw pool units.
type EndpointStats struct {
	Liquidity decimal.Decimal `json:"l"`

	TvlXLiquidity decimal.Decimal `json:"tvl_x_l"`
	TvlYLiquidity decimal.Decimal `json:"tvl_y_l"`
	TvlXOrder     decimal.Decimal `json:"tvl_x_o"`
	TvlYOrder     decimal.Decimal `json:"tvl_y_o"`

	VolXInLiquidity  decimal.Decimal `json:"vol_x_in_l"`
	VolYInLiquidity  decimal.Decimal `json:"vol_y_in_l"`
	VolXOutLiquidity decimal.Decimal `json:"vol_x_out_l"`
	VolYOutLiquidity decimal.Decimal `json:"vol_y_out_l"`
	VolXInOrder      decimal.Decimal `json:"vol_x_in_o"`
	VolYInOrder      decimal.Decimal `json:"vol_y_in_o"`
	VolXOutOrder     decimal.Decimal `json:"vol_x_out_o"`
	VolYOutOrder     decimal.Decimal `json:"vol_y_out_o"`

	FeeX         decimal.Decimal `json:"fee_x"`
	FeeY         decimal.Decimal `json:"fee_y"`
	ProtocolFeeX decimal.Decimal `json:"p_fee_x"`
	ProtocolFeeY decimal.Decimal `json:"p_fee_y"`

	Price decimal.Decimal `json:"p"`
}

// Report holds the endpoint rows of every pool, keyed by pool then point.
type Report map[dcl.PoolID]map[int64]*EndpointStats

// Collect walks every pool of the registry and aggregates its endpoint stats.
func Collect(d *dcl.Dcl, logger Logger) Report {
	report := make(Report, len(d.Pools))
	for poolID, pool := range d.Pools {
		report[poolID] = collectPool(pool, logger)
	}
	return report
}

func collectPool(pool *dcl.Pool, logger Logger) map[int64]*EndpointStats {
	xDec := int32(pool.TokenXDecimal)
	yDec := int32(pool.TokenYDecimal)
	pointDelta := pool.PointDelta

	normX := func(v *uint256.Int) decimal.Decimal {
		return decimal.NewFromBigInt(v.ToBig(), 0).Shift(-xDec)
	}
	normY := func(v *uint256.Int) decimal.Decimal {
		return decimal.NewFromBigInt(v.ToBig(), 0).Shift(-yDec)
	}

	out := make(map[int64]*EndpointStats)
	getOrInit := func(point int64) *EndpointStats {
		if st, ok := out[point]; ok {
			return st
		}
		st := &EndpointStats{Price: pointPrice(point, xDec, yDec)}
		out[point] = st
		return st
	}

	points := make([]int64, 0, len(pool.PointInfo.Data))
	for point := range pool.PointInfo.Data {
		points = append(points, point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })

	// Sweep the endpoints in point order, carrying the accumulated liquidity
	// delta. Endpoints between two liquidity boundaries inherit the stats of
	// the lower boundary, one entry per point delta stride.
	accDelta := new(uint256.Int)
	var lastPoint int64
	haveLast := false
	for _, point := range points {
		data := pool.PointInfo.Data[point]

		if haveLast && lastPoint < point {
			for pt := lastPoint + pointDelta; pt < point; pt += pointDelta {
				fill := *out[lastPoint]
				fill.Price = pointPrice(pt, xDec, yDec)
				out[pt] = &fill
			}
		}

		if data.LiquidityData != nil {
			// two's complement add; closing boundaries subtract
			accDelta.Add(accDelta, data.LiquidityData.LiquidityDelta)
		}
		if accDelta.Sign() > 0 {
			st := getOrInit(point)
			st.Liquidity = decimal.NewFromBigInt(accDelta.ToBig(), 0)
			tvlX, tvlY, err := amountmath.ComputeDepositXY(accDelta, point, point+pointDelta, pool.CurrentPoint)
			if err != nil {
				logger.Warn("Endpoint TVL computation failed", "pool", pool.PoolID, "point", point, "error", err)
			} else {
				st.TvlXLiquidity = normX(tvlX)
				st.TvlYLiquidity = normY(tvlY)
			}
			lastPoint = point
			haveLast = true
		} else {
			// The liquidity region ends here; nothing to carry forward.
			haveLast = false
		}

		if data.OrderData != nil {
			st := getOrInit(point)
			st.TvlXOrder = normX(data.OrderData.SellingX)
			st.TvlYOrder = normY(data.OrderData.SellingY)
		}
	}

	for point, data := range pool.PointInfo.StatsData {
		st := getOrInit(point)
		st.VolXInLiquidity = normX(data.LiquidityVolumeXIn)
		st.VolYInLiquidity = normY(data.LiquidityVolumeYIn)
		st.VolXOutLiquidity = normX(data.LiquidityVolumeXOut)
		st.VolYOutLiquidity = normY(data.LiquidityVolumeYOut)
		st.VolXInOrder = normX(data.OrderVolumeXIn)
		st.VolYInOrder = normY(data.OrderVolumeYIn)
		st.VolXOutOrder = normX(data.OrderVolumeXOut)
		st.VolYOutOrder = normY(data.OrderVolumeYOut)
		st.FeeX = normX(data.FeeX)
		st.FeeY = normY(data.FeeY)
		st.ProtocolFeeX = normX(data.ProtocolFeeX)
		st.ProtocolFeeY = normY(data.ProtocolFeeY)
	}

	auditPoolFees(pool, out, logger)
	return out
}

// auditPoolFees cross-checks attributed fees against the pool fee applied to
// the recorded input volumes. A mismatch above one base unit means broken fee
// attribution, not rounding.
func auditPoolFees(pool *dcl.Pool, rows map[int64]*EndpointStats, logger Logger) {
	feeRate := decimal.New(int64(pool.Fee), 0).Shift(-6)
	toleranceX := decimal.New(1, -int32(pool.TokenXDecimal))
	toleranceY := decimal.New(1, -int32(pool.TokenYDecimal))

	for point := range pool.PointInfo.StatsData {
		st, ok := rows[point]
		if !ok {
			continue
		}

		expectedX := st.VolXInLiquidity.Add(st.VolXInOrder).Mul(feeRate)
		expectedY := st.VolYInLiquidity.Add(st.VolYInOrder).Mul(feeRate)
		totalX := st.FeeX.Add(st.ProtocolFeeX)
		totalY := st.FeeY.Add(st.ProtocolFeeY)

		if totalX.Sub(expectedX).Abs().GreaterThan(toleranceX) {
			logger.Warn("Endpoint fee X mismatch",
				"pool", pool.PoolID, "point", point,
				"expected", expectedX.String(), "total", totalX.String())
		}
		if totalY.Sub(expectedY).Abs().GreaterThan(toleranceY) {
			logger.Warn("Endpoint fee Y mismatch",
				"pool", pool.PoolID, "point", point,
				"expected", expectedY.String(), "total", totalY.String())
		}
	}
}

// pointPrice is the human price of one point: 1.0001^point adjusted by the
// decimal gap between the tokens.
func pointPrice(point int64, xDec, yDec int32) decimal.Decimal {
	price := math.Pow(1.0001, float64(point)) * math.Pow(10, float64(xDec-yDec))
	return decimal.NewFromFloat(price)
}
