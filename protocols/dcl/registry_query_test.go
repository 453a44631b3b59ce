package dcl

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newQueryTestRegistry seeds range liquidity around the current point and one
// resident sell order below it.
func newQueryTestRegistry(t *testing.T) (*Dcl, PoolID) {
	t.Helper()
	d, poolID := newTestRegistry(t)
	addTestLiquidity(t, d, "alice.near", poolID, -2000, 2000, e18(1000))
	zero := new(uint256.Int)
	_, err := d.AddOrder("", "carol.near", testTokenY, e18(2), poolID, -40, testTokenX, zero, zero, 0)
	require.NoError(t, err)
	return d, poolID
}

func TestGetMarketDepth(t *testing.T) {
	d, poolID := newQueryTestRegistry(t)
	pool := d.Pools[poolID]

	depth, err := d.GetMarketDepth(poolID, 10)
	require.NoError(t, err)

	assert.Equal(t, poolID, depth.PoolID)
	assert.Equal(t, int64(0), depth.CurrentPoint)
	assert.True(t, depth.AmountL.Eq(pool.Liquidity))
	assert.NotEmpty(t, depth.Liquidities)

	order, ok := depth.Orders[-40]
	require.True(t, ok)
	assert.True(t, order.AmountY.Eq(e18(2)))
	assert.True(t, order.AmountX.IsZero())

	t.Run("unknown pool", func(t *testing.T) {
		_, err := d.GetMarketDepth("no-such|pool|2000", 10)
		assert.ErrorIs(t, err, ErrPoolNotExist)
	})
}

func TestGetLiquidityRange(t *testing.T) {
	d, poolID := newQueryTestRegistry(t)
	pool := d.Pools[poolID]

	ranges, err := d.GetLiquidityRange(poolID, -2000, 2000)
	require.NoError(t, err)
	require.NotEmpty(t, ranges)

	found := false
	for _, info := range ranges {
		require.NotNil(t, info.AmountL)
		assert.True(t, info.LeftPoint < info.RightPoint)
		if info.AmountL.Eq(pool.Liquidity) {
			found = true
		}
	}
	assert.True(t, found, "no segment carries the in-range liquidity")

	t.Run("errors", func(t *testing.T) {
		_, err := d.GetLiquidityRange(poolID, 2000, -2000)
		assert.ErrorIs(t, err, ErrIllegalRange)

		_, err = d.GetLiquidityRange("no-such|pool|2000", -2000, 2000)
		assert.ErrorIs(t, err, ErrPoolNotExist)
	})
}

func TestGetPointOrderRange(t *testing.T) {
	d, poolID := newQueryTestRegistry(t)

	orders, err := d.GetPointOrderRange(poolID, -2000, 2000)
	require.NoError(t, err)

	info, ok := orders[-40]
	require.True(t, ok)
	assert.Equal(t, int64(-40), info.Point)
	assert.True(t, info.AmountY.Eq(e18(2)))

	t.Run("errors", func(t *testing.T) {
		_, err := d.GetPointOrderRange(poolID, 2000, -2000)
		assert.ErrorIs(t, err, ErrIllegalRange)

		_, err = d.GetPointOrderRange("no-such|pool|2000", -2000, 2000)
		assert.ErrorIs(t, err, ErrPoolNotExist)
	})
}

func TestCheckPoolState(t *testing.T) {
	d, poolID := newQueryTestRegistry(t)

	require.NoError(t, d.CheckPoolState(poolID))

	// the audit still reconciles after a swap touched both sides
	_, err := d.Swap("bob.near", []PoolID{poolID}, testTokenX, uint256.NewInt(1_000_000_000_000_000), testTokenY, new(uint256.Int))
	require.NoError(t, err)
	require.NoError(t, d.CheckPoolState(poolID))

	assert.ErrorIs(t, d.CheckPoolState("no-such|pool|2000"), ErrPoolNotExist)
}
