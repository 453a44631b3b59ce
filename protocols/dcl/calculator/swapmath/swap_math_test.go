package swapmath

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/amountmath"
	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/pointmath"
)

func sqrtPriceAt(t *testing.T, point int64) *uint256.Int {
	t.Helper()
	v := new(uint256.Int)
	require.NoError(t, pointmath.GetSqrtPrice(v, point))
	return v
}

// At point zero the price is exactly one, so liquidity, X and Y are all
// interchangeable one to one. That makes the expected values exact.
func TestAtPriceLiquidityAtParity(t *testing.T) {
	priceOne := sqrtPriceAt(t, 0)
	liquidity := uint256.NewInt(1_000_000)

	t.Run("x to y partial", func(t *testing.T) {
		costX, acquireY, newLiquidityX := XSwapYAtPriceLiquidity(uint256.NewInt(100), priceOne, liquidity, uint256.NewInt(0))
		assert.Equal(t, "100", costX.Dec())
		assert.Equal(t, "100", acquireY.Dec())
		assert.Equal(t, "100", newLiquidityX.Dec())
	})

	t.Run("x to y capped by y side", func(t *testing.T) {
		liquidityX := uint256.NewInt(999_990)
		costX, acquireY, newLiquidityX := XSwapYAtPriceLiquidity(uint256.NewInt(100), priceOne, liquidity, liquidityX)
		assert.Equal(t, "10", costX.Dec())
		assert.Equal(t, "10", acquireY.Dec())
		assert.Equal(t, liquidity.Dec(), newLiquidityX.Dec())
	})

	t.Run("y to x partial", func(t *testing.T) {
		costY, acquireX, newLiquidityX := YSwapXAtPriceLiquidity(uint256.NewInt(100), priceOne, uint256.NewInt(500))
		assert.Equal(t, "100", costY.Dec())
		assert.Equal(t, "100", acquireX.Dec())
		assert.Equal(t, "400", newLiquidityX.Dec())
	})

	t.Run("y to x capped by x side", func(t *testing.T) {
		costY, acquireX, newLiquidityX := YSwapXAtPriceLiquidity(uint256.NewInt(100), priceOne, uint256.NewInt(30))
		assert.Equal(t, "30", costY.Dec())
		assert.Equal(t, "30", acquireX.Dec())
		assert.True(t, newLiquidityX.IsZero())
	})
}

func TestAtPriceOrderFill(t *testing.T) {
	priceOne := sqrtPriceAt(t, 0)

	t.Run("x buys resident y", func(t *testing.T) {
		costX, acquireY := XSwapYAtPrice(uint256.NewInt(1000), priceOne, uint256.NewInt(400))
		assert.Equal(t, "400", acquireY.Dec())
		assert.Equal(t, "400", costX.Dec())
	})

	t.Run("y buys resident x", func(t *testing.T) {
		costY, acquireX := YSwapXAtPrice(uint256.NewInt(250), priceOne, uint256.NewInt(400))
		assert.Equal(t, "250", acquireX.Dec())
		assert.Equal(t, "250", costY.Dec())
	})

	t.Run("desire variants", func(t *testing.T) {
		costX, acquireY := XSwapYAtPriceDesire(uint256.NewInt(500), priceOne, uint256.NewInt(300))
		assert.Equal(t, "300", acquireY.Dec())
		assert.Equal(t, "300", costX.Dec())

		costY, acquireX := YSwapXAtPriceDesire(uint256.NewInt(200), priceOne, uint256.NewInt(300))
		assert.Equal(t, "200", acquireX.Dec())
		assert.Equal(t, "200", costY.Dec())
	})
}

func TestXSwapYRangeComplete(t *testing.T) {
	liquidity := uint256.NewInt(1_000_000_000_000_000_000)
	left, right := int64(-100), int64(100)
	sqrtPriceL := sqrtPriceAt(t, left)
	sqrtPriceR := sqrtPriceAt(t, right)

	maxX, err := amountmath.GetAmountX(new(uint256.Int), liquidity, left, right, sqrtPriceR, true)
	require.NoError(t, err)

	t.Run("full range", func(t *testing.T) {
		result, err := XSwapYRangeComplete(liquidity, sqrtPriceL, left, sqrtPriceR, right, maxX)
		require.NoError(t, err)
		assert.True(t, result.CompleteLiquidity)
		assert.Equal(t, maxX.Dec(), result.CostX.Dec())
		assert.False(t, result.AcquireY.IsZero())
	})

	t.Run("partial range", func(t *testing.T) {
		half := new(uint256.Int).Rsh(maxX, 1)
		result, err := XSwapYRangeComplete(liquidity, sqrtPriceL, left, sqrtPriceR, right, half)
		require.NoError(t, err)
		assert.False(t, result.CompleteLiquidity)
		assert.GreaterOrEqual(t, result.LocPt, left)
		assert.Less(t, result.LocPt, right)
		assert.True(t, result.CostX.Cmp(half) <= 0)

		expectedPrice := sqrtPriceAt(t, result.LocPt)
		assert.Equal(t, expectedPrice.Dec(), result.SqrtLoc96.Dec())
	})
}

func TestYSwapXRangeComplete(t *testing.T) {
	liquidity := uint256.NewInt(1_000_000_000_000_000_000)
	left, right := int64(-100), int64(100)
	sqrtPriceL := sqrtPriceAt(t, left)
	sqrtPriceR := sqrtPriceAt(t, right)

	maxY := amountmath.GetAmountY(new(uint256.Int), liquidity, sqrtPriceL, sqrtPriceR, true)

	t.Run("full range", func(t *testing.T) {
		result, err := YSwapXRangeComplete(liquidity, sqrtPriceL, left, sqrtPriceR, right, maxY)
		require.NoError(t, err)
		assert.True(t, result.CompleteLiquidity)
		assert.Equal(t, maxY.Dec(), result.CostY.Dec())
		assert.False(t, result.AcquireX.IsZero())
	})

	t.Run("partial range", func(t *testing.T) {
		half := new(uint256.Int).Rsh(maxY, 1)
		result, err := YSwapXRangeComplete(liquidity, sqrtPriceL, left, sqrtPriceR, right, half)
		require.NoError(t, err)
		assert.False(t, result.CompleteLiquidity)
		assert.GreaterOrEqual(t, result.LocPt, left)
		assert.Less(t, result.LocPt, right)
		assert.True(t, result.CostY.Cmp(half) <= 0)
	})
}

func TestRangeCompleteDesire(t *testing.T) {
	liquidity := uint256.NewInt(1_000_000_000_000_000_000)
	left, right := int64(-100), int64(100)
	sqrtPriceL := sqrtPriceAt(t, left)
	sqrtPriceR := sqrtPriceAt(t, right)

	t.Run("x to y full", func(t *testing.T) {
		maxY := amountmath.GetAmountY(new(uint256.Int), liquidity, sqrtPriceL, sqrtPriceR, false)
		result, err := XSwapYRangeCompleteDesire(liquidity, sqrtPriceL, left, sqrtPriceR, right, maxY)
		require.NoError(t, err)
		assert.True(t, result.CompleteLiquidity)
		assert.Equal(t, maxY.Dec(), result.AcquireY.Dec())
	})

	t.Run("x to y partial", func(t *testing.T) {
		maxY := amountmath.GetAmountY(new(uint256.Int), liquidity, sqrtPriceL, sqrtPriceR, false)
		half := new(uint256.Int).Rsh(maxY, 1)
		result, err := XSwapYRangeCompleteDesire(liquidity, sqrtPriceL, left, sqrtPriceR, right, half)
		require.NoError(t, err)
		assert.False(t, result.CompleteLiquidity)
		assert.GreaterOrEqual(t, result.LocPt, left)
		assert.Less(t, result.LocPt, right)
		assert.True(t, result.AcquireY.Cmp(half) <= 0)
	})

	t.Run("y to x full", func(t *testing.T) {
		maxX, err := amountmath.GetAmountX(new(uint256.Int), liquidity, left, right, sqrtPriceR, false)
		require.NoError(t, err)
		result, err := YSwapXRangeCompleteDesire(liquidity, sqrtPriceL, left, sqrtPriceR, right, maxX)
		require.NoError(t, err)
		assert.True(t, result.CompleteLiquidity)
		assert.Equal(t, maxX.Dec(), result.AcquireX.Dec())
	})

	t.Run("y to x partial", func(t *testing.T) {
		maxX, err := amountmath.GetAmountX(new(uint256.Int), liquidity, left, right, sqrtPriceR, false)
		require.NoError(t, err)
		half := new(uint256.Int).Rsh(maxX, 1)
		result, err := YSwapXRangeCompleteDesire(liquidity, sqrtPriceL, left, sqrtPriceR, right, half)
		require.NoError(t, err)
		assert.False(t, result.CompleteLiquidity)
		assert.GreaterOrEqual(t, result.LocPt, left)
		assert.Less(t, result.LocPt, right)
		assert.True(t, result.AcquireX.Cmp(half) <= 0)
	})
}
