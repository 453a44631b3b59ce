package amountmath

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/pointmath"
)

func sqrtPriceAt(t *testing.T, point int64) *uint256.Int {
	t.Helper()
	v := new(uint256.Int)
	require.NoError(t, pointmath.GetSqrtPrice(v, point))
	return v
}

func TestGetAmountY(t *testing.T) {
	liquidity := uint256.NewInt(1_000_000_000_000_000_000)

	t.Run("single point equals liquidity", func(t *testing.T) {
		// Over [0, 1) the geometric series has one term of value L.
		got := new(uint256.Int)
		GetAmountY(got, liquidity, sqrtPriceAt(t, 0), sqrtPriceAt(t, 1), false)
		assert.Equal(t, liquidity.Dec(), got.Dec())

		GetAmountY(got, liquidity, sqrtPriceAt(t, 0), sqrtPriceAt(t, 1), true)
		assert.Equal(t, liquidity.Dec(), got.Dec())
	})

	t.Run("rounding order", func(t *testing.T) {
		floor := new(uint256.Int)
		ceil := new(uint256.Int)
		GetAmountY(floor, liquidity, sqrtPriceAt(t, -50), sqrtPriceAt(t, 37), false)
		GetAmountY(ceil, liquidity, sqrtPriceAt(t, -50), sqrtPriceAt(t, 37), true)
		assert.True(t, floor.Cmp(ceil) <= 0)
		diff := new(uint256.Int).Sub(ceil, floor)
		assert.True(t, diff.CmpUint64(1) <= 0)
	})

	t.Run("wider range needs more", func(t *testing.T) {
		narrow := new(uint256.Int)
		wide := new(uint256.Int)
		GetAmountY(narrow, liquidity, sqrtPriceAt(t, 0), sqrtPriceAt(t, 10), false)
		GetAmountY(wide, liquidity, sqrtPriceAt(t, 0), sqrtPriceAt(t, 20), false)
		assert.True(t, narrow.Cmp(wide) < 0)
	})
}

func TestGetAmountX(t *testing.T) {
	liquidity := uint256.NewInt(1_000_000_000_000_000_000)

	t.Run("single point equals liquidity", func(t *testing.T) {
		// Over [0, 1) a unit of liquidity is a unit of X at price one.
		got := new(uint256.Int)
		_, err := GetAmountX(got, liquidity, 0, 1, sqrtPriceAt(t, 1), false)
		require.NoError(t, err)
		assert.Equal(t, liquidity.Dec(), got.Dec())
	})

	t.Run("rounding order", func(t *testing.T) {
		floor := new(uint256.Int)
		ceil := new(uint256.Int)
		_, err := GetAmountX(floor, liquidity, 5, 200, sqrtPriceAt(t, 200), false)
		require.NoError(t, err)
		_, err = GetAmountX(ceil, liquidity, 5, 200, sqrtPriceAt(t, 200), true)
		require.NoError(t, err)
		assert.True(t, floor.Cmp(ceil) <= 0)
		diff := new(uint256.Int).Sub(ceil, floor)
		assert.True(t, diff.CmpUint64(1) <= 0)
	})
}

func TestUnitLiquidity(t *testing.T) {
	t.Run("token y", func(t *testing.T) {
		got := GetAmountYUnitLiquidity96(new(uint256.Int), sqrtPriceAt(t, 0), sqrtPriceAt(t, 1))
		// One point at price one costs exactly 2^96 of Y per 2^96 liquidity.
		assert.Equal(t, "79228162514264337593543950336", got.Dec())
	})

	t.Run("token x", func(t *testing.T) {
		got, err := GetAmountXUnitLiquidity96(new(uint256.Int), 0, 1, sqrtPriceAt(t, 1))
		require.NoError(t, err)
		assert.False(t, got.IsZero())
	})
}

func TestMostLeftRightPoint(t *testing.T) {
	liquidity := uint256.NewInt(1_000_000_000_000_000_000)

	t.Run("zero amount x moves nothing", func(t *testing.T) {
		got, err := GetMostLeftPoint(liquidity, uint256.NewInt(0), 10, sqrtPriceAt(t, 10))
		require.NoError(t, err)
		assert.Equal(t, int64(10), got)
	})

	t.Run("zero amount y moves nothing", func(t *testing.T) {
		got, err := GetMostRightPoint(liquidity, uint256.NewInt(0), sqrtPriceAt(t, 0))
		require.NoError(t, err)
		assert.Equal(t, int64(0), got)
	})

	t.Run("full range amount y reaches right point", func(t *testing.T) {
		amountY := new(uint256.Int)
		GetAmountY(amountY, liquidity, sqrtPriceAt(t, 0), sqrtPriceAt(t, 5), true)
		got, err := GetMostRightPoint(liquidity, amountY, sqrtPriceAt(t, 0))
		require.NoError(t, err)
		assert.Equal(t, int64(5), got)
	})
}

func TestComputeDepositWithdraw(t *testing.T) {
	liquidity := uint256.NewInt(1_000_000_000_000_000_000)

	t.Run("range above current is pure x", func(t *testing.T) {
		x, y, err := ComputeDepositXY(liquidity, 100, 200, 0)
		require.NoError(t, err)
		assert.False(t, x.IsZero())
		assert.True(t, y.IsZero())
	})

	t.Run("range below current is pure y", func(t *testing.T) {
		x, y, err := ComputeDepositXY(liquidity, -200, -100, 0)
		require.NoError(t, err)
		assert.True(t, x.IsZero())
		assert.False(t, y.IsZero())
	})

	t.Run("straddling range needs both", func(t *testing.T) {
		x, y, err := ComputeDepositXY(liquidity, -100, 100, 0)
		require.NoError(t, err)
		assert.False(t, x.IsZero())
		assert.False(t, y.IsZero())
	})

	t.Run("withdraw never exceeds deposit", func(t *testing.T) {
		depositX, depositY, err := ComputeDepositXY(liquidity, -100, 100, 0)
		require.NoError(t, err)

		poolLiquidity := new(uint256.Int).Set(liquidity)
		poolLiquidityX := uint256.NewInt(0)
		withdrawX, withdrawY, newLiquidity, newLiquidityX, err := ComputeWithdrawXY(liquidity, -100, 100, 0, poolLiquidity, poolLiquidityX)
		require.NoError(t, err)

		assert.True(t, withdrawX.Cmp(depositX) <= 0)
		assert.True(t, withdrawY.Cmp(depositY) <= 0)
		assert.True(t, newLiquidity.IsZero())
		assert.True(t, newLiquidityX.IsZero())
	})
}
