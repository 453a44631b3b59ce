package dcl

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddOrder(t *testing.T) {
	d, poolID := newTestRegistry(t)
	zero := new(uint256.Int)

	orderID, err := d.AddOrder("client-1", "alice.near", testTokenY, e18(5), poolID, -40, testTokenX, zero, zero, 1700000000)
	require.NoError(t, err)
	require.NotEmpty(t, orderID)

	order, ok := d.UserOrders[orderID]
	require.True(t, ok)
	assert.Equal(t, "client-1", order.ClientID)
	assert.Equal(t, "alice.near", order.OwnerID)
	assert.Equal(t, int64(-40), order.Point)
	assert.Equal(t, testTokenY, order.SellToken)
	assert.Equal(t, testTokenX, order.BuyToken)
	assert.True(t, order.RemainAmount.Eq(e18(5)))
	assert.True(t, order.OriginalAmount.Eq(e18(5)))

	pool := d.Pools[poolID]
	assert.True(t, pool.TotalOrderY.Eq(e18(5)))
	assert.True(t, pool.TotalY.Eq(e18(5)))
	assert.True(t, pool.TotalOrderX.IsZero())

	gotID, ok := d.Users["alice.near"].OrderKeys[userOrderKey{PoolID: poolID, Point: -40}]
	require.True(t, ok)
	assert.Equal(t, orderID, gotID)
}

func TestAddOrderValidation(t *testing.T) {
	d, poolID := newTestRegistry(t)
	zero := new(uint256.Int)

	cases := []struct {
		name      string
		sellToken string
		buyToken  string
		poolID    PoolID
		point     int64
		amount    *uint256.Int
		swapped   *uint256.Int
		wantErr   error
	}{
		{"unknown pool", testTokenY, testTokenX, "no-such|pool|2000", -40, e18(1), zero, ErrPoolNotExist},
		{"misaligned point", testTokenY, testTokenX, poolID, -41, e18(1), zero, ErrInvalidEndpoint},
		{"sell y above current point", testTokenY, testTokenX, poolID, 40, e18(1), zero, ErrInvalidPoint},
		{"sell x below current point", testTokenX, testTokenY, poolID, -40, e18(1), zero, ErrInvalidPoint},
		{"buy token mismatch", testTokenY, testTokenY, poolID, -40, e18(1), zero, ErrTokenMismatch},
		{"sell token not in pool", "token-c.near", testTokenX, poolID, -40, e18(1), zero, ErrTokenMismatch},
		{"nothing left to sell", testTokenY, testTokenX, poolID, -40, e18(1), e18(1), ErrInvalidSellingAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.AddOrder("", "alice.near", tc.sellToken, tc.amount, tc.poolID, tc.point, tc.buyToken, tc.swapped, zero, 0)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	t.Run("paused contract", func(t *testing.T) {
		d.PauseContract()
		defer d.ResumeContract()
		_, err := d.AddOrder("", "alice.near", testTokenY, e18(1), poolID, -40, testTokenX, zero, zero, 0)
		assert.ErrorIs(t, err, ErrPaused)
	})
}

func TestOrderFillAndCancel(t *testing.T) {
	d, poolID := newTestRegistry(t)
	zero := new(uint256.Int)

	orderID, err := d.AddOrder("", "alice.near", testTokenY, e18(1), poolID, 0, testTokenX, zero, zero, 0)
	require.NoError(t, err)

	// bob's swap fills part of the resident order at the current point
	in := uint256.NewInt(1_000_000_000_000_000)
	out, err := d.Swap("bob.near", []PoolID{poolID}, testTokenX, in, testTokenY, zero)
	require.NoError(t, err)
	assert.True(t, out.Cmp(in) < 0)
	assert.False(t, out.IsZero())

	t.Run("zero amount claims without cancelling", func(t *testing.T) {
		cancelled, earned, err := d.CancelOrder("alice.near", orderID, zero)
		require.NoError(t, err)
		assert.True(t, cancelled.IsZero())
		assert.True(t, earned.Sign() > 0)

		order, ok := d.UserOrders[orderID]
		require.True(t, ok)
		assert.True(t, order.RemainAmount.Cmp(e18(1)) < 0)
		assert.True(t, order.BoughtAmount.Eq(earned))
	})

	t.Run("wrong owner", func(t *testing.T) {
		_, _, err := d.CancelOrder("mallory.near", orderID, nil)
		assert.ErrorIs(t, err, ErrNotAllowed)
	})

	t.Run("nil amount cancels the remainder", func(t *testing.T) {
		cancelled, _, err := d.CancelOrder("alice.near", orderID, nil)
		require.NoError(t, err)
		assert.True(t, cancelled.Sign() > 0)

		_, ok := d.UserOrders[orderID]
		assert.False(t, ok)

		user := d.Users["alice.near"]
		assert.Equal(t, uint64(1), user.CompletedOrderCount)
		require.Len(t, user.HistoryOrders, 1)
		assert.True(t, user.HistoryOrders[0].RemainAmount.IsZero())

		pool := d.Pools[poolID]
		assert.True(t, pool.TotalOrderY.IsZero())
	})

	t.Run("unknown order", func(t *testing.T) {
		_, _, err := d.CancelOrder("alice.near", orderID, nil)
		assert.ErrorIs(t, err, ErrOrderNotExist)
	})
}

func TestCancelOrderFullyFilledPoint(t *testing.T) {
	d, poolID := newTestRegistry(t)
	zero := new(uint256.Int)

	aliceOrder, err := d.AddOrder("", "alice.near", testTokenY, e18(1), poolID, 0, testTokenX, zero, zero, 0)
	require.NoError(t, err)
	carolOrder, err := d.AddOrder("", "carol.near", testTokenY, e18(1), poolID, 0, testTokenX, zero, zero, 0)
	require.NoError(t, err)

	// bob's swap sells through both orders and walks past their point
	_, err = d.SwapByStopPoint("bob.near", poolID, testTokenX, e18(5), -40)
	require.NoError(t, err)

	pool := d.Pools[poolID]
	assert.Equal(t, int64(-40), pool.CurrentPoint)

	// both orders survive unsynced until their owners claim
	pointOrder := pool.PointInfo.GetPointData(0).OrderData
	require.NotNil(t, pointOrder)
	assert.Equal(t, uint64(2), pointOrder.UserOrderCount)
	assert.True(t, pointOrder.SellingY.IsZero())

	t.Run("claim only zeroes the sold out remainder", func(t *testing.T) {
		cancelled, earned, err := d.CancelOrder("alice.near", aliceOrder, zero)
		require.NoError(t, err)
		assert.True(t, cancelled.IsZero())
		// point zero prices one to one, the whole amount converts exactly
		assert.True(t, earned.Eq(e18(1)), "earned %s", earned.Dec())

		_, ok := d.UserOrders[aliceOrder]
		assert.False(t, ok)
		user := d.Users["alice.near"]
		require.Len(t, user.HistoryOrders, 1)
		assert.True(t, user.HistoryOrders[0].RemainAmount.IsZero())
		assert.True(t, user.HistoryOrders[0].BoughtAmount.Eq(e18(1)))
	})

	t.Run("second claim drains the point order", func(t *testing.T) {
		cancelled, earned, err := d.CancelOrder("carol.near", carolOrder, nil)
		require.NoError(t, err)
		assert.True(t, cancelled.IsZero())
		assert.True(t, earned.Eq(e18(1)), "earned %s", earned.Dec())

		assert.Nil(t, pool.PointInfo.GetPointData(0))
		assert.True(t, pool.TotalOrderY.IsZero())
	})

	assert.NoError(t, d.CheckPoolState(poolID))
}

func TestAddOrderWithSwap(t *testing.T) {
	t.Run("no opposing depth places the full amount", func(t *testing.T) {
		d, poolID := newTestRegistry(t)

		orderID, err := d.AddOrderWithSwap("client-1", "alice.near", testTokenY, e18(3), poolID, -40, testTokenX, 0)
		require.NoError(t, err)
		require.NotEmpty(t, orderID)

		order := d.UserOrders[orderID]
		require.NotNil(t, order)
		assert.True(t, order.RemainAmount.Eq(e18(3)))
		assert.True(t, order.SwapEarnAmount.IsZero())
	})

	t.Run("deep opposing depth consumes the full amount", func(t *testing.T) {
		d, poolID := newTestRegistry(t)
		addTestLiquidity(t, d, "lp.near", poolID, -2000, 2000, e18(100_000))

		orderID, err := d.AddOrderWithSwap("client-1", "alice.near", testTokenY, uint256.NewInt(1_000_000_000_000_000), poolID, 0, testTokenX, 0)
		require.NoError(t, err)
		assert.Empty(t, orderID)
		assert.Equal(t, uint64(0), d.LatestOrderID)
	})
}
