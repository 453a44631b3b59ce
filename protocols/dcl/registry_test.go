package dcl

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTokenX = "token-a.near"
	testTokenY = "token-b.near"
	testFee    = uint32(2000)
)

func e18(n uint64) *uint256.Int {
	v := uint256.NewInt(n)
	return v.Mul(v, uint256.NewInt(1_000_000_000_000_000_000))
}

func newTestRegistry(t *testing.T) (*Dcl, PoolID) {
	t.Helper()
	d := NewDcl(DEFAULT_PROTOCOL_FEE_RATE)
	poolID, err := d.CreatePool(testTokenX, testTokenY, testFee, 0)
	require.NoError(t, err)
	return d, poolID
}

func addTestLiquidity(t *testing.T, d *Dcl, userID string, poolID PoolID, leftPoint, rightPoint int64, amount *uint256.Int) LptID {
	t.Helper()
	zero := new(uint256.Int)
	lptID, err := d.AddLiquidity(userID, poolID, leftPoint, rightPoint, amount, amount, zero, zero)
	require.NoError(t, err)
	return lptID
}

func TestCreatePool(t *testing.T) {
	d := NewDcl(DEFAULT_PROTOCOL_FEE_RATE)

	poolID, err := d.CreatePool(testTokenX, testTokenY, testFee, 0)
	require.NoError(t, err)
	assert.Equal(t, GenPoolID(testTokenX, testTokenY, testFee), poolID)

	pool, err := d.GetPool(poolID)
	require.NoError(t, err)
	assert.Equal(t, testTokenX, pool.TokenX)
	assert.Equal(t, testTokenY, pool.TokenY)
	assert.Equal(t, int64(40), pool.PointDelta)
	assert.Equal(t, int64(0), pool.CurrentPoint)
	assert.False(t, pool.SqrtPrice96.IsZero())
	assert.False(t, pool.MaxLiquidityPerPoint.IsZero())
	assert.Equal(t, RUNNING, pool.State)

	t.Run("errors", func(t *testing.T) {
		cases := []struct {
			name    string
			tokenA  string
			tokenB  string
			fee     uint32
			wantErr error
		}{
			{"same token", testTokenX, testTokenX, testFee, ErrSameToken},
			{"unsupported fee", testTokenX, testTokenY, 123, ErrInvalidFee},
			{"already exists", testTokenX, testTokenY, testFee, ErrPoolExists},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := d.CreatePool(tc.tokenA, tc.tokenB, tc.fee, 0)
				assert.ErrorIs(t, err, tc.wantErr)
			})
		}
	})

	t.Run("paused contract", func(t *testing.T) {
		d.PauseContract()
		defer d.ResumeContract()
		_, err := d.CreatePool(testTokenX, "token-c.near", testFee, 0)
		assert.ErrorIs(t, err, ErrPaused)
	})
}

func TestPauseResumePool(t *testing.T) {
	d, poolID := newTestRegistry(t)

	require.NoError(t, d.PausePool(poolID))
	pool, err := d.GetPool(poolID)
	require.NoError(t, err)
	assert.Equal(t, PAUSED, pool.State)

	require.NoError(t, d.ResumePool(poolID))
	assert.Equal(t, RUNNING, pool.State)

	assert.ErrorIs(t, d.PausePool("no-such|pool|2000"), ErrPoolNotExist)
	assert.ErrorIs(t, d.ResumePool("no-such|pool|2000"), ErrPoolNotExist)
}

func TestSetProtocolFeeRate(t *testing.T) {
	d := NewDcl(DEFAULT_PROTOCOL_FEE_RATE)

	assert.ErrorIs(t, d.SetProtocolFeeRate(BP_DENOM+1), ErrInvalidProtocolFee)
	assert.Equal(t, uint32(DEFAULT_PROTOCOL_FEE_RATE), d.ProtocolFeeRate)

	require.NoError(t, d.SetProtocolFeeRate(5000))
	assert.Equal(t, uint32(5000), d.ProtocolFeeRate)
}

func TestVipPoolFeeRate(t *testing.T) {
	d, poolID := newTestRegistry(t)

	assert.ErrorIs(t, d.SetVipPoolFeeRate("vip.near", "no-such|pool|2000", 5000), ErrPoolNotExist)
	assert.ErrorIs(t, d.SetVipPoolFeeRate("vip.near", poolID, BP_DENOM+1), ErrInvalidProtocolFee)

	require.NoError(t, d.SetVipPoolFeeRate("vip.near", poolID, 5000))
	assert.Equal(t, uint32(5000), d.VipUsers["vip.near"][poolID])

	d.UnsetVipPoolFeeRate("vip.near", poolID)
	_, ok := d.VipUsers["vip.near"]
	assert.False(t, ok)
}

func TestAddLiquidity(t *testing.T) {
	d, poolID := newTestRegistry(t)
	zero := new(uint256.Int)

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name       string
			poolID     PoolID
			leftPoint  int64
			rightPoint int64
			wantErr    error
		}{
			{"unknown pool", "no-such|pool|2000", -40, 40, ErrPoolNotExist},
			{"misaligned left", poolID, -41, 40, ErrInvalidEndpoint},
			{"misaligned right", poolID, -40, 39, ErrInvalidEndpoint},
			{"empty range", poolID, 40, 40, ErrIllegalRange},
			{"inverted range", poolID, 80, 40, ErrIllegalRange},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := d.AddLiquidity("alice.near", tc.poolID, tc.leftPoint, tc.rightPoint, e18(1), e18(1), zero, zero)
				assert.ErrorIs(t, err, tc.wantErr)
			})
		}
	})

	t.Run("mints position and books totals", func(t *testing.T) {
		lptID := addTestLiquidity(t, d, "alice.near", poolID, -2000, 2000, e18(1000))

		position, ok := d.UserLiquidities[lptID]
		require.True(t, ok)
		assert.Equal(t, "alice.near", position.OwnerID)
		assert.Equal(t, poolID, position.PoolID)
		assert.Equal(t, int64(-2000), position.LeftPoint)
		assert.Equal(t, int64(2000), position.RightPoint)
		assert.False(t, position.Amount.IsZero())

		pool := d.Pools[poolID]
		assert.True(t, pool.TotalLiquidity.Eq(position.Amount))
		assert.False(t, pool.Liquidity.IsZero())
		assert.False(t, pool.TotalX.IsZero())
		assert.False(t, pool.TotalY.IsZero())
		assert.Equal(t, uint64(1), d.LiquidityCount)

		_, owned := d.Users["alice.near"].LiquidityKeys[lptID]
		assert.True(t, owned)
	})
}

func TestAppendLiquidity(t *testing.T) {
	d, poolID := newTestRegistry(t)
	zero := new(uint256.Int)
	lptID := addTestLiquidity(t, d, "alice.near", poolID, -2000, 2000, e18(100))

	_, _, err := d.AppendLiquidity("mallory.near", lptID, e18(10), e18(10), zero, zero)
	assert.ErrorIs(t, err, ErrNotAllowed)

	_, _, err = d.AppendLiquidity("alice.near", "no-such-lpt", e18(10), e18(10), zero, zero)
	assert.ErrorIs(t, err, ErrLptNotExist)

	before := new(uint256.Int).Set(d.UserLiquidities[lptID].Amount)
	refundX, refundY, err := d.AppendLiquidity("alice.near", lptID, e18(10), e18(10), zero, zero)
	require.NoError(t, err)
	assert.True(t, d.UserLiquidities[lptID].Amount.Cmp(before) > 0)
	assert.True(t, refundX.Cmp(e18(10)) <= 0)
	assert.True(t, refundY.Cmp(e18(10)) <= 0)
}

func TestMergeLiquidity(t *testing.T) {
	d, poolID := newTestRegistry(t)
	first := addTestLiquidity(t, d, "alice.near", poolID, -2000, 2000, e18(100))
	second := addTestLiquidity(t, d, "alice.near", poolID, -2000, 2000, e18(100))
	otherRange := addTestLiquidity(t, d, "alice.near", poolID, 0, 2000, e18(100))
	otherOwner := addTestLiquidity(t, d, "bob.near", poolID, -2000, 2000, e18(100))

	t.Run("mismatch", func(t *testing.T) {
		cases := []struct {
			name    string
			list    []LptID
			wantErr error
		}{
			{"empty list", nil, ErrMergeMismatch},
			{"self merge", []LptID{first}, ErrMergeMismatch},
			{"different range", []LptID{otherRange}, ErrMergeMismatch},
			{"different owner", []LptID{otherOwner}, ErrMergeMismatch},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, _, err := d.MergeLiquidity("alice.near", first, tc.list)
				assert.ErrorIs(t, err, tc.wantErr)
			})
		}
	})

	t.Run("folds positions", func(t *testing.T) {
		before := new(uint256.Int).Set(d.UserLiquidities[first].Amount)
		_, _, err := d.MergeLiquidity("alice.near", first, []LptID{second})
		require.NoError(t, err)

		_, ok := d.UserLiquidities[second]
		assert.False(t, ok)
		assert.True(t, d.UserLiquidities[first].Amount.Cmp(before) > 0)
	})
}

func TestRemoveLiquidity(t *testing.T) {
	d, poolID := newTestRegistry(t)
	zero := new(uint256.Int)
	lptID := addTestLiquidity(t, d, "alice.near", poolID, -2000, 2000, e18(100))

	_, _, err := d.RemoveLiquidity("mallory.near", lptID, e18(1), zero, zero)
	assert.ErrorIs(t, err, ErrNotAllowed)

	_, _, err = d.RemoveLiquidity("alice.near", "no-such-lpt", e18(1), zero, zero)
	assert.ErrorIs(t, err, ErrLptNotExist)

	t.Run("zero amount claims only", func(t *testing.T) {
		refundX, refundY, err := d.RemoveLiquidity("alice.near", lptID, zero, zero, zero)
		require.NoError(t, err)
		assert.True(t, refundX.IsZero())
		assert.True(t, refundY.IsZero())
		_, ok := d.UserLiquidities[lptID]
		assert.True(t, ok)
	})

	t.Run("oversized amount burns the position", func(t *testing.T) {
		refundX, refundY, err := d.RemoveLiquidity("alice.near", lptID, e18(1_000_000_000), zero, zero)
		require.NoError(t, err)
		assert.False(t, refundX.IsZero())
		assert.False(t, refundY.IsZero())

		_, ok := d.UserLiquidities[lptID]
		assert.False(t, ok)
		assert.Equal(t, uint64(0), d.LiquidityCount)

		pool := d.Pools[poolID]
		assert.True(t, pool.TotalLiquidity.IsZero())
	})
}

// assertBitmapMatchesLedger checks every point entry against its bitmap slot:
// the bit is set exactly when the point carries live liquidity or an
// unfilled selling amount.
func assertBitmapMatchesLedger(t *testing.T, pool *Pool) {
	t.Helper()
	for point, data := range pool.PointInfo.Data {
		bit, err := pool.SlotBitmap.GetBit(point, pool.PointDelta)
		require.NoError(t, err)
		want := data.HasActiveLiquidity() || data.HasActiveOrder()
		assert.Equal(t, want, bit, "bitmap disagrees with the ledger at point %d", point)
	}
}

func TestSlotBitmapMatchesPointLedger(t *testing.T) {
	d, poolID := newTestRegistry(t)
	pool := d.Pools[poolID]
	zero := new(uint256.Int)

	lptID := addTestLiquidity(t, d, "alice.near", poolID, -80, 40, e18(10))
	assertBitmapMatchesLedger(t, pool)

	orderID, err := d.AddOrder("", "carol.near", testTokenY, e18(1), poolID, -40, testTokenX, zero, zero, 0)
	require.NoError(t, err)
	assertBitmapMatchesLedger(t, pool)

	_, err = d.Swap("bob.near", []PoolID{poolID}, testTokenX, uint256.NewInt(1_000_000_000_000_000), testTokenY, zero)
	require.NoError(t, err)
	assertBitmapMatchesLedger(t, pool)

	_, _, err = d.RemoveLiquidity("alice.near", lptID, e18(1_000_000), zero, zero)
	require.NoError(t, err)
	assertBitmapMatchesLedger(t, pool)

	_, _, err = d.CancelOrder("carol.near", orderID, nil)
	require.NoError(t, err)
	assertBitmapMatchesLedger(t, pool)

	// a slot nothing ever touched stays clear
	bit, err := pool.SlotBitmap.GetBit(80, pool.PointDelta)
	require.NoError(t, err)
	assert.False(t, bit)
}
