package dcl

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifferIdenticalViews(t *testing.T) {
	d, _ := newSnapshotTestRegistry(t)
	assert.True(t, Differ(d.View(), d.View()).IsEmpty())
}

func TestDifferNilOldSide(t *testing.T) {
	d, poolID := newTestRegistry(t)
	lptID := addTestLiquidity(t, d, "alice.near", poolID, -2000, 2000, e18(10))

	diff := Differ(nil, d.View())
	require.False(t, diff.IsEmpty())
	assert.Equal(t, []PoolID{poolID}, diff.PoolsAdded)
	assert.Equal(t, []LptID{lptID}, diff.LiquiditiesAdded)
	assert.NotEmpty(t, diff.RootFields)
}

func TestDifferSwapTouchesPoolFields(t *testing.T) {
	d, poolID := newSwapTestRegistry(t)
	before := d.View()

	_, err := d.Swap("bob.near", []PoolID{poolID}, testTokenX, e18(1), testTokenY, new(uint256.Int))
	require.NoError(t, err)

	diff := Differ(before, d.View())
	require.Len(t, diff.Pools, 1)
	assert.Equal(t, poolID, diff.Pools[0].PoolID)

	names := make(map[string]struct{}, len(diff.Pools[0].Fields))
	for _, field := range diff.Pools[0].Fields {
		names[field.Name] = struct{}{}
	}
	assert.Contains(t, names, "volume_x_in")
	assert.Contains(t, names, "volume_y_out")
	assert.Contains(t, names, "total_x")
	assert.Contains(t, names, "total_y")
}

func TestDifferLiquidityLifecycle(t *testing.T) {
	d, poolID := newTestRegistry(t)
	lptID := addTestLiquidity(t, d, "alice.near", poolID, -2000, 2000, e18(10))
	withPosition := d.View()
	zero := new(uint256.Int)

	t.Run("changed", func(t *testing.T) {
		_, _, err := d.AppendLiquidity("alice.near", lptID, e18(1), e18(1), zero, zero)
		require.NoError(t, err)
		diff := Differ(withPosition, d.View())
		assert.Equal(t, []LptID{lptID}, diff.LiquiditiesChanged)
	})

	t.Run("removed", func(t *testing.T) {
		_, _, err := d.RemoveLiquidity("alice.near", lptID, e18(1_000_000_000), zero, zero)
		require.NoError(t, err)
		diff := Differ(withPosition, d.View())
		assert.Equal(t, []LptID{lptID}, diff.LiquiditiesRemoved)
	})
}

func TestDifferOrderLifecycle(t *testing.T) {
	d, poolID := newTestRegistry(t)
	zero := new(uint256.Int)
	empty := d.View()

	orderID, err := d.AddOrder("", "carol.near", testTokenY, e18(2), poolID, -40, testTokenX, zero, zero, 0)
	require.NoError(t, err)
	withOrder := d.View()

	diff := Differ(empty, withOrder)
	assert.Equal(t, []OrderID{orderID}, diff.OrdersAdded)

	_, _, err = d.CancelOrder("carol.near", orderID, nil)
	require.NoError(t, err)
	diff = Differ(withOrder, d.View())
	assert.Equal(t, []OrderID{orderID}, diff.OrdersRemoved)
}
