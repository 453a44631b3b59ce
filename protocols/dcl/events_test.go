package dcl

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEventUnknownKind(t *testing.T) {
	d, _ := newTestRegistry(t)
	err := d.ApplyEvent(&Event{Height: 1, Seq: 1, Kind: "not_a_kind"})
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestApplyEventLiquidityAdded(t *testing.T) {
	d, poolID := newTestRegistry(t)

	err := d.ApplyEvent(&Event{
		Height:     1,
		Seq:        1,
		Kind:       EventLiquidityAdded,
		Operator:   "alice.near",
		PoolID:     poolID,
		LeftPoint:  -2000,
		RightPoint: 2000,
		AmountX:    newAmount(e18(10)),
		AmountY:    newAmount(e18(10)),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), d.LiquidityCount)
}

func TestApplyEventOrderCancelled(t *testing.T) {
	d, poolID := newTestRegistry(t)
	zero := new(uint256.Int)
	orderID, err := d.AddOrder("", "carol.near", testTokenY, e18(2), poolID, -40, testTokenX, zero, zero, 0)
	require.NoError(t, err)

	// an explicit zero amount claims only, the order survives
	err = d.ApplyEvent(&Event{
		Height:   1,
		Seq:      1,
		Kind:     EventOrderCancelled,
		Operator: "carol.near",
		OrderID:  orderID,
		Amount:   newAmount(zero),
	})
	require.NoError(t, err)
	_, ok := d.UserOrders[orderID]
	assert.True(t, ok)

	// a missing amount cancels the whole remainder
	err = d.ApplyEvent(&Event{
		Height:   1,
		Seq:      2,
		Kind:     EventOrderCancelled,
		Operator: "carol.near",
		OrderID:  orderID,
	})
	require.NoError(t, err)
	_, ok = d.UserOrders[orderID]
	assert.False(t, ok)
}
