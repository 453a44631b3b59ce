package dcl

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swapEvent(height, seq uint64, poolID PoolID) *Event {
	return &Event{
		Height:          height,
		Seq:             seq,
		Kind:            EventSwap,
		Operator:        "bob.near",
		PoolIDs:         []PoolID{poolID},
		InputToken:      testTokenX,
		InputAmount:     newAmount(e18(1)),
		OutputToken:     testTokenY,
		MinOutputAmount: newAmount(new(uint256.Int)),
	}
}

func TestPatcherAppliesBatch(t *testing.T) {
	d, poolID := newSwapTestRegistry(t)
	prev := d.View()
	patch := NewPatcher(DEFAULT_PROTOCOL_FEE_RATE)

	batch := &EventBatch{
		FromHeight: 10,
		ToHeight:   12,
		Events: []*Event{
			swapEvent(11, 1, poolID),
			swapEvent(11, 2, poolID),
			swapEvent(12, 1, poolID),
		},
	}

	next, err := patch(prev, batch)
	require.NoError(t, err)
	nextView, ok := next.(*RegistryView)
	require.True(t, ok)

	assert.False(t, Differ(prev, nextView).IsEmpty())

	// the previous view stays untouched
	assert.True(t, prev.Pools[poolID].VolumeXIn.value().IsZero())
	assert.False(t, nextView.Pools[poolID].VolumeXIn.value().IsZero())
}

func TestPatcherFromEmptyState(t *testing.T) {
	patch := NewPatcher(DEFAULT_PROTOCOL_FEE_RATE)

	next, err := patch(nil, &EventBatch{FromHeight: 0, ToHeight: 0})
	require.NoError(t, err)
	view, ok := next.(*RegistryView)
	require.True(t, ok)
	assert.Empty(t, view.Pools)
}

func TestPatcherRejections(t *testing.T) {
	d, poolID := newSwapTestRegistry(t)
	prev := d.View()
	patch := NewPatcher(DEFAULT_PROTOCOL_FEE_RATE)

	cases := []struct {
		name    string
		batch   *EventBatch
		wantMsg string
	}{
		{
			name:    "event below batch start",
			batch:   &EventBatch{FromHeight: 10, ToHeight: 12, Events: []*Event{swapEvent(10, 1, poolID)}},
			wantMsg: "event below batch start",
		},
		{
			name:    "event beyond batch end",
			batch:   &EventBatch{FromHeight: 10, ToHeight: 12, Events: []*Event{swapEvent(13, 1, poolID)}},
			wantMsg: "event beyond batch end",
		},
		{
			name: "event out of order",
			batch: &EventBatch{FromHeight: 10, ToHeight: 12, Events: []*Event{
				swapEvent(11, 2, poolID),
				swapEvent(11, 1, poolID),
			}},
			wantMsg: "event out of order",
		},
		{
			name: "duplicate event",
			batch: &EventBatch{FromHeight: 10, ToHeight: 12, Events: []*Event{
				swapEvent(11, 1, poolID),
				swapEvent(11, 1, poolID),
			}},
			wantMsg: "event out of order",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := patch(prev, tc.batch)
			assert.ErrorContains(t, err, tc.wantMsg)
		})
	}

	t.Run("wrong diff type", func(t *testing.T) {
		_, err := patch(prev, "not a batch")
		assert.ErrorContains(t, err, "unexpected diff type")
	})

	t.Run("wrong state type", func(t *testing.T) {
		_, err := patch(42, &EventBatch{FromHeight: 10})
		assert.ErrorContains(t, err, "unexpected state type")
	})

	t.Run("apply failure wraps the sentinel", func(t *testing.T) {
		batch := &EventBatch{FromHeight: 10, ToHeight: 12, Events: []*Event{
			swapEvent(11, 1, "no-such|pool|2000"),
		}}
		_, err := patch(prev, batch)
		assert.ErrorIs(t, err, ErrPoolNotExist)
	})
}
