package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dcl "github.com/defistate/dclstate-client-go/protocols/dcl"
)

func record(height, seq uint64) *dcl.Event {
	return &dcl.Event{Height: height, Seq: seq, Kind: dcl.EventSwap}
}

func TestDecode(t *testing.T) {
	raw := []byte(`[
		{"height": 5, "seq": 1, "kind": "swap"},
		{"height": 5, "seq": 2, "kind": "order_added", "operator": "alice.near"}
	]`)

	events, err := New().Decode(raw)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, dcl.EventSwap, events[0].Kind)
	assert.Equal(t, dcl.EventOrderAdded, events[1].Kind)
	assert.Equal(t, "alice.near", events[1].Operator)

	_, err = New().Decode([]byte(`{not json`))
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	events := []*dcl.Event{record(5, 1), record(5, 2), record(7, 1)}

	indexed, err := New().Index(events)
	require.NoError(t, err)

	assert.Equal(t, 3, indexed.Len())
	assert.Equal(t, []uint64{5, 7}, indexed.Heights())
	assert.Len(t, indexed.ByHeight(5), 2)
	assert.Len(t, indexed.ByHeight(7), 1)
	assert.Empty(t, indexed.ByHeight(6))

	t.Run("defensive copies", func(t *testing.T) {
		all := indexed.All()
		require.Len(t, all, 3)
		all[0] = nil
		assert.NotNil(t, indexed.All()[0])

		heights := indexed.Heights()
		heights[0] = 99
		assert.Equal(t, []uint64{5, 7}, indexed.Heights())
	})
}

func TestIndexOrderingViolations(t *testing.T) {
	cases := []struct {
		name    string
		events  []*dcl.Event
		wantErr error
	}{
		{"height regression", []*dcl.Event{record(7, 1), record(5, 1)}, ErrOutOfOrder},
		{"seq regression", []*dcl.Event{record(5, 2), record(5, 1)}, ErrOutOfOrder},
		{"duplicate record", []*dcl.Event{record(5, 1), record(5, 1)}, ErrDuplicateRecord},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().Index(tc.events)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestIndexEmptyBatch(t *testing.T) {
	indexed, err := New().Index(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, indexed.Len())
	assert.Empty(t, indexed.Heights())
}
