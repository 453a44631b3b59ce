package pointbitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	b := New()

	require.NoError(t, b.SetOne(400, 40))
	require.NoError(t, b.SetOne(-1200, 40))
	require.NoError(t, b.SetOne(0, 40))

	for _, point := range []int64{400, -1200, 0} {
		set, err := b.GetBit(point, 40)
		require.NoError(t, err)
		assert.True(t, set, "point %d", point)
	}

	set, err := b.GetBit(440, 40)
	require.NoError(t, err)
	assert.False(t, set)

	require.NoError(t, b.SetZero(400, 40))
	set, err = b.GetBit(400, 40)
	require.NoError(t, err)
	assert.False(t, set)

	assert.Equal(t, []int64{-1200, 0}, b.Endpoints(40))
}

func TestMisalignment(t *testing.T) {
	b := New()
	assert.ErrorIs(t, b.SetOne(401, 40), ErrMisalignedPoint)
	assert.ErrorIs(t, b.SetZero(-401, 40), ErrMisalignedPoint)
	_, err := b.GetBit(7, 40)
	assert.ErrorIs(t, err, ErrMisalignedPoint)
}

func TestWordDroppedWhenEmpty(t *testing.T) {
	b := New()
	require.NoError(t, b.SetOne(80, 40))
	assert.Equal(t, 1, b.Len())
	require.NoError(t, b.SetZero(80, 40))
	assert.Equal(t, 0, b.Len())
}

func TestNearestLeftValuedSlot(t *testing.T) {
	b := New()
	pointDelta := int64(1)
	for _, point := range []int64{-5000, -100, 0, 300} {
		require.NoError(t, b.SetOne(point, pointDelta))
	}

	testCases := []struct {
		name     string
		from     int64
		stopSlot int64
		want     int64
		found    bool
	}{
		{"on a valued slot", 300, -800000, 300, true},
		{"between slots", 250, -800000, 0, true},
		{"negative side", -1, -800000, -100, true},
		{"crosses many words", -101, -800000, -5000, true},
		{"stopped before target", -101, -4000, 0, false},
		{"stop slot inclusive", -101, -5000, -5000, true},
		{"nothing to the left", -6000, -800000, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := b.NearestLeftValuedSlot(tc.from, pointDelta, tc.stopSlot)
			assert.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestNearestRightValuedSlot(t *testing.T) {
	b := New()
	pointDelta := int64(1)
	for _, point := range []int64{-5000, -100, 0, 300} {
		require.NoError(t, b.SetOne(point, pointDelta))
	}

	testCases := []struct {
		name     string
		from     int64
		stopSlot int64
		want     int64
		found    bool
	}{
		{"excludes own slot", 300, 800000, 0, false},
		{"between slots", 100, 800000, 300, true},
		{"negative side", -200, 800000, -100, true},
		{"crosses many words", -4999, 800000, -100, true},
		{"stopped before target", 100, 200, 0, false},
		{"stop slot inclusive", 100, 300, 300, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := b.NearestRightValuedSlot(tc.from, pointDelta, tc.stopSlot)
			assert.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestNearestWithPointDelta(t *testing.T) {
	b := New()
	pointDelta := int64(40)
	require.NoError(t, b.SetOne(-1200, pointDelta))
	require.NoError(t, b.SetOne(800, pointDelta))

	got, ok := b.NearestLeftValuedSlot(-37, pointDelta, -20000)
	require.True(t, ok)
	assert.Equal(t, int64(-1200), got)

	got, ok = b.NearestRightValuedSlot(-37, pointDelta, 20000)
	require.True(t, ok)
	assert.Equal(t, int64(800), got)
}

func TestClone(t *testing.T) {
	b := New()
	require.NoError(t, b.SetOne(0, 1))

	clone := b.Clone()
	require.NoError(t, clone.SetOne(100, 1))

	set, err := b.GetBit(100, 1)
	require.NoError(t, err)
	assert.False(t, set, "clone writes must not reach the original")
}
