package stats

import (
	"io"
	"log/slog"
	"testing"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dcl "github.com/defistate/dclstate-client-go/protocols/dcl"
)

const (
	testTokenX = "token-a.near"
	testTokenY = "token-b.near"
)

func e18(n uint64) *uint256.Int {
	v := uint256.NewInt(n)
	return v.Mul(v, uint256.NewInt(1_000_000_000_000_000_000))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newStatsRegistry seeds one pool at point zero with liquidity over
// [-40, 40] and a resident sell order at -40. Both tokens use 18 decimals.
func newStatsRegistry(t *testing.T) (*dcl.Dcl, dcl.PoolID) {
	t.Helper()
	d := dcl.NewDcl(dcl.DEFAULT_PROTOCOL_FEE_RATE)
	poolID, err := d.CreatePool(testTokenX, testTokenY, 2000, 0)
	require.NoError(t, err)

	pool := d.Pools[poolID]
	pool.TokenXDecimal = 18
	pool.TokenYDecimal = 18

	zero := new(uint256.Int)
	_, err = d.AddLiquidity("alice.near", poolID, -40, 40, e18(100), e18(100), zero, zero)
	require.NoError(t, err)
	_, err = d.AddOrder("", "carol.near", testTokenY, e18(2), poolID, -40, testTokenX, zero, zero, 0)
	require.NoError(t, err)
	return d, poolID
}

func TestCollectEndpointRows(t *testing.T) {
	d, poolID := newStatsRegistry(t)

	report := Collect(d, testLogger())
	rows, ok := report[poolID]
	require.True(t, ok)

	left, ok := rows[-40]
	require.True(t, ok, "missing row at the opening endpoint")
	assert.True(t, left.Liquidity.IsPositive())
	assert.True(t, left.TvlYOrder.Equal(decimal.NewFromInt(2)), "order TVL %s", left.TvlYOrder)
	assert.InDelta(t, 0.996, left.Price.InexactFloat64(), 0.001)

	// the stride between the two boundaries inherits the opening row
	mid, ok := rows[0]
	require.True(t, ok, "missing gap fill row between the boundaries")
	assert.True(t, mid.Liquidity.Equal(left.Liquidity))
	assert.InDelta(t, 1.0, mid.Price.InexactFloat64(), 0.001)

	// the closing boundary carries no liquidity of its own
	_, ok = rows[40]
	assert.False(t, ok)
}

func TestCollectSwapVolumesAndFees(t *testing.T) {
	d, poolID := newStatsRegistry(t)

	_, err := d.Swap("bob.near", []dcl.PoolID{poolID}, testTokenX, uint256.NewInt(1_000_000_000_000_000), testTokenY, new(uint256.Int))
	require.NoError(t, err)

	report := Collect(d, testLogger())
	rows := report[poolID]
	require.NotEmpty(t, rows)

	volXIn := decimal.Zero
	feeX := decimal.Zero
	for _, st := range rows {
		volXIn = volXIn.Add(st.VolXInLiquidity).Add(st.VolXInOrder)
		feeX = feeX.Add(st.FeeX).Add(st.ProtocolFeeX)
	}
	assert.True(t, volXIn.IsPositive(), "no input volume attributed")
	assert.True(t, feeX.IsPositive(), "no fees attributed")

	// attributed fees match the pool fee applied to the input volume
	expected := volXIn.Mul(decimal.New(2000, -6))
	diff := feeX.Sub(expected).Abs()
	assert.True(t, diff.LessThan(decimal.New(1, -12)), "fee mismatch: got %s want %s", feeX, expected)
}

func TestCollectEmptyRegistry(t *testing.T) {
	d := dcl.NewDcl(dcl.DEFAULT_PROTOCOL_FEE_RATE)
	report := Collect(d, testLogger())
	assert.Empty(t, report)
}
