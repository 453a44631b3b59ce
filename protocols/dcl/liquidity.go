package dcl

import (
	"github.com/holiman/uint256"

	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/pointmath"
)

// UserLiquidity is one owned liquidity position over [LeftPoint, RightPoint).
// LastFeeScale snapshots anchor the proportional fee claim.
type UserLiquidity struct {
	LptID            LptID
	OwnerID          string
	PoolID           PoolID
	LeftPoint        int64
	RightPoint       int64
	LastFeeScaleX128 *uint256.Int
	LastFeeScaleY128 *uint256.Int
	Amount           *uint256.Int
	MftID            string
	VLiquidity       *uint256.Int
	UnclaimedFeeX    *uint256.Int
	UnclaimedFeeY    *uint256.Int
}

func NewUserLiquidity() *UserLiquidity {
	return &UserLiquidity{
		LastFeeScaleX128: new(uint256.Int),
		LastFeeScaleY128: new(uint256.Int),
		Amount:           new(uint256.Int),
		VLiquidity:       new(uint256.Int),
		UnclaimedFeeX:    new(uint256.Int),
		UnclaimedFeeY:    new(uint256.Int),
	}
}

func (l *UserLiquidity) Clone() *UserLiquidity {
	if l == nil {
		return nil
	}
	return &UserLiquidity{
		LptID:            l.LptID,
		OwnerID:          l.OwnerID,
		PoolID:           l.PoolID,
		LeftPoint:        l.LeftPoint,
		RightPoint:       l.RightPoint,
		LastFeeScaleX128: new(uint256.Int).Set(l.LastFeeScaleX128),
		LastFeeScaleY128: new(uint256.Int).Set(l.LastFeeScaleY128),
		Amount:           new(uint256.Int).Set(l.Amount),
		MftID:            l.MftID,
		VLiquidity:       new(uint256.Int).Set(l.VLiquidity),
		UnclaimedFeeX:    new(uint256.Int).Set(l.UnclaimedFeeX),
		UnclaimedFeeY:    new(uint256.Int).Set(l.UnclaimedFeeY),
	}
}

func (l *UserLiquidity) IsMining() bool {
	return l.MftID == "" && !l.VLiquidity.IsZero()
}

// GetUnclaimedFee settles the fee owed since the last snapshot. The left and
// right outside accumulators may together exceed the in-range total, making
// the snapshot formally larger than the current scale, so the subtraction
// wraps and only the difference is meaningful.
func (l *UserLiquidity) GetUnclaimedFee(accFeeXIn128, accFeeYIn128 *uint256.Int) {
	diff := new(uint256.Int).Sub(accFeeXIn128, l.LastFeeScaleX128)
	pointmath.MulFractionFloor(l.UnclaimedFeeX, diff, l.Amount, pointmath.POW_128)
	diff.Sub(accFeeYIn128, l.LastFeeScaleY128)
	pointmath.MulFractionFloor(l.UnclaimedFeeY, diff, l.Amount, pointmath.POW_128)
}
