package dcl

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/defistate/dclstate-client-go/protocols/dcl/calculator/pointmath"
)

// DEFAULT_PROTOCOL_FEE_RATE is the protocol's share of every fee, in BP_DENOM.
const DEFAULT_PROTOCOL_FEE_RATE = 2000

// DefaultFeeTier maps the supported pool fees (per FEE_DENOM) to their point
// delta.
func DefaultFeeTier() map[uint32]int64 {
	return map[uint32]int64{
		100:   1,
		400:   8,
		2000:  40,
		10000: 200,
	}
}

// Dcl is the replayed registry: every pool plus the user-side ledgers that
// the on-chain contract keeps alongside them.
type Dcl struct {
	ProtocolFeeRate uint32
	FeeTier         map[uint32]int64

	Pools           map[PoolID]*Pool
	UserLiquidities map[LptID]*UserLiquidity
	UserOrders      map[OrderID]*UserOrder
	Users           map[string]*User

	// VipUsers holds per user fee discounts, in BP_DENOM, keyed by pool.
	VipUsers  map[string]map[PoolID]uint32
	MftSupply map[string]*uint256.Int

	LatestLiquidityID uint64
	LatestOrderID     uint64
	LiquidityCount    uint64
	State             RunningState
}

func NewDcl(protocolFeeRate uint32) *Dcl {
	return &Dcl{
		ProtocolFeeRate: protocolFeeRate,
		FeeTier:         DefaultFeeTier(),
		Pools:           make(map[PoolID]*Pool),
		UserLiquidities: make(map[LptID]*UserLiquidity),
		UserOrders:      make(map[OrderID]*UserOrder),
		Users:           make(map[string]*User),
		VipUsers:        make(map[string]map[PoolID]uint32),
		MftSupply:       make(map[string]*uint256.Int),
		State:           RUNNING,
	}
}

func (d *Dcl) Clone() *Dcl {
	if d == nil {
		return nil
	}
	clone := &Dcl{
		ProtocolFeeRate:   d.ProtocolFeeRate,
		FeeTier:           make(map[uint32]int64, len(d.FeeTier)),
		Pools:             make(map[PoolID]*Pool, len(d.Pools)),
		UserLiquidities:   make(map[LptID]*UserLiquidity, len(d.UserLiquidities)),
		UserOrders:        make(map[OrderID]*UserOrder, len(d.UserOrders)),
		Users:             make(map[string]*User, len(d.Users)),
		VipUsers:          make(map[string]map[PoolID]uint32, len(d.VipUsers)),
		MftSupply:         make(map[string]*uint256.Int, len(d.MftSupply)),
		LatestLiquidityID: d.LatestLiquidityID,
		LatestOrderID:     d.LatestOrderID,
		LiquidityCount:    d.LiquidityCount,
		State:             d.State,
	}
	for fee, delta := range d.FeeTier {
		clone.FeeTier[fee] = delta
	}
	for id, pool := range d.Pools {
		clone.Pools[id] = pool.Clone()
	}
	for id, liquidity := range d.UserLiquidities {
		clone.UserLiquidities[id] = liquidity.Clone()
	}
	for id, order := range d.UserOrders {
		clone.UserOrders[id] = order.Clone()
	}
	for id, user := range d.Users {
		clone.Users[id] = user.Clone()
	}
	for id, vipInfo := range d.VipUsers {
		info := make(map[PoolID]uint32, len(vipInfo))
		for poolID, rate := range vipInfo {
			info[poolID] = rate
		}
		clone.VipUsers[id] = info
	}
	for id, supply := range d.MftSupply {
		clone.MftSupply[id] = new(uint256.Int).Set(supply)
	}
	return clone
}

func (d *Dcl) PauseContract()  { d.State = PAUSED }
func (d *Dcl) ResumeContract() { d.State = RUNNING }

func (d *Dcl) assertRunning() error {
	if d.State != RUNNING {
		return ErrPaused
	}
	return nil
}

// SetProtocolFeeRate changes the protocol's share of all future fees.
func (d *Dcl) SetProtocolFeeRate(rate uint32) error {
	if rate > BP_DENOM {
		return ErrInvalidProtocolFee
	}
	d.ProtocolFeeRate = rate
	return nil
}

// SetVipPoolFeeRate grants a user a discounted fee on one pool, expressed as
// a fraction of the pool fee in BP_DENOM.
func (d *Dcl) SetVipPoolFeeRate(userID string, poolID PoolID, rate uint32) error {
	if rate > BP_DENOM {
		return ErrInvalidProtocolFee
	}
	if _, ok := d.Pools[poolID]; !ok {
		return ErrPoolNotExist
	}
	info := d.VipUsers[userID]
	if info == nil {
		info = make(map[PoolID]uint32)
		d.VipUsers[userID] = info
	}
	info[poolID] = rate
	return nil
}

func (d *Dcl) UnsetVipPoolFeeRate(userID string, poolID PoolID) {
	if info, ok := d.VipUsers[userID]; ok {
		delete(info, poolID)
		if len(info) == 0 {
			delete(d.VipUsers, userID)
		}
	}
}

// CreatePool registers a new pool for the token pair at the given fee tier,
// priced at initPoint. Token order is taken as given and fixed forever.
func (d *Dcl) CreatePool(tokenA, tokenB string, fee uint32, initPoint int64) (PoolID, error) {
	if err := d.assertRunning(); err != nil {
		return "", err
	}
	if tokenA == tokenB {
		return "", ErrSameToken
	}
	pointDelta, ok := d.FeeTier[fee]
	if !ok {
		return "", ErrInvalidFee
	}
	poolID := GenPoolID(tokenA, tokenB, fee)
	if _, exists := d.Pools[poolID]; exists {
		return "", fmt.Errorf("%w: %q", ErrPoolExists, poolID)
	}

	pool := NewPool()
	pool.PoolID = poolID
	pool.TokenX = tokenA
	pool.TokenY = tokenB
	pool.Fee = fee
	pool.PointDelta = pointDelta
	pool.CurrentPoint = initPoint
	if err := pointmath.GetSqrtPrice(pool.SqrtPrice96, initPoint); err != nil {
		return "", fmt.Errorf("init point %d: %w", initPoint, err)
	}

	pointNum := (pointmath.RIGHT_MOST_POINT-pointmath.LEFT_MOST_POINT)/pointDelta + 1
	pool.MaxLiquidityPerPoint.Div(pointmath.MAX_UINT_128, uint256.NewInt(uint64(pointNum)))

	d.Pools[poolID] = pool
	return poolID, nil
}

func (d *Dcl) GetPool(poolID PoolID) (*Pool, error) {
	pool, ok := d.Pools[poolID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPoolNotExist, poolID)
	}
	return pool, nil
}

func (d *Dcl) PausePool(poolID PoolID) error {
	pool, err := d.GetPool(poolID)
	if err != nil {
		return err
	}
	pool.State = PAUSED
	return nil
}

func (d *Dcl) ResumePool(poolID PoolID) error {
	pool, err := d.GetPool(poolID)
	if err != nil {
		return err
	}
	pool.State = RUNNING
	return nil
}

// getUser registers users on first contact.
func (d *Dcl) getUser(userID string) *User {
	user, ok := d.Users[userID]
	if !ok {
		user = NewUser(userID)
		d.Users[userID] = user
	}
	return user
}

func (d *Dcl) getUserLiquidity(lptID LptID) (*UserLiquidity, error) {
	liquidity, ok := d.UserLiquidities[lptID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLptNotExist, lptID)
	}
	return liquidity, nil
}

func (d *Dcl) getUserOrder(orderID OrderID) (*UserOrder, error) {
	order, ok := d.UserOrders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrOrderNotExist, orderID)
	}
	return order, nil
}

func (d *Dcl) nextLptID(poolID PoolID) LptID {
	d.LatestLiquidityID++
	return genLptID(poolID, d.LatestLiquidityID)
}

func (d *Dcl) nextOrderID(poolID PoolID) OrderID {
	d.LatestOrderID++
	return genOrderID(poolID, d.LatestOrderID)
}

func (d *Dcl) internalMintLiquidity(user *User, liquidity *UserLiquidity) {
	d.UserLiquidities[liquidity.LptID] = liquidity
	user.LiquidityKeys[liquidity.LptID] = struct{}{}
	d.LiquidityCount++
	d.Users[user.UserID] = user
}

func (d *Dcl) internalBurnLiquidity(user *User, liquidity *UserLiquidity) {
	delete(d.UserLiquidities, liquidity.LptID)
	delete(user.LiquidityKeys, liquidity.LptID)
	d.LiquidityCount--
	d.Users[user.UserID] = user
}

// AddLiquidity mints a new position over [leftPoint, rightPoint) funded by at
// most amountX and amountY, refusing to settle below the min amounts.
func (d *Dcl) AddLiquidity(userID string, poolID PoolID, leftPoint, rightPoint int64, amountX, amountY, minAmountX, minAmountY *uint256.Int) (LptID, error) {
	if err := d.assertRunning(); err != nil {
		return "", err
	}
	user := d.getUser(userID)
	pool, err := d.GetPool(poolID)
	if err != nil {
		return "", err
	}
	if leftPoint%pool.PointDelta != 0 || rightPoint%pool.PointDelta != 0 {
		return "", ErrInvalidEndpoint
	}
	if rightPoint <= leftPoint || rightPoint-leftPoint >= pointmath.RIGHT_MOST_POINT ||
		leftPoint < pointmath.LEFT_MOST_POINT || rightPoint > pointmath.RIGHT_MOST_POINT {
		return "", ErrIllegalRange
	}

	newLiquidity, needX, needY, accFeeXIn128, accFeeYIn128, err := pool.InternalAddLiquidity(leftPoint, rightPoint, amountX, amountY, minAmountX, minAmountY)
	if err != nil {
		return "", err
	}

	liquidity := NewUserLiquidity()
	liquidity.LptID = d.nextLptID(poolID)
	liquidity.OwnerID = userID
	liquidity.PoolID = poolID
	liquidity.LeftPoint = leftPoint
	liquidity.RightPoint = rightPoint
	liquidity.LastFeeScaleX128.Set(accFeeXIn128)
	liquidity.LastFeeScaleY128.Set(accFeeYIn128)
	liquidity.Amount.Set(newLiquidity)

	pool.TotalLiquidity.Add(pool.TotalLiquidity, newLiquidity)
	pool.TotalX.Add(pool.TotalX, needX)
	pool.TotalY.Add(pool.TotalY, needY)

	d.internalMintLiquidity(user, liquidity)
	return liquidity.LptID, nil
}

// AppendLiquidity grows an existing position in place, settling its unclaimed
// fees at the same time. Returns the unused token refunds.
func (d *Dcl) AppendLiquidity(userID string, lptID LptID, amountX, amountY, minAmountX, minAmountY *uint256.Int) (refundX, refundY *uint256.Int, err error) {
	if err := d.assertRunning(); err != nil {
		return nil, nil, err
	}
	user := d.getUser(userID)
	liquidity, err := d.getUserLiquidity(lptID)
	if err != nil {
		return nil, nil, err
	}
	if liquidity.OwnerID != userID {
		return nil, nil, ErrNotAllowed
	}
	pool, err := d.GetPool(liquidity.PoolID)
	if err != nil {
		return nil, nil, err
	}

	newLiquidity, needX, needY, accFeeXIn128, accFeeYIn128, err := pool.InternalAddLiquidity(liquidity.LeftPoint, liquidity.RightPoint, amountX, amountY, minAmountX, minAmountY)
	if err != nil {
		return nil, nil, err
	}

	liquidity.GetUnclaimedFee(accFeeXIn128, accFeeYIn128)
	newFeeX := new(uint256.Int).Set(liquidity.UnclaimedFeeX)
	newFeeY := new(uint256.Int).Set(liquidity.UnclaimedFeeY)

	pool.TotalLiquidity.Add(pool.TotalLiquidity, newLiquidity)
	pool.TotalX.Add(pool.TotalX, needX)
	pool.TotalY.Add(pool.TotalY, needY)
	pool.TotalX.Sub(pool.TotalX, newFeeX)
	pool.TotalY.Sub(pool.TotalY, newFeeY)

	refundX = new(uint256.Int).Sub(amountX, needX)
	refundX.Add(refundX, newFeeX)
	refundY = new(uint256.Int).Sub(amountY, needY)
	refundY.Add(refundY, newFeeY)

	liquidity.Amount.Add(liquidity.Amount, newLiquidity)
	liquidity.LastFeeScaleX128.Set(accFeeXIn128)
	liquidity.LastFeeScaleY128.Set(accFeeYIn128)
	d.Users[user.UserID] = user
	return refundX, refundY, nil
}

// MergeLiquidity folds the listed positions into the retained one. All
// positions must share owner, pool and range.
func (d *Dcl) MergeLiquidity(userID string, lptID LptID, lptIDList []LptID) (refundX, refundY *uint256.Int, err error) {
	if err := d.assertRunning(); err != nil {
		return nil, nil, err
	}
	if len(lptIDList) == 0 {
		return nil, nil, ErrMergeMismatch
	}
	retain, err := d.getUserLiquidity(lptID)
	if err != nil {
		return nil, nil, err
	}
	if retain.OwnerID != userID {
		return nil, nil, ErrNotAllowed
	}
	pool, err := d.GetPool(retain.PoolID)
	if err != nil {
		return nil, nil, err
	}

	removeTokenX := new(uint256.Int)
	removeTokenY := new(uint256.Int)
	removeFeeX := new(uint256.Int)
	removeFeeY := new(uint256.Int)
	zero := new(uint256.Int)

	for _, item := range lptIDList {
		user := d.getUser(userID)
		liquidity, err := d.getUserLiquidity(item)
		if err != nil {
			return nil, nil, err
		}
		if item == lptID || liquidity.OwnerID != retain.OwnerID || liquidity.PoolID != retain.PoolID ||
			liquidity.LeftPoint != retain.LeftPoint || liquidity.RightPoint != retain.RightPoint {
			return nil, nil, ErrMergeMismatch
		}

		removeX, removeY, accFeeXIn128, accFeeYIn128, err := pool.InternalRemoveLiquidity(liquidity.Amount, liquidity.LeftPoint, liquidity.RightPoint, zero, zero)
		if err != nil {
			return nil, nil, err
		}
		liquidity.GetUnclaimedFee(accFeeXIn128, accFeeYIn128)

		removeTokenX.Add(removeTokenX, removeX)
		removeTokenY.Add(removeTokenY, removeY)
		removeFeeX.Add(removeFeeX, liquidity.UnclaimedFeeX)
		removeFeeY.Add(removeFeeY, liquidity.UnclaimedFeeY)

		pool.TotalLiquidity.Sub(pool.TotalLiquidity, liquidity.Amount)
		pool.TotalX.Sub(pool.TotalX, new(uint256.Int).Add(removeX, liquidity.UnclaimedFeeX))
		pool.TotalY.Sub(pool.TotalY, new(uint256.Int).Add(removeY, liquidity.UnclaimedFeeY))
		d.internalBurnLiquidity(user, liquidity)
	}

	newLiquidity, needX, needY, accFeeXIn128, accFeeYIn128, err := pool.InternalAddLiquidity(retain.LeftPoint, retain.RightPoint, removeTokenX, removeTokenY, zero, zero)
	if err != nil {
		return nil, nil, err
	}
	retain.GetUnclaimedFee(accFeeXIn128, accFeeYIn128)
	newFeeX := new(uint256.Int).Set(retain.UnclaimedFeeX)
	newFeeY := new(uint256.Int).Set(retain.UnclaimedFeeY)

	pool.TotalLiquidity.Add(pool.TotalLiquidity, newLiquidity)
	pool.TotalX.Add(pool.TotalX, needX)
	pool.TotalY.Add(pool.TotalY, needY)
	pool.TotalX.Sub(pool.TotalX, newFeeX)
	pool.TotalY.Sub(pool.TotalY, newFeeY)

	refundX = new(uint256.Int).Sub(removeTokenX, needX)
	refundX.Add(refundX, newFeeX)
	refundX.Add(refundX, removeFeeX)
	refundY = new(uint256.Int).Sub(removeTokenY, needY)
	refundY.Add(refundY, newFeeY)
	refundY.Add(refundY, removeFeeY)

	retain.Amount.Add(retain.Amount, newLiquidity)
	retain.LastFeeScaleX128.Set(accFeeXIn128)
	retain.LastFeeScaleY128.Set(accFeeYIn128)
	d.UserLiquidities[lptID] = retain
	return refundX, refundY, nil
}

// RemoveLiquidity burns up to amount of the position, settling its unclaimed
// fees. A zero amount claims fees only. Returns the released token amounts
// including fees.
func (d *Dcl) RemoveLiquidity(userID string, lptID LptID, amount, minAmountX, minAmountY *uint256.Int) (refundX, refundY *uint256.Int, err error) {
	if err := d.assertRunning(); err != nil {
		return nil, nil, err
	}
	user := d.getUser(userID)
	liquidity, err := d.getUserLiquidity(lptID)
	if err != nil {
		return nil, nil, err
	}
	if liquidity.OwnerID != userID {
		return nil, nil, ErrNotAllowed
	}
	pool, err := d.GetPool(liquidity.PoolID)
	if err != nil {
		return nil, nil, err
	}

	removeLiquidity := new(uint256.Int).Set(liquidity.Amount)
	if amount.Cmp(liquidity.Amount) < 0 {
		removeLiquidity.Set(amount)
	}

	removeX, removeY, accFeeXIn128, accFeeYIn128, err := pool.InternalRemoveLiquidity(removeLiquidity, liquidity.LeftPoint, liquidity.RightPoint, minAmountX, minAmountY)
	if err != nil {
		return nil, nil, err
	}
	liquidity.GetUnclaimedFee(accFeeXIn128, accFeeYIn128)

	liquidity.Amount.Sub(liquidity.Amount, removeLiquidity)

	refundX = new(uint256.Int).Add(removeX, liquidity.UnclaimedFeeX)
	refundY = new(uint256.Int).Add(removeY, liquidity.UnclaimedFeeY)

	pool.TotalLiquidity.Sub(pool.TotalLiquidity, removeLiquidity)
	pool.TotalX.Sub(pool.TotalX, refundX)
	pool.TotalY.Sub(pool.TotalY, refundY)

	if !liquidity.Amount.IsZero() {
		liquidity.LastFeeScaleX128.Set(accFeeXIn128)
		liquidity.LastFeeScaleY128.Set(accFeeYIn128)
		d.Users[user.UserID] = user
	} else {
		d.internalBurnLiquidity(user, liquidity)
	}
	return refundX, refundY, nil
}
