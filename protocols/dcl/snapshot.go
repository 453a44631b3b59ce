package dcl

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/holiman/uint256"
)

// Snapshot file names inside a state directory. One file per state table.
const (
	rootFileName            = "dcl_root.json"
	poolFileName            = "dcl_pool.json"
	userLiquiditiesFileName = "dcl_user_liquidities.json"
	userOrdersFileName      = "dcl_user_orders.json"
	pointInfoFileName       = "dcl_pointinfo.json"
	slotBitmapFileName      = "dcl_slotbitmap.json"
	vipUsersFileName        = "dcl_vip_users.json"
)

// Amount round-trips an unsigned 256-bit value as an arbitrary precision
// JSON number. Quoted decimal strings are accepted on decode.
type Amount struct {
	uint256.Int
}

func newAmount(v *uint256.Int) *Amount {
	if v == nil {
		return nil
	}
	a := new(Amount)
	a.Int.Set(v)
	return a
}

func (a *Amount) value() *uint256.Int {
	out := new(uint256.Int)
	if a != nil {
		out.Set(&a.Int)
	}
	return out
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Int.Dec()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Int.SetFromDecimal(unquoteNumber(data))
}

// SignedAmount round-trips a two's complement 256-bit value, serialized with
// an explicit sign so the files stay plain JSON numbers.
type SignedAmount struct {
	uint256.Int
}

func newSignedAmount(v *uint256.Int) *SignedAmount {
	if v == nil {
		return nil
	}
	a := new(SignedAmount)
	a.Int.Set(v)
	return a
}

func (a *SignedAmount) value() *uint256.Int {
	out := new(uint256.Int)
	if a != nil {
		out.Set(&a.Int)
	}
	return out
}

func (a SignedAmount) MarshalJSON() ([]byte, error) {
	if a.Int.Sign() < 0 {
		abs := new(uint256.Int).Neg(&a.Int)
		return []byte("-" + abs.Dec()), nil
	}
	return []byte(a.Int.Dec()), nil
}

func (a *SignedAmount) UnmarshalJSON(data []byte) error {
	s := unquoteNumber(data)
	if strings.HasPrefix(s, "-") {
		if err := a.Int.SetFromDecimal(s[1:]); err != nil {
			return err
		}
		a.Int.Neg(&a.Int)
		return nil
	}
	return a.Int.SetFromDecimal(s)
}

func unquoteNumber(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}

// RootView holds the global id counters.
type RootView struct {
	LatestLiquidityID uint64 `json:"latest_liquidity_id"`
	LatestOrderID     uint64 `json:"latest_order_id"`
}

// PoolView is the serialized form of one pool, point ledger and bitmap
// excluded. Field names follow the snapshot files of the source chain state.
type PoolView struct {
	PoolID               PoolID       `json:"pool_id"`
	TokenX               string       `json:"token_x"`
	TokenY               string       `json:"token_y"`
	TokenXDecimal        uint8        `json:"token_x_decimal,omitempty"`
	TokenYDecimal        uint8        `json:"token_y_decimal,omitempty"`
	Fee                  uint32       `json:"fee"`
	PointDelta           int64        `json:"point_delta"`
	CurrentPoint         int64        `json:"current_point"`
	SqrtPrice96          *Amount      `json:"sqrt_price_96"`
	Liquidity            *Amount      `json:"liquidity"`
	LiquidityX           *Amount      `json:"liquidity_x"`
	MaxLiquidityPerPoint *Amount      `json:"max_liquidity_per_point"`
	FeeScaleX128         *Amount      `json:"fee_scale_x_128"`
	FeeScaleY128         *Amount      `json:"fee_scale_y_128"`
	TotalFeeXCharged     *Amount      `json:"total_fee_x_charged"`
	TotalFeeYCharged     *Amount      `json:"total_fee_y_charged"`
	VolumeXIn            *Amount      `json:"volume_x_in"`
	VolumeYIn            *Amount      `json:"volume_y_in"`
	VolumeXOut           *Amount      `json:"volume_x_out"`
	VolumeYOut           *Amount      `json:"volume_y_out"`
	TotalLiquidity       *Amount      `json:"total_liquidity"`
	TotalOrderX          *Amount      `json:"total_order_x"`
	TotalOrderY          *Amount      `json:"total_order_y"`
	TotalX               *Amount      `json:"total_x"`
	TotalY               *Amount      `json:"total_y"`
	RunningState         RunningState `json:"RunningState"`
}

// LiquidityDataView is the serialized liquidity side of a point entry. An
// absent side serializes as an empty object.
type LiquidityDataView struct {
	LiquiditySum   *Amount       `json:"liquidity_sum,omitempty"`
	LiquidityDelta *SignedAmount `json:"liquidity_delta,omitempty"`
	AccFeeXOut128  *Amount       `json:"acc_fee_x_out_128,omitempty"`
	AccFeeYOut128  *Amount       `json:"acc_fee_y_out_128,omitempty"`
}

// OrderDataView is the serialized order side of a point entry.
type OrderDataView struct {
	SellingX       *Amount `json:"selling_x,omitempty"`
	EarnY          *Amount `json:"earn_y,omitempty"`
	EarnYLegacy    *Amount `json:"earn_y_legacy,omitempty"`
	AccEarnY       *Amount `json:"acc_earn_y,omitempty"`
	AccEarnYLegacy *Amount `json:"acc_earn_y_legacy,omitempty"`
	SellingY       *Amount `json:"selling_y,omitempty"`
	EarnX          *Amount `json:"earn_x,omitempty"`
	EarnXLegacy    *Amount `json:"earn_x_legacy,omitempty"`
	AccEarnX       *Amount `json:"acc_earn_x,omitempty"`
	AccEarnXLegacy *Amount `json:"acc_earn_x_legacy,omitempty"`
	UserOrderCount uint64  `json:"user_order_count,omitempty"`
}

// PointDataView pairs both sides of one point ledger entry.
type PointDataView struct {
	LiquidityData LiquidityDataView `json:"liquidity_data"`
	OrderData     OrderDataView     `json:"order_data"`
}

// LiquidityView is the serialized form of one user liquidity position.
type LiquidityView struct {
	LptID            LptID   `json:"LptId"`
	OwnerID          string  `json:"owner_id"`
	PoolID           PoolID  `json:"pool_id"`
	LeftPoint        int64   `json:"left_point"`
	RightPoint       int64   `json:"right_point"`
	LastFeeScaleX128 *Amount `json:"last_fee_scale_x_128"`
	LastFeeScaleY128 *Amount `json:"last_fee_scale_y_128"`
	Amount           *Amount `json:"amount"`
	MftID            string  `json:"mft_id,omitempty"`
	VLiquidity       *Amount `json:"v_liquidity,omitempty"`
	UnclaimedFeeX    *Amount `json:"unclaimed_fee_x"`
	UnclaimedFeeY    *Amount `json:"unclaimed_fee_y"`
}

// OrderView is the serialized form of one user limit order.
type OrderView struct {
	ClientID              string  `json:"client_id,omitempty"`
	OrderID               OrderID `json:"order_id"`
	OwnerID               string  `json:"owner_id"`
	PoolID                PoolID  `json:"pool_id"`
	Point                 int64   `json:"point"`
	SellToken             string  `json:"sell_token"`
	BuyToken              string  `json:"buy_token"`
	OriginalDepositAmount *Amount `json:"original_deposit_amount"`
	SwapEarnAmount        *Amount `json:"swap_earn_amount"`
	OriginalAmount        *Amount `json:"original_amount"`
	CancelAmount          *Amount `json:"cancel_amount"`
	CreatedAt             uint64  `json:"created_at"`
	LastAccEarn           *Amount `json:"last_acc_earn"`
	RemainAmount          *Amount `json:"remain_amount"`
	BoughtAmount          *Amount `json:"bought_amount"`
	UnclaimedAmount       *Amount `json:"unclaimed_amount"`
}

// RegistryView is the full serialized registry state: the seven snapshot
// tables as one value. It is also the payload shape the patcher and differ
// exchange.
type RegistryView struct {
	Root            RootView                            `json:"root"`
	Pools           map[PoolID]*PoolView                `json:"pools"`
	UserLiquidities map[string]map[LptID]*LiquidityView `json:"user_liquidities"`
	UserOrders      map[string]map[OrderID]*OrderView   `json:"user_orders"`
	PointInfo       map[PoolID]map[int64]*PointDataView `json:"point_info"`
	SlotBitmap      map[PoolID]map[int64]string         `json:"slot_bitmap"`
	VipUsers        map[string]map[PoolID]uint32        `json:"vip_users"`
}

// encodeBitmapWord serializes a bitmap word as little-endian hex.
func encodeBitmapWord(word *uint256.Int) string {
	raw := word.Bytes()
	for i, j := 0, len(raw)-1; i < j; i, j = i+1, j-1 {
		raw[i], raw[j] = raw[j], raw[i]
	}
	return hex.EncodeToString(raw)
}

func decodeBitmapWord(dest *uint256.Int, s string) error {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("bitmap word %q: %w", s, err)
	}
	if len(raw) > 32 {
		return fmt.Errorf("bitmap word %q: longer than 256 bits", s)
	}
	for i, j := 0, len(raw)-1; i < j; i, j = i+1, j-1 {
		raw[i], raw[j] = raw[j], raw[i]
	}
	dest.SetBytes(raw)
	return nil
}

// View serializes the registry into a RegistryView. The view shares nothing
// with the live state.
func (d *Dcl) View() *RegistryView {
	view := &RegistryView{
		Root: RootView{
			LatestLiquidityID: d.LatestLiquidityID,
			LatestOrderID:     d.LatestOrderID,
		},
		Pools:           make(map[PoolID]*PoolView, len(d.Pools)),
		UserLiquidities: make(map[string]map[LptID]*LiquidityView),
		UserOrders:      make(map[string]map[OrderID]*OrderView),
		PointInfo:       make(map[PoolID]map[int64]*PointDataView, len(d.Pools)),
		SlotBitmap:      make(map[PoolID]map[int64]string, len(d.Pools)),
		VipUsers:        make(map[string]map[PoolID]uint32, len(d.VipUsers)),
	}

	for poolID, pool := range d.Pools {
		view.Pools[poolID] = poolToView(pool)

		points := make(map[int64]*PointDataView, len(pool.PointInfo.Data))
		for point, data := range pool.PointInfo.Data {
			points[point] = pointDataToView(data)
		}
		view.PointInfo[poolID] = points

		words := make(map[int64]string, pool.SlotBitmap.Len())
		pool.SlotBitmap.Words(func(wordIdx int64, value *uint256.Int) {
			words[wordIdx] = encodeBitmapWord(value)
		})
		view.SlotBitmap[poolID] = words
	}

	for lptID, liquidity := range d.UserLiquidities {
		owned, ok := view.UserLiquidities[liquidity.OwnerID]
		if !ok {
			owned = make(map[LptID]*LiquidityView)
			view.UserLiquidities[liquidity.OwnerID] = owned
		}
		owned[lptID] = liquidityToView(liquidity)
	}

	for orderID, order := range d.UserOrders {
		owned, ok := view.UserOrders[order.OwnerID]
		if !ok {
			owned = make(map[OrderID]*OrderView)
			view.UserOrders[order.OwnerID] = owned
		}
		owned[orderID] = orderToView(order)
	}

	for userID, pools := range d.VipUsers {
		rates := make(map[PoolID]uint32, len(pools))
		for poolID, rate := range pools {
			rates[poolID] = rate
		}
		view.VipUsers[userID] = rates
	}

	return view
}

// NewDclFromView rebuilds a live registry from a serialized view. The user
// index and the per pool point ledgers are reconstructed; the view is not
// retained.
func NewDclFromView(view *RegistryView, protocolFeeRate uint32) (*Dcl, error) {
	d := NewDcl(protocolFeeRate)
	d.LatestLiquidityID = view.Root.LatestLiquidityID
	d.LatestOrderID = view.Root.LatestOrderID

	for poolID, poolView := range view.Pools {
		pool, err := poolFromView(poolView)
		if err != nil {
			return nil, fmt.Errorf("pool %q: %w", poolID, err)
		}
		for point, data := range view.PointInfo[poolID] {
			pool.PointInfo.Data[point] = pointDataFromView(data)
		}
		word := new(uint256.Int)
		for wordIdx, encoded := range view.SlotBitmap[poolID] {
			if err := decodeBitmapWord(word, encoded); err != nil {
				return nil, fmt.Errorf("pool %q: %w", poolID, err)
			}
			pool.SlotBitmap.LoadWord(wordIdx, word)
		}
		d.Pools[poolID] = pool
	}

	for ownerID, owned := range view.UserLiquidities {
		user := d.getUser(ownerID)
		for lptID, liquidityView := range owned {
			d.UserLiquidities[lptID] = liquidityFromView(liquidityView)
			user.LiquidityKeys[lptID] = struct{}{}
			d.LiquidityCount++
		}
	}

	for ownerID, owned := range view.UserOrders {
		user := d.getUser(ownerID)
		for orderID, orderView := range owned {
			order := orderFromView(orderView)
			d.UserOrders[orderID] = order
			user.OrderKeys[userOrderKey{PoolID: order.PoolID, Point: order.Point}] = orderID
		}
	}

	for userID, pools := range view.VipUsers {
		rates := make(map[PoolID]uint32, len(pools))
		for poolID, rate := range pools {
			rates[poolID] = rate
		}
		d.VipUsers[userID] = rates
	}

	return d, nil
}

// ReadSnapshot loads the seven snapshot files from dir.
func ReadSnapshot(dir string) (*RegistryView, error) {
	view := &RegistryView{}
	if err := readSnapshotFile(dir, rootFileName, &view.Root); err != nil {
		return nil, err
	}
	if err := readSnapshotFile(dir, poolFileName, &view.Pools); err != nil {
		return nil, err
	}
	if err := readSnapshotFile(dir, userLiquiditiesFileName, &view.UserLiquidities); err != nil {
		return nil, err
	}
	if err := readSnapshotFile(dir, userOrdersFileName, &view.UserOrders); err != nil {
		return nil, err
	}
	if err := readSnapshotFile(dir, pointInfoFileName, &view.PointInfo); err != nil {
		return nil, err
	}
	if err := readSnapshotFile(dir, slotBitmapFileName, &view.SlotBitmap); err != nil {
		return nil, err
	}
	if err := readSnapshotFile(dir, vipUsersFileName, &view.VipUsers); err != nil {
		return nil, err
	}
	return view, nil
}

// WriteSnapshot writes the seven snapshot files into dir, creating it when
// missing.
func (v *RegistryView) WriteSnapshot(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot dir %q: %w", dir, err)
	}
	if err := writeSnapshotFile(dir, rootFileName, v.Root); err != nil {
		return err
	}
	if err := writeSnapshotFile(dir, poolFileName, v.Pools); err != nil {
		return err
	}
	if err := writeSnapshotFile(dir, userLiquiditiesFileName, v.UserLiquidities); err != nil {
		return err
	}
	if err := writeSnapshotFile(dir, userOrdersFileName, v.UserOrders); err != nil {
		return err
	}
	if err := writeSnapshotFile(dir, pointInfoFileName, v.PointInfo); err != nil {
		return err
	}
	if err := writeSnapshotFile(dir, slotBitmapFileName, v.SlotBitmap); err != nil {
		return err
	}
	return writeSnapshotFile(dir, vipUsersFileName, v.VipUsers)
}

func readSnapshotFile(dir, name string, dest any) error {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("snapshot %s: %w", name, err)
	}
	return nil
}

func writeSnapshotFile(dir, name string, src any) error {
	raw, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), raw, 0o644); err != nil {
		return fmt.Errorf("snapshot %s: %w", name, err)
	}
	return nil
}

func poolToView(p *Pool) *PoolView {
	return &PoolView{
		PoolID:               p.PoolID,
		TokenX:               p.TokenX,
		TokenY:               p.TokenY,
		TokenXDecimal:        p.TokenXDecimal,
		TokenYDecimal:        p.TokenYDecimal,
		Fee:                  p.Fee,
		PointDelta:           p.PointDelta,
		CurrentPoint:         p.CurrentPoint,
		SqrtPrice96:          newAmount(p.SqrtPrice96),
		Liquidity:            newAmount(p.Liquidity),
		LiquidityX:           newAmount(p.LiquidityX),
		MaxLiquidityPerPoint: newAmount(p.MaxLiquidityPerPoint),
		FeeScaleX128:         newAmount(p.FeeScaleX128),
		FeeScaleY128:         newAmount(p.FeeScaleY128),
		TotalFeeXCharged:     newAmount(p.TotalFeeXCharged),
		TotalFeeYCharged:     newAmount(p.TotalFeeYCharged),
		VolumeXIn:            newAmount(p.VolumeXIn),
		VolumeYIn:            newAmount(p.VolumeYIn),
		VolumeXOut:           newAmount(p.VolumeXOut),
		VolumeYOut:           newAmount(p.VolumeYOut),
		TotalLiquidity:       newAmount(p.TotalLiquidity),
		TotalOrderX:          newAmount(p.TotalOrderX),
		TotalOrderY:          newAmount(p.TotalOrderY),
		TotalX:               newAmount(p.TotalX),
		TotalY:               newAmount(p.TotalY),
		RunningState:         p.State,
	}
}

func poolFromView(v *PoolView) (*Pool, error) {
	if v.PointDelta <= 0 {
		return nil, fmt.Errorf("%w: point delta %d", ErrInvalidPoolID, v.PointDelta)
	}
	pool := NewPool()
	pool.PoolID = v.PoolID
	pool.TokenX = v.TokenX
	pool.TokenY = v.TokenY
	pool.TokenXDecimal = v.TokenXDecimal
	pool.TokenYDecimal = v.TokenYDecimal
	pool.Fee = v.Fee
	pool.PointDelta = v.PointDelta
	pool.CurrentPoint = v.CurrentPoint
	pool.SqrtPrice96.Set(v.SqrtPrice96.value())
	pool.Liquidity.Set(v.Liquidity.value())
	pool.LiquidityX.Set(v.LiquidityX.value())
	pool.MaxLiquidityPerPoint.Set(v.MaxLiquidityPerPoint.value())
	pool.FeeScaleX128.Set(v.FeeScaleX128.value())
	pool.FeeScaleY128.Set(v.FeeScaleY128.value())
	pool.TotalFeeXCharged.Set(v.TotalFeeXCharged.value())
	pool.TotalFeeYCharged.Set(v.TotalFeeYCharged.value())
	pool.VolumeXIn.Set(v.VolumeXIn.value())
	pool.VolumeYIn.Set(v.VolumeYIn.value())
	pool.VolumeXOut.Set(v.VolumeXOut.value())
	pool.VolumeYOut.Set(v.VolumeYOut.value())
	pool.TotalLiquidity.Set(v.TotalLiquidity.value())
	pool.TotalOrderX.Set(v.TotalOrderX.value())
	pool.TotalOrderY.Set(v.TotalOrderY.value())
	pool.TotalX.Set(v.TotalX.value())
	pool.TotalY.Set(v.TotalY.value())
	if v.RunningState == PAUSED {
		pool.State = PAUSED
	}
	return pool, nil
}

func pointDataToView(data *PointData) *PointDataView {
	view := &PointDataView{}
	if data.LiquidityData != nil {
		view.LiquidityData = LiquidityDataView{
			LiquiditySum:   newAmount(data.LiquidityData.LiquiditySum),
			LiquidityDelta: newSignedAmount(data.LiquidityData.LiquidityDelta),
			AccFeeXOut128:  newAmount(data.LiquidityData.AccFeeXOut128),
			AccFeeYOut128:  newAmount(data.LiquidityData.AccFeeYOut128),
		}
	}
	if data.OrderData != nil {
		view.OrderData = OrderDataView{
			SellingX:       newAmount(data.OrderData.SellingX),
			EarnY:          newAmount(data.OrderData.EarnY),
			EarnYLegacy:    newAmount(data.OrderData.EarnYLegacy),
			AccEarnY:       newAmount(data.OrderData.AccEarnY),
			AccEarnYLegacy: newAmount(data.OrderData.AccEarnYLegacy),
			SellingY:       newAmount(data.OrderData.SellingY),
			EarnX:          newAmount(data.OrderData.EarnX),
			EarnXLegacy:    newAmount(data.OrderData.EarnXLegacy),
			AccEarnX:       newAmount(data.OrderData.AccEarnX),
			AccEarnXLegacy: newAmount(data.OrderData.AccEarnXLegacy),
			UserOrderCount: data.OrderData.UserOrderCount,
		}
	}
	return view
}

func pointDataFromView(view *PointDataView) *PointData {
	data := &PointData{}
	if view.LiquidityData.LiquiditySum != nil {
		data.LiquidityData = &LiquidityData{
			LiquiditySum:   view.LiquidityData.LiquiditySum.value(),
			LiquidityDelta: view.LiquidityData.LiquidityDelta.value(),
			AccFeeXOut128:  view.LiquidityData.AccFeeXOut128.value(),
			AccFeeYOut128:  view.LiquidityData.AccFeeYOut128.value(),
		}
	}
	if view.OrderData.SellingX != nil || view.OrderData.SellingY != nil {
		data.OrderData = &OrderData{
			SellingX:       view.OrderData.SellingX.value(),
			EarnY:          view.OrderData.EarnY.value(),
			EarnYLegacy:    view.OrderData.EarnYLegacy.value(),
			AccEarnY:       view.OrderData.AccEarnY.value(),
			AccEarnYLegacy: view.OrderData.AccEarnYLegacy.value(),
			SellingY:       view.OrderData.SellingY.value(),
			EarnX:          view.OrderData.EarnX.value(),
			EarnXLegacy:    view.OrderData.EarnXLegacy.value(),
			AccEarnX:       view.OrderData.AccEarnX.value(),
			AccEarnXLegacy: view.OrderData.AccEarnXLegacy.value(),
			UserOrderCount: view.OrderData.UserOrderCount,
		}
	}
	return data
}

func liquidityToView(l *UserLiquidity) *LiquidityView {
	view := &LiquidityView{
		LptID:            l.LptID,
		OwnerID:          l.OwnerID,
		PoolID:           l.PoolID,
		LeftPoint:        l.LeftPoint,
		RightPoint:       l.RightPoint,
		LastFeeScaleX128: newAmount(l.LastFeeScaleX128),
		LastFeeScaleY128: newAmount(l.LastFeeScaleY128),
		Amount:           newAmount(l.Amount),
		MftID:            l.MftID,
		UnclaimedFeeX:    newAmount(l.UnclaimedFeeX),
		UnclaimedFeeY:    newAmount(l.UnclaimedFeeY),
	}
	if !l.VLiquidity.IsZero() {
		view.VLiquidity = newAmount(l.VLiquidity)
	}
	return view
}

func liquidityFromView(v *LiquidityView) *UserLiquidity {
	return &UserLiquidity{
		LptID:            v.LptID,
		OwnerID:          v.OwnerID,
		PoolID:           v.PoolID,
		LeftPoint:        v.LeftPoint,
		RightPoint:       v.RightPoint,
		LastFeeScaleX128: v.LastFeeScaleX128.value(),
		LastFeeScaleY128: v.LastFeeScaleY128.value(),
		Amount:           v.Amount.value(),
		MftID:            v.MftID,
		VLiquidity:       v.VLiquidity.value(),
		UnclaimedFeeX:    v.UnclaimedFeeX.value(),
		UnclaimedFeeY:    v.UnclaimedFeeY.value(),
	}
}

func orderToView(o *UserOrder) *OrderView {
	return &OrderView{
		ClientID:              o.ClientID,
		OrderID:               o.OrderID,
		OwnerID:               o.OwnerID,
		PoolID:                o.PoolID,
		Point:                 o.Point,
		SellToken:             o.SellToken,
		BuyToken:              o.BuyToken,
		OriginalDepositAmount: newAmount(o.OriginalDepositAmount),
		SwapEarnAmount:        newAmount(o.SwapEarnAmount),
		OriginalAmount:        newAmount(o.OriginalAmount),
		CancelAmount:          newAmount(o.CancelAmount),
		CreatedAt:             o.CreatedAt,
		LastAccEarn:           newAmount(o.LastAccEarn),
		RemainAmount:          newAmount(o.RemainAmount),
		BoughtAmount:          newAmount(o.BoughtAmount),
		UnclaimedAmount:       newAmount(o.UnclaimedAmount),
	}
}

func orderFromView(v *OrderView) *UserOrder {
	return &UserOrder{
		ClientID:              v.ClientID,
		OrderID:               v.OrderID,
		OwnerID:               v.OwnerID,
		PoolID:                v.PoolID,
		Point:                 v.Point,
		SellToken:             v.SellToken,
		BuyToken:              v.BuyToken,
		OriginalDepositAmount: v.OriginalDepositAmount.value(),
		SwapEarnAmount:        v.SwapEarnAmount.value(),
		OriginalAmount:        v.OriginalAmount.value(),
		CancelAmount:          v.CancelAmount.value(),
		CreatedAt:             v.CreatedAt,
		LastAccEarn:           v.LastAccEarn.value(),
		RemainAmount:          v.RemainAmount.value(),
		BoughtAmount:          v.BoughtAmount.value(),
		UnclaimedAmount:       v.UnclaimedAmount.value(),
	}
}
