package dcl

import (
	"strings"

	"github.com/holiman/uint256"
)

// UserOrder is one owned limit order resident at a single point. An order
// with zero RemainAmount is history and only exists for claims and listings.
type UserOrder struct {
	ClientID string
	OrderID  OrderID
	OwnerID  string
	PoolID   PoolID
	Point    int64

	SellToken string
	BuyToken  string

	// OriginalDepositAmount arrived with the placement request; SwapEarnAmount
	// is what an attached swap earned before the remainder became the order.
	OriginalDepositAmount *uint256.Int
	SwapEarnAmount        *uint256.Int
	OriginalAmount        *uint256.Int
	CancelAmount          *uint256.Int

	CreatedAt uint64

	LastAccEarn     *uint256.Int
	RemainAmount    *uint256.Int
	BoughtAmount    *uint256.Int
	UnclaimedAmount *uint256.Int
}

func NewUserOrder() *UserOrder {
	return &UserOrder{
		OriginalDepositAmount: new(uint256.Int),
		SwapEarnAmount:        new(uint256.Int),
		OriginalAmount:        new(uint256.Int),
		CancelAmount:          new(uint256.Int),
		LastAccEarn:           new(uint256.Int),
		RemainAmount:          new(uint256.Int),
		BoughtAmount:          new(uint256.Int),
		UnclaimedAmount:       new(uint256.Int),
	}
}

func (o *UserOrder) Clone() *UserOrder {
	if o == nil {
		return nil
	}
	return &UserOrder{
		ClientID:              o.ClientID,
		OrderID:               o.OrderID,
		OwnerID:               o.OwnerID,
		PoolID:                o.PoolID,
		Point:                 o.Point,
		SellToken:             o.SellToken,
		BuyToken:              o.BuyToken,
		OriginalDepositAmount: new(uint256.Int).Set(o.OriginalDepositAmount),
		SwapEarnAmount:        new(uint256.Int).Set(o.SwapEarnAmount),
		OriginalAmount:        new(uint256.Int).Set(o.OriginalAmount),
		CancelAmount:          new(uint256.Int).Set(o.CancelAmount),
		CreatedAt:             o.CreatedAt,
		LastAccEarn:           new(uint256.Int).Set(o.LastAccEarn),
		RemainAmount:          new(uint256.Int).Set(o.RemainAmount),
		BoughtAmount:          new(uint256.Int).Set(o.BoughtAmount),
		UnclaimedAmount:       new(uint256.Int).Set(o.UnclaimedAmount),
	}
}

// IsEarnY reports whether the order sells token X, earning token Y.
func (o *UserOrder) IsEarnY() (bool, error) {
	loc := strings.Index(string(o.PoolID), poolIDBreak)
	if loc < 0 {
		return false, ErrInvalidPoolID
	}
	return string(o.PoolID[:loc]) == o.SellToken, nil
}

// userOrderKey identifies the one active order slot a user may hold per
// pool and point.
type userOrderKey struct {
	PoolID PoolID
	Point  int64
}

// User aggregates everything the registry tracks per account.
type User struct {
	UserID              string
	SponsorID           string
	LiquidityKeys       map[LptID]struct{}
	OrderKeys           map[userOrderKey]OrderID
	HistoryOrders       []*UserOrder
	CompletedOrderCount uint64
}

func NewUser(userID string) *User {
	return &User{
		UserID:        userID,
		LiquidityKeys: make(map[LptID]struct{}),
		OrderKeys:     make(map[userOrderKey]OrderID),
	}
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := &User{
		UserID:              u.UserID,
		SponsorID:           u.SponsorID,
		LiquidityKeys:       make(map[LptID]struct{}, len(u.LiquidityKeys)),
		OrderKeys:           make(map[userOrderKey]OrderID, len(u.OrderKeys)),
		HistoryOrders:       make([]*UserOrder, 0, len(u.HistoryOrders)),
		CompletedOrderCount: u.CompletedOrderCount,
	}
	for key := range u.LiquidityKeys {
		clone.LiquidityKeys[key] = struct{}{}
	}
	for key, orderID := range u.OrderKeys {
		clone.OrderKeys[key] = orderID
	}
	for _, order := range u.HistoryOrders {
		clone.HistoryOrders = append(clone.HistoryOrders, order.Clone())
	}
	return clone
}
