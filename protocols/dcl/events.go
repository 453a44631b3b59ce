package dcl

import (
	"fmt"
)

// EventKind names one replayable registry operation.
type EventKind string

const (
	EventLiquidityAdded    EventKind = "liquidity_added"
	EventLiquidityAppended EventKind = "liquidity_appended"
	EventLiquidityMerged   EventKind = "liquidity_merged"
	EventLiquidityRemoved  EventKind = "liquidity_removed"
	EventOrderAdded        EventKind = "order_added"
	EventOrderCancelled    EventKind = "order_cancelled"
	EventSwap              EventKind = "swap"
	EventSwapByOutput      EventKind = "swap_by_output"
	EventSwapByStopPoint   EventKind = "swap_by_stop_point"
)

// Event is one ordered operation record from the feed. Only the argument
// fields of the record's kind are set; the rest stay at their zero values.
// Events at the same height are ordered by Seq.
type Event struct {
	Height uint64    `json:"height"`
	Seq    uint64    `json:"seq"`
	Kind   EventKind `json:"kind"`

	Operator string `json:"operator,omitempty"`
	ClientID string `json:"client_id,omitempty"`

	PoolID  PoolID   `json:"pool_id,omitempty"`
	PoolIDs []PoolID `json:"pool_ids,omitempty"`
	LptID   LptID    `json:"lpt_id,omitempty"`
	LptIDs  []LptID  `json:"lpt_ids,omitempty"`
	OrderID OrderID  `json:"order_id,omitempty"`

	LeftPoint  int64 `json:"left_point,omitempty"`
	RightPoint int64 `json:"right_point,omitempty"`
	Point      int64 `json:"point,omitempty"`
	StopPoint  int64 `json:"stop_point,omitempty"`

	AmountX    *Amount `json:"amount_x,omitempty"`
	AmountY    *Amount `json:"amount_y,omitempty"`
	MinAmountX *Amount `json:"min_amount_x,omitempty"`
	MinAmountY *Amount `json:"min_amount_y,omitempty"`

	// Amount is the removal or cancellation amount. For order_cancelled a
	// missing amount cancels the whole remainder, an explicit zero only
	// claims the filled part.
	Amount *Amount `json:"amount,omitempty"`

	SellToken      string  `json:"sell_token,omitempty"`
	BuyToken       string  `json:"buy_token,omitempty"`
	SwappedAmount  *Amount `json:"swapped_amount,omitempty"`
	SwapEarnAmount *Amount `json:"swap_earn_amount,omitempty"`
	WithSwap       bool    `json:"with_swap,omitempty"`
	CreatedAt      uint64  `json:"created_at,omitempty"`

	InputToken      string  `json:"input_token,omitempty"`
	InputAmount     *Amount `json:"input_amount,omitempty"`
	OutputToken     string  `json:"output_token,omitempty"`
	OutputAmount    *Amount `json:"output_amount,omitempty"`
	MinOutputAmount *Amount `json:"min_output_amount,omitempty"`
	MaxInputAmount  *Amount `json:"max_input_amount,omitempty"`
}

// ApplyEvent replays one operation record against the registry. Economic
// failures surface as wrapped sentinel errors; the caller decides whether a
// failed record aborts the replay.
func (d *Dcl) ApplyEvent(ev *Event) error {
	switch ev.Kind {
	case EventLiquidityAdded:
		_, err := d.AddLiquidity(ev.Operator, ev.PoolID, ev.LeftPoint, ev.RightPoint,
			ev.AmountX.value(), ev.AmountY.value(), ev.MinAmountX.value(), ev.MinAmountY.value())
		return err

	case EventLiquidityAppended:
		_, _, err := d.AppendLiquidity(ev.Operator, ev.LptID,
			ev.AmountX.value(), ev.AmountY.value(), ev.MinAmountX.value(), ev.MinAmountY.value())
		return err

	case EventLiquidityMerged:
		_, _, err := d.MergeLiquidity(ev.Operator, ev.LptID, ev.LptIDs)
		return err

	case EventLiquidityRemoved:
		_, _, err := d.RemoveLiquidity(ev.Operator, ev.LptID,
			ev.Amount.value(), ev.MinAmountX.value(), ev.MinAmountY.value())
		return err

	case EventOrderAdded:
		if ev.WithSwap {
			_, err := d.AddOrderWithSwap(ev.ClientID, ev.Operator, ev.SellToken,
				ev.Amount.value(), ev.PoolID, ev.Point, ev.BuyToken, ev.CreatedAt)
			return err
		}
		_, err := d.AddOrder(ev.ClientID, ev.Operator, ev.SellToken,
			ev.Amount.value(), ev.PoolID, ev.Point, ev.BuyToken,
			ev.SwappedAmount.value(), ev.SwapEarnAmount.value(), ev.CreatedAt)
		return err

	case EventOrderCancelled:
		if ev.Amount == nil {
			_, _, err := d.CancelOrder(ev.Operator, ev.OrderID, nil)
			return err
		}
		_, _, err := d.CancelOrder(ev.Operator, ev.OrderID, ev.Amount.value())
		return err

	case EventSwap:
		_, err := d.Swap(ev.Operator, ev.PoolIDs, ev.InputToken,
			ev.InputAmount.value(), ev.OutputToken, ev.MinOutputAmount.value())
		return err

	case EventSwapByOutput:
		_, err := d.SwapByOutput(ev.Operator, ev.PoolIDs, ev.InputToken,
			ev.MaxInputAmount.value(), ev.OutputToken, ev.OutputAmount.value())
		return err

	case EventSwapByStopPoint:
		_, err := d.SwapByStopPoint(ev.Operator, ev.PoolID, ev.InputToken,
			ev.InputAmount.value(), ev.StopPoint)
		return err

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}
}
