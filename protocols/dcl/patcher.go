package dcl

import (
	"fmt"
)

// SchemaRegistryView is the decode contract under which the registry view
// travels through the generic state patcher.
const SchemaRegistryView = "defistate/dcl/registryView@v1"

// EventBatch is the diff payload between two heights: the ordered operation
// records to replay on top of the previous view.
type EventBatch struct {
	FromHeight uint64   `json:"fromHeight"`
	ToHeight   uint64   `json:"toHeight"`
	Events     []*Event `json:"events"`
}

// NewPatcher returns a patcher function for the registry view schema. The
// previous state is rebuilt into a fresh registry before any event applies,
// so the input view is never mutated.
func NewPatcher(protocolFeeRate uint32) func(prevState any, diffData any) (any, error) {
	return func(prevState any, diffData any) (any, error) {
		view := &RegistryView{}
		if prevState != nil {
			prev, ok := prevState.(*RegistryView)
			if !ok {
				return nil, fmt.Errorf("dcl patcher: unexpected state type %T", prevState)
			}
			view = prev
		}
		batch, ok := diffData.(*EventBatch)
		if !ok {
			return nil, fmt.Errorf("dcl patcher: unexpected diff type %T", diffData)
		}

		d, err := NewDclFromView(view, protocolFeeRate)
		if err != nil {
			return nil, fmt.Errorf("dcl patcher: rebuild state: %w", err)
		}

		var lastHeight, lastSeq uint64
		first := true
		for _, ev := range batch.Events {
			if ev.Height <= batch.FromHeight {
				return nil, fmt.Errorf("dcl patcher: event below batch start at height=%d seq=%d", ev.Height, ev.Seq)
			}
			if batch.ToHeight != 0 && ev.Height > batch.ToHeight {
				return nil, fmt.Errorf("dcl patcher: event beyond batch end at height=%d seq=%d", ev.Height, ev.Seq)
			}
			if !first && (ev.Height < lastHeight || (ev.Height == lastHeight && ev.Seq <= lastSeq)) {
				return nil, fmt.Errorf("dcl patcher: event out of order at height=%d seq=%d", ev.Height, ev.Seq)
			}
			first = false
			if err := d.ApplyEvent(ev); err != nil {
				return nil, fmt.Errorf("dcl patcher: apply %s at height=%d seq=%d: %w", ev.Kind, ev.Height, ev.Seq, err)
			}
			lastHeight, lastSeq = ev.Height, ev.Seq
		}

		return d.View(), nil
	}
}
