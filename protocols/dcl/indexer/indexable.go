package indexer

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	dcl "github.com/defistate/dclstate-client-go/protocols/dcl"
)

var (
	ErrOutOfOrder      = errors.New("feed records out of (height, seq) order")
	ErrDuplicateRecord = errors.New("duplicate feed record")
)

// Indexer validates and indexes ordered operation records from the feed.
type Indexer struct{}

// New creates a new Indexer.
func New() *Indexer {
	return &Indexer{}
}

// Decode parses a JSON array of feed records.
func (i *Indexer) Decode(raw []byte) ([]*dcl.Event, error) {
	var events []*dcl.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("decode feed records: %w", err)
	}
	return events, nil
}

// Index validates strict (height, seq) ordering and returns indexed access
// to the batch. Duplicates and regressions are rejected, not repaired: the
// feed is the ordering authority and a violation means a broken upstream.
func (i *Indexer) Index(events []*dcl.Event) (IndexedEvents, error) {
	byHeight := make(map[uint64][]*dcl.Event)
	var heights []uint64

	var lastHeight, lastSeq uint64
	for idx, ev := range events {
		if idx > 0 {
			if ev.Height == lastHeight && ev.Seq == lastSeq {
				return nil, fmt.Errorf("%w: height=%d seq=%d", ErrDuplicateRecord, ev.Height, ev.Seq)
			}
			if ev.Height < lastHeight || (ev.Height == lastHeight && ev.Seq < lastSeq) {
				return nil, fmt.Errorf("%w: height=%d seq=%d after height=%d seq=%d",
					ErrOutOfOrder, ev.Height, ev.Seq, lastHeight, lastSeq)
			}
		}
		if _, seen := byHeight[ev.Height]; !seen {
			heights = append(heights, ev.Height)
		}
		byHeight[ev.Height] = append(byHeight[ev.Height], ev)
		lastHeight, lastSeq = ev.Height, ev.Seq
	}

	return &IndexableEvents{
		byHeight: byHeight,
		heights:  heights,
		all:      events,
	}, nil
}

// IndexableEvents provides fast access to one validated record batch.
type IndexableEvents struct {
	byHeight map[uint64][]*dcl.Event
	heights  []uint64
	all      []*dcl.Event
}

// ByHeight returns the records of one height, in seq order.
func (ie *IndexableEvents) ByHeight(height uint64) []*dcl.Event {
	return ie.byHeight[height]
}

// Heights returns every height carrying records, ascending.
func (ie *IndexableEvents) Heights() []uint64 {
	heightsCopy := make([]uint64, len(ie.heights))
	copy(heightsCopy, ie.heights)
	return heightsCopy
}

// All returns a defensive copy of the full ordered batch.
func (ie *IndexableEvents) All() []*dcl.Event {
	allCopy := make([]*dcl.Event, len(ie.all))
	copy(allCopy, ie.all)
	return allCopy
}

func (ie *IndexableEvents) Len() int {
	return len(ie.all)
}
