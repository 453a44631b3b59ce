package indexer

import dcl "github.com/defistate/dclstate-client-go/protocols/dcl"

// IndexedEvents provides ordered, validated access to a batch of feed
// records. The indexer guarantees strict (height, seq) ordering and the
// absence of duplicates; consumers can replay All() front to back.
type IndexedEvents interface {
	ByHeight(height uint64) []*dcl.Event
	Heights() []uint64
	All() []*dcl.Event
	Len() int
}
