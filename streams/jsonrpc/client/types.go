package client

import (
	"encoding/json"

	"github.com/defistate/dclstate-client-go/engine"
)

// clientState mirrors engine.State but strictly types the Data field as RawMessage.
// This prevents the Go JSON decoder from unmarshaling into map[string]interface{}.
type clientState struct {
	ChainID   string                                    `json:"chainId"`
	Timestamp uint64                                    `json:"timestamp"`
	Block     engine.BlockSummary                       `json:"block"`
	Protocols map[engine.ProtocolID]clientProtocolState `json:"protocols"`
}

type clientProtocolState struct {
	Meta         engine.ProtocolMeta   `json:"meta"`
	SyncedHeight *uint64               `json:"syncedHeight,omitempty"`
	Schema       engine.ProtocolSchema `json:"schema"`
	Error        string                `json:"error,omitempty"`

	// Data is kept as raw bytes. We decode this later using the specific Schema.
	Data json.RawMessage `json:"data,omitempty"`
}

type clientProtocolStateDiff struct {
	Meta         engine.ProtocolMeta   `json:"meta"`
	SyncedHeight *uint64               `json:"syncedHeight,omitempty"`
	Schema       engine.ProtocolSchema `json:"schema"`
	Error        string                `json:"error,omitempty"`

	// Data is kept as raw bytes. We decode this later using the specific Schema.
	Data json.RawMessage `json:"data,omitempty"`
}

// clientStateDiff mirrors differ.StateDiff but keeps the protocol diffs as raw bytes.
type clientStateDiff struct {
	FromHeight uint64                                        `json:"fromHeight"`
	ToBlock    engine.BlockSummary                           `json:"toBlock"`
	Timestamp  uint64                                        `json:"timestamp"`
	Protocols  map[engine.ProtocolID]clientProtocolStateDiff `json:"protocols"`
}
