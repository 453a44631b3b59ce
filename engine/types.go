package engine

type ProtocolName string
type ProtocolID string

// ProtocolSchema defines the decode contract for a protocol's data
type ProtocolSchema string

type ProtocolMeta struct {
	Name ProtocolName `json:"name"`           // human label
	Tags []string     `json:"tags,omitempty"` // "dex", "orderbook", etc.
}

type ProtocolState struct {
	Meta ProtocolMeta `json:"meta"`

	// what is the current height of the protocol's data?
	SyncedHeight *uint64 `json:"syncedHeight,omitempty"`

	// Schema is the decode contract for Data.
	// Example:
	// "defistate/dcl/registryView@v1"
	Schema ProtocolSchema `json:"schema"`

	// Data is the protocol view, shaped by Schema.
	Data any `json:"data,omitempty"`

	// Error is populated if this protocol is out-of-sync or failed at this height.
	Error string `json:"error,omitempty"`
}

// BlockSummary contains only the essential block information for clients.
// Hashes stay in the chain's native string encoding.
type BlockSummary struct {
	Height     uint64 `json:"height"`
	Hash       string `json:"hash"`
	PrevHash   string `json:"prevHash,omitempty"`
	Timestamp  uint64 `json:"timestamp"`  // block timestamp, nanoseconds
	ReceivedAt int64  `json:"receivedAt"` // The Unix nanosecond timestamp when the engine started processing the block.
}

// State is the main data structure broadcast to subscribers.
type State struct {
	ChainID   string                       `json:"chainId"`
	Timestamp uint64                       `json:"timestamp"`
	Block     BlockSummary                 `json:"block"`
	Protocols map[ProtocolID]ProtocolState `json:"protocols"`
}

func (state *State) HasErrors() bool {
	// Check protocol-level errors
	for _, pr := range state.Protocols {
		if pr.Error != "" {
			return true
		}
	}
	return false
}
