package differ

import "github.com/defistate/dclstate-client-go/engine"

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type ProtocolDiff struct {
	Meta engine.ProtocolMeta `json:"meta"`

	// what is the current height of the protocol's data?
	SyncedHeight *uint64 `json:"syncedHeight,omitempty"`

	// Schema is the decode contract for Data.
	// Examples:
	// "defistate/dcl/registryView@v1"
	Schema engine.ProtocolSchema `json:"schema"`

	// Data is the protocol diff, shaped by Schema.
	Data any `json:"data,omitempty"`

	// Error is populated if this protocol is out-of-sync or failed at this height.
	Error string `json:"error,omitempty"`
}

// StateDiff represents a summary of changes FromHeight to ToBlock.
type StateDiff struct {
	Timestamp  uint64                             `json:"timestamp"`
	FromHeight uint64                             `json:"fromHeight"`
	ToBlock    engine.BlockSummary                `json:"toBlock"`
	Protocols  map[engine.ProtocolID]ProtocolDiff `json:"protocols"`
}
