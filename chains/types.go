package chains

import (
	"context"

	"github.com/defistate/dclstate-client-go/engine"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Client defines the interface that state consumers depend on.
type Client interface {
	State() <-chan *engine.State
	Err() <-chan error
}

// BlockFetcher fetches block summaries from the chain's native RPC.
type BlockFetcher interface {
	LatestBlock(ctx context.Context) (engine.BlockSummary, error)
	BlockByHeight(ctx context.Context, height uint64) (engine.BlockSummary, error)
}

// ProtocolResolver maps low-level protocol identifiers to their data schemas.
type ProtocolResolver struct {
	protocolIDToSchema map[engine.ProtocolID]engine.ProtocolSchema
}

// NewProtocolResolver creates a new resolver instance.
func NewProtocolResolver(
	protocolIDToSchema map[engine.ProtocolID]engine.ProtocolSchema,
) *ProtocolResolver {
	return &ProtocolResolver{
		protocolIDToSchema: protocolIDToSchema,
	}
}

// ResolveSchema directly maps a known ProtocolID string to its schema.
func (pr *ProtocolResolver) ResolveSchema(protocolID engine.ProtocolID) (engine.ProtocolSchema, bool) {
	schema, exists := pr.protocolIDToSchema[protocolID]
	return schema, exists
}
