package near

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/defistate/dclstate-client-go/chains"
	"github.com/defistate/dclstate-client-go/engine"
	jsonrpcclient "github.com/defistate/dclstate-client-go/streams/jsonrpc/client"
	nearstateops "github.com/defistate/dclstate-client-go/streams/jsonrpc/stateops/chains/near"
	"github.com/prometheus/client_golang/prometheus"

	dcl "github.com/defistate/dclstate-client-go/protocols/dcl"
)

// Client orchestrates the ingestion and processing of DCL state on NEAR.
// Its lifecycle is bound to the context passed during Dial.
type Client struct {
	stream  chains.Client
	logger  chains.Logger
	stateCh chan *State
	errCh   chan error

	// Immutable settings (set via Options during Dial)
	protocolFeeRate uint32

	ctx context.Context
	wg  sync.WaitGroup
}

// Option configures the Client.
// The interface method is unexported to prevent external modification after Dial.
type Option interface {
	apply(*Client)
}

type funcOption func(*Client)

func (f funcOption) apply(p *Client) {
	f(p)
}

func newOption(f func(*Client)) Option {
	return funcOption(f)
}

// Dial establishes the connection and starts the processing loop.
// The returned Client will remain active until the provided ctx is cancelled.
func Dial(
	ctx context.Context,
	url string,
	logger chains.Logger,
	prometheusRegistry prometheus.Registerer,
	opts ...Option,
) (*Client, error) {

	p := &Client{
		logger:          logger,
		stateCh:         make(chan *State, 1),
		errCh:           make(chan error, 1),
		protocolFeeRate: dcl.DEFAULT_PROTOCOL_FEE_RATE,
	}

	for _, opt := range opts {
		opt.apply(p)
	}

	stateOps, err := nearstateops.NewStateOps(
		logger,
		prometheusRegistry,
		p.protocolFeeRate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create state ops: %w", err)
	}

	clientCfg := jsonrpcclient.Config{
		URL:              url,
		Logger:           logger,
		BufferSize:       1,
		StatePatcher:     stateOps.Patch,
		StateDecoder:     stateOps.DecodeStateJSON,
		StateDiffDecoder: stateOps.DecodeStateDiffJSON,
	}

	client, err := jsonrpcclient.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to dial dclstate stream url: %w", err)
	}
	p.stream = client

	// Bind the Client's lifecycle to the user-provided context
	p.ctx = ctx
	p.wg.Add(1)
	go p.loop()

	p.logger.Info("Client started", "url", url)
	return p, nil
}

// State channel is best-effort; if consumer is slow, updates may be dropped
func (p *Client) State() <-chan *State {
	return p.stateCh
}

func (p *Client) Err() <-chan error {
	return p.errCh
}

func (p *Client) loop() {
	defer p.wg.Done()
	defer func() {
		close(p.stateCh)
		close(p.errCh)
		p.logger.Info("Client stopped")
	}()

	for {
		select {
		case <-p.ctx.Done():
			return

		case err := <-p.stream.Err():
			p.logger.Error("Fatal client error", "err", err)
			select {
			case p.errCh <- err:
			case <-p.ctx.Done():
			}
			return

		case rawState, ok := <-p.stream.State():
			if !ok {
				p.logger.Error("Upstream state channel closed")
				return
			}

			processed, err := p.processState(rawState)
			if err != nil {
				p.logger.Error("Failed to process state", "height", rawState.Block.Height, "err", err)
				continue
			}

			select {
			case p.stateCh <- processed:
			case <-p.ctx.Done():
				return
			default:
				p.logger.Warn("State buffer full, discarding processed state...", "height", rawState.Block.Height)
			}
		}
	}
}

// State is the processed, strongly typed view of one block.
type State struct {
	// Registries holds the DCL registry view of each protocol instance,
	// keyed by its engine protocol ID.
	Registries        map[engine.ProtocolID]*dcl.RegistryView
	ProtocolResolver  *chains.ProtocolResolver
	Block             engine.BlockSummary
	ProcessedAtUnixNs uint64
}

func (p *Client) processState(rawState *engine.State) (*State, error) {

	processingStart := time.Now()
	p.logger.Info("New state received, starting processing", "height", rawState.Block.Height)

	registries := make(map[engine.ProtocolID]*dcl.RegistryView)
	protocolIDToProtocolSchema := map[engine.ProtocolID]engine.ProtocolSchema{}

	for pID, protocol := range rawState.Protocols {
		protocolIDToProtocolSchema[pID] = protocol.Schema

		switch protocol.Schema {
		case dcl.SchemaRegistryView:
			view, ok := protocol.Data.(*dcl.RegistryView)
			if !ok {
				return nil, fmt.Errorf("protocol %s: unexpected data type %T", pID, protocol.Data)
			}
			registries[pID] = view
		}
	}

	if len(registries) == 0 {
		return nil, fmt.Errorf("no DCL registry data found in raw state. Height %d", rawState.Block.Height)
	}

	protocolResolver := chains.NewProtocolResolver(protocolIDToProtocolSchema)

	processingDuration := time.Since(processingStart)
	p.logger.Info("State processed", "height", rawState.Block.Height, "registries", len(registries), "duration_ms", processingDuration.Milliseconds())

	state := &State{
		Registries:        registries,
		ProtocolResolver:  protocolResolver,
		Block:             rawState.Block,
		ProcessedAtUnixNs: uint64(time.Now().UnixNano()),
	}

	return state, nil

}

// Options Constructors for the Client

func WithProtocolFeeRate(rate uint32) Option {
	return newOption(func(p *Client) {
		p.protocolFeeRate = rate
	})
}
