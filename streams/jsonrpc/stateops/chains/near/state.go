package near

import (
	"encoding/json"
	"errors"

	"github.com/defistate/dclstate-client-go/differ"
	"github.com/defistate/dclstate-client-go/engine"
	"github.com/defistate/dclstate-client-go/patcher"
	dcl "github.com/defistate/dclstate-client-go/protocols/dcl"
	"github.com/prometheus/client_golang/prometheus"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// StateOps encapsulates the core business logic for processing DCL state on NEAR.
//
// It acts as a unified facade for two critical operations:
// 1. Differ: Calculating the delta between two registry views (Used by the Server/Engine, and by audits).
// 2. Patcher: Replaying an event batch on a previous view to reconstruct the present (Used by a Client).
//
// Note the asymmetry against the EVM chains: the stream diff payload is an
// ordered event batch, not a field-level delta. The field-level RegistryDiff
// produced by the differ is the audit artifact, compared against an
// independently fetched snapshot.
type StateOps struct {
	*differ.StateDiffer
	*patcher.StatePatcher
}

func NewStateOps(
	logger Logger,
	prometheusRegistry prometheus.Registerer,
	protocolFeeRate uint32,
) (*StateOps, error) {
	protocolDiffers := map[engine.ProtocolSchema]differ.ProtocolDiffer{
		dcl.SchemaRegistryView: func(old, new any) (diff any, err error) {
			return dcl.Differ(old.(*dcl.RegistryView), new.(*dcl.RegistryView)), nil
		},
	}

	protocolPatchers := map[engine.ProtocolSchema]patcher.PatcherFunc{
		dcl.SchemaRegistryView: dcl.NewPatcher(protocolFeeRate),
	}

	stateDiffer, err := differ.NewStateDiffer(&differ.StateDifferConfig{
		ProtocolDiffers: protocolDiffers,
		Logger:          logger,
		Registry:        prometheusRegistry,
	})
	if err != nil {
		return nil, err
	}

	statePatcher, err := patcher.NewStatePatcher(&patcher.StatePatcherConfig{
		Patchers: protocolPatchers,
	})
	if err != nil {
		return nil, err
	}

	return &StateOps{
		StateDiffer:  stateDiffer,
		StatePatcher: statePatcher,
	}, nil

}

func (ops *StateOps) DecodeStateJSON(
	schema engine.ProtocolSchema,
	data json.RawMessage,
) (any, error) {
	switch schema {
	case dcl.SchemaRegistryView:
		var typedData *dcl.RegistryView
		err := json.Unmarshal(data, &typedData)
		if err != nil {
			return nil, err
		}
		return typedData, nil
	default:
		return nil, errors.New("unknown schema")
	}
}

func (ops *StateOps) DecodeStateDiffJSON(
	schema engine.ProtocolSchema,
	data json.RawMessage,
) (any, error) {
	switch schema {
	case dcl.SchemaRegistryView:
		var typedData *dcl.EventBatch
		err := json.Unmarshal(data, &typedData)
		if err != nil {
			return nil, err
		}
		return typedData, nil
	default:
		return nil, errors.New("unknown schema")
	}
}
