package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dcl "github.com/defistate/dclstate-client-go/protocols/dcl"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
chain_id: mainnet
state_stream_url: ws://localhost:8080/state
protocol_fee_rate: 3000
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.ChainID)
	assert.Equal(t, "ws://localhost:8080/state", cfg.StateStreamURL)
	assert.Equal(t, uint32(3000), cfg.ProtocolFeeRate)
}

func TestLoadConfigDefaultsProtocolFeeRate(t *testing.T) {
	path := writeConfig(t, `
chain_id: testnet
state_stream_url: ws://localhost:8080/state
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(dcl.DEFAULT_PROTOCOL_FEE_RATE), cfg.ProtocolFeeRate)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "chain_id: [unterminated"))
		assert.Error(t, err)
	})

	t.Run("missing required fields", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "protocol_fee_rate: 1000"))
		assert.ErrorContains(t, err, "validate config")
	})

	t.Run("fee rate above bound", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, `
chain_id: mainnet
state_stream_url: ws://localhost:8080/state
protocol_fee_rate: 10001
`))
		assert.ErrorContains(t, err, "validate config")
	})
}
