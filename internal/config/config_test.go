package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[agent]
healthcheck_listen_addr = "0.0.0.0"
healthcheck_port = 8080
log_level = "debug"
log_json = true
evaluator = "scored"

[[networks]]
chain_id = 31337
rpc_url = "ws://localhost:8545"
tokens = ["0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"]
router_address = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

[[networks]]
chain_id = 31338
rpc_url = "http://localhost:8546"
tokens = ["0xcccccccccccccccccccccccccccccccccccccccc"]
router_address = "0xdddddddddddddddddddddddddddddddddddddddd"
tx_gas_buffer = 150
tx_gas_price_buffer = 110
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadDecodesAgentAndNetworks(t *testing.T) {
	path := writeTempConfig(t, sampleTOML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "scored", cfg.Agent.Evaluator)
	assert.True(t, cfg.Agent.LogJSON)
	require.Len(t, cfg.Networks, 2)
	assert.Equal(t, uint64(31337), cfg.Networks[0].ChainID)
}

func TestLoadAppliesDefaultBuffers(t *testing.T) {
	path := writeTempConfig(t, sampleTOML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, defaultTxGasBufferPct, cfg.Networks[0].TxGasBufferPct)
	assert.Equal(t, defaultTxGasPriceBufferPct, cfg.Networks[0].TxGasPriceBufferPct)
	assert.Equal(t, 150, cfg.Networks[1].TxGasBufferPct)
	assert.Equal(t, 110, cfg.Networks[1].TxGasPriceBufferPct)
}

func TestLoadRejectsEmptyNetworks(t *testing.T) {
	path := writeTempConfig(t, `[agent]
log_level = "info"
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestResolvePrivateKeyPrefersFlag(t *testing.T) {
	t.Setenv("SOLVER_PRIVATE_KEY", "envkey")
	key, err := ResolvePrivateKey("flagkey")
	require.NoError(t, err)
	assert.Equal(t, "flagkey", key)
}

func TestResolvePrivateKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("SOLVER_PRIVATE_KEY", "envkey")
	key, err := ResolvePrivateKey("")
	require.NoError(t, err)
	assert.Equal(t, "envkey", key)
}

func TestResolvePrivateKeyErrorsWithNeither(t *testing.T) {
	t.Setenv("SOLVER_PRIVATE_KEY", "")
	_, err := ResolvePrivateKey("")
	assert.Error(t, err)
}
