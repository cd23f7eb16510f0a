package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
log-level: debug
http-port: 9090
database-source: postgres://bridge:bridge@db:5432/wzec
zcash:
  rpc-user: bridgeuser
  rpc-pass: bridgepass
  bridge-address: ztestsapling1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq
  min-deposit-amount: 0.01
  max-deposit-amount: 50
  confirmation-threshold: 10
  poll-interval-second: 30
solana:
  rpc-url: http://localhost:8899
  keypair-path: /etc/wzec/authority.json
  mint-address: So11111111111111111111111111111111111111112
  program-id: ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL
  fee-percent: 0.25
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bridge.yaml"), []byte(content), 0o600))
	return dir
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, testConfigYAML))
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 9090, cfg.HTTPPort)
	require.Equal(t, "postgres://bridge:bridge@db:5432/wzec", cfg.DatabaseSource)

	require.Equal(t, "bridgeuser", cfg.Zcash.RPCUser)
	require.Equal(t, int64(10), cfg.Zcash.ConfirmationThreshold)
	require.Equal(t, 30*time.Second, cfg.ZcashPollInterval())
	// change address falls back to the deposit address
	require.Equal(t, cfg.Zcash.BridgeAddress, cfg.Zcash.ChangeAddress)

	require.Equal(t, 0.25, cfg.Solana.FeePercent)
	require.Equal(t, "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL", cfg.Solana.ProgramID)

	// untouched keys keep their defaults
	require.Equal(t, "8232", cfg.Zcash.RPCPort)
	require.Equal(t, int32(8), cfg.Solana.TokenDecimals)
	require.Equal(t, 15*time.Second, cfg.SolanaPollInterval())
}

func TestLoadFromEnvOnly(t *testing.T) {
	t.Setenv("ZCASH_RPC_USER", "envuser")
	t.Setenv("ZCASH_RPC_PASS", "envpass")
	t.Setenv("ZCASH_BRIDGE_ADDRESS", "ztestsapling1envenvenvenvenvenvenvenvenvenvenvenvenvenvenvenvenvenvenvenvenvenv")
	t.Setenv("SOLANA_KEYPAIR_PATH", "/tmp/authority.json")
	t.Setenv("SOLANA_MINT_ADDRESS", "So11111111111111111111111111111111111111112")
	t.Setenv("BRIDGE_FEE_PERCENT", "0.5")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "envuser", cfg.Zcash.RPCUser)
	require.Equal(t, 0.5, cfg.Solana.FeePercent)
	require.Equal(t, 8080, cfg.HTTPPort)
	require.Equal(t, cfg.Zcash.BridgeAddress, cfg.Zcash.ChangeAddress)
}

func TestLoadRejectsIncompleteConfig(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(writeConfigFile(t, testConfigYAML))
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing rpc credentials", func(c *Config) { c.Zcash.RPCPass = "" }},
		{"missing bridge address", func(c *Config) { c.Zcash.BridgeAddress = "" }},
		{"missing keypair", func(c *Config) { c.Solana.KeypairPath = "" }},
		{"missing mint", func(c *Config) { c.Solana.MintAddress = "" }},
		{"zero min deposit", func(c *Config) { c.Zcash.MinDepositAmount = 0 }},
		{"max below min", func(c *Config) { c.Zcash.MaxDepositAmount = 0.001 }},
		{"negative fee", func(c *Config) { c.Solana.FeePercent = -1 }},
		{"fee too high", func(c *Config) { c.Solana.FeePercent = 100 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := valid()
			require.NoError(t, cfg.Validate())
			c.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
