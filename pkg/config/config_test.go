package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurenju/paisu/pkg/config"
)

const sampleConfig = `
accounts:
  - name: Assets:Bank
    address: "0xabc"
  - name: Expenses:Merchant
    address: "0xccc"
    owned: false
baseCurrency: TWD
defaultExpense: Expenses:Unknown
defaultIncome: Income:Unknown
txFeeAccount: Expenses:Fee
pnlAccount: Income:PnL
etherscan:
  apiKey: test-key
fromBlock: 1000000
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	require.Len(t, cfg.Accounts, 2)
	assert.Equal(t, "Assets:Bank", cfg.Accounts[0].Name)
	assert.True(t, cfg.Accounts[0].IsOwned())
	assert.False(t, cfg.Accounts[1].IsOwned())
	assert.Equal(t, "TWD", cfg.BaseCurrency)
	assert.Equal(t, "test-key", cfg.Etherscan.APIKey)
	assert.Equal(t, int64(1000000), cfg.FromBlock)

	// defaults
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.Equal(t, ".cache", cfg.Cache.Dir)
	assert.Equal(t, "output.bean", cfg.Output)
}

func TestLoad_EnvOverridesAPIKey(t *testing.T) {
	t.Setenv("ETHERSCAN_API_KEY", "env-key")

	cfg, err := config.Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Etherscan.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "no accounts",
			mutate:  func(c *config.Config) { c.Accounts = nil },
			wantErr: "at least one account",
		},
		{
			name:    "account without address",
			mutate:  func(c *config.Config) { c.Accounts[0].Address = "" },
			wantErr: "address is required",
		},
		{
			name:    "missing base currency",
			mutate:  func(c *config.Config) { c.BaseCurrency = "" },
			wantErr: "baseCurrency is required",
		},
		{
			name:    "missing api key",
			mutate:  func(c *config.Config) { c.Etherscan.APIKey = "" },
			wantErr: "etherscan API key",
		},
		{
			name:    "unknown cache backend",
			mutate:  func(c *config.Config) { c.Cache.Backend = "memcached" },
			wantErr: "unknown cache backend",
		},
		{
			name: "redis backend without addr",
			mutate: func(c *config.Config) {
				c.Cache.Backend = "redis"
				c.Cache.Redis.Addr = ""
			},
			wantErr: "cache.redis.addr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load(writeConfig(t, sampleConfig))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
