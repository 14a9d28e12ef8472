// Package config loads and validates the run configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Account maps a chain address to a ledger account. Owned accounts
// drive the run: their activity is fetched and interpreted. Known but
// non-owned addresses (merchants, counterparties) only resolve names.
type Account struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Owned   *bool  `yaml:"owned,omitempty"`
}

// IsOwned defaults to true: a configured account is the owner's unless
// said otherwise.
func (a Account) IsOwned() bool {
	return a.Owned == nil || *a.Owned
}

// EtherscanConfig configures the blockchain data source.
type EtherscanConfig struct {
	APIKey string `yaml:"apiKey"`
}

// RedisConfig configures the optional Redis cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// CacheConfig selects where provider responses are persisted.
type CacheConfig struct {
	// Backend is "file" (default) or "redis".
	Backend string      `yaml:"backend,omitempty"`
	Dir     string      `yaml:"dir,omitempty"`
	Redis   RedisConfig `yaml:"redis,omitempty"`
}

// Config is the full run configuration.
type Config struct {
	Accounts       []Account       `yaml:"accounts"`
	BaseCurrency   string          `yaml:"baseCurrency"`
	DefaultExpense string          `yaml:"defaultExpense"`
	DefaultIncome  string          `yaml:"defaultIncome"`
	TxFeeAccount   string          `yaml:"txFeeAccount"`
	PnLAccount     string          `yaml:"pnlAccount"`
	Etherscan      EtherscanConfig `yaml:"etherscan"`
	FromBlock      int64           `yaml:"fromBlock,omitempty"`
	Cache          CacheConfig     `yaml:"cache,omitempty"`
	Output         string          `yaml:"output,omitempty"`

	// FarmingAddresses lists aggregator farming pools to recognize.
	FarmingAddresses []string `yaml:"farmingAddresses,omitempty"`
}

const (
	envEtherscanAPIKey = "ETHERSCAN_API_KEY"

	defaultCacheBackend = "file"
	defaultCacheDir     = ".cache"
	defaultOutput       = "output.bean"
)

// Load reads, validates, and applies defaults to a configuration file.
// The data-source API key may come from the environment instead of the
// file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if key := os.Getenv(envEtherscanAPIKey); key != "" {
		cfg.Etherscan.APIKey = key
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Cache.Backend == "" {
		c.Cache.Backend = defaultCacheBackend
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = defaultCacheDir
	}
	if c.Output == "" {
		c.Output = defaultOutput
	}
}

// Validate checks the configuration is complete enough to run.
func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("at least one account is required")
	}
	for i, account := range c.Accounts {
		if account.Name == "" {
			return fmt.Errorf("account %d: name is required", i)
		}
		if account.Address == "" {
			return fmt.Errorf("account %q: address is required", account.Name)
		}
	}
	if c.BaseCurrency == "" {
		return fmt.Errorf("baseCurrency is required")
	}
	if c.DefaultExpense == "" {
		return fmt.Errorf("defaultExpense is required")
	}
	if c.DefaultIncome == "" {
		return fmt.Errorf("defaultIncome is required")
	}
	if c.TxFeeAccount == "" {
		return fmt.Errorf("txFeeAccount is required")
	}
	if c.PnLAccount == "" {
		return fmt.Errorf("pnlAccount is required")
	}
	if c.Etherscan.APIKey == "" {
		return fmt.Errorf("etherscan API key is required (config or %s)", envEtherscanAPIKey)
	}
	switch c.Cache.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for the redis backend")
	}
	return nil
}
