package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/redis/go-redis/v9"

	"github.com/yurenju/paisu/internal/infra/cache"
	"github.com/yurenju/paisu/internal/infra/gateway/coingecko"
	"github.com/yurenju/paisu/internal/infra/gateway/etherscan"
	"github.com/yurenju/paisu/internal/ledger"
	"github.com/yurenju/paisu/internal/middleware"
	"github.com/yurenju/paisu/internal/transformer"
	"github.com/yurenju/paisu/pkg/config"
	"github.com/yurenju/paisu/pkg/logger"
)

type exportCmd struct {
	configPath string
	output     string
	env        string
}

func (*exportCmd) Name() string { return "export" }
func (*exportCmd) Synopsis() string {
	return "fetch on-chain activity and export it as a Beancount ledger"
}
func (*exportCmd) Usage() string {
	return `paisu export [-config <path>] [-output <path>]

  Fetches the configured accounts' transactions, interprets them into
  double-entry postings, and writes the resulting ledger file.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "config.yaml", "Path to the configuration file.")
	f.StringVar(&c.output, "output", "", "Output ledger path. Overrides the configured one.")
	f.StringVar(&c.env, "env", "production", "Log format environment (development, production).")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := logger.NewDefault(c.env)

	cfg, err := config.Load(c.configPath)
	if err != nil {
		log.WithError(err).Error("failed to load configuration")
		return subcommands.ExitFailure
	}
	if c.output != "" {
		cfg.Output = c.output
	}

	result, err := c.run(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("export failed")
		return subcommands.ExitFailure
	}

	out, err := os.Create(cfg.Output)
	if err != nil {
		log.WithError(err).Error("failed to create output file")
		return subcommands.ExitFailure
	}
	defer out.Close()

	if err := result.Render(out); err != nil {
		log.WithError(err).Error("failed to write ledger")
		return subcommands.ExitFailure
	}

	log.Info("ledger written",
		"path", cfg.Output,
		"transactions", len(result.Transactions),
		"balances", len(result.Balances),
		"prices", len(result.Prices))
	return subcommands.ExitSuccess
}

func (c *exportCmd) run(ctx context.Context, cfg *config.Config, log *logger.Logger) (*middleware.Result, error) {
	chainStore, priceStore, err := openStores(cfg)
	if err != nil {
		return nil, err
	}

	etherscanClient := etherscan.NewClient(cfg.Etherscan.APIKey, chainStore, log)
	coingeckoClient := coingecko.NewClient(priceStore, log)

	directory := buildDirectory(cfg)
	chain := []middleware.Middleware{
		middleware.NewFee(coingeckoClient, directory),
		middleware.NewApproval(),
		middleware.NewLending(directory),
		middleware.NewUniswap(coingeckoClient, directory),
		middleware.NewOneInch(directory, cfg.FarmingAddresses),
		middleware.NewWrap(coingeckoClient, directory),
		middleware.NewSynthetix(),
		middleware.NewRegular(coingeckoClient, etherscanClient, directory, log),
	}

	t := transformer.New(etherscanClient, directory, chain, cfg.FromBlock, log)
	return t.Run(ctx)
}

func openStores(cfg *config.Config) (cache.Store, cache.Store, error) {
	if cfg.Cache.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		store := cache.NewRedisStore(client)
		return store, store, nil
	}

	chainStore, err := cache.OpenFile(filepath.Join(cfg.Cache.Dir, "etherscan.cache"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open chain response cache: %w", err)
	}
	priceStore, err := cache.OpenFile(filepath.Join(cfg.Cache.Dir, "coingecko.cache"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open price response cache: %w", err)
	}
	return chainStore, priceStore, nil
}

func buildDirectory(cfg *config.Config) *ledger.Directory {
	accounts := make([]ledger.Account, 0, len(cfg.Accounts))
	for _, account := range cfg.Accounts {
		accounts = append(accounts, ledger.Account{
			Name:    account.Name,
			Address: account.Address,
			Owned:   account.IsOwned(),
		})
	}
	return &ledger.Directory{
		Accounts:       accounts,
		DefaultIncome:  cfg.DefaultIncome,
		DefaultExpense: cfg.DefaultExpense,
		FeeAccount:     cfg.TxFeeAccount,
		PnLAccount:     cfg.PnLAccount,
		BaseCurrency:   cfg.BaseCurrency,
	}
}
