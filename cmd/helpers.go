package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/resale-group/backoffice-cli/internal/engine"
	"github.com/resale-group/backoffice-cli/internal/importer"
	"github.com/resale-group/backoffice-cli/internal/store"
	"github.com/resale-group/backoffice-cli/pkg/marketplace"
	"github.com/resale-group/backoffice-cli/pkg/storefront"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "backoffice.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEngine builds the matcher from defaults, overlaid with the rules file
// when one is configured.
func initEngine() (*engine.Engine, error) {
	if cfg.Matching.RulesPath == "" {
		return engine.New(engine.DefaultConfig()), nil
	}
	rules, err := engine.LoadRules(cfg.Matching.RulesPath)
	if err != nil {
		return nil, err
	}
	return engine.New(rules), nil
}

func initStorefront() (storefront.Client, error) {
	if err := cfg.Validate("storefront"); err != nil {
		return nil, err
	}
	opts := []storefront.Option{storefront.WithRateLimit(cfg.Storefront.RateLimit)}
	if cfg.Storefront.BaseURL != "" {
		opts = append(opts, storefront.WithBaseURL(cfg.Storefront.BaseURL))
	}
	return storefront.NewClient(cfg.Storefront.Token, opts...), nil
}

func initMarketplace() (marketplace.Client, error) {
	if err := cfg.Validate("marketplace"); err != nil {
		return nil, err
	}
	opts := []marketplace.Option{marketplace.WithRateLimit(cfg.Marketplace.RateLimit)}
	if cfg.Marketplace.BaseURL != "" {
		opts = append(opts, marketplace.WithBaseURL(cfg.Marketplace.BaseURL))
	}
	return marketplace.NewClient(cfg.Marketplace.Token, opts...), nil
}

// initFTP builds the supplier exchange client. URL presence is checked by
// the exchange command, which also accepts a flag override.
func initFTP() (*importer.FTPClient, error) {
	timeout := time.Duration(cfg.Exchange.TimeoutSecs) * time.Second
	return importer.NewFTPClient(timeout, cfg.Exchange.User, cfg.Exchange.Password), nil
}
