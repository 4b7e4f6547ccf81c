package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/bidwell-group/tender-cli/internal/insight"
	"github.com/bidwell-group/tender-cli/internal/store"
	"github.com/bidwell-group/tender-cli/pkg/anthropic"
	"github.com/bidwell-group/tender-cli/pkg/notion"
)

// initStore opens the store selected by config. Callers own Close and
// run Migrate before first use.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "tender.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("postgres store requires a connection string (TENDER_STORE_DATABASE_URL)")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initInsight builds the LLM summary generator, or nil when no API key is
// configured. Callers treat nil as "skip the summary".
func initInsight() *insight.Generator {
	if cfg.Anthropic.Key == "" {
		return nil
	}
	client := anthropic.NewClient(cfg.Anthropic.Key)
	return insight.New(client, cfg.Anthropic.Model, int64(cfg.Anthropic.MaxTokens))
}

// initNotion builds the assessment publishing client, or nil when the
// token or target database is not configured.
func initNotion() notion.Client {
	if cfg.Notion.Token == "" || cfg.Notion.AssessmentDB == "" {
		return nil
	}
	return notion.NewClient(cfg.Notion.Token)
}
