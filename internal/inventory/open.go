package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/stockstage/internal/config"
	"github.com/JonMunkholm/stockstage/internal/core"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Backend is an opened inventory collaborator.
type Backend struct {
	core.InventoryClient
	Name  string
	close func()
}

// Close releases the backend's connections.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open connects the backend selected by inv.Backend.
func Open(ctx context.Context, inv config.InventoryConfig, db config.DatabaseConfig) (*Backend, error) {
	switch strings.ToLower(inv.Backend) {
	case config.BackendHTTP:
		if inv.URL == "" {
			return nil, fmt.Errorf("inventory: http backend needs a URL")
		}
		slog.Info("inventory backend", "backend", config.BackendHTTP, "url", inv.URL)
		return &Backend{InventoryClient: NewHTTPClient(inv.URL, inv.Timeout), Name: config.BackendHTTP}, nil
	case config.BackendSQL, "":
		return openSQL(ctx, db)
	default:
		return nil, fmt.Errorf("inventory: unknown backend %q", inv.Backend)
	}
}

func openSQL(ctx context.Context, cfg config.DatabaseConfig) (*Backend, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("inventory: sql backend needs a database URL")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("inventory: parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("inventory: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("inventory: ping database: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	closeAll := func() {
		_ = db.Close()
		pool.Close()
	}

	store := NewSQLStore(db)
	if cfg.EnsureSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, err
		}
	}

	slog.Info("inventory backend", "backend", config.BackendSQL, "database", databaseName(cfg.URL))
	return &Backend{InventoryClient: store, Name: config.BackendSQL, close: closeAll}, nil
}

// databaseName returns the database path of a URL DSN for logging.
func databaseName(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

var _ core.InventoryClient = (*SQLStore)(nil)
var _ core.InventoryClient = (*HTTPClient)(nil)
