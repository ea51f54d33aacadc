package gateway

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-ledger/internal/ledger"
	"github.com/noah-isme/academic-ledger/pkg/config"
)

// Connector opens the Postgres pool backing the world state.
type Connector func(cfg config.DatabaseConfig) (*sqlx.DB, error)

// Backend is an opened world state together with how to release it.
type Backend struct {
	Ledger ledger.Ledger
	Name   string
	db     *sqlx.DB
}

// Close releases the database pool, if any.
func (b *Backend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Ping reports whether the backing store is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if pg, ok := b.Ledger.(*ledger.Postgres); ok {
		return pg.Ping(ctx)
	}
	return nil
}

// OpenBackend selects the ledger configured for the gateway. When Postgres
// cannot be reached and fallback is enabled, the process keeps serving from
// an in-memory ledger that is lost on restart.
func OpenBackend(ctx context.Context, cfg *config.Config, connect Connector, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Ledger.Backend == config.LedgerBackendMemory {
		logger.Info("using in-memory ledger")
		return &Backend{Ledger: ledger.NewMemory(), Name: config.LedgerBackendMemory}, nil
	}
	if cfg.Ledger.Backend != config.LedgerBackendPostgres {
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}

	db, err := connect(cfg.Database)
	if err == nil {
		pg := ledger.NewPostgres(db)
		if cfg.Ledger.AutoMigrate {
			err = pg.EnsureSchema(ctx)
		}
		if err == nil {
			return &Backend{Ledger: pg, Name: config.LedgerBackendPostgres, db: db}, nil
		}
		_ = db.Close()
	}

	if !cfg.Ledger.FallbackToMemory {
		return nil, fmt.Errorf("open postgres ledger: %w", err)
	}
	logger.Warn("postgres ledger unavailable, falling back to in-memory ledger", zap.Error(err))
	return &Backend{Ledger: ledger.NewMemory(), Name: config.LedgerBackendMemory}, nil
}
