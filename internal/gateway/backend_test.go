package gateway

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-ledger/internal/ledger"
	"github.com/noah-isme/academic-ledger/pkg/config"
)

func ledgerConfig(backend string, fallback bool) *config.Config {
	return &config.Config{Ledger: config.LedgerConfig{Backend: backend, FallbackToMemory: fallback, AutoMigrate: true}}
}

func refuse(config.DatabaseConfig) (*sqlx.DB, error) {
	return nil, errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
}

func TestOpenBackendMemory(t *testing.T) {
	b, err := OpenBackend(context.Background(), ledgerConfig(config.LedgerBackendMemory, false), refuse, nil)
	require.NoError(t, err)
	assert.Equal(t, config.LedgerBackendMemory, b.Name)
	assert.IsType(t, &ledger.Memory{}, b.Ledger)
	assert.NoError(t, b.Ping(context.Background()))
	assert.NoError(t, b.Close())
}

func TestOpenBackendFallsBackWhenPostgresIsDown(t *testing.T) {
	b, err := OpenBackend(context.Background(), ledgerConfig(config.LedgerBackendPostgres, true), refuse, nil)
	require.NoError(t, err)
	assert.Equal(t, config.LedgerBackendMemory, b.Name)

	_, err = OpenBackend(context.Background(), ledgerConfig(config.LedgerBackendPostgres, false), refuse, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestOpenBackendPostgresCreatesSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS world_state").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	connect := func(config.DatabaseConfig) (*sqlx.DB, error) { return sqlx.NewDb(db, "sqlmock"), nil }
	b, err := OpenBackend(context.Background(), ledgerConfig(config.LedgerBackendPostgres, false), connect, nil)
	require.NoError(t, err)
	assert.Equal(t, config.LedgerBackendPostgres, b.Name)
	assert.IsType(t, &ledger.Postgres{}, b.Ledger)
	require.NoError(t, b.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenBackendRejectsUnknownBackend(t *testing.T) {
	_, err := OpenBackend(context.Background(), ledgerConfig("couchdb", true), refuse, nil)
	assert.Error(t, err)
}
