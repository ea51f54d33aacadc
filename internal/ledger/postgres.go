package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

const serializationFailure = "40001"

// Schema creates the world state table used by the Postgres ledger.
const Schema = `CREATE TABLE IF NOT EXISTS world_state (
	key        BYTEA PRIMARY KEY,
	value      BYTEA NOT NULL,
	version    BIGINT NOT NULL DEFAULT 1,
	tx_id      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const (
	selectStateQuery   = `SELECT value, version FROM world_state WHERE key = $1`
	selectVersionQuery = `SELECT version FROM world_state WHERE key = $1`
	scanBoundedQuery   = `SELECT key, value, version FROM world_state WHERE key >= $1 AND key < $2 ORDER BY key`
	scanOpenQuery      = `SELECT key, value, version FROM world_state WHERE key >= $1 ORDER BY key`
	upsertStateQuery   = `INSERT INTO world_state (key, value, version, tx_id, updated_at)
VALUES ($1, $2, 1, $3, $4)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, version = world_state.version + 1, tx_id = EXCLUDED.tx_id, updated_at = EXCLUDED.updated_at`
)

type stateRow struct {
	Key     []byte `db:"key"`
	Value   []byte `db:"value"`
	Version int64  `db:"version"`
}

// Postgres keeps the world state in a single table with a version column per
// key. Commits run at SERIALIZABLE isolation and re-validate the read-set.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the world state table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return storageError(err, "create world state table")
	}
	return nil
}

// Ping reports whether the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Begin opens a transaction reading the latest committed state.
func (p *Postgres) Begin(ctx context.Context, meta TxMeta) (Tx, error) {
	return newTransaction(ctx, p, meta), nil
}

func (p *Postgres) get(ctx context.Context, key string) ([]byte, uint64, error) {
	var row stateRow
	if err := p.db.GetContext(ctx, &row, selectStateQuery, []byte(key)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, storageError(err, fmt.Sprintf("read key %q", key))
	}
	return row.Value, uint64(row.Version), nil
}

func (p *Postgres) scan(ctx context.Context, start, end string) ([]versionedKV, error) {
	return scanRows(ctx, p.db, start, end)
}

func (p *Postgres) apply(ctx context.Context, ws writeSet) (err error) {
	if len(ws.writes) == 0 && len(ws.reads) == 0 && len(ws.ranges) == 0 {
		return nil
	}

	tx, err := p.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return storageError(err, "begin commit")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, key := range ws.sortedReads() {
		var version int64
		if qerr := tx.GetContext(ctx, &version, selectVersionQuery, []byte(key)); qerr != nil && !errors.Is(qerr, sql.ErrNoRows) {
			return translate(qerr, "validate read set")
		}
		if uint64(version) != ws.reads[key] {
			return conflictError("key %q was modified after transaction %s read it", key, ws.txID)
		}
	}

	for _, r := range ws.ranges {
		current, serr := scanRows(ctx, tx, r.start, r.end)
		if serr != nil {
			return translate(serr, "validate range reads")
		}
		if len(current) != len(r.versions) {
			return conflictError("range [%q, %q) changed after transaction %s scanned it", r.start, r.end, ws.txID)
		}
		for _, e := range current {
			if v, ok := r.versions[e.key]; !ok || v != e.version {
				return conflictError("range [%q, %q) changed after transaction %s scanned it", r.start, r.end, ws.txID)
			}
		}
	}

	for _, key := range ws.sortedWrites() {
		if _, xerr := tx.ExecContext(ctx, upsertStateQuery, []byte(key), ws.writes[key], ws.txID, ws.timestamp.UTC()); xerr != nil {
			return translate(xerr, fmt.Sprintf("write key %q", key))
		}
	}

	if cerr := tx.Commit(); cerr != nil {
		return translate(cerr, "commit")
	}
	return nil
}

func scanRows(ctx context.Context, q sqlx.QueryerContext, start, end string) ([]versionedKV, error) {
	var (
		rows []stateRow
		err  error
	)
	if end == "" {
		err = sqlx.SelectContext(ctx, q, &rows, scanOpenQuery, []byte(start))
	} else {
		err = sqlx.SelectContext(ctx, q, &rows, scanBoundedQuery, []byte(start), []byte(end))
	}
	if err != nil {
		return nil, storageError(err, "range scan")
	}
	out := make([]versionedKV, 0, len(rows))
	for _, row := range rows {
		out = append(out, versionedKV{key: string(row.Key), value: row.Value, version: uint64(row.Version)})
	}
	return out, nil
}

// translate maps serialization failures to conflicts and everything else to
// storage errors.
func translate(err error, action string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == serializationFailure {
		return appErrors.Wrap(err, appErrors.ErrStoreConflict.Code, appErrors.ErrStoreConflict.Status, "serialization failure during "+action)
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return storageError(err, action)
}

func storageError(err error, action string) error {
	return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to "+action)
}
