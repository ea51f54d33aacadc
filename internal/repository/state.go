package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/noah-isme/academic-ledger/internal/ledger"
)

// Key prefixes keep every entity type in its own slice of the keyspace.
const (
	studentPrefix     = "student:"
	recordPrefix      = "record:"
	certificatePrefix = "certificate:"
	auditPrefix       = "audit:"
)

// Secondary indexes maintained alongside the primary writes.
var (
	studentsByDepartment  = ledger.NewIndex("student~department")
	recordsByStudent      = ledger.NewIndex("record~student")
	certificatesByStudent = ledger.NewIndex("certificate~student")
	certificatesByCode    = ledger.NewIndex("certificate~code")
	auditByRecord         = ledger.NewIndex("audit~record")
)

// ErrNotFound is returned when a key holds no value.
var ErrNotFound = errors.New("world state entry not found")

func currentState(ctx context.Context) (ledger.Transaction, error) {
	return ledger.MustFrom(ctx)
}

func exists(ctx context.Context, key string) (bool, error) {
	ws, err := currentState(ctx)
	if err != nil {
		return false, err
	}
	raw, err := ws.GetState(key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	return len(raw) > 0, nil
}

func getJSON(ctx context.Context, key string, dest interface{}) error {
	ws, err := currentState(ctx)
	if err != nil {
		return err
	}
	raw, err := ws.GetState(key)
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if len(raw) == 0 {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func putJSON(ctx context.Context, key string, value interface{}) error {
	ws, err := currentState(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := ws.PutState(key, payload); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func putIndex(ctx context.Context, idx ledger.Index, partition, primaryKey string) error {
	ws, err := currentState(ctx)
	if err != nil {
		return err
	}
	return idx.Put(ws, partition, primaryKey)
}

func lookup(ctx context.Context, idx ledger.Index, partition string) ([]string, error) {
	ws, err := currentState(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Lookup(ws, partition)
}

// scanPrefix returns the raw values of every key under prefix in key order.
func scanPrefix(ctx context.Context, prefix string) ([]*ledger.KV, error) {
	ws, err := currentState(ctx)
	if err != nil {
		return nil, err
	}
	start, end := ledger.PrefixRange(prefix)
	it, err := ws.GetStateByRange(start, end)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", prefix, err)
	}
	defer it.Close() //nolint:errcheck

	entries := make([]*ledger.KV, 0)
	for it.HasNext() {
		kv, err := it.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate %s: %w", prefix, err)
		}
		entries = append(entries, kv)
	}
	return entries, nil
}
