package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

// versionedKV is a committed entry with the version of its last write.
type versionedKV struct {
	key     string
	value   []byte
	version uint64
}

// rangeRead remembers what a range scan observed so commit can detect
// phantom inserts and deletes.
type rangeRead struct {
	start    string
	end      string
	versions map[string]uint64
}

// writeSet is what a transaction applies atomically at commit.
type writeSet struct {
	txID      string
	timestamp time.Time
	reads     map[string]uint64
	ranges    []rangeRead
	writes    map[string][]byte
}

// sortedWrites returns the write keys in ascending order.
func (w writeSet) sortedWrites() []string {
	keys := make([]string, 0, len(w.writes))
	for k := range w.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedReads returns the read keys in ascending order.
func (w writeSet) sortedReads() []string {
	keys := make([]string, 0, len(w.reads))
	for k := range w.reads {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// versionedStore is the committed state behind a transaction.
type versionedStore interface {
	get(ctx context.Context, key string) ([]byte, uint64, error)
	scan(ctx context.Context, start, end string) ([]versionedKV, error)
	apply(ctx context.Context, ws writeSet) error
}

// transaction implements Tx over any versionedStore with optimistic
// read-set/write-set validation.
type transaction struct {
	ctx   context.Context
	store versionedStore
	meta  TxMeta

	mu     sync.Mutex
	reads  map[string]uint64
	ranges []rangeRead
	writes map[string][]byte
	done   bool
}

func newTransaction(ctx context.Context, store versionedStore, meta TxMeta) *transaction {
	if meta.Caller == nil {
		meta.Caller = Anonymous
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	return &transaction{
		ctx:    ctx,
		store:  store,
		meta:   meta,
		reads:  make(map[string]uint64),
		writes: make(map[string][]byte),
	}
}

func (t *transaction) TxID() string { return t.meta.TxID }

func (t *transaction) Timestamp() (time.Time, error) { return t.meta.Timestamp, nil }

func (t *transaction) Identity() Identity { return t.meta.Caller }

func (t *transaction) GetState(key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("key must not be empty")
	}
	value, version, err := t.store.get(t.ctx, key)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	if _, seen := t.reads[key]; !seen {
		t.reads[key] = version
	}
	t.mu.Unlock()
	return value, nil
}

func (t *transaction) PutState(key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("key must not be empty")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return fmt.Errorf("transaction %s already finished", t.meta.TxID)
	}
	t.writes[key] = append([]byte(nil), value...)
	return nil
}

func (t *transaction) GetStateByRange(startKey, endKey string) (Iterator, error) {
	if startKey == "" {
		startKey = emptyKeySubstitute
	}
	return t.rangeScan(startKey, endKey)
}

func (t *transaction) GetStateByPartialCompositeKey(objectType string, attributes []string) (Iterator, error) {
	start, end, err := PartialCompositeRange(objectType, attributes)
	if err != nil {
		return nil, err
	}
	return t.rangeScan(start, end)
}

func (t *transaction) CreateCompositeKey(objectType string, attributes []string) (string, error) {
	return CreateCompositeKey(objectType, attributes)
}

func (t *transaction) SplitCompositeKey(compositeKey string) (string, []string, error) {
	return SplitCompositeKey(compositeKey)
}

func (t *transaction) rangeScan(start, end string) (Iterator, error) {
	entries, err := t.store.scan(t.ctx, start, end)
	if err != nil {
		return nil, err
	}
	observed := rangeRead{start: start, end: end, versions: make(map[string]uint64, len(entries))}
	kvs := make([]*KV, 0, len(entries))
	for _, e := range entries {
		observed.versions[e.key] = e.version
		kvs = append(kvs, &KV{Key: e.key, Value: e.value})
	}
	t.mu.Lock()
	t.ranges = append(t.ranges, observed)
	t.mu.Unlock()
	return &sliceIterator{items: kvs}, nil
}

// Commit validates the read-set against committed state and applies the
// write-set atomically.
func (t *transaction) Commit(ctx context.Context) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return fmt.Errorf("transaction %s already finished", t.meta.TxID)
	}
	t.done = true
	ws := writeSet{
		txID:      t.meta.TxID,
		timestamp: t.meta.Timestamp,
		reads:     t.reads,
		ranges:    t.ranges,
		writes:    t.writes,
	}
	t.mu.Unlock()
	return t.store.apply(ctx, ws)
}

// Rollback discards the write-set.
func (t *transaction) Rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
	t.writes = map[string][]byte{}
}

func conflictError(format string, args ...interface{}) error {
	return appErrors.Clonef(appErrors.ErrStoreConflict, format, args...)
}

// sliceIterator serves materialised scan results.
type sliceIterator struct {
	items []*KV
	pos   int
}

func (it *sliceIterator) HasNext() bool { return it.pos < len(it.items) }

func (it *sliceIterator) Next() (*KV, error) {
	if it.pos >= len(it.items) {
		return nil, fmt.Errorf("iterator exhausted")
	}
	kv := it.items[it.pos]
	it.pos++
	return kv, nil
}

func (it *sliceIterator) Close() error { return nil }
