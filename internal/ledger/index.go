package ledger

import "fmt"

// indexMarker is stored as the value of index entries. Fabric treats an
// empty value as a delete, so a single null byte is used instead.
var indexMarker = []byte{0x00}

// Index is a secondary index mapping a partition key to an ordered set of
// primary keys. Entries are composite keys written in the same write-set as
// the primary value they point to.
type Index struct {
	name string
}

// NewIndex returns an index stored under the given composite object type.
func NewIndex(name string) Index {
	return Index{name: name}
}

// Put adds primaryKey to the partition.
func (i Index) Put(ws WorldState, partition, primaryKey string) error {
	key, err := ws.CreateCompositeKey(i.name, []string{partition, primaryKey})
	if err != nil {
		return fmt.Errorf("create %s index key: %w", i.name, err)
	}
	if err := ws.PutState(key, indexMarker); err != nil {
		return fmt.Errorf("put %s index entry: %w", i.name, err)
	}
	return nil
}

// Lookup returns the primary keys of a partition ordered by key. Entries
// that cannot be split are skipped.
func (i Index) Lookup(ws WorldState, partition string) ([]string, error) {
	it, err := ws.GetStateByPartialCompositeKey(i.name, []string{partition})
	if err != nil {
		return nil, fmt.Errorf("scan %s index: %w", i.name, err)
	}
	defer it.Close() //nolint:errcheck

	keys := make([]string, 0)
	for it.HasNext() {
		kv, err := it.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate %s index: %w", i.name, err)
		}
		_, parts, err := ws.SplitCompositeKey(kv.Key)
		if err != nil || len(parts) < 2 {
			continue
		}
		keys = append(keys, parts[1])
	}
	return keys, nil
}
