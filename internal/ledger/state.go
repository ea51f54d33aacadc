// Package ledger defines the world-state contract the transaction handlers
// run against, together with the memory and Postgres implementations used
// outside a Fabric peer.
package ledger

import (
	"context"
	"errors"
	"time"
)

// KV is a single world-state entry returned by range scans.
type KV struct {
	Key   string
	Value []byte
}

// Iterator walks the results of a range or composite-key scan in key order.
type Iterator interface {
	HasNext() bool
	Next() (*KV, error)
	Close() error
}

// WorldState is the key-value view a transaction reads and writes. Reads
// observe committed state only; writes become visible when the enclosing
// transaction commits.
type WorldState interface {
	GetState(key string) ([]byte, error)
	PutState(key string, value []byte) error
	// GetStateByRange scans [startKey, endKey). An empty endKey is unbounded.
	GetStateByRange(startKey, endKey string) (Iterator, error)
	GetStateByPartialCompositeKey(objectType string, attributes []string) (Iterator, error)
	CreateCompositeKey(objectType string, attributes []string) (string, error)
	SplitCompositeKey(compositeKey string) (string, []string, error)
}

// ErrNoIdentity is returned when the caller presented no organizational
// credential.
var ErrNoIdentity = errors.New("caller has no organizational identity")

// Identity resolves who submitted the current transaction.
type Identity interface {
	OrganizationID() (string, error)
	ClientID() (string, error)
}

// Transaction is the per-invocation context handed to every handler.
type Transaction interface {
	WorldState
	TxID() string
	Timestamp() (time.Time, error)
	Identity() Identity
}

// TxMeta carries the values the runtime assigns to a transaction.
type TxMeta struct {
	TxID      string
	Timestamp time.Time
	Caller    Identity
}

// Tx is a transaction opened on a Ledger that the caller must commit or
// roll back.
type Tx interface {
	Transaction
	Commit(ctx context.Context) error
	Rollback()
}

// Ledger opens transactions against a versioned world state.
type Ledger interface {
	Begin(ctx context.Context, meta TxMeta) (Tx, error)
}

// StaticIdentity is an Identity whose values were already authenticated by
// the caller (for example a verified access token).
type StaticIdentity struct {
	Org    string
	Client string
}

// OrganizationID returns the MSP ID or ErrNoIdentity when absent.
func (i StaticIdentity) OrganizationID() (string, error) {
	if i.Org == "" {
		return "", ErrNoIdentity
	}
	return i.Org, nil
}

// ClientID returns the client identifier or ErrNoIdentity when absent.
func (i StaticIdentity) ClientID() (string, error) {
	if i.Client == "" {
		return "", ErrNoIdentity
	}
	return i.Client, nil
}

// Anonymous is the identity of a public caller.
var Anonymous Identity = StaticIdentity{}
