package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
)

func begin(t *testing.T, l Ledger, txID string) Tx {
	t.Helper()
	tx, err := l.Begin(context.Background(), TxMeta{TxID: txID, Timestamp: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	return tx
}

func TestMemoryCommitMakesWritesVisible(t *testing.T) {
	mem := NewMemory()
	tx := begin(t, mem, "tx1")
	require.NoError(t, tx.PutState("student:1", []byte(`{"studentId":"1"}`)))

	// Reads see committed state only.
	value, err := tx.GetState("student:1")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, tx.Commit(context.Background()))

	reader := begin(t, mem, "tx2")
	value, err = reader.GetState("student:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"studentId":"1"}`, string(value))
	assert.Equal(t, uint64(1), mem.Height())
}

func TestMemoryRollbackDiscardsWrites(t *testing.T) {
	mem := NewMemory()
	err := Run(context.Background(), mem, TxMeta{TxID: "tx1"}, func(ctx context.Context) error {
		tx, _ := From(ctx)
		require.NoError(t, tx.PutState("student:1", []byte("a")))
		require.NoError(t, tx.PutState("\x00student~department\x00CSE\x001\x00", indexMarker))
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 0, mem.Len())
	assert.Equal(t, uint64(0), mem.Height())
}

func TestMemoryConflictingWritersOnlyOneCommits(t *testing.T) {
	mem := NewMemory()
	seed := begin(t, mem, "seed")
	require.NoError(t, seed.PutState("certificate:C1", []byte(`{"verificationCount":0}`)))
	require.NoError(t, seed.Commit(context.Background()))

	first := begin(t, mem, "first")
	second := begin(t, mem, "second")
	_, err := first.GetState("certificate:C1")
	require.NoError(t, err)
	_, err = second.GetState("certificate:C1")
	require.NoError(t, err)
	require.NoError(t, first.PutState("certificate:C1", []byte(`{"verificationCount":1}`)))
	require.NoError(t, second.PutState("certificate:C1", []byte(`{"verificationCount":1}`)))

	require.NoError(t, first.Commit(context.Background()))
	err = second.Commit(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.IsRetryable(err))
}

func TestMemoryPhantomInsertFailsRangeValidation(t *testing.T) {
	mem := NewMemory()
	scanner := begin(t, mem, "scanner")
	start, end := PrefixRange("student:")
	it, err := scanner.GetStateByRange(start, end)
	require.NoError(t, err)
	assert.False(t, it.HasNext())
	require.NoError(t, scanner.PutState("summary", []byte("0")))

	writer := begin(t, mem, "writer")
	require.NoError(t, writer.PutState("student:9", []byte("x")))
	require.NoError(t, writer.Commit(context.Background()))

	err = scanner.Commit(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrStoreConflict))
}

func TestMemoryRangeScanOrderAndBounds(t *testing.T) {
	mem := NewMemory()
	tx := begin(t, mem, "seed")
	for _, k := range []string{"student:b", "student:a", "record:a", "student:c"} {
		require.NoError(t, tx.PutState(k, []byte(k)))
	}
	require.NoError(t, tx.Commit(context.Background()))

	reader := begin(t, mem, "reader")
	start, end := PrefixRange("student:")
	it, err := reader.GetStateByRange(start, end)
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for it.HasNext() {
		kv, err := it.Next()
		require.NoError(t, err)
		keys = append(keys, kv.Key)
	}
	assert.Equal(t, []string{"student:a", "student:b", "student:c"}, keys)
	_, err = it.Next()
	assert.Error(t, err)
}

func TestMemoryReadOnlyCommitIsNoop(t *testing.T) {
	mem := NewMemory()
	tx := begin(t, mem, "reader")
	_, err := tx.GetState("missing")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))
	assert.Equal(t, uint64(0), mem.Height())
	assert.Error(t, tx.Commit(context.Background()))
}

func TestTransactionRejectsEmptyKey(t *testing.T) {
	tx := begin(t, NewMemory(), "tx")
	_, err := tx.GetState("")
	assert.Error(t, err)
	assert.Error(t, tx.PutState("", []byte("x")))
}

func TestTransactionDefaultsToAnonymousCaller(t *testing.T) {
	tx := begin(t, NewMemory(), "tx")
	_, err := tx.Identity().OrganizationID()
	assert.ErrorIs(t, err, ErrNoIdentity)
	assert.Equal(t, "tx", tx.TxID())
}
