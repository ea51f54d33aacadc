package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeKeyRoundTrip(t *testing.T) {
	key, err := CreateCompositeKey("record~student", []string{"STU001", "REC1"})
	require.NoError(t, err)
	assert.Equal(t, "\x00record~student\x00STU001\x00REC1\x00", key)

	objectType, attrs, err := SplitCompositeKey(key)
	require.NoError(t, err)
	assert.Equal(t, "record~student", objectType)
	assert.Equal(t, []string{"STU001", "REC1"}, attrs)
}

func TestCompositeKeyRejectsReservedRunes(t *testing.T) {
	_, err := CreateCompositeKey("audit~record", []string{"bad\x00id"})
	assert.Error(t, err)
	_, err = CreateCompositeKey("audit~record", []string{"bad\U0010FFFF"})
	assert.Error(t, err)
	_, _, err = SplitCompositeKey("student:1")
	assert.Error(t, err)
}

func TestIndexLookupIsPartitionScoped(t *testing.T) {
	mem := NewMemory()
	idx := NewIndex("record~student")
	tx := begin(t, mem, "seed")
	require.NoError(t, idx.Put(tx, "STU001", "REC2"))
	require.NoError(t, idx.Put(tx, "STU001", "REC1"))
	require.NoError(t, idx.Put(tx, "STU0010", "REC9"))
	require.NoError(t, tx.Commit(context.Background()))

	reader := begin(t, mem, "reader")
	keys, err := idx.Lookup(reader, "STU001")
	require.NoError(t, err)
	assert.Equal(t, []string{"REC1", "REC2"}, keys)

	keys, err = idx.Lookup(reader, "nobody")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestIndexEntryValueIsNotEmpty(t *testing.T) {
	mem := NewMemory()
	tx := begin(t, mem, "seed")
	require.NoError(t, NewIndex("student~department").Put(tx, "CSE", "STU001"))
	require.NoError(t, tx.Commit(context.Background()))

	key, _ := CreateCompositeKey("student~department", []string{"CSE", "STU001"})
	value, err := begin(t, mem, "reader").GetState(key)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, value)
}
