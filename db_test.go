package greet

import (
	"testing"

	"github.com/perlin-network/greet/conf"
	"github.com/perlin-network/greet/store"
	"github.com/perlin-network/noise/skademlia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteAccount(t *testing.T) {
	kv, cleanup := store.NewTestKV(t, "inmem", "db")
	defer cleanup()

	var id AccountID
	id[0] = 0x01

	_, exists := ReadAccount(kv, id)
	assert.False(t, exists)

	account := Account{Owner: GreetProgramID, Lamports: 9, Data: []byte{1, 0, 0, 0}}

	batch := kv.NewWriteBatch()
	require.NoError(t, WriteAccount(batch, id, account))
	require.NoError(t, kv.CommitWriteBatch(batch))

	stored, exists := ReadAccount(kv, id)
	require.True(t, exists)
	assert.Equal(t, account, stored)
}

func TestReadWriteLedgerHeight(t *testing.T) {
	kv, cleanup := store.NewTestKV(t, "inmem", "db")
	defer cleanup()

	assert.EqualValues(t, 0, ReadLedgerHeight(kv))

	require.NoError(t, WriteLedgerHeight(kv, 42))
	assert.EqualValues(t, 42, ReadLedgerHeight(kv))
}

func TestStoreLoadTransaction(t *testing.T) {
	kv, cleanup := store.NewTestKV(t, "inmem", "db")
	defer cleanup()

	keys, err := skademlia.NewKeys(1, 1)
	require.NoError(t, err)

	tx := NewTransaction(keys, 0, txTestInstructions()...)

	_, exists := LoadTransaction(kv, tx.ID)
	assert.False(t, exists)

	require.NoError(t, StoreTransaction(kv, &tx))

	stored, exists := LoadTransaction(kv, tx.ID)
	require.True(t, exists)
	assert.Equal(t, tx.ID, stored.ID)
	assert.Equal(t, tx.Instructions, stored.Instructions)
	assert.NoError(t, stored.Error)
}

func TestStoreLoadRejectedTransaction(t *testing.T) {
	kv, cleanup := store.NewTestKV(t, "inmem", "db")
	defer cleanup()

	keys, err := skademlia.NewKeys(1, 1)
	require.NoError(t, err)

	tx := NewTransaction(keys, 3, txTestInstructions()...)
	tx.Error = ErrIncorrectOwner

	require.NoError(t, StoreTransaction(kv, &tx))

	stored, exists := LoadTransaction(kv, tx.ID)
	require.True(t, exists)
	require.Error(t, stored.Error)
	assert.Equal(t, ErrIncorrectOwner.Error(), stored.Error.Error())
}

func TestTransactionHistoryEviction(t *testing.T) {
	defer conf.Reset()
	conf.Update(conf.WithTxHistoryLimit(2))

	kv, cleanup := store.NewTestKV(t, "inmem", "db")
	defer cleanup()

	keys, err := skademlia.NewKeys(1, 1)
	require.NoError(t, err)

	txs := make([]Transaction, 3)

	for i := range txs {
		txs[i] = NewTransaction(keys, uint64(i), txTestInstructions()...)
		require.NoError(t, StoreTransaction(kv, &txs[i]))
	}

	_, exists := LoadTransaction(kv, txs[0].ID)
	assert.False(t, exists)

	for _, tx := range txs[1:] {
		_, exists := LoadTransaction(kv, tx.ID)
		assert.True(t, exists)
	}
}
