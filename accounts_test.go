package greet

import (
	"testing"

	"github.com/perlin-network/greet/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountsCommit(t *testing.T) {
	kv, cleanup := store.NewTestKV(t, "inmem", "db")
	defer cleanup()

	accounts := NewAccounts(kv)
	assert.Equal(t, ZeroChecksum, accounts.Checksum())

	var id AccountID
	id[0] = 0x01

	snapshot := accounts.Snapshot()
	snapshot.WriteAccount(id, Account{Owner: SystemProgramID, Lamports: 100})
	snapshot.WriteAccountsLen(1)

	require.NoError(t, accounts.Commit(snapshot))

	assert.NotEqual(t, ZeroChecksum, accounts.Checksum())
	assert.EqualValues(t, 1, accounts.Len())

	account, exists := accounts.Snapshot().ReadAccount(id)
	require.True(t, exists)
	assert.EqualValues(t, 100, account.Lamports)
	assert.Equal(t, SystemProgramID, account.Owner)

	// A new table over the same KV must pick the committed state up.
	reopened := NewAccounts(kv)
	assert.Equal(t, accounts.Checksum(), reopened.Checksum())
	assert.EqualValues(t, 1, reopened.Len())
}

func TestAccountsSnapshotIsolation(t *testing.T) {
	kv, cleanup := store.NewTestKV(t, "inmem", "db")
	defer cleanup()

	accounts := NewAccounts(kv)

	var id AccountID
	id[0] = 0x01

	dirty := accounts.Snapshot()
	dirty.WriteAccount(id, Account{Lamports: 42})

	_, exists := accounts.Snapshot().ReadAccount(id)
	assert.False(t, exists)

	require.NoError(t, accounts.Commit(dirty))

	_, exists = accounts.Snapshot().ReadAccount(id)
	assert.True(t, exists)
}

func TestAccountsRejectStaleSnapshot(t *testing.T) {
	kv, cleanup := store.NewTestKV(t, "inmem", "db")
	defer cleanup()

	accounts := NewAccounts(kv)

	var id AccountID
	id[0] = 0x01

	first := accounts.Snapshot()
	second := accounts.Snapshot()

	first.WriteAccount(id, Account{Lamports: 1})
	require.NoError(t, accounts.Commit(first))

	second.WriteAccount(id, Account{Lamports: 2})

	err := accounts.Commit(second)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "stale snapshot")
}

func TestAccountsEmptyCommitKeepsChecksum(t *testing.T) {
	kv, cleanup := store.NewTestKV(t, "inmem", "db")
	defer cleanup()

	accounts := NewAccounts(kv)

	var id AccountID
	id[0] = 0x01

	seeded := accounts.Snapshot()
	seeded.WriteAccount(id, Account{Lamports: 7})
	require.NoError(t, accounts.Commit(seeded))

	checksum := accounts.Checksum()

	require.NoError(t, accounts.Commit(accounts.Snapshot()))
	assert.Equal(t, checksum, accounts.Checksum())
}

func TestAccountsChecksumDeterminism(t *testing.T) {
	build := func(reverse bool) Checksum {
		kv, cleanup := store.NewTestKV(t, "inmem", "db")
		defer cleanup()

		var a, b AccountID
		a[0], b[0] = 0x0a, 0x0b

		accounts := NewAccounts(kv)
		snapshot := accounts.Snapshot()

		if reverse {
			snapshot.WriteAccount(b, Account{Lamports: 2})
			snapshot.WriteAccount(a, Account{Lamports: 1})
		} else {
			snapshot.WriteAccount(a, Account{Lamports: 1})
			snapshot.WriteAccount(b, Account{Lamports: 2})
		}

		require.NoError(t, accounts.Commit(snapshot))

		return accounts.Checksum()
	}

	assert.Equal(t, build(false), build(true))
}
