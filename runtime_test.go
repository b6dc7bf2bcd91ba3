package greet

import (
	"fmt"
	"testing"

	"github.com/perlin-network/greet/store"
	"github.com/perlin-network/greet/sys"
	"github.com/perlin-network/noise/skademlia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeGreetSequence(t *testing.T) {
	tr := NewTestRuntime(t)

	target := tr.CreateGreetingAccount(4, 1)

	const n = 5

	for i := 0; i < n; i++ {
		tx := tr.Greet(target)
		assert.NoError(t, tx.Error)
	}

	assert.Equal(t, uint32(n), tr.Counter(target))

	// One create plus n greets.
	assert.Equal(t, uint64(n+1), tr.Runtime().Height())
	assert.Equal(t, uint64(n+1), tr.Runtime().Nonce(tr.Faucet()))
}

func TestRuntimeGreetGenesisSlot(t *testing.T) {
	tr := NewTestRuntime(t)

	account, exists := tr.Runtime().ReadAccount(tr.GenesisSlot)
	require.True(t, exists)
	assert.Equal(t, []byte{0, 0, 0, 0}, account.Data)

	require.NoError(t, tr.Greet(tr.GenesisSlot).Error)

	account, _ = tr.Runtime().ReadAccount(tr.GenesisSlot)
	assert.Equal(t, []byte{1, 0, 0, 0}, account.Data)

	require.NoError(t, tr.Greet(tr.GenesisSlot).Error)

	account, _ = tr.Runtime().ReadAccount(tr.GenesisSlot)
	assert.Equal(t, []byte{2, 0, 0, 0}, account.Data)
}

func TestRuntimeRejectsWrongOwner(t *testing.T) {
	tr := NewTestRuntime(t)

	// A 4-byte account owned by the system program, not the greeting
	// program.
	target := RandomAccountID(t)

	tr.MustApply(Instruction{
		Program: SystemProgramID,
		Accounts: []AccountRef{
			{ID: tr.Faucet(), Writable: true, Signer: true},
			{ID: target, Writable: true},
		},
		Payload: CreateAccount{Space: 4, Lamports: 1, Owner: SystemProgramID}.Marshal(),
	})

	tx := tr.Greet(target)

	require.Error(t, tx.Error)
	assert.Contains(t, tx.Error.Error(), ErrIncorrectOwner.Error())

	account, _ := tr.Runtime().ReadAccount(target)
	assert.Equal(t, []byte{0, 0, 0, 0}, account.Data)
}

func TestRuntimeRejectsShortBuffer(t *testing.T) {
	tr := NewTestRuntime(t)

	target := tr.CreateGreetingAccount(2, 1)

	tx := tr.Greet(target)

	require.Error(t, tx.Error)
	assert.Contains(t, tx.Error.Error(), ErrMalformedRecord.Error())

	account, _ := tr.Runtime().ReadAccount(target)
	assert.Equal(t, []byte{0, 0}, account.Data)
}

func TestRuntimeRejectionAdvancesNonce(t *testing.T) {
	tr := NewTestRuntime(t)

	tx := tr.Greet(tr.Faucet())
	require.Error(t, tx.Error)

	assert.Equal(t, uint64(1), tr.Runtime().Nonce(tr.Faucet()))

	// Replaying the rejected transaction is impossible: its nonce is
	// now behind the sender's.
	err := tr.Runtime().AddTransaction(tx)
	require.Error(t, err)
}

func TestRuntimeHoldsFutureNonces(t *testing.T) {
	tr := NewTestRuntime(t)

	ins := Instruction{
		Program:  GreetProgramID,
		Accounts: []AccountRef{{ID: tr.GenesisSlot, Writable: true}},
	}

	ahead := NewTransaction(tr.keys, 5, ins)
	require.NoError(t, tr.Runtime().AddTransaction(ahead))

	processed, err := tr.Runtime().Step()
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.True(t, tr.Runtime().TransactionPending(ahead.ID))

	// Close the gap; the held transaction applies in order behind it.
	for nonce := uint64(0); nonce < 5; nonce++ {
		require.NoError(t, tr.Runtime().AddTransaction(NewTransaction(tr.keys, nonce, ins)))
	}

	for tr.Runtime().TransactionPending(ahead.ID) {
		_, err := tr.Runtime().Step()
		require.NoError(t, err)
	}

	assert.Equal(t, uint32(6), tr.Counter(tr.GenesisSlot))
	assert.Equal(t, uint64(6), tr.Runtime().Nonce(tr.Faucet()))
}

func TestRuntimeRejectsBadSignature(t *testing.T) {
	tr := NewTestRuntime(t)

	tx := NewTransaction(tr.keys, 0, Instruction{
		Program:  GreetProgramID,
		Accounts: []AccountRef{{ID: tr.GenesisSlot, Writable: true}},
	})

	tx.Signature[0] ^= 0xff

	err := tr.Runtime().AddTransaction(tx)
	require.Error(t, err)
}

func TestRuntimeGreetingsMeter(t *testing.T) {
	tr := NewTestRuntime(t)

	require.NoError(t, tr.Greet(tr.GenesisSlot).Error)
	require.NoError(t, tr.Greet(tr.GenesisSlot).Error)

	// A greet that the program rejects leaves the meter untouched.
	require.Error(t, tr.Greet(tr.Faucet()).Error)

	assert.Equal(t, int64(2), tr.Runtime().metrics.greetings.Count())
}

func TestRuntimeRejectsOversizedInstructionList(t *testing.T) {
	tr := NewTestRuntime(t)

	greet := Instruction{
		Program:  GreetProgramID,
		Accounts: []AccountRef{{ID: tr.GenesisSlot, Writable: true}},
	}

	instructions := make([]Instruction, sys.MaxInstructionsPerTransaction+1)
	for i := range instructions {
		instructions[i] = greet
	}

	tx := NewTransaction(tr.keys, 0, instructions...)

	err := tr.Runtime().AddTransaction(tx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instructions")

	// Admission refused it outright: nothing pending, nothing on disk.
	assert.Zero(t, tr.Runtime().PendingLen())
	_, found := tr.Runtime().FindTransaction(tx.ID)
	assert.False(t, found)
}

func TestRuntimeRejectsOversizedAccountRefs(t *testing.T) {
	tr := NewTestRuntime(t)

	refs := make([]AccountRef, sys.MaxAccountRefsPerInstruction+1)
	for i := range refs {
		refs[i] = AccountRef{ID: RandomAccountID(t)}
	}

	tx := NewTransaction(tr.keys, 0, Instruction{Program: GreetProgramID, Accounts: refs})

	err := tr.Runtime().AddTransaction(tx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account refs")
	assert.Zero(t, tr.Runtime().PendingLen())
}

func TestRuntimeTransferAndBalances(t *testing.T) {
	tr := NewTestRuntime(t)

	recipient := RandomAccountID(t)

	tr.MustApply(Instruction{
		Program: SystemProgramID,
		Accounts: []AccountRef{
			{ID: tr.Faucet(), Writable: true, Signer: true},
			{ID: recipient, Writable: true},
		},
		Payload: Transfer{Amount: 1337}.Marshal(),
	})

	tr.AssertBalance(recipient, 1337)
	tr.AssertBalance(tr.Faucet(), 10000000000-1337)
}

func TestRuntimeTransactionHistory(t *testing.T) {
	tr := NewTestRuntime(t)

	applied := tr.Greet(tr.GenesisSlot)
	require.NoError(t, applied.Error)

	rejected := tr.Greet(tr.Faucet())
	require.Error(t, rejected.Error)

	tx, found := tr.Runtime().FindTransaction(applied.ID)
	require.True(t, found)
	assert.NoError(t, tx.Error)

	tx, found = tr.Runtime().FindTransaction(rejected.ID)
	require.True(t, found)
	assert.Error(t, tx.Error)

	_, found = tr.Runtime().FindTransaction(TransactionID{})
	assert.False(t, found)
}

func TestRuntimeReopenKeepsState(t *testing.T) {
	kv, cleanup := store.NewTestKV(t, "inmem", "db")
	defer cleanup()

	keys, err := skademlia.NewKeys(1, 1)
	require.NoError(t, err)

	slot := RandomAccountID(t)

	genesis := fmt.Sprintf(`{"%x": {"balance": 1000}, "%x": {"owner": "greet", "data_size": 4}}`,
		keys.PublicKey(), slot)

	first, err := NewRuntime(kv, WithGenesis(genesis))
	require.NoError(t, err)

	tx := NewTransaction(keys, 0, Instruction{
		Program:  GreetProgramID,
		Accounts: []AccountRef{{ID: slot, Writable: true}},
	})

	require.NoError(t, first.AddTransaction(tx))

	for first.TransactionPending(tx.ID) {
		_, err := first.Step()
		require.NoError(t, err)
	}

	first.Close()

	// Reopening a non-virgin database must leave its state untouched
	// and reseed the account index from disk.
	reopened, err := NewRuntime(kv)
	require.NoError(t, err)
	defer reopened.Close()

	counter, err := reopened.GreetingCounter(slot)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), counter)

	assert.Equal(t, uint64(1), reopened.Height())
	assert.NotEmpty(t, reopened.FindAccountIDs("", 10))
}
