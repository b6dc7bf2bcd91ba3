package greet

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/perlin-network/greet/conf"
	"github.com/perlin-network/greet/store"
	"github.com/perlin-network/greet/sys"
	"github.com/perlin-network/noise/skademlia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRuntime wires a runtime over an in-memory KV with a freshly
// generated, genesis-funded faucet wallet. Steps are driven manually by
// the tests instead of the apply loop.
type TestRuntime struct {
	t testing.TB

	runtime *Runtime
	kv      store.KV
	cleanup func()

	keys  *skademlia.Keypair
	nonce uint64

	// GenesisSlot is a 4-byte greeting account provisioned at
	// inception, owned by the greeting program.
	GenesisSlot AccountID
}

func NewTestRuntime(t testing.TB) *TestRuntime {
	t.Helper()

	keys, err := skademlia.NewKeys(sys.SKademliaC1, sys.SKademliaC2)
	require.NoError(t, err)

	slot := RandomAccountID(t)
	faucet := keys.PublicKey()

	genesis := fmt.Sprintf(`
{
  "%x": {
    "balance": 10000000000
  },
  "%x": {
    "owner": "greet",
    "data_size": 4
  }
}
`, faucet, slot)

	kv, cleanup := store.NewTestKV(t, "inmem", "db")

	runtime, err := NewRuntime(kv, WithGenesis(genesis))
	require.NoError(t, err)

	tr := &TestRuntime{
		t: t,

		runtime: runtime,
		kv:      kv,
		cleanup: cleanup,

		keys: keys,

		GenesisSlot: slot,
	}

	t.Cleanup(tr.Cleanup)

	return tr
}

func (tr *TestRuntime) Cleanup() {
	if tr.runtime == nil {
		return
	}

	tr.runtime.Close()
	tr.cleanup()
	tr.runtime = nil

	conf.Reset()
}

func (tr *TestRuntime) Runtime() *Runtime {
	return tr.runtime
}

func (tr *TestRuntime) Keys() *skademlia.Keypair {
	return tr.keys
}

func (tr *TestRuntime) Faucet() AccountID {
	return tr.keys.PublicKey()
}

// Apply submits a faucet-signed transaction carrying the given
// instructions and steps the runtime until it leaves the mempool. The
// returned transaction carries the recorded rejection reason, if any.
func (tr *TestRuntime) Apply(instructions ...Instruction) Transaction {
	tr.t.Helper()

	tx := NewTransaction(tr.keys, tr.nonce, instructions...)
	tr.nonce++

	require.NoError(tr.t, tr.runtime.AddTransaction(tx))

	for tr.runtime.TransactionPending(tx.ID) {
		_, err := tr.runtime.Step()
		require.NoError(tr.t, err)
	}

	applied, found := tr.runtime.FindTransaction(tx.ID)
	require.True(tr.t, found, "transaction %x left no record", tx.ID)

	return applied
}

// MustApply is Apply plus the assertion that every instruction
// succeeded.
func (tr *TestRuntime) MustApply(instructions ...Instruction) Transaction {
	tr.t.Helper()

	tx := tr.Apply(instructions...)
	require.NoError(tr.t, tx.Error)

	return tx
}

// CreateGreetingAccount provisions a fresh account owned by the
// greeting program through the system program, funded by the faucet.
func (tr *TestRuntime) CreateGreetingAccount(space uint64, lamports uint64) AccountID {
	tr.t.Helper()

	target := RandomAccountID(tr.t)

	tr.MustApply(Instruction{
		Program: SystemProgramID,
		Accounts: []AccountRef{
			{ID: tr.Faucet(), Writable: true, Signer: true},
			{ID: target, Writable: true},
		},
		Payload: CreateAccount{Space: space, Lamports: lamports, Owner: GreetProgramID}.Marshal(),
	})

	return target
}

// Greet submits one greeting instruction against the target account.
func (tr *TestRuntime) Greet(target AccountID) Transaction {
	tr.t.Helper()

	return tr.Apply(Instruction{
		Program:  GreetProgramID,
		Accounts: []AccountRef{{ID: target, Writable: true}},
	})
}

func (tr *TestRuntime) Counter(target AccountID) uint32 {
	tr.t.Helper()

	counter, err := tr.runtime.GreetingCounter(target)
	require.NoError(tr.t, err)

	return counter
}

// AssertBalance checks an account's committed lamport balance.
func (tr *TestRuntime) AssertBalance(id AccountID, balance uint64) {
	tr.t.Helper()

	account, _ := tr.runtime.ReadAccount(id)
	assert.Equal(tr.t, balance, account.Lamports)
}

func RandomAccountID(t testing.TB) AccountID {
	t.Helper()

	var id AccountID

	_, err := rand.Read(id[:])
	require.NoError(t, err)

	return id
}
