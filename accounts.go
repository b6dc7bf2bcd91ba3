package greet

import (
	"bytes"
	"sort"
	"sync"

	"github.com/minio/highwayhash"
	"github.com/perlin-network/greet/store"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

var checksumKey = blake2b.Sum256([]byte("greet.ledger.checksum"))

// Accounts is the committed account table. All reads during transaction
// application go through copy-on-write snapshots; Commit folds exactly
// one snapshot's dirty set back into the table through a single KV
// write batch.
type Accounts struct {
	sync.RWMutex

	kv store.KV

	checksum Checksum
	len      uint64
}

func NewAccounts(kv store.KV) *Accounts {
	return &Accounts{
		kv:       kv,
		checksum: ReadLedgerChecksum(kv),
		len:      ReadAccountsLen(kv),
	}
}

// Checksum returns a rolling digest over every account state committed
// so far. Two nodes that applied the same transactions in the same
// order report the same checksum.
func (a *Accounts) Checksum() Checksum {
	a.RLock()
	checksum := a.checksum
	a.RUnlock()

	return checksum
}

func (a *Accounts) Len() uint64 {
	a.RLock()
	size := a.len
	a.RUnlock()

	return size
}

func (a *Accounts) Snapshot() *Snapshot {
	a.RLock()

	snapshot := &Snapshot{
		kv:   a.kv,
		base: a.checksum,
		len:  a.len,

		cache: make(map[AccountID]Account),
		dirty: make(map[AccountID]struct{}),
	}

	a.RUnlock()

	return snapshot
}

// Commit writes a snapshot's dirty accounts, the account count, and the
// advanced checksum in one batch. A snapshot taken before some other
// snapshot committed is stale and gets rejected, so concurrent appliers
// cannot silently clobber each other.
func (a *Accounts) Commit(snapshot *Snapshot) error {
	a.Lock()
	defer a.Unlock()

	if snapshot.base != a.checksum {
		return errors.Errorf("accounts: stale snapshot, committed checksum is %x but the snapshot began at %x",
			a.checksum, snapshot.base)
	}

	ids := snapshot.dirtyIDs()

	batch := a.kv.NewWriteBatch()

	checksum := a.checksum

	if len(ids) > 0 {
		w := new(bytes.Buffer)
		w.Write(checksum[:])

		for _, id := range ids {
			account := snapshot.cache[id]

			if err := WriteAccount(batch, id, account); err != nil {
				return errors.Wrap(err, "accounts: failed to batch account")
			}

			w.Write(id[:])
			w.Write(account.Marshal())
		}

		checksum = highwayhash.Sum128(w.Bytes(), checksumKey[:])
	}

	if err := WriteAccountsLen(batch, snapshot.len); err != nil {
		return errors.Wrap(err, "accounts: failed to batch account count")
	}

	if err := WriteLedgerChecksum(batch, checksum); err != nil {
		return errors.Wrap(err, "accounts: failed to batch checksum")
	}

	if err := a.kv.CommitWriteBatch(batch); err != nil {
		return errors.Wrap(err, "accounts: failed to write")
	}

	a.checksum = checksum
	a.len = snapshot.len

	return nil
}

// Snapshot overlays pending account mutations on top of the committed
// table: reads fall through to the KV store and get cached, writes stay
// in the overlay until the snapshot commits. Dropping a snapshot rolls
// everything in it back.
type Snapshot struct {
	kv store.KV

	base Checksum
	len  uint64

	cache map[AccountID]Account
	dirty map[AccountID]struct{}
}

// ReadAccount returns the account under id as this snapshot sees it.
// The account's data buffer is shared with the snapshot; mutations must
// come back through WriteAccount.
func (s *Snapshot) ReadAccount(id AccountID) (Account, bool) {
	if account, ok := s.cache[id]; ok {
		return account, true
	}

	account, exists := ReadAccount(s.kv, id)
	if exists {
		s.cache[id] = account
	}

	return account, exists
}

func (s *Snapshot) WriteAccount(id AccountID, account Account) {
	s.cache[id] = account
	s.dirty[id] = struct{}{}
}

func (s *Snapshot) ReadAccountNonce(id AccountID) (uint64, bool) {
	account, exists := s.ReadAccount(id)
	if !exists {
		return 0, false
	}

	return account.Nonce, true
}

func (s *Snapshot) ReadAccountsLen() uint64 {
	return s.len
}

func (s *Snapshot) WriteAccountsLen(size uint64) {
	s.len = size
}

// dirtyIDs returns the snapshot's written account IDs in a stable byte
// order, so commits digest identically regardless of write order.
func (s *Snapshot) dirtyIDs() []AccountID {
	ids := make([]AccountID, 0, len(s.dirty))

	for id := range s.dirty {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	return ids
}
