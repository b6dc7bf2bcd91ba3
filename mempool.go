package greet

import (
	"bytes"
	"sync"

	"github.com/google/btree"
	"github.com/perlin-network/greet/conf"
	"github.com/pkg/errors"
	"github.com/willf/bloom"
)

var _ btree.Item = (*MempoolItem)(nil)

// MempoolItem orders pending transactions by sender first and nonce
// second, so that draining the mempool front to back applies every
// sender's transactions in the order their wallet issued them.
type MempoolItem struct {
	sender AccountID
	nonce  uint64
	id     TransactionID
}

func (m MempoolItem) Less(than btree.Item) bool {
	other := than.(MempoolItem)

	if cmp := bytes.Compare(m.sender[:], other.sender[:]); cmp != 0 {
		return cmp < 0
	}

	return m.nonce < other.nonce
}

type Mempool struct {
	transactions map[TransactionID]*Transaction
	pending      *btree.BTree
	applied      *bloom.BloomFilter
	lock         sync.RWMutex
}

func NewMempool() *Mempool {
	return &Mempool{
		transactions: make(map[TransactionID]*Transaction),
		pending:      btree.New(32),
		applied:      bloom.New(conf.GetBloomFilterM(), conf.GetBloomFilterK()),
	}
}

// Add admits a transaction into the mempool. Adding the same
// transaction twice is a no-op; a different transaction reusing a
// pending (sender, nonce) slot is rejected.
func (m *Mempool) Add(tx Transaction) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, exists := m.transactions[tx.ID]; exists {
		return nil
	}

	if len(m.transactions) >= conf.GetMempoolCapacity() {
		return ErrTxQueueFull
	}

	item := MempoolItem{sender: tx.Sender, nonce: tx.Nonce, id: tx.ID}

	if m.pending.Has(item) {
		return errors.Wrapf(ErrInvalidNonce, "sender %x already has nonce %d pending", tx.Sender, tx.Nonce)
	}

	m.transactions[tx.ID] = &tx
	m.pending.ReplaceOrInsert(item)

	return nil
}

func (m *Mempool) Find(id TransactionID) (Transaction, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	tx, exists := m.transactions[id]
	if !exists {
		return Transaction{}, false
	}

	return *tx, true
}

func (m *Mempool) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return len(m.transactions)
}

func (m *Mempool) Ascend(iter func(tx Transaction) bool) {
	m.lock.RLock()
	m.pending.Ascend(func(i btree.Item) bool {
		id := i.(MempoolItem).id
		return iter(*m.transactions[id])
	})
	m.lock.RUnlock()
}

func (m *Mempool) Remove(ids ...TransactionID) {
	m.lock.Lock()

	for _, id := range ids {
		tx, exists := m.transactions[id]
		if !exists {
			continue
		}

		delete(m.transactions, id)
		m.pending.Delete(MempoolItem{sender: tx.Sender, nonce: tx.Nonce})
	}

	m.lock.Unlock()
}

// MarkApplied records that a transaction made it into history. The
// filter may report false positives but never false negatives, so a
// miss lets the runtime skip the history lookup entirely.
func (m *Mempool) MarkApplied(id TransactionID) {
	m.lock.Lock()
	m.applied.Add(id[:])
	m.lock.Unlock()
}

func (m *Mempool) MaybeApplied(id TransactionID) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.applied.Test(id[:])
}
