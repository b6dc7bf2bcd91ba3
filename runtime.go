// Copyright (c) 2019 Perlin
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package greet

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/perlin-network/greet/conf"
	"github.com/perlin-network/greet/log"
	"github.com/perlin-network/greet/store"
	"github.com/perlin-network/greet/sys"
	"github.com/pkg/errors"
)

type RuntimeOption func(*runtimeConfig)

type runtimeConfig struct {
	genesis *string
}

// WithGenesis overrides the default genesis the runtime provisions a
// virgin database with.
func WithGenesis(genesis string) RuntimeOption {
	return func(cfg *runtimeConfig) {
		cfg.genesis = &genesis
	}
}

// Runtime is the single-node host that loads native programs and
// schedules signed transactions against the account table. Programs run
// synchronously, one transaction at a time; a transaction either
// commits every account mutation its instructions produced, or none of
// them. The runtime guarantees each invocation exclusive access to its
// referenced account buffers.
type Runtime struct {
	ctx    context.Context
	cancel context.CancelFunc

	kv       store.KV
	accounts *Accounts
	registry *Registry
	mempool  *Mempool
	indexer  *Indexer
	metrics  *Metrics

	height uint64

	applyLock sync.Mutex
}

func NewRuntime(kv store.KV, opts ...RuntimeOption) (*Runtime, error) {
	var cfg runtimeConfig

	for _, opt := range opts {
		opt(&cfg)
	}

	registry := NewRegistry(map[AccountID]Entrypoint{
		SystemProgramID: ProcessSystemInstruction,
		GreetProgramID:  ProcessInstruction,
	})

	accounts := NewAccounts(kv)

	if err := performInception(accounts, cfg.genesis); err != nil {
		return nil, errors.Wrap(err, "runtime: inception failed")
	}

	indexer := NewIndexer()

	err := kv.Iterate(keyAccounts[:], func(key, _ []byte) error {
		if len(key) != len(keyAccounts)+SizeAccountID {
			return nil
		}

		var id AccountID
		copy(id[:], key[len(keyAccounts):])

		indexer.Index(id)

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "runtime: failed to index accounts")
	}

	ctx, cancel := context.WithCancel(context.Background())

	r := &Runtime{
		ctx:    ctx,
		cancel: cancel,

		kv:       kv,
		accounts: accounts,
		registry: registry,
		mempool:  NewMempool(),
		indexer:  indexer,
		metrics:  NewMetrics(ctx),

		height: ReadLedgerHeight(kv),
	}

	return r, nil
}

// Run ticks the apply loop until Close is called. It does not block.
func (r *Runtime) Run() {
	go r.applyLoop(r.ctx)
}

func (r *Runtime) Close() {
	r.cancel()
	r.metrics.Stop()
}

func (r *Runtime) applyLoop(ctx context.Context) {
	logger := log.Node()

	ticker := time.NewTicker(conf.GetApplyInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Step(); err != nil {
				logger.Error().Err(err).Msg("Failed to apply pending transactions.")
			}
		}
	}
}

// AddTransaction validates a transaction and admits it into the
// mempool. Transactions whose nonce is ahead of the sender's stay
// pending until the gap closes; transactions behind it are rejected
// outright.
func (r *Runtime) AddTransaction(tx Transaction) error {
	r.metrics.receivedTX.Mark(1)

	if size := len(tx.Marshal()); size > sys.MaxTransactionSize {
		return errors.Errorf("transaction is %d byte(s), the limit is %d", size, sys.MaxTransactionSize)
	}

	if len(tx.Instructions) == 0 {
		return errors.New("transaction carries no instructions")
	}

	// The history codec cannot express more, so reject at admission
	// rather than store a transaction that can never be loaded back.
	if len(tx.Instructions) > sys.MaxInstructionsPerTransaction {
		return errors.Errorf("transaction carries %d instructions, the limit is %d",
			len(tx.Instructions), sys.MaxInstructionsPerTransaction)
	}

	for i := range tx.Instructions {
		if refs := len(tx.Instructions[i].Accounts); refs > sys.MaxAccountRefsPerInstruction {
			return errors.Errorf("instruction %d carries %d account refs, the limit is %d",
				i, refs, sys.MaxAccountRefsPerInstruction)
		}
	}

	if !tx.VerifySignature() {
		return errors.Wrapf(ErrInvalidSignature, "transaction %x", tx.ID)
	}

	if nonce := r.committedNonce(tx.Sender); tx.Nonce < nonce {
		return errors.Wrapf(ErrInvalidNonce, "got nonce %d, sender %x is at %d", tx.Nonce, tx.Sender, nonce)
	}

	// The filter never reports a processed transaction as new, so most
	// resubmissions skip the history lookup.
	if r.mempool.MaybeApplied(tx.ID) {
		if _, processed := LoadTransaction(r.kv, tx.ID); processed {
			return nil
		}
	}

	if err := r.mempool.Add(tx); err != nil {
		return err
	}

	r.metrics.pendingTX.Update(int64(r.mempool.Len()))

	logger := log.TX("received")
	logger.Debug().
		Hex("tx_id", tx.ID[:]).
		Hex("sender_id", tx.Sender[:]).
		Uint64("nonce", tx.Nonce).
		Msg("Admitted transaction into the mempool.")

	return nil
}

// Step drains one batch of ready transactions from the mempool and
// applies them in (sender, nonce) order. It returns how many
// transactions left the mempool, whether they committed or were
// rejected.
func (r *Runtime) Step() (int, error) {
	r.applyLock.Lock()
	defer r.applyLock.Unlock()

	start := time.Now()
	defer r.metrics.stepLatency.UpdateSince(start)

	batch := make([]Transaction, 0, conf.GetApplyBatchSize())

	r.mempool.Ascend(func(tx Transaction) bool {
		batch = append(batch, tx)
		return len(batch) < cap(batch)
	})

	var processed int

	for i := range batch {
		tx := batch[i]

		nonce := r.committedNonce(tx.Sender)

		if tx.Nonce > nonce {
			continue
		}

		r.mempool.Remove(tx.ID)
		processed++

		if tx.Nonce < nonce {
			tx.Error = errors.Wrapf(ErrInvalidNonce, "got nonce %d, sender is at %d", tx.Nonce, nonce)
			r.reject(&tx)

			continue
		}

		if err := r.apply(&tx); err != nil {
			return processed, err
		}
	}

	r.metrics.pendingTX.Update(int64(r.mempool.Len()))
	r.metrics.height.Update(int64(r.Height()))

	return processed, nil
}

// apply runs one transaction whose nonce matches its sender's. The
// sender's nonce advances whether or not the programs succeed, so a
// failed transaction can never be replayed.
func (r *Runtime) apply(tx *Transaction) error {
	start := time.Now()
	defer r.metrics.applyLatency.UpdateSince(start)

	snapshot := r.accounts.Snapshot()
	r.advanceNonce(snapshot, tx.Sender)

	if err := NewTransactionContext(snapshot, r.registry, tx).Apply(); err != nil {
		rejected := r.accounts.Snapshot()
		r.advanceNonce(rejected, tx.Sender)

		if err := r.accounts.Commit(rejected); err != nil {
			return errors.Wrap(err, "failed to commit nonce of rejected transaction")
		}

		r.indexer.Index(tx.Sender)

		tx.Error = err
		r.reject(tx)

		return nil
	}

	dirty := snapshot.dirtyIDs()

	if err := r.accounts.Commit(snapshot); err != nil {
		return errors.Wrap(err, "failed to commit transaction state")
	}

	for _, id := range dirty {
		r.indexer.Index(id)
	}

	height := atomic.AddUint64(&r.height, 1)

	if err := WriteLedgerHeight(r.kv, height); err != nil {
		return err
	}

	if err := StoreTransaction(r.kv, tx); err != nil {
		return err
	}

	r.mempool.MarkApplied(tx.ID)
	r.metrics.appliedTX.Mark(1)

	for i := range tx.Instructions {
		if tx.Instructions[i].Program == GreetProgramID {
			r.metrics.greetings.Mark(1)
		}
	}

	logger := log.TX("applied")
	log.Info(&logger, tx)

	return nil
}

func (r *Runtime) reject(tx *Transaction) {
	logger := log.TX("rejected")

	if err := StoreTransaction(r.kv, tx); err != nil {
		logger.Error().Err(err).Msg("Failed to record rejected transaction.")
	}

	r.mempool.MarkApplied(tx.ID)
	r.metrics.rejectedTX.Mark(1)

	log.Info(&logger, tx)
}

// advanceNonce bumps the sender's nonce inside the snapshot, creating
// the sender's account on first use.
func (r *Runtime) advanceNonce(snapshot *Snapshot, sender AccountID) {
	account, exists := snapshot.ReadAccount(sender)
	if exists {
		account = account.Clone()
	} else {
		account = Account{Owner: SystemProgramID}
		snapshot.WriteAccountsLen(snapshot.ReadAccountsLen() + 1)
	}

	account.Nonce++
	snapshot.WriteAccount(sender, account)
}

func (r *Runtime) committedNonce(id AccountID) uint64 {
	account, exists := ReadAccount(r.kv, id)
	if !exists {
		return 0
	}

	return account.Nonce
}

func (r *Runtime) Height() uint64 {
	return atomic.LoadUint64(&r.height)
}

func (r *Runtime) Checksum() Checksum {
	return r.accounts.Checksum()
}

func (r *Runtime) NumAccounts() uint64 {
	return r.accounts.Len()
}

func (r *Runtime) PendingLen() int {
	return r.mempool.Len()
}

func (r *Runtime) Programs() []AccountID {
	return r.registry.IDs()
}

func (r *Runtime) Accounts() *Accounts {
	return r.accounts
}

// ReadAccount returns the committed state of an account.
func (r *Runtime) ReadAccount(id AccountID) (Account, bool) {
	return ReadAccount(r.kv, id)
}

// Nonce returns the nonce the account's next transaction must carry.
func (r *Runtime) Nonce(id AccountID) uint64 {
	return r.committedNonce(id)
}

// GreetingCounter decodes the greeting record out of an account owned
// by the greeting program.
func (r *Runtime) GreetingCounter(id AccountID) (uint32, error) {
	account, exists := ReadAccount(r.kv, id)
	if !exists {
		return 0, errors.Wrapf(ErrAccountNotFound, "account %x", id)
	}

	if account.Owner != GreetProgramID {
		return 0, errors.Wrapf(ErrIncorrectOwner, "account %x is owned by %x", id, account.Owner)
	}

	var record GreetingRecord

	if err := record.Unmarshal(account.Data); err != nil {
		return 0, err
	}

	return record.Counter, nil
}

// FindTransaction looks a transaction up by ID, checking the mempool
// before the applied history. A returned transaction with a non-nil
// Error was rejected.
func (r *Runtime) FindTransaction(id TransactionID) (Transaction, bool) {
	if tx, pending := r.mempool.Find(id); pending {
		return tx, true
	}

	return LoadTransaction(r.kv, id)
}

// TransactionPending reports whether the transaction is still waiting
// in the mempool.
func (r *Runtime) TransactionPending(id TransactionID) bool {
	_, pending := r.mempool.Find(id)
	return pending
}

// FindAccountIDs returns up to count account IDs whose hex form starts
// with the given prefix.
func (r *Runtime) FindAccountIDs(prefix string, count int) []AccountID {
	return r.indexer.Find(prefix, count)
}
