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
	"bytes"

	"github.com/pkg/errors"
)

// TransactionContext executes one transaction's instructions in order
// against a state snapshot. Referenced accounts are loaded once into
// handles that the instructions' programs mutate freely; only if every
// instruction succeeds do the handles fold back into the snapshot.
// Dropping the context on failure is the whole rollback story.
type TransactionContext struct {
	snapshot *Snapshot
	registry *Registry

	tx *Transaction

	handles   map[AccountID]*AccountHandle
	originals map[AccountID][]byte
	existed   map[AccountID]bool
	order     []AccountID
}

func NewTransactionContext(snapshot *Snapshot, registry *Registry, tx *Transaction) *TransactionContext {
	return &TransactionContext{
		snapshot: snapshot,
		registry: registry,

		tx: tx,

		handles:   make(map[AccountID]*AccountHandle),
		originals: make(map[AccountID][]byte),
		existed:   make(map[AccountID]bool),
	}
}

// Apply runs the transaction. The first failing instruction aborts the
// whole thing and leaves the snapshot untouched.
func (c *TransactionContext) Apply() error {
	pending := AcquireQueue()
	defer ReleaseQueue(pending)

	for i := range c.tx.Instructions {
		pending.PushBack(&c.tx.Instructions[i])
	}

	for num := 0; pending.Len() > 0; num++ {
		ins := pending.PopFront().(*Instruction)

		if err := c.process(ins); err != nil {
			return errors.Wrapf(err, "could not apply instruction %d", num)
		}
	}

	c.commit()

	return nil
}

func (c *TransactionContext) process(ins *Instruction) error {
	entrypoint, err := c.registry.Entrypoint(ins.Program)
	if err != nil {
		return err
	}

	if program, exists := c.snapshot.ReadAccount(ins.Program); !exists || !program.Executable {
		return errors.Wrapf(ErrNotExecutable, "program %x", ins.Program)
	}

	handles := make([]*AccountHandle, len(ins.Accounts))

	for i, ref := range ins.Accounts {
		handles[i] = c.resolve(ref)
	}

	// Snapshot the accounts this instruction referenced read-only, so
	// that a program scribbling on them is caught no matter what an
	// earlier instruction's flags were.
	var frozen map[int][]byte

	for i, ref := range ins.Accounts {
		if ref.Writable {
			continue
		}

		if frozen == nil {
			frozen = make(map[int][]byte)
		}

		frozen[i] = handles[i].account.Marshal()
	}

	if err := entrypoint(ins.Program, handles, ins.Payload); err != nil {
		return err
	}

	for i, before := range frozen {
		if !bytes.Equal(handles[i].account.Marshal(), before) {
			return errors.Wrapf(ErrReadonlyAccount, "account %x was mutated", handles[i].ID())
		}
	}

	return nil
}

// resolve returns the transaction-wide handle for ref's account,
// loading it out of the snapshot on first use. Writability is the
// union of every reference's intent; signer status holds only for the
// sender's own account, since its key produced the one signature the
// transaction carries.
func (c *TransactionContext) resolve(ref AccountRef) *AccountHandle {
	if handle, ok := c.handles[ref.ID]; ok {
		if ref.Writable {
			handle.writable = true
		}

		return handle
	}

	account, exists := c.snapshot.ReadAccount(ref.ID)
	if exists {
		account = account.Clone()
	} else {
		account = Account{Owner: SystemProgramID}
	}

	handle := &AccountHandle{
		id:       ref.ID,
		account:  account,
		writable: ref.Writable,
		signer:   ref.Signer && ref.ID == c.tx.Sender,
		exists:   exists,
	}

	c.handles[ref.ID] = handle
	c.originals[ref.ID] = account.Marshal()
	c.existed[ref.ID] = exists
	c.order = append(c.order, ref.ID)

	return handle
}

func (c *TransactionContext) commit() {
	var created uint64

	for _, id := range c.order {
		handle := c.handles[id]

		if handle.exists && !c.existed[id] {
			created++
		}

		if bytes.Equal(handle.account.Marshal(), c.originals[id]) {
			continue
		}

		c.snapshot.WriteAccount(id, handle.account)
	}

	if created > 0 {
		c.snapshot.WriteAccountsLen(c.snapshot.ReadAccountsLen() + created)
	}
}
