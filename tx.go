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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/perlin-network/greet/log"
	"github.com/perlin-network/greet/sys"
	"github.com/perlin-network/noise/edwards25519"
	"github.com/perlin-network/noise/skademlia"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"
	"golang.org/x/crypto/blake2b"
)

const (
	refFlagWritable = 1 << 0
	refFlagSigner   = 1 << 1
)

// AccountRef names an account an instruction touches, along with how it
// intends to touch it. Writable grants the program the right to have
// its mutations of the account persisted; Signer asserts that the
// account's key signed the enclosing transaction.
type AccountRef struct {
	ID       AccountID `json:"id"`
	Writable bool      `json:"writable"`
	Signer   bool      `json:"signer"`
}

// Instruction is one program invocation: the ID of the program to run,
// the accounts it may look at in the order the program expects them,
// and an opaque payload interpreted by the program alone.
type Instruction struct {
	Program  AccountID    `json:"program"`
	Accounts []AccountRef `json:"accounts"`
	Payload  []byte       `json:"-"`
}

// Transaction bundles instructions executed in order against the same
// state snapshot. Either every instruction succeeds and the state
// mutations commit together, or none of them do.
type Transaction struct {
	ID     TransactionID `json:"id"`     // BLAKE2b(*).
	Sender AccountID     `json:"sender"` // Transaction sender.

	Nonce uint64 `json:"nonce"`

	Instructions []Instruction `json:"instructions"`

	Signature Signature `json:"-"`

	Error error `json:"error,omitempty"`
}

var _ log.Loggable = (*Transaction)(nil)

func NewTransaction(sender *skademlia.Keypair, nonce uint64, instructions ...Instruction) Transaction {
	tx := Transaction{
		Sender:       sender.PublicKey(),
		Nonce:        nonce,
		Instructions: instructions,
	}

	tx.Signature = edwards25519.Sign(sender.PrivateKey(), tx.Message())
	tx.ID = blake2b.Sum256(tx.Marshal())

	return tx
}

func NewSignedTransaction(sender edwards25519.PublicKey, nonce uint64,
	instructions []Instruction, signature edwards25519.Signature) Transaction {

	tx := Transaction{
		Sender:       sender,
		Nonce:        nonce,
		Instructions: instructions,
		Signature:    signature,
	}

	tx.ID = blake2b.Sum256(tx.Marshal())

	return tx
}

// Message returns the exact bytes covered by the transaction signature:
// everything except the sender and the signature itself. The sender is
// bound to the message by verifying the signature against its key.
func (tx Transaction) Message() []byte {
	w := bytes.NewBuffer(make([]byte, 0, 8+1+64*len(tx.Instructions)))

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:8], tx.Nonce)
	w.Write(buf[:8])

	w.WriteByte(byte(len(tx.Instructions)))

	for _, ins := range tx.Instructions {
		ins.writeTo(w)
	}

	return w.Bytes()
}

func (ins Instruction) writeTo(w *bytes.Buffer) {
	w.Write(ins.Program[:])

	w.WriteByte(byte(len(ins.Accounts)))

	for _, ref := range ins.Accounts {
		w.Write(ref.ID[:])

		var flags byte

		if ref.Writable {
			flags |= refFlagWritable
		}

		if ref.Signer {
			flags |= refFlagSigner
		}

		w.WriteByte(flags)
	}

	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:4], uint32(len(ins.Payload)))
	w.Write(buf[:4])

	w.Write(ins.Payload)
}

func (tx Transaction) Marshal() []byte {
	message := tx.Message()

	w := bytes.NewBuffer(make([]byte, 0, SizeAccountID+len(message)+SizeSignature))

	w.Write(tx.Sender[:])
	w.Write(message)
	w.Write(tx.Signature[:])

	return w.Bytes()
}

func (tx *Transaction) Unmarshal(r io.Reader) error {
	if _, err := io.ReadFull(r, tx.Sender[:]); err != nil {
		return errors.Wrap(err, "failed to decode transaction sender")
	}

	var buf [8]byte

	if _, err := io.ReadFull(r, buf[:8]); err != nil {
		return errors.Wrap(err, "failed to read nonce")
	}

	tx.Nonce = binary.BigEndian.Uint64(buf[:8])

	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return errors.Wrap(err, "failed to read instruction count")
	}

	count := int(buf[0])

	if count > sys.MaxInstructionsPerTransaction {
		return errors.Errorf("got %d instructions, but a transaction may only carry %d",
			count, sys.MaxInstructionsPerTransaction)
	}

	tx.Instructions = make([]Instruction, count)

	for i := range tx.Instructions {
		if err := tx.Instructions[i].readFrom(r); err != nil {
			return errors.Wrapf(err, "failed to decode instruction %d", i)
		}
	}

	if _, err := io.ReadFull(r, tx.Signature[:]); err != nil {
		return errors.Wrap(err, "failed to decode signature")
	}

	tx.ID = blake2b.Sum256(tx.Marshal())

	return nil
}

func (ins *Instruction) readFrom(r io.Reader) error {
	if _, err := io.ReadFull(r, ins.Program[:]); err != nil {
		return errors.Wrap(err, "could not read program id")
	}

	var buf [4]byte

	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return errors.Wrap(err, "could not read account ref count")
	}

	count := int(buf[0])

	if count > sys.MaxAccountRefsPerInstruction {
		return errors.Errorf("got %d account refs, but an instruction may only carry %d",
			count, sys.MaxAccountRefsPerInstruction)
	}

	ins.Accounts = make([]AccountRef, count)

	for i := range ins.Accounts {
		if _, err := io.ReadFull(r, ins.Accounts[i].ID[:]); err != nil {
			return errors.Wrapf(err, "could not read account ref %d", i)
		}

		if _, err := io.ReadFull(r, buf[:1]); err != nil {
			return errors.Wrapf(err, "could not read flags of account ref %d", i)
		}

		ins.Accounts[i].Writable = buf[0]&refFlagWritable != 0
		ins.Accounts[i].Signer = buf[0]&refFlagSigner != 0
	}

	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return errors.Wrap(err, "could not read payload length")
	}

	size := binary.BigEndian.Uint32(buf[:4])

	if int(size) > sys.MaxTransactionSize {
		return errors.Errorf("payload of %d byte(s) exceeds the max transaction size", size)
	}

	ins.Payload = make([]byte, size)

	if _, err := io.ReadFull(r, ins.Payload); err != nil {
		return errors.Wrap(err, "could not read payload")
	}

	return nil
}

func UnmarshalTransaction(r io.Reader) (Transaction, error) {
	var tx Transaction
	return tx, tx.Unmarshal(r)
}

func (tx Transaction) VerifySignature() bool {
	return edwards25519.Verify(tx.Sender, tx.Message(), tx.Signature)
}

func (tx *Transaction) MarshalEvent(ev *zerolog.Event) {
	if tx.Error != nil {
		ev.Err(tx.Error)
	}

	ev.Hex("tx_id", tx.ID[:])
	ev.Hex("sender_id", tx.Sender[:])
	ev.Uint64("nonce", tx.Nonce)
	ev.Int("instructions", len(tx.Instructions))
	ev.Msg("Transaction")
}

func (tx *Transaction) UnmarshalValue(v *fastjson.Value) error {
	if err := log.ValueHex(v, &tx.ID, "tx_id"); err != nil {
		return err
	}

	if err := log.ValueHex(v, &tx.Sender, "sender_id"); err != nil {
		return err
	}

	tx.Nonce = v.GetUint64("nonce")

	if msg := v.GetStringBytes("error"); len(msg) > 0 {
		tx.Error = errors.New(string(msg))
	}

	return nil
}

func (tx Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %x}", tx.ID)
}
