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
	"io"

	"github.com/golang/snappy"
	"github.com/perlin-network/greet/conf"
	"github.com/perlin-network/greet/store"
	"github.com/pkg/errors"
)

var (
	keyAccounts       = [...]byte{0x1}
	keyAccountsLen    = [...]byte{0x2}
	keyLedgerHeight   = [...]byte{0x3}
	keyLedgerChecksum = [...]byte{0x4}

	keyTransactions         = [...]byte{0x5}
	keyTransactionLatestIx  = [...]byte{0x6}
	keyTransactionOldestIx  = [...]byte{0x7}
	keyTransactionHistoryIx = [...]byte{0x8}
)

func ReadAccount(kv store.KV, id AccountID) (Account, bool) {
	buf, err := kv.Get(append(keyAccounts[:], id[:]...))
	if err != nil || len(buf) == 0 {
		return Account{}, false
	}

	account, err := UnmarshalAccount(bytes.NewReader(buf))
	if err != nil {
		return Account{}, false
	}

	return account, true
}

func WriteAccount(batch store.WriteBatch, id AccountID, account Account) error {
	return batch.Put(append(keyAccounts[:], id[:]...), account.Marshal())
}

func ReadAccountsLen(kv store.KV) uint64 {
	buf, err := kv.Get(keyAccountsLen[:])
	if err != nil || len(buf) < 8 {
		return 0
	}

	return binary.BigEndian.Uint64(buf)
}

func WriteAccountsLen(batch store.WriteBatch, size uint64) error {
	var buf [8]byte

	binary.BigEndian.PutUint64(buf[:], size)
	return batch.Put(keyAccountsLen[:], buf[:])
}

func ReadLedgerHeight(kv store.KV) uint64 {
	buf, err := kv.Get(keyLedgerHeight[:])
	if err != nil || len(buf) < 8 {
		return 0
	}

	return binary.BigEndian.Uint64(buf)
}

func WriteLedgerHeight(kv store.KV, height uint64) error {
	var buf [8]byte

	binary.BigEndian.PutUint64(buf[:], height)
	return errors.Wrap(kv.Put(keyLedgerHeight[:], buf[:]), "error storing ledger height")
}

func ReadLedgerChecksum(kv store.KV) Checksum {
	buf, err := kv.Get(keyLedgerChecksum[:])
	if err != nil || len(buf) != SizeChecksum {
		return ZeroChecksum
	}

	var checksum Checksum
	copy(checksum[:], buf)

	return checksum
}

func WriteLedgerChecksum(batch store.WriteBatch, checksum Checksum) error {
	return batch.Put(keyLedgerChecksum[:], checksum[:])
}

// StoreTransaction records an applied or rejected transaction under its ID,
// snappy-compressed, and rotates out the oldest record once the history
// outgrows the configured limit.
func StoreTransaction(kv store.KV, tx *Transaction) error {
	w := new(bytes.Buffer)

	if tx.Error != nil {
		msg := tx.Error.Error()
		if len(msg) > 1<<16-1 {
			msg = msg[:1<<16-1]
		}

		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(len(msg)))

		w.WriteByte(1)
		w.Write(buf[:])
		w.WriteString(msg)
	} else {
		w.WriteByte(0)
	}

	w.Write(tx.Marshal())

	if err := kv.Put(append(keyTransactions[:], tx.ID[:]...), snappy.Encode(nil, w.Bytes())); err != nil {
		return errors.Wrap(err, "error storing transaction")
	}

	latest, oldest := readTransactionBounds(kv)

	if err := kv.Put(transactionHistoryKey(latest), tx.ID[:]); err != nil {
		return errors.Wrap(err, "error storing transaction history index")
	}

	latest++

	for limit := conf.GetTxHistoryLimit(); latest-oldest > limit; oldest++ {
		buf, err := kv.Get(transactionHistoryKey(oldest))
		if err != nil || len(buf) != SizeTransactionID {
			continue
		}

		var evicted TransactionID
		copy(evicted[:], buf)

		if err := kv.Delete(append(keyTransactions[:], evicted[:]...)); err != nil {
			return errors.Wrap(err, "error evicting transaction")
		}

		if err := kv.Delete(transactionHistoryKey(oldest)); err != nil {
			return errors.Wrap(err, "error evicting transaction history index")
		}
	}

	return writeTransactionBounds(kv, latest, oldest)
}

// LoadTransaction looks a stored transaction back up by its ID. A rejected
// transaction comes back with its Error field set to the recorded reason.
func LoadTransaction(kv store.KV, id TransactionID) (Transaction, bool) {
	buf, err := kv.Get(append(keyTransactions[:], id[:]...))
	if err != nil || len(buf) == 0 {
		return Transaction{}, false
	}

	decoded, err := snappy.Decode(nil, buf)
	if err != nil {
		return Transaction{}, false
	}

	r := bytes.NewReader(decoded)

	status, err := r.ReadByte()
	if err != nil {
		return Transaction{}, false
	}

	var reason string

	if status != 0 {
		var lenBuf [2]byte

		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return Transaction{}, false
		}

		msg := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))

		if _, err := io.ReadFull(r, msg); err != nil {
			return Transaction{}, false
		}

		reason = string(msg)
	}

	tx, err := UnmarshalTransaction(r)
	if err != nil {
		return Transaction{}, false
	}

	if status != 0 {
		tx.Error = errors.New(reason)
	}

	return tx, true
}

func transactionHistoryKey(ix uint64) []byte {
	k := make([]byte, len(keyTransactionHistoryIx)+8)
	copy(k, keyTransactionHistoryIx[:])

	binary.BigEndian.PutUint64(k[len(keyTransactionHistoryIx):], ix)

	return k
}

func readTransactionBounds(kv store.KV) (latest, oldest uint64) {
	if buf, err := kv.Get(keyTransactionLatestIx[:]); err == nil && len(buf) == 8 {
		latest = binary.BigEndian.Uint64(buf)
	}

	if buf, err := kv.Get(keyTransactionOldestIx[:]); err == nil && len(buf) == 8 {
		oldest = binary.BigEndian.Uint64(buf)
	}

	return latest, oldest
}

// writeTransactionBounds stores each bound in its own buffer: the KV
// may retain the value slice, so the two writes must not share one.
func writeTransactionBounds(kv store.KV, latest, oldest uint64) error {
	var latestBuf, oldestBuf [8]byte

	binary.BigEndian.PutUint64(latestBuf[:], latest)

	if err := kv.Put(keyTransactionLatestIx[:], latestBuf[:]); err != nil {
		return errors.Wrap(err, "error storing latest transaction index")
	}

	binary.BigEndian.PutUint64(oldestBuf[:], oldest)

	return errors.Wrap(kv.Put(keyTransactionOldestIx[:], oldestBuf[:]), "error storing oldest transaction index")
}
