package greet

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/perlin-network/greet/log"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"
)

// Account is the persistent state stored under a single AccountID: a
// lamport balance, the ID of the program that owns its data, a raw data
// buffer, and a nonce counting the transactions the account has sent.
type Account struct {
	Owner    AccountID
	Lamports uint64
	Nonce    uint64

	Data       []byte
	Executable bool
}

var _ log.Loggable = (*Account)(nil)

func (a *Account) Marshal() []byte {
	w := bytes.NewBuffer(make([]byte, 0, SizeAccountID+8+8+1+4+len(a.Data)))

	w.Write(a.Owner[:])

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:8], a.Lamports)
	w.Write(buf[:8])

	binary.LittleEndian.PutUint64(buf[:8], a.Nonce)
	w.Write(buf[:8])

	if a.Executable {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}

	binary.LittleEndian.PutUint32(buf[:4], uint32(len(a.Data)))
	w.Write(buf[:4])

	w.Write(a.Data)

	return w.Bytes()
}

func (a *Account) Unmarshal(r io.Reader) error {
	if _, err := io.ReadFull(r, a.Owner[:]); err != nil {
		return errors.Wrap(err, "failed to decode account owner")
	}

	var buf [8]byte

	if _, err := io.ReadFull(r, buf[:8]); err != nil {
		return errors.Wrap(err, "failed to read lamport balance")
	}

	a.Lamports = binary.LittleEndian.Uint64(buf[:8])

	if _, err := io.ReadFull(r, buf[:8]); err != nil {
		return errors.Wrap(err, "failed to read account nonce")
	}

	a.Nonce = binary.LittleEndian.Uint64(buf[:8])

	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return errors.Wrap(err, "failed to read executable flag")
	}

	a.Executable = buf[0] != 0

	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return errors.Wrap(err, "could not read account data length")
	}

	a.Data = make([]byte, binary.LittleEndian.Uint32(buf[:4]))

	if _, err := io.ReadFull(r, a.Data); err != nil {
		return errors.Wrap(err, "could not read account data")
	}

	return nil
}

func UnmarshalAccount(r io.Reader) (Account, error) {
	var a Account
	return a, a.Unmarshal(r)
}

// Clone returns a deep copy whose data buffer shares no memory with the
// original.
func (a *Account) Clone() Account {
	cloned := *a
	cloned.Data = append([]byte(nil), a.Data...)

	return cloned
}

func (a *Account) MarshalEvent(ev *zerolog.Event) {
	ev.Hex("owner", a.Owner[:])
	ev.Uint64("lamports", a.Lamports)
	ev.Uint64("nonce", a.Nonce)
	ev.Bool("executable", a.Executable)
	ev.Hex("data", a.Data)
	ev.Msg("Account")
}

func (a *Account) UnmarshalValue(v *fastjson.Value) error {
	if err := log.ValueHex(v, &a.Owner, "owner"); err != nil {
		return err
	}

	a.Lamports = v.GetUint64("lamports")
	a.Nonce = v.GetUint64("nonce")
	a.Executable = v.GetBool("executable")

	return log.ValueHex(v, &a.Data, "data")
}

// AccountHandle is the view of one referenced account that the runtime
// hands to a program for the duration of a single instruction. The
// runtime guarantees the program exclusive access to the underlying
// buffers for that duration; programs never lock. All mutations stay
// local to the handle until the transaction context commits them.
type AccountHandle struct {
	id AccountID

	account Account

	writable bool
	signer   bool
	exists   bool
}

// NewAccountHandle wraps an existing account the way the transaction
// context presents it to a program.
func NewAccountHandle(id AccountID, account Account, writable, signer bool) *AccountHandle {
	return &AccountHandle{id: id, account: account, writable: writable, signer: signer, exists: true}
}

func (h *AccountHandle) ID() AccountID { return h.id }

func (h *AccountHandle) Owner() AccountID { return h.account.Owner }

func (h *AccountHandle) SetOwner(owner AccountID) { h.account.Owner = owner }

func (h *AccountHandle) Lamports() uint64 { return h.account.Lamports }

func (h *AccountHandle) SetLamports(balance uint64) { h.account.Lamports = balance }

// Data returns the account's data buffer. The slice is shared with the
// handle: programs write records into it in place.
func (h *AccountHandle) Data() []byte { return h.account.Data }

// SetData replaces the account's data buffer outright. Only
// provisioning programs resize buffers; everything else writes in
// place.
func (h *AccountHandle) SetData(data []byte) { h.account.Data = data }

func (h *AccountHandle) Executable() bool { return h.account.Executable }

func (h *AccountHandle) Writable() bool { return h.writable }

func (h *AccountHandle) Signer() bool { return h.signer }

// Exists reports whether the account was present in state when the
// handle was resolved, as opposed to being conjured empty for a
// reference to a yet-unused address.
func (h *AccountHandle) Exists() bool { return h.exists }
