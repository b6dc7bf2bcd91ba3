package greet

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/perlin-network/greet/sys"
	"github.com/pkg/errors"
)

type (
	// CreateAccount provisions a fresh account: it moves Lamports out
	// of the funding account into the new one, allocates Space zeroed
	// bytes of account data, and hands ownership to Owner.
	CreateAccount struct {
		Space    uint64
		Lamports uint64
		Owner    AccountID
	}

	// Transfer moves lamports from the funding account to a recipient.
	Transfer struct {
		Amount uint64
	}

	// Assign hands ownership of a signing account over to a program.
	Assign struct {
		Owner AccountID
	}
)

// ParseCreateAccount parses and performs sanity checks on the payload of a
// create account instruction.
func ParseCreateAccount(payload []byte) (CreateAccount, error) {
	r := bytes.NewReader(payload)
	b := make([]byte, 8)

	var params CreateAccount

	if _, err := io.ReadFull(r, b[:1]); err != nil || b[0] != sys.SysOpCreateAccount {
		return params, errors.Wrap(ErrMalformedPayload, "create_account: bad opcode")
	}

	if _, err := io.ReadFull(r, b[:8]); err != nil {
		return params, errors.Wrap(ErrMalformedPayload, "create_account: failed to decode space")
	}

	params.Space = binary.LittleEndian.Uint64(b)

	if _, err := io.ReadFull(r, b[:8]); err != nil {
		return params, errors.Wrap(ErrMalformedPayload, "create_account: failed to decode amount of lamports to seed")
	}

	params.Lamports = binary.LittleEndian.Uint64(b)

	if _, err := io.ReadFull(r, params.Owner[:]); err != nil {
		return params, errors.Wrap(ErrMalformedPayload, "create_account: failed to decode owner")
	}

	if params.Owner == ZeroAccountID {
		return params, errors.Wrap(ErrMalformedPayload, "create_account: owner must not be the zero account")
	}

	return params, nil
}

// ParseTransfer parses and performs sanity checks on the payload of a
// transfer instruction.
func ParseTransfer(payload []byte) (Transfer, error) {
	var params Transfer

	if len(payload) != 9 {
		return params, errors.Wrap(ErrMalformedPayload, "transfer: payload must be exactly 9 bytes")
	}

	if payload[0] != sys.SysOpTransfer {
		return params, errors.Wrap(ErrMalformedPayload, "transfer: bad opcode")
	}

	params.Amount = binary.LittleEndian.Uint64(payload[1:9])

	if params.Amount == 0 {
		return params, errors.Wrap(ErrMalformedPayload, "transfer: amount must be greater than zero")
	}

	return params, nil
}

// ParseAssign parses and performs sanity checks on the payload of an assign
// instruction.
func ParseAssign(payload []byte) (Assign, error) {
	var params Assign

	if len(payload) != 1+SizeAccountID {
		return params, errors.Wrapf(ErrMalformedPayload, "assign: payload must be exactly %d bytes", 1+SizeAccountID)
	}

	if payload[0] != sys.SysOpAssign {
		return params, errors.Wrap(ErrMalformedPayload, "assign: bad opcode")
	}

	copy(params.Owner[:], payload[1:])

	if params.Owner == ZeroAccountID {
		return params, errors.Wrap(ErrMalformedPayload, "assign: owner must not be the zero account")
	}

	return params, nil
}

func (c CreateAccount) Marshal() []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(sys.SysOpCreateAccount)
	binary.Write(buf, binary.LittleEndian, c.Space)
	binary.Write(buf, binary.LittleEndian, c.Lamports)
	buf.Write(c.Owner[:])
	return buf.Bytes()
}

func (t Transfer) Marshal() []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(sys.SysOpTransfer)
	binary.Write(buf, binary.LittleEndian, t.Amount)
	return buf.Bytes()
}

func (a Assign) Marshal() []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(sys.SysOpAssign)
	buf.Write(a.Owner[:])
	return buf.Bytes()
}
