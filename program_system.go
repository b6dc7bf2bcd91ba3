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
	"github.com/perlin-network/greet/conf"
	"github.com/perlin-network/greet/log"
	"github.com/perlin-network/greet/sys"
	"github.com/pkg/errors"
)

// ProcessSystemInstruction is the system program's entrypoint. It
// provisions and funds accounts: creating them, moving lamports
// between them, and assigning their ownership to other programs.
//
// The funding account always comes first in accounts, must have signed
// the transaction, and must still be owned by the system program
// itself. Lamports only ever leave an account through its owner.
func ProcessSystemInstruction(programID AccountID, accounts []*AccountHandle, data []byte) error {
	if len(data) == 0 {
		return errors.Wrap(ErrMalformedPayload, "system: payload must start with an opcode")
	}

	if len(accounts) == 0 {
		return errors.Wrap(ErrMissingAccount, "system: expected the funding account first")
	}

	funder := accounts[0]

	if !funder.Signer() {
		return errors.Wrapf(ErrNotSigner, "system: funding account %x", funder.ID())
	}

	if !funder.Writable() {
		return errors.Wrapf(ErrReadonlyAccount, "system: funding account %x", funder.ID())
	}

	if owner := funder.Owner(); owner != programID {
		return errors.Wrapf(ErrIncorrectOwner, "system: funding account %x is owned by %x", funder.ID(), owner)
	}

	switch data[0] {
	case sys.SysOpCreateAccount:
		return applyCreateAccount(funder, accounts, data)
	case sys.SysOpTransfer:
		return applyTransfer(funder, accounts, data)
	case sys.SysOpAssign:
		return applyAssign(funder, data)
	default:
		return errors.Wrapf(ErrMalformedPayload, "system: unknown opcode %d", data[0])
	}
}

func applyCreateAccount(funder *AccountHandle, accounts []*AccountHandle, data []byte) error {
	params, err := ParseCreateAccount(data)
	if err != nil {
		return err
	}

	if len(accounts) < 2 {
		return errors.Wrap(ErrMissingAccount, "create_account: expected the new account second")
	}

	target := accounts[1]

	if target.Exists() {
		return errors.Wrapf(ErrAccountExists, "create_account: %x", target.ID())
	}

	if !target.Writable() {
		return errors.Wrapf(ErrReadonlyAccount, "create_account: new account %x", target.ID())
	}

	if limit := conf.GetMaxAccountDataSize(); params.Space > limit {
		return errors.Wrapf(ErrDataTooLarge, "create_account: requested %d byte(s), limit is %d", params.Space, limit)
	}

	if funder.Lamports() < params.Lamports {
		return errors.Wrapf(ErrInsufficientBalance, "create_account: funder %x has %d lamport(s), needs %d",
			funder.ID(), funder.Lamports(), params.Lamports)
	}

	funder.SetLamports(funder.Lamports() - params.Lamports)

	target.SetLamports(params.Lamports)
	target.SetOwner(params.Owner)
	target.SetData(make([]byte, params.Space))
	target.exists = true

	id := target.ID()

	logger := log.Programs("execute")
	logger.Info().
		Hex("account_id", id[:]).
		Hex("owner", params.Owner[:]).
		Uint64("space", params.Space).
		Uint64("lamports", params.Lamports).
		Msg("Created account.")

	return nil
}

func applyTransfer(funder *AccountHandle, accounts []*AccountHandle, data []byte) error {
	params, err := ParseTransfer(data)
	if err != nil {
		return err
	}

	if len(accounts) < 2 {
		return errors.Wrap(ErrMissingAccount, "transfer: expected the recipient second")
	}

	recipient := accounts[1]

	if !recipient.Writable() {
		return errors.Wrapf(ErrReadonlyAccount, "transfer: recipient %x", recipient.ID())
	}

	if funder.Lamports() < params.Amount {
		return errors.Wrapf(ErrInsufficientBalance, "transfer: %x tried to send %d lamport(s), but only has %d",
			funder.ID(), params.Amount, funder.Lamports())
	}

	funder.SetLamports(funder.Lamports() - params.Amount)
	recipient.SetLamports(recipient.Lamports() + params.Amount)

	return nil
}

func applyAssign(funder *AccountHandle, data []byte) error {
	params, err := ParseAssign(data)
	if err != nil {
		return err
	}

	funder.SetOwner(params.Owner)

	id := funder.ID()

	logger := log.Programs("execute")
	logger.Info().
		Hex("account_id", id[:]).
		Hex("owner", params.Owner[:]).
		Msg("Assigned account to a new owner.")

	return nil
}
