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

package main

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/perlin-network/greet"
	"github.com/urfave/cli"
)

const txSettleTimeout = 5 * time.Second

func (cli *CLI) status(ctx *cli.Context) {
	publicKey := cli.keys.PublicKey()
	checksum := cli.runtime.Checksum()

	account, _ := cli.runtime.ReadAccount(publicKey)

	cli.logger.Info().
		Hex("id", publicKey[:]).
		Uint64("height", cli.runtime.Height()).
		Hex("checksum", checksum[:]).
		Uint64("num_accounts", cli.runtime.NumAccounts()).
		Int("num_tx_pending", cli.runtime.PendingLen()).
		Uint64("balance", account.Lamports).
		Uint64("nonce", cli.runtime.Nonce(publicKey)).
		Msg("Here is the current status of your node.")
}

func (cli *CLI) create(ctx *cli.Context) {
	var cmd = ctx.Args()

	space := uint64(greet.SizeGreetingRecord)

	if len(cmd) > 0 {
		parsed, ok := cli.amount(cmd[0])
		if !ok {
			return
		}

		space = parsed
	}

	var target greet.AccountID

	if _, err := rand.Read(target[:]); err != nil {
		cli.logger.Error().Err(err).
			Msg("Failed to sample an account ID.")
		return
	}

	tx, ok := cli.submit(greet.Instruction{
		Program: greet.SystemProgramID,
		Accounts: []greet.AccountRef{
			{ID: cli.keys.PublicKey(), Writable: true, Signer: true},
			{ID: target, Writable: true},
		},
		Payload: greet.CreateAccount{Space: space, Owner: greet.GreetProgramID}.Marshal(),
	})
	if !ok {
		return
	}

	if tx.Error != nil {
		cli.logger.Error().Err(tx.Error).
			Msg("Failed to create the account.")
		return
	}

	cli.logger.Info().
		Hex("account_id", target[:]).
		Msgf("Success! Your new account is ready to be greeted.")
}

func (cli *CLI) greet(ctx *cli.Context) {
	var cmd = ctx.Args()

	if len(cmd) < 1 {
		cli.logger.Error().
			Msg("Invalid usage: greet <account>")
		return
	}

	target, ok := cli.recipient(cmd[0])
	if !ok {
		return
	}

	tx, ok := cli.submit(greet.Instruction{
		Program:  greet.GreetProgramID,
		Accounts: []greet.AccountRef{{ID: target, Writable: true}},
	})
	if !ok {
		return
	}

	if tx.Error != nil {
		cli.logger.Error().Err(tx.Error).
			Msg("The greeting was rejected.")
		return
	}

	counter, err := cli.runtime.GreetingCounter(target)
	if err != nil {
		cli.logger.Error().Err(err).
			Msg("Failed to read back the greeting counter.")
		return
	}

	cli.logger.Info().
		Uint32("counter", counter).
		Msgf("Success! Your greeting transaction ID: %x", tx.ID)
}

func (cli *CLI) count(ctx *cli.Context) {
	var cmd = ctx.Args()

	if len(cmd) < 1 {
		cli.logger.Error().
			Msg("Invalid usage: count <account>")
		return
	}

	target, ok := cli.recipient(cmd[0])
	if !ok {
		return
	}

	counter, err := cli.runtime.GreetingCounter(target)
	if err != nil {
		cli.logger.Error().Err(err).
			Msg("Failed to read the greeting counter.")
		return
	}

	cli.logger.Info().
		Uint32("counter", counter).
		Msgf("Account %s has been greeted %d time(s).", cmd[0], counter)
}

func (cli *CLI) pay(ctx *cli.Context) {
	var cmd = ctx.Args()

	if len(cmd) < 2 {
		cli.logger.Error().
			Msg("Invalid usage: pay <recipient> <amount>")
		return
	}

	recipient, ok := cli.recipient(cmd[0])
	if !ok {
		return
	}

	amount, ok := cli.amount(cmd[1])
	if !ok {
		return
	}

	tx, ok := cli.submit(greet.Instruction{
		Program: greet.SystemProgramID,
		Accounts: []greet.AccountRef{
			{ID: cli.keys.PublicKey(), Writable: true, Signer: true},
			{ID: recipient, Writable: true},
		},
		Payload: greet.Transfer{Amount: amount}.Marshal(),
	})
	if !ok {
		return
	}

	if tx.Error != nil {
		cli.logger.Error().Err(tx.Error).
			Msg("Failed to pay the recipient.")
		return
	}

	cli.logger.Info().
		Msgf("Success! Your payment transaction ID: %x", tx.ID)
}

func (cli *CLI) find(ctx *cli.Context) {
	var cmd = ctx.Args()

	if len(cmd) < 1 {
		cli.logger.Error().
			Msg("Invalid usage: find <address-prefix>")
		return
	}

	ids := cli.runtime.FindAccountIDs(cmd[0], 10)

	if len(ids) == 0 {
		cli.logger.Error().
			Msgf("No accounts match %q.", cmd[0])
		return
	}

	for _, id := range ids {
		account, _ := cli.runtime.ReadAccount(id)

		cli.logger.Info().
			Hex("owner", account.Owner[:]).
			Uint64("balance", account.Lamports).
			Uint64("nonce", account.Nonce).
			Int("data_len", len(account.Data)).
			Bool("executable", account.Executable).
			Msgf("Account: %x", id)
	}
}

// submit signs the given instructions, hands them to the runtime, and
// blocks until the apply loop picks the transaction up.
func (cli *CLI) submit(instructions ...greet.Instruction) (greet.Transaction, bool) {
	tx := greet.NewTransaction(cli.keys, cli.nonce, instructions...)

	if err := cli.runtime.AddTransaction(tx); err != nil {
		// An externally submitted transaction may have advanced the
		// nonce behind our back.
		cli.nonce = cli.runtime.Nonce(cli.keys.PublicKey())

		cli.logger.Error().Err(err).
			Msg("Your transaction was not accepted into the mempool.")
		return tx, false
	}

	cli.nonce++

	deadline := time.Now().Add(txSettleTimeout)

	for cli.runtime.TransactionPending(tx.ID) {
		if time.Now().After(deadline) {
			cli.logger.Error().
				Msgf("Transaction %x is taking too long to settle.", tx.ID)
			return tx, false
		}

		time.Sleep(10 * time.Millisecond)
	}

	settled, found := cli.runtime.FindTransaction(tx.ID)
	if !found {
		cli.logger.Error().
			Msgf("Transaction %x left no record.", tx.ID)
		return tx, false
	}

	return settled, true
}

func (cli *CLI) recipient(s string) (greet.AccountID, bool) {
	var id greet.AccountID

	buf, err := hex.DecodeString(s)
	if err != nil {
		cli.logger.Error().Err(err).
			Msg("The account address specified is not valid hex.")
		return id, false
	}

	if len(buf) != greet.SizeAccountID {
		cli.logger.Error().Int("length", len(buf)).
			Msg("You have specified an invalid account address.")
		return id, false
	}

	copy(id[:], buf)

	return id, true
}

func (cli *CLI) amount(s string) (uint64, bool) {
	amount, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		cli.logger.Error().Err(err).
			Msg("Failed to convert the amount specified to an uint64.")
		return 0, false
	}

	return amount, true
}
