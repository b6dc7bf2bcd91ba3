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
	"github.com/perlin-network/greet/log"
	"github.com/pkg/errors"
)

// ProcessInstruction is the greeting program's entrypoint. It expects
// the account to be greeted first in accounts, increments the greeting
// counter stored in that account's data, and encodes the record back
// into the same buffer. The instruction payload is reserved and
// ignored.
//
// The runtime guarantees exclusive access to the referenced accounts
// for the duration of the call, and discards every account mutation of
// a transaction whose instructions do not all succeed. The counter
// wraps at the uint32 boundary.
func ProcessInstruction(programID AccountID, accounts []*AccountHandle, data []byte) error {
	logger := log.Programs("execute")

	logger.Info().
		Hex("program_id", programID[:]).
		Msg("Greeting program entrypoint")

	if len(accounts) == 0 {
		return errors.Wrap(ErrMissingAccount, "greet: expected the account to be greeted first")
	}

	target := accounts[0]

	if owner := target.Owner(); owner != programID {
		id := target.ID()

		logger.Info().
			Hex("account_id", id[:]).
			Hex("owner", owner[:]).
			Msg("Greeted account does not have the correct program id.")

		return errors.Wrapf(ErrIncorrectOwner, "greet: account %x is owned by %x", id, owner)
	}

	var record GreetingRecord

	if err := record.Unmarshal(target.Data()); err != nil {
		return err
	}

	record.Counter++

	if err := record.MarshalInto(target.Data()); err != nil {
		return err
	}

	logger.Info().Msgf("Greeted %d time(s)!", record.Counter)

	return nil
}
