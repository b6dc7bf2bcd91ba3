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
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

const testingGenesis = `
{
  "87fd1a3bcc37f091f9ab737ef07b903a1bb640eee589e75c116a726dcf816dbf": {
    "balance": 10000000000
  },
  "b217da18a4e0a5dd8a4c3e28b197fbbbe292acb8b8a46e9a5b4f8c7e414d2c13": {
    "balance": 10000000000
  },
  "e6a5f8e04fd1c8bd5b71ed04d4a63d6908ba1ef7e2e0f2700b1e2a53bf8413c0": {
    "balance": 10000000000
  },
  "400056ee68a7cc2695222df05ea76875bc27ec6e61e8e62317c336157019c405": {
    "owner": "greet",
    "data_size": 4
  }
}
`

const devnetGenesis = `
{
  "0f569c84d434fb0ca682c733176f7c0c2d853fce04d95ae131d2f9b4124d93d8": {
    "balance": 10000000000
  }
}
`

var defaultGenesis = testingGenesis

func SetGenesisByNetwork(name string) error {
	switch name {
	case "devnet":
		defaultGenesis = devnetGenesis
	case "testing":
		defaultGenesis = testingGenesis
	default:
		return fmt.Errorf("Invalid network: %s", name)
	}

	return nil
}

// performInception loads the data expected to exist at the birth of the
// ledger: the built-in program accounts, plus the accounts a genesis
// .json describes. Each entry maps a hex account ID to either a funded
// wallet ("balance") or a program-owned record ("owner" and "data_size"
// or "data"). The owner may be spelled "system", "greet", or as a hex
// account ID.
//
// Inception only ever runs against a virgin ledger; reopening an
// existing database leaves its state untouched.
func performInception(accounts *Accounts, genesis *string) error {
	if accounts.Checksum() != ZeroChecksum {
		return nil
	}

	var buf []byte

	if genesis != nil {
		buf = []byte(*genesis)
	} else {
		buf = []byte(defaultGenesis)
	}

	snapshot := accounts.Snapshot()

	for _, id := range []AccountID{SystemProgramID, GreetProgramID} {
		snapshot.WriteAccount(id, Account{Owner: SystemProgramID, Executable: true})
	}

	created := uint64(2)

	var p fastjson.Parser

	parsed, err := p.ParseBytes(buf)
	if err != nil {
		return errors.Wrap(err, "genesis is not valid json")
	}

	entries, err := parsed.Object()
	if err != nil {
		return errors.Wrap(err, "genesis must be a json object")
	}

	set := make(map[AccountID]struct{}) // Ensure that there are no duplicate account entries in the JSON.

	entries.Visit(func(key []byte, val *fastjson.Value) {
		if err != nil {
			return
		}

		var fields *fastjson.Object
		var id AccountID
		var n int

		n, err = hex.Decode(id[:], key)

		if n != cap(id) && err == nil {
			err = errors.Errorf("got an invalid account ID: %x", key)
			return
		}

		if err != nil {
			err = errors.Wrapf(err, "got an invalid account ID: %x", key)
			return
		}

		if _, exists := set[id]; exists {
			err = errors.Errorf("found duplicate entries for account ID %x in genesis file", id)
			return
		}

		set[id] = struct{}{}

		fields, err = val.Object()

		if err != nil {
			return
		}

		account := Account{Owner: SystemProgramID}

		fields.Visit(func(key []byte, v *fastjson.Value) {
			if err != nil {
				return
			}

			switch string(key) {
			case "balance":
				account.Lamports, err = v.Uint64()
				if err != nil {
					err = errors.Wrapf(err, "failed to cast type for key %q", key)
					return
				}
			case "owner":
				var raw []byte

				raw, err = v.StringBytes()
				if err != nil {
					err = errors.Wrapf(err, "failed to cast type for key %q", key)
					return
				}

				account.Owner, err = resolveOwner(string(raw))
			case "data_size":
				var size uint64

				size, err = v.Uint64()
				if err != nil {
					err = errors.Wrapf(err, "failed to cast type for key %q", key)
					return
				}

				if uint64(len(account.Data)) < size {
					account.Data = make([]byte, size)
				}
			case "data":
				var raw []byte

				raw, err = v.StringBytes()
				if err != nil {
					err = errors.Wrapf(err, "failed to cast type for key %q", key)
					return
				}

				account.Data = make([]byte, hex.DecodedLen(len(raw)))

				_, err = hex.Decode(account.Data, raw)
				if err != nil {
					err = errors.Wrapf(err, "account %x carries undecodable data", id)
					return
				}
			}
		})

		if err == nil {
			snapshot.WriteAccount(id, account)
			created++
		}
	})

	if err != nil {
		return err
	}

	snapshot.WriteAccountsLen(created)

	return accounts.Commit(snapshot)
}

func resolveOwner(name string) (AccountID, error) {
	switch name {
	case "system":
		return SystemProgramID, nil
	case "greet":
		return GreetProgramID, nil
	}

	var id AccountID

	n, err := hex.Decode(id[:], []byte(name))

	if err != nil {
		return id, errors.Wrapf(err, "got an invalid owner ID: %s", name)
	}

	if n != cap(id) {
		return id, errors.Errorf("got an invalid owner ID: %s", name)
	}

	return id, nil
}
