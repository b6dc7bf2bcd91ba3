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

package gctl

import (
	"encoding/hex"
	"strconv"

	"github.com/perlin-network/greet"
	"github.com/perlin-network/greet/log"
	"github.com/perlin-network/noise/edwards25519"
	"github.com/valyala/fastjson"
)

type txRequest struct {
	tx *greet.Transaction
}

var _ log.MarshalableArena = (*txRequest)(nil)

func (s *txRequest) MarshalArena(arena *fastjson.Arena) ([]byte, error) {
	o := arena.NewObject()

	o.Set("sender", arena.NewString(hex.EncodeToString(s.tx.Sender[:])))
	o.Set("nonce", arena.NewNumberString(strconv.FormatUint(s.tx.Nonce, 10)))
	o.Set("signature", arena.NewString(hex.EncodeToString(s.tx.Signature[:])))

	instructions := arena.NewArray()

	for i, instruction := range s.tx.Instructions {
		ins := arena.NewObject()

		ins.Set("program", arena.NewString(hex.EncodeToString(instruction.Program[:])))

		accounts := arena.NewArray()

		for j, ref := range instruction.Accounts {
			account := arena.NewObject()

			account.Set("id", arena.NewString(hex.EncodeToString(ref.ID[:])))

			if ref.Writable {
				account.Set("writable", arena.NewTrue())
			}

			if ref.Signer {
				account.Set("signer", arena.NewTrue())
			}

			accounts.SetArrayItem(j, account)
		}

		ins.Set("accounts", accounts)

		if len(instruction.Payload) > 0 {
			ins.Set("payload", arena.NewString(hex.EncodeToString(instruction.Payload)))
		}

		instructions.SetArrayItem(i, ins)
	}

	o.Set("instructions", instructions)

	return o.MarshalTo(nil), nil
}

type TxResponse struct {
	ID string `json:"tx_id"`
}

var _ log.UnmarshalableValue = (*TxResponse)(nil)

func (s *TxResponse) UnmarshalValue(v *fastjson.Value) error {
	s.ID = log.ValueString(v, "tx_id")
	return nil
}

type TxStatus struct {
	ID              string `json:"id"`
	Sender          string `json:"sender"`
	Status          string `json:"status"`
	Nonce           uint64 `json:"nonce"`
	NumInstructions int    `json:"num_instructions"`
	Error           string `json:"error"`
}

var _ log.UnmarshalableValue = (*TxStatus)(nil)

func (s *TxStatus) UnmarshalValue(v *fastjson.Value) error {
	s.ID = log.ValueString(v, "id")
	s.Sender = log.ValueString(v, "sender")
	s.Status = log.ValueString(v, "status")
	s.Error = log.ValueString(v, "error")
	s.NumInstructions = v.GetInt("num_instructions")

	nonce, err := log.ValueUint64(v, "nonce")
	if err != nil {
		return err
	}
	s.Nonce = nonce

	return nil
}

// SendTransaction signs the given instructions with the client's key
// and submits them as one transaction.
func (c *Client) SendTransaction(instructions ...greet.Instruction) (*TxResponse, error) {
	nonce := c.nextNonce()

	message := greet.Transaction{
		Sender:       c.PublicKey,
		Nonce:        nonce,
		Instructions: instructions,
	}.Message()

	signature := edwards25519.Sign(c.PrivateKey, message)

	tx := greet.NewSignedTransaction(c.PublicKey, nonce, instructions, signature)

	var res TxResponse

	if err := c.RequestJSON(RouteTxSend, ReqPost, &txRequest{tx: &tx}, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

// GetTransaction queries a single transaction by ID.
func (c *Client) GetTransaction(id greet.TransactionID) (*TxStatus, error) {
	path := RouteTx + "/" + hex.EncodeToString(id[:])

	var res TxStatus

	if err := c.RequestJSON(path, ReqGet, nil, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

// CreateGreetingAccount provisions a fresh account owned by the
// greeting program, funded by the client's account. It returns the ID
// of the created account.
func (c *Client) CreateGreetingAccount(space uint64, lamports uint64) (greet.AccountID, *TxResponse, error) {
	target, err := randomAccountID()
	if err != nil {
		return target, nil, err
	}

	res, err := c.SendTransaction(greet.Instruction{
		Program: greet.SystemProgramID,
		Accounts: []greet.AccountRef{
			{ID: greet.AccountID(c.PublicKey), Writable: true, Signer: true},
			{ID: target, Writable: true},
		},
		Payload: greet.CreateAccount{Space: space, Lamports: lamports, Owner: greet.GreetProgramID}.Marshal(),
	})

	return target, res, err
}

// Greet submits one greeting instruction against the target account.
func (c *Client) Greet(target greet.AccountID) (*TxResponse, error) {
	return c.SendTransaction(greet.Instruction{
		Program:  greet.GreetProgramID,
		Accounts: []greet.AccountRef{{ID: target, Writable: true}},
	})
}

// Pay transfers lamports from the client's account to the recipient.
func (c *Client) Pay(recipient greet.AccountID, amount uint64) (*TxResponse, error) {
	return c.SendTransaction(greet.Instruction{
		Program: greet.SystemProgramID,
		Accounts: []greet.AccountRef{
			{ID: greet.AccountID(c.PublicKey), Writable: true, Signer: true},
			{ID: recipient, Writable: true},
		},
		Payload: greet.Transfer{Amount: amount}.Marshal(),
	})
}
