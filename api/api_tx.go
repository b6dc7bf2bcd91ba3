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

package api

import (
	"encoding/hex"
	"strconv"

	"github.com/perlin-network/greet"
	"github.com/perlin-network/greet/log"
	"github.com/perlin-network/noise/edwards25519"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"
)

type sendTransactionRequest struct {
	sender       edwards25519.PublicKey
	nonce        uint64
	instructions []greet.Instruction
	signature    edwards25519.Signature
}

// bind parses and validates a raw transaction submission.
func (s *sendTransactionRequest) bind(parser *fastjson.Parser, body []byte) error {
	if len(body) == 0 {
		return errors.New("request body is empty")
	}

	v, err := parser.ParseBytes(body)
	if err != nil {
		return errors.Wrap(err, "body is malformed JSON")
	}

	if err := log.ValueHex(v, s.sender[:], "sender"); err != nil {
		return errors.Wrap(err, "could not decode sender")
	}

	s.nonce, err = log.ValueUint64(v, "nonce")
	if err != nil {
		return errors.Wrap(err, "could not decode nonce")
	}

	if err := log.ValueHex(v, s.signature[:], "signature"); err != nil {
		return errors.Wrap(err, "could not decode signature")
	}

	rawInstructions := v.GetArray("instructions")
	if len(rawInstructions) == 0 {
		return errors.New("transaction must carry at least one instruction")
	}

	s.instructions = s.instructions[:0]

	for i, rawInstruction := range rawInstructions {
		var instruction greet.Instruction

		if err := log.ValueHex(rawInstruction, instruction.Program[:], "program"); err != nil {
			return errors.Wrapf(err, "could not decode program of instruction %d", i)
		}

		for j, rawRef := range rawInstruction.GetArray("accounts") {
			var ref greet.AccountRef

			if err := log.ValueHex(rawRef, ref.ID[:], "id"); err != nil {
				return errors.Wrapf(err, "could not decode account %d of instruction %d", j, i)
			}

			ref.Writable = rawRef.GetBool("writable")
			ref.Signer = rawRef.GetBool("signer")

			instruction.Accounts = append(instruction.Accounts, ref)
		}

		if raw := log.ValueString(rawInstruction, "payload"); len(raw) > 0 {
			payload, err := hex.DecodeString(raw)
			if err != nil {
				return errors.Wrapf(err, "could not decode payload of instruction %d", i)
			}

			instruction.Payload = payload
		}

		s.instructions = append(s.instructions, instruction)
	}

	return nil
}

type sendTransactionResponse struct {
	tx *greet.Transaction
}

var _ log.MarshalableArena = (*sendTransactionResponse)(nil)

func (g *Gateway) sendTransaction(ctx *fasthttp.RequestCtx) {
	req := new(sendTransactionRequest)

	parser := g.parserPool.Get()
	defer g.parserPool.Put(parser)

	if err := req.bind(parser, ctx.PostBody()); err != nil {
		g.renderError(ctx, ErrBadRequest(err))
		return
	}

	tx := greet.NewSignedTransaction(req.sender, req.nonce, req.instructions, req.signature)

	if err := g.Runtime.AddTransaction(tx); err != nil {
		switch errors.Cause(err) {
		case greet.ErrInvalidSignature, greet.ErrInvalidNonce:
			g.renderError(ctx, ErrBadRequest(err))
		default:
			g.renderError(ctx, ErrInternal(errors.Wrap(err, "error adding your transaction to the mempool")))
		}

		return
	}

	g.render(ctx, &sendTransactionResponse{tx: &tx})
}

func (s *sendTransactionResponse) MarshalArena(arena *fastjson.Arena) ([]byte, error) {
	if s.tx == nil {
		return nil, errors.New("insufficient parameters were provided")
	}

	o := arena.NewObject()

	o.Set("tx_id", arena.NewString(hex.EncodeToString(s.tx.ID[:])))

	return o.MarshalTo(nil), nil
}

type transaction struct {
	tx     *greet.Transaction
	status string
}

var _ log.MarshalableArena = (*transaction)(nil)

func (g *Gateway) getTransaction(ctx *fasthttp.RequestCtx) {
	param, ok := ctx.UserValue("id").(string)
	if !ok {
		g.renderError(ctx, ErrBadRequest(errors.New("id must be a string")))
		return
	}

	slice, err := hex.DecodeString(param)
	if err != nil {
		g.renderError(ctx, ErrBadRequest(errors.Wrap(err, "transaction ID must be presented as valid hex")))
		return
	}

	if len(slice) != greet.SizeTransactionID {
		g.renderError(ctx, ErrBadRequest(errors.Errorf("transaction ID must be %d bytes long", greet.SizeTransactionID)))
		return
	}

	var id greet.TransactionID
	copy(id[:], slice)

	tx, found := g.Runtime.FindTransaction(id)
	if !found {
		g.renderError(ctx, ErrNotFound(errors.Errorf("could not find transaction with ID %x", id)))
		return
	}

	res := &transaction{tx: &tx}

	switch {
	case g.Runtime.TransactionPending(id):
		res.status = "pending"
	case tx.Error != nil:
		res.status = "rejected"
	default:
		res.status = "applied"
	}

	g.render(ctx, res)
}

func (s *transaction) MarshalArena(arena *fastjson.Arena) ([]byte, error) {
	if s.tx == nil {
		return nil, errors.New("insufficient fields specified")
	}

	o := arena.NewObject()

	o.Set("id", arena.NewString(hex.EncodeToString(s.tx.ID[:])))
	o.Set("sender", arena.NewString(hex.EncodeToString(s.tx.Sender[:])))
	o.Set("status", arena.NewString(s.status))
	o.Set("nonce", arena.NewNumberString(strconv.FormatUint(s.tx.Nonce, 10)))
	o.Set("num_instructions", arena.NewNumberInt(len(s.tx.Instructions)))
	o.Set("signature", arena.NewString(hex.EncodeToString(s.tx.Signature[:])))

	if s.tx.Error != nil {
		o.Set("error", arena.NewString(s.tx.Error.Error()))
	}

	return o.MarshalTo(nil), nil
}
