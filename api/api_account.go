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

	"github.com/perlin-network/greet"
	"github.com/perlin-network/greet/log"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"
)

type Account struct {
	PublicKey  string `json:"public_key"` // [32]byte
	Owner      string `json:"owner"`      // [32]byte
	Lamports   uint64 `json:"lamports"`
	Nonce      uint64 `json:"nonce"`
	DataLen    int    `json:"data_len"`
	Executable bool   `json:"executable"`
}

var _ log.JSONObject = (*Account)(nil)

func (g *Gateway) getAccount(ctx *fasthttp.RequestCtx) {
	id, ok := ctx.UserValue("account_id").(greet.AccountID)
	if !ok {
		g.renderError(ctx, ErrBadRequest(errors.New("could not cast user value into account ID")))
		return
	}

	account, exists := g.Runtime.ReadAccount(id)
	if !exists {
		g.renderError(ctx, ErrNotFound(errors.Errorf("account %x does not exist", id)))
		return
	}

	g.render(ctx, &Account{
		PublicKey:  hex.EncodeToString(id[:]),
		Owner:      hex.EncodeToString(account.Owner[:]),
		Lamports:   account.Lamports,
		Nonce:      account.Nonce,
		DataLen:    len(account.Data),
		Executable: account.Executable,
	})
}

func (s *Account) MarshalArena(arena *fastjson.Arena) ([]byte, error) {
	o := arena.NewObject()

	arenaSet(arena, o, "public_key", s.PublicKey)
	arenaSet(arena, o, "owner", s.Owner)
	arenaSet(arena, o, "lamports", s.Lamports)
	arenaSet(arena, o, "nonce", s.Nonce)
	arenaSet(arena, o, "data_len", s.DataLen)
	arenaSet(arena, o, "executable", s.Executable)

	return o.MarshalTo(nil), nil
}

func (s *Account) MarshalEvent(ev *zerolog.Event) {
	ev.Str("public_key", s.PublicKey)
	ev.Str("owner", s.Owner)
	ev.Uint64("lamports", s.Lamports)
	ev.Uint64("nonce", s.Nonce)
	ev.Int("data_len", s.DataLen)
	ev.Bool("executable", s.Executable)
	ev.Msg("Account")
}

func (s *Account) UnmarshalValue(v *fastjson.Value) error {
	s.PublicKey = log.ValueString(v, "public_key")
	s.Owner = log.ValueString(v, "owner")

	lamports, err := log.ValueUint64(v, "lamports")
	if err != nil {
		return err
	}
	s.Lamports = lamports

	nonce, err := log.ValueUint64(v, "nonce")
	if err != nil {
		return err
	}
	s.Nonce = nonce

	s.DataLen = v.GetInt("data_len")
	s.Executable = v.GetBool("executable")

	return nil
}

type Greetings struct {
	PublicKey string `json:"public_key"` // [32]byte
	Counter   uint32 `json:"counter"`
}

var _ log.JSONObject = (*Greetings)(nil)

func (g *Gateway) getGreetings(ctx *fasthttp.RequestCtx) {
	id, ok := ctx.UserValue("account_id").(greet.AccountID)
	if !ok {
		g.renderError(ctx, ErrBadRequest(errors.New("could not cast user value into account ID")))
		return
	}

	counter, err := g.Runtime.GreetingCounter(id)
	if err != nil {
		switch errors.Cause(err) {
		case greet.ErrAccountNotFound:
			g.renderError(ctx, ErrNotFound(err))
		case greet.ErrIncorrectOwner, greet.ErrMalformedRecord:
			g.renderError(ctx, ErrBadRequest(err))
		default:
			g.renderError(ctx, ErrInternal(err))
		}

		return
	}

	g.render(ctx, &Greetings{
		PublicKey: hex.EncodeToString(id[:]),
		Counter:   counter,
	})
}

func (s *Greetings) MarshalArena(arena *fastjson.Arena) ([]byte, error) {
	o := arena.NewObject()

	arenaSet(arena, o, "public_key", s.PublicKey)
	arenaSet(arena, o, "counter", s.Counter)

	return o.MarshalTo(nil), nil
}

func (s *Greetings) MarshalEvent(ev *zerolog.Event) {
	ev.Str("public_key", s.PublicKey)
	ev.Uint32("counter", s.Counter)
	ev.Msg("Greetings")
}

func (s *Greetings) UnmarshalValue(v *fastjson.Value) error {
	s.PublicKey = log.ValueString(v, "public_key")
	s.Counter = uint32(v.GetUint("counter"))

	return nil
}
