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

	"github.com/perlin-network/greet/log"
	"github.com/perlin-network/greet/sys"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"
)

type LedgerStatus struct {
	PublicKey string `json:"public_key"` // [32]byte
	Address   string `json:"address"`
	Version   string `json:"version"`

	NumAccounts  uint64 `json:"num_accounts"`
	Height       uint64 `json:"height"`
	Checksum     string `json:"checksum"` // [16]byte
	NumTxPending int    `json:"num_tx_pending"`

	Programs []string `json:"programs"` // [32]byte each
}

var _ log.JSONObject = (*LedgerStatus)(nil)

func (g *Gateway) ledgerStatus(ctx *fasthttp.RequestCtx) {
	publicKey := g.Keys.PublicKey()
	checksum := g.Runtime.Checksum()

	l := LedgerStatus{
		PublicKey: hex.EncodeToString(publicKey[:]),
		Address:   g.addr,
		Version:   sys.Version,

		NumAccounts:  g.Runtime.NumAccounts(),
		Height:       g.Runtime.Height(),
		Checksum:     hex.EncodeToString(checksum[:]),
		NumTxPending: g.Runtime.PendingLen(),
	}

	for _, id := range g.Runtime.Programs() {
		l.Programs = append(l.Programs, hex.EncodeToString(id[:]))
	}

	g.render(ctx, &l)
}

func (s *LedgerStatus) MarshalArena(arena *fastjson.Arena) ([]byte, error) {
	o := arena.NewObject()

	arenaSet(arena, o, "public_key", s.PublicKey)
	arenaSet(arena, o, "address", s.Address)
	arenaSet(arena, o, "version", s.Version)
	arenaSet(arena, o, "num_accounts", s.NumAccounts)
	arenaSet(arena, o, "height", s.Height)
	arenaSet(arena, o, "checksum", s.Checksum)
	arenaSet(arena, o, "num_tx_pending", s.NumTxPending)

	programs := arena.NewArray()
	for i, p := range s.Programs {
		programs.SetArrayItem(i, arena.NewString(p))
	}
	o.Set("programs", programs)

	return o.MarshalTo(nil), nil
}

func (s *LedgerStatus) MarshalEvent(ev *zerolog.Event) {
	ev.Str("public_key", s.PublicKey)
	ev.Str("address", s.Address)
	ev.Str("version", s.Version)
	ev.Uint64("num_accounts", s.NumAccounts)
	ev.Uint64("height", s.Height)
	ev.Str("checksum", s.Checksum)
	ev.Int("num_tx_pending", s.NumTxPending)
	ev.Strs("programs", s.Programs)
	ev.Msg("Ledger status")
}

func (s *LedgerStatus) UnmarshalValue(v *fastjson.Value) error {
	s.PublicKey = log.ValueString(v, "public_key")
	s.Address = log.ValueString(v, "address")
	s.Version = log.ValueString(v, "version")
	s.Checksum = log.ValueString(v, "checksum")

	numAccounts, err := log.ValueUint64(v, "num_accounts")
	if err != nil {
		return err
	}
	s.NumAccounts = numAccounts

	height, err := log.ValueUint64(v, "height")
	if err != nil {
		return err
	}
	s.Height = height

	s.NumTxPending = v.GetInt("num_tx_pending")

	s.Programs = s.Programs[:0]
	for _, p := range v.GetArray("programs") {
		b, err := p.StringBytes()
		if err != nil {
			return err
		}

		s.Programs = append(s.Programs, string(b))
	}

	return nil
}
