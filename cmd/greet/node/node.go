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

// Package node ties a runtime, its store, and the HTTP gateway into a
// single embeddable server.
package node

import (
	"encoding/hex"
	"fmt"

	"github.com/perlin-network/greet"
	"github.com/perlin-network/greet/api"
	"github.com/perlin-network/greet/log"
	"github.com/perlin-network/greet/store"
	"github.com/perlin-network/greet/sys"
	"github.com/perlin-network/noise/edwards25519"
	"github.com/perlin-network/noise/skademlia"
	"github.com/rs/zerolog"
)

type Config struct {
	Wallet   string // hex encoded
	Genesis  *string
	APIPort  uint
	Database string

	// Maximum requests per second per API route. Zero keeps the
	// gateway default.
	APIRequestsPerSecond float64
}

var DefaultConfig = Config{
	Wallet:   "87a6813c3b4cf534b6ae82db9b1409fa7dbd5c13dba5858970b56084c4a930eb400056ee68a7cc2695222df05ea76875bc27ec6e61e8e62317c336157019c405",
	Genesis:  nil,
	APIPort:  9000,
	Database: "",
}

type Greet struct {
	Keys    *skademlia.Keypair
	Runtime *greet.Runtime
	Gateway *api.Gateway

	config *Config
	db     store.KV
	logger zerolog.Logger
}

func New(cfg *Config) (*Greet, error) {
	if cfg == nil {
		cfg = &DefaultConfig
	}

	g := Greet{
		config: cfg,
		logger: log.Node(),
	}

	var privateKey edwards25519.PrivateKey

	i, err := hex.Decode(privateKey[:], []byte(cfg.Wallet))
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex wallet %s", cfg.Wallet)
	}

	if i != edwards25519.SizePrivateKey {
		return nil, fmt.Errorf("wallet is not of the right length (%d not %d)",
			i, edwards25519.SizePrivateKey)
	}

	keys, err := skademlia.LoadKeys(privateKey, sys.SKademliaC1, sys.SKademliaC2)
	if err != nil {
		return nil, fmt.Errorf("the wallet specified is invalid: %v", err)
	}

	g.Keys = keys

	var kv store.KV

	if cfg.Database == "" {
		kv = store.NewInmem()
	} else {
		kv, err = store.NewLevelDB(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to create/open database located at %s: %v", cfg.Database, err)
		}
	}

	g.db = kv

	var opts []greet.RuntimeOption

	if cfg.Genesis != nil {
		opts = append(opts, greet.WithGenesis(*cfg.Genesis))
	}

	runtime, err := greet.NewRuntime(kv, opts...)
	if err != nil {
		return nil, err
	}

	g.Runtime = runtime

	if cfg.APIPort == 0 {
		cfg.APIPort = 9000
	}

	g.Gateway = api.New(&api.Config{
		Port:              int(cfg.APIPort),
		Runtime:           runtime,
		Keys:              keys,
		RequestsPerSecond: cfg.APIRequestsPerSecond,
	})

	return &g, nil
}

func (g *Greet) Start() error {
	g.Runtime.Run()

	if err := g.Gateway.Start(); err != nil {
		return err
	}

	publicKey := g.Keys.PublicKey()

	g.logger.Info().
		Hex("public_key", publicKey[:]).
		Uint("api_port", g.config.APIPort).
		Msg("Node is up.")

	return nil
}

func (g *Greet) Stop() {
	g.Gateway.Shutdown()
	g.Runtime.Close()

	if err := g.db.Close(); err != nil {
		g.logger.Error().Err(err).
			Msg("Failed to close the database.")
	}
}
