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

// Package gctl provides a client wrapper for the HTTP API.
package gctl

import (
	"crypto/rand"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/perlin-network/greet"
	"github.com/perlin-network/noise/edwards25519"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

const (
	RouteLedger  = "/ledger"
	RouteAccount = "/accounts"
	RouteTx      = "/tx"
	RouteTxSend  = RouteTx + "/send"

	RoutePollNode     = "/poll/node"
	RoutePollAccounts = "/poll/accounts"
	RoutePollProgram  = "/poll/program"
	RoutePollTx       = "/poll/tx"
	RoutePollMetrics  = "/poll/metrics"

	ReqPost = "POST"
	ReqGet  = "GET"
)

var ErrNoHost = errors.New("no host provided")

type Config struct {
	APIHost    string
	APIPort    uint16
	APISecret  string
	PrivateKey edwards25519.PrivateKey
	UseHTTPS   bool
	Timeout    time.Duration
}

type Client struct {
	Config

	edwards25519.PrivateKey
	edwards25519.PublicKey

	url string

	// Nonce the next transaction must carry. Tracked locally so a
	// burst of sends does not race the ledger.
	nonce uint64

	parsers fastjson.ParserPool
	arenas  fastjson.ArenaPool

	// Stop functions of websockets the user spawned.
	stopSockets []func()
}

func NewClient(config Config) (*Client, error) {
	if config.APIHost == "" {
		return nil, ErrNoHost
	}

	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}

	protocol := "http"
	if config.UseHTTPS {
		protocol = "https"
	}

	c := &Client{
		Config:     config,
		PrivateKey: config.PrivateKey,
		PublicKey:  config.PrivateKey.Public(),
		url: (&url.URL{
			Scheme: protocol,
			Host:   fmt.Sprintf("%s:%d", config.APIHost, config.APIPort),
		}).String(),
	}

	nonce, err := c.GetSelfNonce()
	if err != nil {
		return nil, err
	}

	atomic.StoreUint64(&c.nonce, nonce)

	return c, nil
}

func (c *Client) Close() {
	for _, stop := range c.stopSockets {
		stop()
	}

	c.stopSockets = nil
}

// Nonce returns the nonce the client's next transaction will carry.
func (c *Client) Nonce() uint64 {
	return atomic.LoadUint64(&c.nonce)
}

// nextNonce consumes the current nonce and bumps the local counter.
func (c *Client) nextNonce() uint64 {
	return atomic.AddUint64(&c.nonce, 1) - 1
}

func randomAccountID() (greet.AccountID, error) {
	var id greet.AccountID

	if _, err := rand.Read(id[:]); err != nil {
		return id, errors.Wrap(err, "could not sample an account ID")
	}

	return id, nil
}
