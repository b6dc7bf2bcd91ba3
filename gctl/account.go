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
	"net/http"

	"github.com/perlin-network/greet"
	"github.com/perlin-network/greet/api"
)

// GetAccount queries the committed state of a single account.
func (c *Client) GetAccount(id greet.AccountID) (*api.Account, error) {
	path := RouteAccount + "/" + hex.EncodeToString(id[:])

	var res api.Account

	if err := c.RequestJSON(path, ReqGet, nil, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

// GetGreetings queries the greeting counter of an account owned by
// the greeting program.
func (c *Client) GetGreetings(id greet.AccountID) (*api.Greetings, error) {
	path := RouteAccount + "/" + hex.EncodeToString(id[:]) + "/greetings"

	var res api.Greetings

	if err := c.RequestJSON(path, ReqGet, nil, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

// GetSelfNonce fetches the nonce the client's next transaction must
// carry. An account the ledger has never seen starts from zero.
func (c *Client) GetSelfNonce() (uint64, error) {
	account, err := c.GetAccount(greet.AccountID(c.PublicKey))
	if err != nil {
		if status, ok := err.(*StatusError); ok && status.Code == http.StatusNotFound {
			return 0, nil
		}

		return 0, err
	}

	return account.Nonce, nil
}
