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
	"testing"
	"time"

	"github.com/perlin-network/greet"
	"github.com/perlin-network/greet/api"
	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) (*Client, *greet.TestRuntime) {
	t.Helper()

	port, err := freeport.GetFreePort()
	require.NoError(t, err)

	tr := greet.NewTestRuntime(t)

	gateway := api.New(&api.Config{
		Port:    port,
		Runtime: tr.Runtime(),
		Keys:    tr.Keys(),
	})

	require.NoError(t, gateway.Start())
	t.Cleanup(gateway.Shutdown)

	time.Sleep(50 * time.Millisecond)

	client, err := NewClient(Config{
		APIHost:    "127.0.0.1",
		APIPort:    uint16(port),
		PrivateKey: tr.Keys().PrivateKey(),
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client, tr
}

// settle steps the runtime until the transaction leaves the mempool,
// then returns its final status.
func settle(t *testing.T, client *Client, tr *greet.TestRuntime, res *TxResponse) *TxStatus {
	t.Helper()

	slice, err := hex.DecodeString(res.ID)
	require.NoError(t, err)
	require.Len(t, slice, greet.SizeTransactionID)

	var id greet.TransactionID
	copy(id[:], slice)

	runtime := tr.Runtime()

	for runtime.TransactionPending(id) {
		_, err := runtime.Step()
		require.NoError(t, err)
	}

	status, err := client.GetTransaction(id)
	require.NoError(t, err)

	return status
}

func TestClientLedgerStatus(t *testing.T) {
	client, tr := setupClient(t)

	status, err := client.LedgerStatus()
	require.NoError(t, err)

	faucet := tr.Faucet()

	assert.Equal(t, hex.EncodeToString(faucet[:]), status.PublicKey)
	assert.Contains(t, status.Programs, hex.EncodeToString(greet.GreetProgramID[:]))
}

func TestClientGreetFlow(t *testing.T) {
	client, tr := setupClient(t)

	target, res, err := client.CreateGreetingAccount(greet.SizeGreetingRecord, 0)
	require.NoError(t, err)
	require.Equal(t, "applied", settle(t, client, tr, res).Status)

	for i := 1; i <= 3; i++ {
		res, err := client.Greet(target)
		require.NoError(t, err)
		require.Equal(t, "applied", settle(t, client, tr, res).Status)

		greetings, err := client.GetGreetings(target)
		require.NoError(t, err)
		assert.EqualValues(t, i, greetings.Counter)
	}
}

func TestClientGreetRejection(t *testing.T) {
	client, tr := setupClient(t)

	// A plain system-owned account cannot be greeted.
	res, err := client.Greet(greet.AccountID(client.PublicKey))
	require.NoError(t, err)

	status := settle(t, client, tr, res)
	assert.Equal(t, "rejected", status.Status)
	assert.Contains(t, status.Error, "not owned by the program")
}

func TestClientPay(t *testing.T) {
	client, tr := setupClient(t)

	recipient := greet.RandomAccountID(t)

	res, err := client.Pay(recipient, 1337)
	require.NoError(t, err)
	require.Equal(t, "applied", settle(t, client, tr, res).Status)

	account, err := client.GetAccount(recipient)
	require.NoError(t, err)
	assert.EqualValues(t, 1337, account.Lamports)

	tr.AssertBalance(recipient, 1337)
}
