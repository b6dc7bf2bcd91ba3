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
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/perlin-network/greet"
	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGateway(t *testing.T) (*greet.TestRuntime, string) {
	t.Helper()

	port, err := freeport.GetFreePort()
	require.NoError(t, err)

	tr := greet.NewTestRuntime(t)

	gateway := New(&Config{
		Port:    port,
		Runtime: tr.Runtime(),
		Keys:    tr.Keys(),
	})

	require.NoError(t, gateway.Start())
	t.Cleanup(gateway.Shutdown)

	time.Sleep(50 * time.Millisecond)

	return tr, fmt.Sprintf("http://127.0.0.1:%d", port)
}

func getJSON(t *testing.T, url string, dst interface{}) int {
	t.Helper()

	res, err := http.Get(url) // nolint:gosec
	require.NoError(t, err)

	defer func() {
		_ = res.Body.Close()
	}()

	if dst != nil && res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(dst))
	}

	return res.StatusCode
}

func TestGatewayLedgerStatus(t *testing.T) {
	tr, base := setupGateway(t)

	var status LedgerStatus

	require.Equal(t, http.StatusOK, getJSON(t, base+"/ledger", &status))

	faucet := tr.Faucet()

	assert.Equal(t, hex.EncodeToString(faucet[:]), status.PublicKey)
	assert.EqualValues(t, 0, status.Height)
	assert.EqualValues(t, 4, status.NumAccounts)
	assert.Contains(t, status.Programs, hex.EncodeToString(greet.GreetProgramID[:]))
	assert.Contains(t, status.Programs, hex.EncodeToString(greet.SystemProgramID[:]))
}

func TestGatewayGetAccount(t *testing.T) {
	tr, base := setupGateway(t)

	faucet := tr.Faucet()

	var account Account

	require.Equal(t, http.StatusOK, getJSON(t, fmt.Sprintf("%s/accounts/%x", base, faucet), &account))

	assert.Equal(t, hex.EncodeToString(faucet[:]), account.PublicKey)
	assert.EqualValues(t, 10000000000, account.Lamports)
	assert.False(t, account.Executable)

	unknown := greet.RandomAccountID(t)

	assert.Equal(t, http.StatusNotFound, getJSON(t, fmt.Sprintf("%s/accounts/%x", base, unknown), nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, base+"/accounts/deadbeef", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, base+"/accounts/not-valid-hex", nil))
}

func TestGatewayGetGreetings(t *testing.T) {
	tr, base := setupGateway(t)

	require.NoError(t, tr.Greet(tr.GenesisSlot).Error)

	var greetings Greetings

	require.Equal(t, http.StatusOK,
		getJSON(t, fmt.Sprintf("%s/accounts/%x/greetings", base, tr.GenesisSlot), &greetings))

	assert.EqualValues(t, 1, greetings.Counter)

	// The faucet is a plain system-owned account.
	assert.Equal(t, http.StatusBadRequest,
		getJSON(t, fmt.Sprintf("%s/accounts/%x/greetings", base, tr.Faucet()), nil))

	unknown := greet.RandomAccountID(t)

	assert.Equal(t, http.StatusNotFound,
		getJSON(t, fmt.Sprintf("%s/accounts/%x/greetings", base, unknown), nil))
}

func TestGatewaySendTransaction(t *testing.T) {
	tr, base := setupGateway(t)

	runtime := tr.Runtime()

	tx := greet.NewTransaction(tr.Keys(), runtime.Nonce(tr.Faucet()), greet.Instruction{
		Program:  greet.GreetProgramID,
		Accounts: []greet.AccountRef{{ID: tr.GenesisSlot, Writable: true}},
	})

	body := fmt.Sprintf(`{
		"sender": "%x",
		"nonce": %d,
		"signature": "%x",
		"instructions": [
			{
				"program": "%x",
				"accounts": [{"id": "%x", "writable": true}]
			}
		]
	}`, tx.Sender, tx.Nonce, tx.Signature, greet.GreetProgramID, tr.GenesisSlot)

	res, err := http.Post(base+"/tx/send", "application/json", strings.NewReader(body))
	require.NoError(t, err)

	var sent struct {
		ID string `json:"tx_id"`
	}

	require.NoError(t, json.NewDecoder(res.Body).Decode(&sent))
	require.NoError(t, res.Body.Close())

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, hex.EncodeToString(tx.ID[:]), sent.ID)

	for runtime.TransactionPending(tx.ID) {
		_, err := runtime.Step()
		require.NoError(t, err)
	}

	var status struct {
		Status string `json:"status"`
	}

	require.Equal(t, http.StatusOK, getJSON(t, base+"/tx/"+sent.ID, &status))
	assert.Equal(t, "applied", status.Status)

	assert.EqualValues(t, 1, tr.Counter(tr.GenesisSlot))
}

func TestGatewaySendTransactionBadSignature(t *testing.T) {
	tr, base := setupGateway(t)

	runtime := tr.Runtime()

	tx := greet.NewTransaction(tr.Keys(), runtime.Nonce(tr.Faucet()), greet.Instruction{
		Program:  greet.GreetProgramID,
		Accounts: []greet.AccountRef{{ID: tr.GenesisSlot, Writable: true}},
	})

	var forged greet.Signature

	copy(forged[:], tx.Signature[:])
	forged[0] ^= 0xff

	body := fmt.Sprintf(`{
		"sender": "%x",
		"nonce": %d,
		"signature": "%x",
		"instructions": [
			{
				"program": "%x",
				"accounts": [{"id": "%x", "writable": true}]
			}
		]
	}`, tx.Sender, tx.Nonce, forged, greet.GreetProgramID, tr.GenesisSlot)

	res, err := http.Post(base+"/tx/send", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.NoError(t, res.Body.Close())

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Zero(t, runtime.PendingLen())
}

func TestGatewayGetTransactionNotFound(t *testing.T) {
	_, base := setupGateway(t)

	unknown := greet.RandomAccountID(t)

	assert.Equal(t, http.StatusNotFound, getJSON(t, fmt.Sprintf("%s/tx/%x", base, unknown), nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, base+"/tx/deadbeef", nil))
}
