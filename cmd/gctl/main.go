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

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/perlin-network/greet"
	"github.com/perlin-network/greet/gctl"
	"github.com/perlin-network/greet/log"
	"github.com/perlin-network/greet/sys"
	"github.com/perlin-network/noise/edwards25519"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()

	app.Name = "gctl"
	app.Author = "Perlin Network"
	app.Email = "support@perlin.net"
	app.Version = sys.Version
	app.Usage = "a cli client to interact with a greet node"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "api.host",
			Value:  "localhost",
			Usage:  "Host `API_HOST` of the node's HTTP API.",
			EnvVar: "GREET_API_HOST",
		},
		cli.UintFlag{
			Name:   "api.port",
			Value:  9000,
			Usage:  "Port `API_PORT` of the node's HTTP API.",
			EnvVar: "GREET_API_PORT",
		},
		cli.StringFlag{
			Name:   "api.secret",
			Usage:  "Bearer token `API_SECRET` guarding privileged API routes.",
			EnvVar: "GREET_API_SECRET",
		},
		cli.StringFlag{
			Name:   "wallet, k",
			Usage:  "Hex-encoded private key `WALLET` used to sign transactions.",
			EnvVar: "GREET_WALLET",
		},
	}

	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("Version:    %s\n", c.App.Version)
		fmt.Printf("Go Version: %s\n", sys.GoVersion)
		fmt.Printf("Git Commit: %s\n", sys.GitCommit)
		fmt.Printf("Built:      %s\n", c.App.Compiled.Format(time.ANSIC))
	}

	app.Action = runAction

	if err := app.Run(os.Args); err != nil {
		logger := log.Node()
		logger.Fatal().Err(err).
			Msg("Failed to parse configuration/command-line arguments.")
	}
}

func runAction(c *cli.Context) error {
	logger := log.Node()

	var privateKey edwards25519.PrivateKey

	if wallet := c.String("wallet"); wallet != "" {
		n, err := hex.Decode(privateKey[:], []byte(wallet))
		if err != nil || n != edwards25519.SizePrivateKey {
			return errors.New("the private key specified is invalid")
		}
	}

	client, err := gctl.NewClient(gctl.Config{
		APIHost:    c.String("api.host"),
		APIPort:    uint16(c.Uint("api.port")),
		APISecret:  c.String("api.secret"),
		PrivateKey: privateKey,
	})
	if err != nil {
		return err
	}

	defer client.Close()

	cmd := []string(c.Args())
	if len(cmd) == 0 {
		return errors.New("missing command argument")
	}

	switch cmd[0] {
	case "status":
		status, err := client.LedgerStatus()
		if err != nil {
			return err
		}

		logger.Info().
			Str("public_key", status.PublicKey).
			Str("version", status.Version).
			Uint64("height", status.Height).
			Uint64("num_accounts", status.NumAccounts).
			Int("num_tx_pending", status.NumTxPending).
			Str("checksum", status.Checksum).
			Strs("programs", status.Programs).
			Msg("Here is the current status of the node.")
	case "account":
		if len(cmd) != 2 {
			return errors.New("account expected 1 argument: account <address>")
		}

		id, err := decodeAccountID(cmd[1])
		if err != nil {
			return err
		}

		account, err := client.GetAccount(id)
		if err != nil {
			return err
		}

		logger.Info().
			Str("owner", account.Owner).
			Uint64("lamports", account.Lamports).
			Uint64("nonce", account.Nonce).
			Int("data_len", account.DataLen).
			Bool("executable", account.Executable).
			Msgf("Account: %s", cmd[1])
	case "greetings":
		if len(cmd) != 2 {
			return errors.New("greetings expected 1 argument: greetings <address>")
		}

		id, err := decodeAccountID(cmd[1])
		if err != nil {
			return err
		}

		greetings, err := client.GetGreetings(id)
		if err != nil {
			return err
		}

		logger.Info().
			Msgf("Account %s has been greeted %d time(s).", cmd[1], greetings.Counter)
	case "create":
		space := uint64(greet.SizeGreetingRecord)

		if len(cmd) > 1 {
			parsed, err := strconv.ParseUint(cmd[1], 10, 64)
			if err != nil {
				return errors.Wrap(err, "failed to parse the account size")
			}

			space = parsed
		}

		target, res, err := client.CreateGreetingAccount(space, 0)
		if err != nil {
			return err
		}

		logger.Info().
			Hex("account_id", target[:]).
			Str("tx_id", res.ID).
			Msg("Your create transaction has been submitted.")
	case "greet":
		if len(cmd) != 2 {
			return errors.New("greet expected 1 argument: greet <address>")
		}

		id, err := decodeAccountID(cmd[1])
		if err != nil {
			return err
		}

		res, err := client.Greet(id)
		if err != nil {
			return err
		}

		logger.Info().
			Str("tx_id", res.ID).
			Msg("Your greeting transaction has been submitted.")
	case "pay":
		if len(cmd) != 3 {
			return errors.New("pay expected 2 arguments: pay <recipient> <amount>")
		}

		recipient, err := decodeAccountID(cmd[1])
		if err != nil {
			return err
		}

		amount, err := strconv.ParseUint(cmd[2], 10, 64)
		if err != nil {
			return errors.Wrap(err, "failed to convert the payment amount to an uint64")
		}

		res, err := client.Pay(recipient, amount)
		if err != nil {
			return err
		}

		logger.Info().
			Str("tx_id", res.ID).
			Msg("Your payment transaction has been submitted.")
	case "tx":
		if len(cmd) != 2 {
			return errors.New("tx expected 1 argument: tx <transaction-id>")
		}

		var id greet.TransactionID

		slice, err := hex.DecodeString(cmd[1])
		if err != nil || len(slice) != greet.SizeTransactionID {
			return errors.New("the transaction ID specified is invalid")
		}

		copy(id[:], slice)

		status, err := client.GetTransaction(id)
		if err != nil {
			return err
		}

		event := logger.Info().
			Str("sender", status.Sender).
			Str("status", status.Status).
			Uint64("nonce", status.Nonce).
			Int("num_instructions", status.NumInstructions)

		if status.Error != "" {
			event = event.Str("error", status.Error)
		}

		event.Msgf("Transaction: %s", status.ID)
	case "poll":
		if len(cmd) != 2 {
			return errors.New("poll expected 1 argument: poll <node|accounts|program|tx|metrics>")
		}

		stop, err := client.PollLogs("/poll/"+cmd[1], nil, func(line []byte) {
			fmt.Println(string(line))
		})
		if err != nil {
			return err
		}

		defer stop()

		exit := make(chan os.Signal, 1)
		signal.Notify(exit, os.Interrupt)
		<-exit
	default:
		return errors.Errorf("unknown command: %s", cmd[0])
	}

	return nil
}

func decodeAccountID(s string) (greet.AccountID, error) {
	var id greet.AccountID

	slice, err := hex.DecodeString(s)
	if err != nil {
		return id, errors.Wrap(err, "the account address specified is not valid hex")
	}

	if len(slice) != greet.SizeAccountID {
		return id, errors.Errorf("account addresses must be %d bytes long", greet.SizeAccountID)
	}

	copy(id[:], slice)

	return id, nil
}
