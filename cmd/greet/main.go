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
	"io/ioutil"
	"os"
	"time"

	"github.com/perlin-network/greet"
	"github.com/perlin-network/greet/cmd/greet/node"
	"github.com/perlin-network/greet/conf"
	"github.com/perlin-network/greet/log"
	"github.com/perlin-network/greet/sys"
	"github.com/perlin-network/noise/edwards25519"
	"github.com/perlin-network/noise/skademlia"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()

	app.Name = "greet"
	app.Author = "Perlin Network"
	app.Email = "support@perlin.net"
	app.Version = sys.Version
	app.Usage = "a single-node ledger hosting the greeting counter program"

	app.Flags = []cli.Flag{
		cli.UintFlag{
			Name:   "api.port",
			Value:  9000,
			Usage:  "Host a local HTTP API at port `API_PORT`.",
			EnvVar: "GREET_API_PORT",
		},
		cli.Float64Flag{
			Name:   "api.rps",
			Usage:  "Maximum requests per second per API route `API_RPS`.",
			EnvVar: "GREET_API_RPS",
		},
		cli.StringFlag{
			Name:   "api.secret",
			Usage:  "Bearer token `API_SECRET` guarding privileged API routes.",
			EnvVar: "GREET_API_SECRET",
		},
		cli.StringFlag{
			Name:   "wallet",
			Value:  "config/wallet.txt",
			Usage:  "Path to file containing hex-encoded private key `WALLET`.",
			EnvVar: "GREET_WALLET",
		},
		cli.StringFlag{
			Name:   "db",
			Value:  "",
			Usage:  "Directory path `DB_PATH` to the database. Empty keeps the ledger in memory.",
			EnvVar: "GREET_DB_PATH",
		},
		cli.StringFlag{
			Name:   "loglevel",
			Value:  "debug",
			Usage:  "Minimum log level `LOG_LEVEL` to output.",
			EnvVar: "GREET_LOGLEVEL",
		},
		cli.StringFlag{
			Name:   "network",
			Value:  "testing",
			Usage:  "Name of the builtin genesis `NETWORK` to provision a fresh ledger with.",
			EnvVar: "GREET_NETWORK",
		},
		cli.StringFlag{
			Name:   "genesis",
			Usage:  "Path to a custom genesis JSON file `GENESIS`.",
			EnvVar: "GREET_GENESIS",
		},
		cli.DurationFlag{
			Name:   "apply.interval",
			Value:  conf.GetApplyInterval(),
			Usage:  "Interval `APPLY_INTERVAL` between mempool apply rounds.",
			EnvVar: "GREET_APPLY_INTERVAL",
		},
	}

	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("Version:    %s\n", c.App.Version)
		fmt.Printf("Go Version: %s\n", sys.GoVersion)
		fmt.Printf("Git Commit: %s\n", sys.GitCommit)
		fmt.Printf("OS/Arch:    %s\n", sys.OSArch)
		fmt.Printf("Built:      %s\n", c.App.Compiled.Format(time.ANSIC))
	}

	app.Before = func(c *cli.Context) error {
		log.SetLevel(c.String("loglevel"))

		conf.Update(
			conf.WithApplyInterval(c.Duration("apply.interval")),
			conf.WithSecret(c.String("api.secret")),
		)

		return nil
	}

	app.Action = func(c *cli.Context) error {
		return start(c)
	}

	if err := app.Run(os.Args); err != nil {
		logger := log.Node()
		logger.Fatal().Err(err).
			Msg("Failed to parse configuration/command-line arguments.")
	}
}

func start(c *cli.Context) error {
	logger := log.Node()

	wallet, err := loadWallet(c.String("wallet"))
	if err != nil {
		return err
	}

	if err := greet.SetGenesisByNetwork(c.String("network")); err != nil {
		return err
	}

	var genesis *string

	if path := c.String("genesis"); path != "" {
		buf, err := ioutil.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "could not read genesis file %q", path)
		}

		contents := string(buf)
		genesis = &contents
	}

	g, err := node.New(&node.Config{
		Wallet:               wallet,
		Genesis:              genesis,
		APIPort:              c.Uint("api.port"),
		Database:             c.String("db"),
		APIRequestsPerSecond: c.Float64("api.rps"),
	})
	if err != nil {
		return err
	}

	if err := g.Start(); err != nil {
		return err
	}

	defer g.Stop()

	shell, err := NewCLI(g.Runtime, g.Keys, os.Stdin, os.Stdout)
	if err != nil {
		return errors.Wrap(err, "failed to spawn the shell")
	}

	shell.Start()

	logger.Info().Msg("Shutting down...")

	return nil
}

// loadWallet resolves the wallet flag into a hex-encoded private key.
// A missing wallet file at the default location generates a fresh one.
func loadWallet(path string) (string, error) {
	logger := log.Node()

	privateKeyBuf, err := ioutil.ReadFile(path)
	if err == nil {
		if len(privateKeyBuf) < hex.EncodedLen(edwards25519.SizePrivateKey) {
			return "", errors.Errorf("the wallet located at %q is of an invalid format", path)
		}

		var privateKey edwards25519.PrivateKey

		n, err := hex.Decode(privateKey[:], privateKeyBuf[:hex.EncodedLen(edwards25519.SizePrivateKey)])
		if err != nil || n != edwards25519.SizePrivateKey {
			return "", errors.Errorf("the wallet located at %q is of an invalid format", path)
		}

		logger.Info().
			Str("path", path).
			Msg("Loaded wallet.")

		return hex.EncodeToString(privateKey[:]), nil
	}

	if !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "could not read wallet %q", path)
	}

	// The flag value may itself be a hex-encoded private key.
	if len(path) == hex.EncodedLen(edwards25519.SizePrivateKey) {
		var privateKey edwards25519.PrivateKey

		if n, err := hex.Decode(privateKey[:], []byte(path)); err == nil && n == edwards25519.SizePrivateKey {
			logger.Info().Msg("A private key was provided instead of a wallet file.")

			return path, nil
		}
	}

	keys, err := skademlia.NewKeys(sys.SKademliaC1, sys.SKademliaC2)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate a new wallet")
	}

	privateKey := keys.PrivateKey()
	publicKey := keys.PublicKey()

	logger.Info().
		Hex("privateKey", privateKey[:]).
		Hex("publicKey", publicKey[:]).
		Msg("Existing wallet not found: generated a new one.")

	return hex.EncodeToString(privateKey[:]), nil
}
