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
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/benpye/readline"
	"github.com/perlin-network/greet"
	"github.com/perlin-network/greet/log"
	"github.com/perlin-network/noise/skademlia"
	"github.com/rs/zerolog"
	"github.com/urfave/cli"
)

const (
	vtRed   = "\033[31m"
	vtReset = "\033[39m"
	prompt  = "»»»"
)

type CLI struct {
	app     *cli.App
	rl      *readline.Instance
	runtime *greet.Runtime
	logger  zerolog.Logger
	keys    *skademlia.Keypair

	nonce uint64
}

func NewCLI(runtime *greet.Runtime, keys *skademlia.Keypair, stdin io.ReadCloser, stdout io.Writer) (*CLI, error) {
	c := &CLI{
		runtime: runtime,
		logger:  log.Node(),
		keys:    keys,
		app:     cli.NewApp(),
		nonce:   runtime.Nonce(keys.PublicKey()),
	}

	c.app.Name = "greet"
	c.app.HideVersion = true
	c.app.UsageText = "command [arguments...]"
	c.app.CommandNotFound = func(ctx *cli.Context, s string) {
		c.logger.Error().
			Msg("Unknown command: " + s)
	}

	c.app.Commands = []cli.Command{
		{
			Name:        "status",
			Aliases:     []string{"l"},
			Action:      a(c.status),
			Description: "print out information about your node",
		},
		{
			Name:        "create",
			Aliases:     []string{"c"},
			Action:      a(c.create),
			Description: "create an account owned by the greeting program",
		},
		{
			Name:        "greet",
			Aliases:     []string{"g"},
			Action:      a(c.greet),
			Description: "greet an account and bump its counter",
		},
		{
			Name:        "count",
			Aliases:     []string{"n"},
			Action:      a(c.count),
			Description: "print how many times an account has been greeted",
		},
		{
			Name:        "pay",
			Aliases:     []string{"p"},
			Action:      a(c.pay),
			Description: "pay the address an amount of lamports",
		},
		{
			Name:        "find",
			Aliases:     []string{"f"},
			Action:      a(c.find),
			Description: "search for an account by its address",
		},
		{
			Name:    "exit",
			Aliases: []string{"quit", ":q"},
			Action:  a(c.exit),
		},
	}

	// Generate the help message
	s := strings.Builder{}
	s.WriteString("Commands:\n")
	w := tabwriter.NewWriter(&s, 0, 0, 1, ' ', 0)

	for _, c := range c.app.VisibleCommands() {
		_, err := fmt.Fprintf(w,
			"    %s (%s) %s\t%s\n",
			c.Name, strings.Join(c.Aliases, ", "), c.Usage,
			c.Description,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := w.Flush(); err != nil {
		return nil, err
	}

	c.app.CustomAppHelpTemplate = s.String()

	// Add in autocompletion
	var completers = make(
		[]readline.PrefixCompleterInterface,
		0, len(c.app.Commands)*2,
	)

	for _, cmd := range c.app.Commands {
		commandAddCompleter(&completers, cmd, c.getCompleter())
	}

	var completer = readline.NewPrefixCompleter(completers...)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            vtRed + prompt + vtReset + " ",
		AutoComplete:      completer,
		HistoryFile:       "/tmp/greet-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             stdin,
		Stdout:            stdout,
	})

	if err != nil {
		return nil, err
	}

	c.rl = rl

	log.SetWriter(
		log.LoggerGreet,
		log.NewConsoleWriter(rl.Stdout(), log.FilterFor(
			log.ModuleNode,
			log.ModuleAccounts,
			log.ModuleProgram,
			log.ModuleTX,
		)),
	)

	return c, nil
}

func (cli *CLI) Start() {
ReadLoop:
	for {
		line, err := cli.rl.Readline()
		switch err {
		case readline.ErrInterrupt:
			if len(line) == 0 {
				break ReadLoop
			}

			continue ReadLoop

		case io.EOF:
			break ReadLoop
		}

		r := csv.NewReader(strings.NewReader(line))
		r.Comma = ' '

		s, err := r.Read()
		if err != nil {
			s = strings.Fields(line)
		}

		// Add an app name as $0
		s = append([]string{cli.app.Name}, s...)

		if err := cli.app.Run(s); err != nil {
			cli.logger.Error().Err(err).
				Msg("Failed to run command.")
		}
	}

	_ = cli.rl.Close()
}

func (cli *CLI) exit(ctx *cli.Context) {
	_ = cli.rl.Close()
}

func a(f func(*cli.Context)) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		f(ctx)
		return nil
	}
}
