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

package log

import (
	"io"

	"github.com/rs/zerolog"
)

var (
	output = &multiWriter{
		writers: make(map[string]io.Writer),
	}
	logger = zerolog.New(output).With().Timestamp().Logger()

	node     zerolog.Logger
	accounts zerolog.Logger
	program  zerolog.Logger
	tx       zerolog.Logger
	metrics  zerolog.Logger
)

const (
	LoggerGreet     = "greet"
	LoggerWebsocket = "ws"

	KeyModule = "mod"
	KeyEvent  = "event"

	ModuleNode     = "node"
	ModuleAccounts = "accounts"
	ModuleProgram  = "program"
	ModuleTX       = "tx"
	ModuleMetrics  = "metrics"
)

func init() {
	setupChildLoggers()
}

func setupChildLoggers() {
	node = logger.With().Str(KeyModule, ModuleNode).Logger()
	accounts = logger.With().Str(KeyModule, ModuleAccounts).Logger()
	program = logger.With().Str(KeyModule, ModuleProgram).Logger()
	tx = logger.With().Str(KeyModule, ModuleTX).Logger()
	metrics = logger.With().Str(KeyModule, ModuleMetrics).Logger()
}

func SetLevel(level string) {
	if l, err := zerolog.ParseLevel(level); err == nil {
		node = node.Level(l)
		accounts = accounts.Level(l)
		program = program.Level(l)
		tx = tx.Level(l)
		metrics = metrics.Level(l)
	}
}

func SetWriter(key string, writer io.Writer) {
	output.SetWriter(key, writer)
}

func Node() zerolog.Logger {
	return node
}

func Accounts(event string) zerolog.Logger {
	return accounts.With().Str(KeyEvent, event).Logger()
}

func Programs(event string) zerolog.Logger {
	return program.With().Str(KeyEvent, event).Logger()
}

func TX(event string) zerolog.Logger {
	return tx.With().Str(KeyEvent, event).Logger()
}

func Metrics() zerolog.Logger {
	return metrics
}
