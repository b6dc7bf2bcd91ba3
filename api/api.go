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

// Package api exposes the runtime over HTTP: ledger and account
// queries, transaction submission, and websocket log polling.
package api

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/buaazp/fasthttprouter"
	"github.com/perlin-network/greet"
	"github.com/perlin-network/greet/log"
	"github.com/perlin-network/noise/skademlia"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/pprofhandler"
	"github.com/valyala/fastjson"
)

type Gateway struct {
	*Config
	addr string

	router *fasthttprouter.Router
	server *fasthttp.Server

	sinks     map[string]*sink
	sinksLock sync.RWMutex

	rateLimiter *rateLimiter

	parserPool *fastjson.ParserPool
	arenaPool  *fastjson.ArenaPool
}

type Config struct {
	Port int

	Runtime *greet.Runtime
	Keys    *skademlia.Keypair

	RequestsPerSecond float64
}

func New(opts *Config) *Gateway {
	g := &Gateway{
		Config:      opts,
		sinks:       make(map[string]*sink),
		parserPool:  new(fastjson.ParserPool),
		arenaPool:   new(fastjson.ArenaPool),
		rateLimiter: newRatelimiter(1000),
	}

	if opts.RequestsPerSecond > 0 {
		g.rateLimiter = newRatelimiter(opts.RequestsPerSecond)
	}

	g.addr = ":" + strconv.Itoa(opts.Port)

	// Every log module gets its own websocket sink under /poll.
	sinkNode := g.registerWebsocketSink("ws://" + log.ModuleNode + "/")
	sinkAccounts := g.registerWebsocketSink("ws://" + log.ModuleAccounts + "/?id=account_id")
	sinkPrograms := g.registerWebsocketSink("ws://" + log.ModuleProgram + "/?id=account_id")
	sinkTransactions := g.registerWebsocketSink("ws://" + log.ModuleTX + "/?id=tx_id&sender=sender_id")
	sinkMetrics := g.registerWebsocketSink("ws://" + log.ModuleMetrics + "/")

	log.SetWriter(log.LoggerWebsocket, g)

	g.router = fasthttprouter.New()

	// fasthttprouter treats a route as missing for method types it has
	// no handler for, OPTIONS included. CORS preflights go through a
	// notFound override instead.
	g.router.HandleOPTIONS = false
	g.router.NotFound = g.notFound()

	g.routeWithMiddleware("GET", "/poll/node", g.poll(sinkNode), true)
	g.routeWithMiddleware("GET", "/poll/accounts", g.poll(sinkAccounts), true)
	g.routeWithMiddleware("GET", "/poll/program", g.poll(sinkPrograms), true)
	g.routeWithMiddleware("GET", "/poll/tx", g.poll(sinkTransactions), true)
	g.routeWithMiddleware("GET", "/poll/metrics", g.poll(sinkMetrics), true)

	g.routeWithMiddleware("GET", "/debug/*p", pprofhandler.PprofHandler, true, g.auth)

	g.routeWithMiddleware("GET", "/ledger", g.ledgerStatus, true)

	g.routeWithMiddleware("GET", "/accounts/:id", g.getAccount, false, g.accountScope)
	g.routeWithMiddleware("GET", "/accounts/:id/greetings", g.getGreetings, false, g.accountScope)

	g.routeWithMiddleware("POST", "/tx/send", g.sendTransaction, false)
	g.routeWithMiddleware("GET", "/tx/:id", g.getTransaction, false)

	g.server = &fasthttp.Server{Handler: g.router.Handler}

	return g
}

// Start listens on the configured port. It does not block.
func (g *Gateway) Start() error {
	logger := log.Node()

	stop := g.rateLimiter.cleanup(10 * time.Minute)

	ln, err := net.Listen("tcp4", g.addr)
	if err != nil {
		return errors.Wrap(err, "failed to listen to "+g.addr)
	}

	go func() {
		defer stop()

		if err := g.server.Serve(ln); err != nil {
			logger.Fatal().Err(err).
				Str("addr", g.addr).
				Msg("Failed to start the HTTP server.")
		}
	}()

	logger.Info().
		Str("addr", g.addr).
		Msg("Started the HTTP API server.")

	return nil
}

func (g *Gateway) Shutdown() {
	logger := log.Node()

	if err := g.server.Shutdown(); err != nil {
		logger.Error().
			Err(err).
			Msg("Failed to stop the HTTP server")
	}
}

func (g *Gateway) routeWithMiddleware(method, route string,
	h fasthttp.RequestHandler, rateLimit bool, ms ...middleware) {

	var topMs = make([]middleware, 0, 4)

	topMs = append(topMs, recoverer)

	if rateLimit {
		topMs = append(topMs, g.rateLimiter.limit(route))
	}

	topMs = append(topMs, cors())

	g.router.Handle(method, route, chain(h, append(topMs, ms...)))
}

func (g *Gateway) notFound() func(ctx *fasthttp.RequestCtx) {
	methods := []string{"GET", "POST", "PUT", "DELETE", "PATCH"}

	notFoundHandler := func(ctx *fasthttp.RequestCtx) {
		ctx.Error(fasthttp.StatusMessage(fasthttp.StatusNotFound),
			fasthttp.StatusNotFound)
	}

	// Triggered for OPTIONS only, so any inner handler works.
	cors := cors()(notFoundHandler)

	lookupCtx := &fasthttp.RequestCtx{}

	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Method()) != "OPTIONS" {
			notFoundHandler(ctx)
			return
		}

		path := string(ctx.Path())

		for _, m := range methods {
			h, _ := g.router.Lookup(m, path, lookupCtx)
			if h != nil {
				cors(ctx)
				return
			}
		}

		notFoundHandler(ctx)
	}
}

func (g *Gateway) poll(sink *sink) func(ctx *fasthttp.RequestCtx) {
	return func(ctx *fasthttp.RequestCtx) {
		if err := sink.serve(ctx); err != nil {
			g.renderError(ctx, ErrBadRequest(errors.Wrap(err, "failed to init websocket session")))
		}
	}
}

func (g *Gateway) registerWebsocketSink(rawURL string) *sink {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}

	values := u.Query()

	filters := make(map[string]string)

	for key := range values {
		filters[key] = values.Get(key)
	}

	sink := &sink{
		clients:   make(map[*client]struct{}),
		filters:   filters,
		broadcast: make(chan []byte, 256),
		join:      make(chan *client),
		leave:     make(chan *client),
	}

	go sink.run()

	g.sinksLock.Lock()
	g.sinks[u.Hostname()] = sink
	g.sinksLock.Unlock()

	return sink
}

// Write fans a JSON log line out to the sink registered for its module.
func (g *Gateway) Write(buf []byte) (n int, err error) {
	p := g.parserPool.Get()
	defer g.parserPool.Put(p)

	v, err := p.ParseBytes(buf)
	if err != nil {
		return n, errors.Errorf("cannot parse: %q", err)
	}

	mod := v.GetStringBytes(log.KeyModule)
	if len(mod) == 0 {
		return n, errors.Errorf("all logs must have the field %q", log.KeyModule)
	}

	g.sinksLock.RLock()
	sink, exists := g.sinks[string(mod)]
	g.sinksLock.RUnlock()

	if !exists {
		return len(buf), nil
	}

	cpy := make([]byte, len(buf))
	copy(cpy, buf)

	sink.publish(cpy)

	return len(buf), nil
}

func (g *Gateway) render(ctx *fasthttp.RequestCtx, m log.MarshalableArena) {
	g._render(ctx, m, http.StatusOK)
}

func (g *Gateway) renderError(ctx *fasthttp.RequestCtx, e *ErrResponse) {
	g._render(ctx, e, e.HTTPStatusCode)
}

func (g *Gateway) _render(ctx *fasthttp.RequestCtx, m log.MarshalableArena, status int) {
	arena := g.arenaPool.Get()
	defer g.arenaPool.Put(arena)

	b, err := m.MarshalArena(arena)
	if err != nil {
		ctx.Error(fmt.Sprintf(`{ "error": "render error: %s" }`, err.Error()), http.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBody(b)
}
