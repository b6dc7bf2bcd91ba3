package api

import (
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// The transaction and query routes are open to anyone, so each remote
// address gets its own token bucket per route.

type limiterClient struct {
	limiter  *rate.Limiter
	lastSeen int64 // nanoseconds
}

type rateLimiter struct {
	// Requests per second granted to each client.
	max float64

	// Idle time after which a client's bucket is dropped from the map.
	expirationTTL time.Duration

	clients map[string]*limiterClient
	sync.Mutex
}

func newRatelimiter(maxPerSec float64) *rateLimiter {
	return &rateLimiter{
		max:           maxPerSec,
		expirationTTL: 1 * time.Second,
		clients:       make(map[string]*limiterClient),
	}
}

func (r *rateLimiter) getClient(key string) *limiterClient {
	r.Lock()
	defer r.Unlock()

	c := r.clients[key]
	if c != nil {
		c.lastSeen = time.Now().UnixNano()
		return c
	}

	burst := int(math.Max(1, r.max))
	c = &limiterClient{rate.NewLimiter(rate.Limit(r.max), burst), time.Now().UnixNano()}

	r.clients[key] = c

	return c
}

// cleanup periodically drops buckets that have been idle past the TTL,
// keeping the map bounded by the set of recently active clients.
func (r *rateLimiter) cleanup(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	stop = func() {
		close(done)
	}

	ticker := time.NewTicker(interval)

	ttl := r.expirationTTL.Nanoseconds()

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				now := time.Now().UnixNano()

				r.Lock()
				for key, c := range r.clients {
					if now-c.lastSeen > ttl {
						delete(r.clients, key)
					}
				}
				r.Unlock()
			}
		}
	}()

	return
}

// limit throttles a route by the caller's remote address.
func (r *rateLimiter) limit(key string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			addr := ctx.RemoteAddr().String()

			c := r.getClient(key + addr)

			if !c.limiter.Allow() {
				ctx.Error(http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next(ctx)
		}
	}
}
