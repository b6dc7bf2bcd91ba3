package api

import (
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
)

// Browser dashboards poll the node from other origins, so every route
// answers CORS preflights. The node keeps no cookie or credential
// state, and any origin may query it.

var corsAllowMethods = strings.Join([]string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodOptions,
}, ",")

func cors() func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(c *fasthttp.RequestCtx) {
			origin := string(c.Request.Header.Peek("Origin"))

			c.Response.Header.Add("Vary", "Origin")
			c.Response.Header.Set("Access-Control-Allow-Origin", origin)

			if string(c.Method()) != http.MethodOptions {
				next(c)
				return
			}

			// Preflight request.
			c.Response.Header.Add("Vary", "Access-Control-Request-Method")
			c.Response.Header.Add("Vary", "Access-Control-Request-Headers")
			c.Response.Header.Set("Access-Control-Allow-Methods", corsAllowMethods)
			c.Response.Header.Set("Access-Control-Allow-Headers", "*")
			c.Response.Header.Set("Access-Control-Max-Age", "300")
			c.Response.SetStatusCode(http.StatusNoContent)
		}
	}
}
