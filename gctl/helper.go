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
	"fmt"
	"net/http"
	"net/url"

	"github.com/fasthttp/websocket"
	"github.com/perlin-network/greet/log"
	"github.com/valyala/fasthttp"
)

// StatusError is returned for any response outside the 2xx range.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.Code, e.Body)
}

// RequestJSON makes a request with a JSON body and unmarshals the JSON
// response into out. Either may be nil.
func (c *Client) RequestJSON(path string, method string, body log.MarshalableArena, out log.UnmarshalableValue) error {
	var raw []byte

	if body != nil {
		arena := c.arenas.Get()

		b, err := body.MarshalArena(arena)

		arena.Reset()
		c.arenas.Put(arena)

		if err != nil {
			return err
		}

		raw = b
	}

	resBody, err := c.Request(path, method, raw)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	parser := c.parsers.Get()
	defer c.parsers.Put(parser)

	v, err := parser.ParseBytes(resBody)
	if err != nil {
		return err
	}

	return out.UnmarshalValue(v)
}

// Request makes a request to the given path and returns the raw
// response body.
func (c *Client) Request(path string, method string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	req.URI().Update(c.url + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")

	if c.APISecret != "" {
		req.Header.Set("Authorization", "Bearer "+c.APISecret)
	}

	if body != nil {
		req.SetBody(body)
	}

	res := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(res)

	if err := fasthttp.DoTimeout(req, res, c.Timeout); err != nil {
		return nil, err
	}

	if res.StatusCode() != http.StatusOK {
		return nil, &StatusError{Code: res.StatusCode(), Body: string(res.Body())}
	}

	cpy := make([]byte, len(res.Body()))
	copy(cpy, res.Body())

	return cpy, nil
}

// EstablishWS creates a websocket connection to the given poll route.
func (c *Client) EstablishWS(path string, query url.Values) (*websocket.Conn, error) {
	prot := "ws"
	if c.UseHTTPS {
		prot = "wss"
	}

	uri := url.URL{
		Scheme: prot,
		Host:   fmt.Sprintf("%s:%d", c.APIHost, c.APIPort),
		Path:   path,
	}

	if len(query) > 0 {
		uri.RawQuery = query.Encode()
	}

	dialer := &websocket.Dialer{
		HandshakeTimeout: c.Timeout,
	}

	conn, _, err := dialer.Dial(uri.String(), nil)

	return conn, err
}

// PollLogs streams raw log lines from one of the /poll routes into the
// callback until the returned stop function is called.
func (c *Client) PollLogs(path string, query url.Values, callback func([]byte)) (func(), error) {
	ws, err := c.EstablishWS(path, query)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			_, message, err := ws.ReadMessage()
			if err != nil {
				return
			}

			callback(message)
		}
	}()

	stop := func() {
		_ = ws.Close()
	}

	c.stopSockets = append(c.stopSockets, stop)

	return stop, nil
}
