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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	colorBold = iota + 1
	colorFaint
)

const (
	colorRed = iota + 31
	colorGreen
	colorYellow
)

var consoleBufPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 100))
	},
}

// ConsoleWriter parses the JSON input and writes it in an (optionally)
// colorized, human-friendly format to Out. Events are dropped unless their
// module is listed in FilteredModules.
type ConsoleWriter struct {
	// Out is the output destination.
	Out io.Writer

	// NoColor disables the colorized output.
	NoColor bool

	// TimeFormat specifies the format for timestamp in output.
	TimeFormat string

	FilteredModules map[string]struct{}
}

func FilterFor(modules ...string) func(w *ConsoleWriter) {
	return func(w *ConsoleWriter) {
		for _, module := range modules {
			w.FilteredModules[module] = struct{}{}
		}
	}
}

// NewConsoleWriter creates and initializes a new ConsoleWriter.
func NewConsoleWriter(writer io.Writer, options ...func(w *ConsoleWriter)) ConsoleWriter {
	if writer == nil {
		writer = os.Stdout
	}

	w := ConsoleWriter{
		Out:             writer,
		TimeFormat:      time.Kitchen,
		FilteredModules: make(map[string]struct{}),
	}

	for _, opt := range options {
		opt(&w)
	}

	return w
}

// Write transforms the JSON input and appends it to w.Out.
func (w ConsoleWriter) Write(p []byte) (n int, err error) {
	var event map[string]interface{}

	decoder := json.NewDecoder(bytes.NewReader(p))
	decoder.UseNumber()

	if err := decoder.Decode(&event); err != nil {
		return n, fmt.Errorf("cannot decode event: %s", err)
	}

	if module := event[KeyModule]; module != nil {
		if _, filtered := w.FilteredModules[module.(string)]; !filtered {
			return len(p), nil
		}
	}

	delete(event, KeyModule)

	var buf = consoleBufPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		consoleBufPool.Put(buf)
	}()

	buf.WriteString(w.formatTimestamp(event[zerolog.TimestampFieldName]))
	buf.WriteByte(' ')
	buf.WriteString(w.formatLevel(event[zerolog.LevelFieldName]))
	buf.WriteByte(' ')

	if msg, ok := event[zerolog.MessageFieldName].(string); ok {
		buf.WriteString(msg)
	}

	w.writeFields(event, buf)

	_ = buf.WriteByte('\n')
	_, _ = buf.WriteTo(w.Out)

	return len(p), nil
}

// writeFields appends formatted key-value pairs to buf.
func (w ConsoleWriter) writeFields(evt map[string]interface{}, buf *bytes.Buffer) {
	var fields = make([]string, 0, len(evt))
	for field := range evt {
		switch field {
		case zerolog.LevelFieldName, zerolog.TimestampFieldName, zerolog.MessageFieldName:
			continue
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	// Move the "error" field to the front.
	ei := sort.SearchStrings(fields, zerolog.ErrorFieldName)
	if ei < len(fields) && fields[ei] == zerolog.ErrorFieldName {
		copy(fields[1:ei+1], fields[:ei])
		fields[0] = zerolog.ErrorFieldName
	}

	if len(fields) > 0 {
		buf.Write([]byte("\n\t"))
	}

	for i, field := range fields {
		nameColor := colorFaint
		valueColor := 0

		if field == zerolog.ErrorFieldName {
			nameColor = colorRed
			valueColor = colorRed
		}

		buf.WriteString(w.colorize(field+": ", nameColor))

		switch value := evt[field].(type) {
		case string:
			if needsQuote(value) {
				value = strconv.Quote(value)
			}
			buf.WriteString(w.colorize(value, valueColor))
		case json.Number:
			buf.WriteString(w.colorize(value.String(), valueColor))
		default:
			b, err := json.Marshal(value)
			if err != nil {
				_, _ = fmt.Fprintf(buf, w.colorize("[error: %v]", colorRed), err)
			} else {
				buf.WriteString(w.colorize(string(b), valueColor))
			}
		}

		if i < len(fields)-1 { // Skip space for last field
			buf.WriteByte(' ')
		}
	}
}

func (w ConsoleWriter) formatTimestamp(i interface{}) string {
	t := "<nil>"

	switch tt := i.(type) {
	case string:
		ts, err := time.Parse(time.RFC3339, tt)
		if err != nil {
			t = tt
		} else {
			t = ts.Format(w.TimeFormat)
		}
	case json.Number:
		t = tt.String()
	}

	return w.colorize(t, colorFaint)
}

func (w ConsoleWriter) formatLevel(i interface{}) string {
	ll, ok := i.(string)
	if !ok {
		return ""
	}

	switch ll {
	case "debug":
		return w.colorize("DBG", colorYellow)
	case "info":
		return w.colorize("INF", colorGreen)
	case "warn":
		return w.colorize("WRN", colorRed)
	case "error":
		return w.colorize(w.colorize("ERR", colorRed), colorBold)
	case "fatal":
		return w.colorize(w.colorize("FTL", colorRed), colorBold)
	case "panic":
		return w.colorize(w.colorize("PNC", colorRed), colorBold)
	default:
		return w.colorize("???", colorBold)
	}
}

// needsQuote returns true when the string s should be quoted in output.
func needsQuote(s string) bool {
	for i := range s {
		if s[i] < 0x20 || s[i] > 0x7e || s[i] == ' ' || s[i] == '\\' || s[i] == '"' {
			return true
		}
	}
	return false
}

// colorize returns the string s wrapped in ANSI code c, unless disabled.
func (w ConsoleWriter) colorize(s string, c int) string {
	if w.NoColor || c == 0 {
		return s
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}
