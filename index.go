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

package greet

import (
	"encoding/hex"
	"sync"

	"github.com/armon/go-radix"
)

// Indexer indexes the hex-encoded IDs of every account the runtime has
// committed, for the purposes of suiting the needs of implementing
// autocomplete related components.
type Indexer struct {
	sync.RWMutex
	index *radix.Tree
}

func NewIndexer() *Indexer {
	return &Indexer{index: radix.New()}
}

// Index indexes a single account ID. This method is safe to call
// concurrently.
func (m *Indexer) Index(id AccountID) {
	m.Lock()
	m.index.Insert(hex.EncodeToString(id[:]), id)
	m.Unlock()
}

// Remove un-indexes a single account ID. This method is safe to call
// concurrently.
func (m *Indexer) Remove(id AccountID) {
	m.Lock()
	m.index.Delete(hex.EncodeToString(id[:]))
	m.Unlock()
}

// Find returns up to count account IDs whose hex encoding starts with
// the given query string.
func (m *Indexer) Find(query string, count int) []AccountID {
	results := make([]AccountID, 0, count)

	m.RLock()
	defer m.RUnlock()

	m.index.WalkPrefix(query, func(key string, v interface{}) bool {
		if len(results) >= count {
			return true
		}

		results = append(results, v.(AccountID))

		return false
	})

	return results
}
