package greet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexerFindByPrefix(t *testing.T) {
	t.Parallel()

	indexer := NewIndexer()

	var a, b, c AccountID

	a[0], a[1] = 0xbe, 0xef
	b[0], b[1] = 0xbe, 0x00
	c[0], c[1] = 0xca, 0xfe

	indexer.Index(a)
	indexer.Index(b)
	indexer.Index(c)

	assert.ElementsMatch(t, []AccountID{a, b}, indexer.Find("be", 10))
	assert.Equal(t, []AccountID{a}, indexer.Find("beef", 10))
	assert.Len(t, indexer.Find("", 2), 2)
	assert.Empty(t, indexer.Find("ff", 10))

	indexer.Remove(a)
	assert.Equal(t, []AccountID{b}, indexer.Find("be", 10))
}
