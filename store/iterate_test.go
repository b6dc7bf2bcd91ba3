package store

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIterate(t *testing.T) {
	leveldb, err := NewLevelDB("level_iterate")
	if !assert.NoError(t, err) {
		return
	}

	defer func() {
		_ = leveldb.Close()
		_ = os.RemoveAll("level_iterate")
	}()

	kvs := map[string]KV{
		"inmem": NewInmem(),
		"level": leveldb,
	}

	for name, kv := range kvs {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, kv.Put([]byte{0x0, 'z'}, []byte("below")))
			assert.NoError(t, kv.Put([]byte{0x1, 'a'}, []byte("alpha")))
			assert.NoError(t, kv.Put([]byte{0x1, 'b'}, []byte("bravo")))
			assert.NoError(t, kv.Put([]byte{0x2, 'a'}, []byte("other")))

			var keys []byte
			var values []string

			err := kv.Iterate([]byte{0x1}, func(key, value []byte) error {
				keys = append(keys, key[1])
				values = append(values, string(value))
				return nil
			})

			assert.NoError(t, err)
			assert.Equal(t, []byte("ab"), keys)
			assert.Equal(t, []string{"alpha", "bravo"}, values)

			sentinel := errors.New("stop")

			err = kv.Iterate([]byte{0x1}, func(key, value []byte) error {
				return sentinel
			})

			assert.Equal(t, sentinel, errors.Cause(err))
		})
	}
}
