package store

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func BenchmarkInmem(b *testing.B) {
	b.StopTimer()

	db := NewInmem()
	defer func() {
		_ = db.Close()
	}()

	b.StartTimer()
	defer b.StopTimer()

	for i := 0; i < b.N; i++ {
		var randomKey [128]byte
		var randomValue [600]byte

		_, err := rand.Read(randomKey[:])
		assert.NoError(b, err)
		_, err = rand.Read(randomValue[:])
		assert.NoError(b, err)

		err = db.Put(randomKey[:], randomValue[:])
		assert.NoError(b, err)

		value, err := db.Get(randomKey[:])
		assert.NoError(b, err)

		assert.EqualValues(b, randomValue[:], value)
	}
}

func TestExistence(t *testing.T) {
	db := NewInmem()
	defer func() {
		_ = db.Close()
	}()

	_, err := db.Get([]byte("not_exist"))
	assert.Equal(t, ErrNotFound, err)

	err = db.Put([]byte("exist"), []byte{})
	assert.NoError(t, err)

	val, err := db.Get([]byte("exist"))
	assert.NoError(t, err)
	assert.Equal(t, []byte{}, val)
}

func TestInmemWriteBatch(t *testing.T) {
	db := NewInmem()
	defer func() {
		_ = db.Close()
	}()

	assert.NoError(t, db.Put([]byte("gone"), []byte("soon")))

	wb := db.NewWriteBatch()
	assert.NoError(t, wb.Put([]byte("a"), []byte("1")))
	assert.NoError(t, wb.Put([]byte("b"), []byte("2")))
	assert.NoError(t, wb.Delete([]byte("gone")))
	assert.Equal(t, 3, wb.Count())

	assert.NoError(t, db.CommitWriteBatch(wb))

	v, err := db.Get([]byte("a"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	v, err = db.Get([]byte("b"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	_, err = db.Get([]byte("gone"))
	assert.Equal(t, ErrNotFound, err)
}
