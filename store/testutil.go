package store

import (
	"os"
	"testing"

	"github.com/syndtr/goleveldb/leveldb"
)

// NewTestKV opens a throwaway KV for ledger tests. The returned cleanup
// closes it and, for on-disk stores, removes the database directory.
func NewTestKV(t testing.TB, kind string, path string) (KV, func()) {
	t.Helper()

	switch kind {
	case "inmem":
		db := NewInmem()

		return db, func() {
			if err := db.Close(); err != nil {
				t.Fatal(err)
			}
		}
	case "level":
		if err := os.RemoveAll(path); err != nil {
			t.Fatal(err)
		}

		db, err := NewLevelDB(path)
		if err != nil {
			t.Fatalf("failed to create LevelDB: %s", err)
		}

		return db, func() {
			if err := db.Close(); err != nil && err != leveldb.ErrClosed {
				t.Fatal(err)
			}

			if err := os.RemoveAll(path); err != nil {
				t.Fatal(err)
			}
		}
	default:
		t.Fatalf("unknown kv %s", kind)
		return nil, nil
	}
}
