package log

import (
	"testing"

	"github.com/valyala/fastjson"
)

func TestValueHex32(t *testing.T) {
	v, err := fastjson.Parse(`{"public_key": "2f16b386d4580b9e73bd00467e17e9c4766518d04d08073a3d999279bbe088d1"}`)
	if err != nil {
		t.Fatal(err)
	}

	var dst1 [32]byte

	if err := ValueHex(v, &dst1, "public_key"); err != nil {
		t.Fatal(err)
	}

	if dst1 == ([32]byte{}) {
		t.Fatal("dst is empty")
	}

	var dst2 = [32]byte{}

	if err := ValueHex(v, dst2[:], "public_key"); err != nil {
		t.Fatal(err)
	}

	if dst2 == ([32]byte{}) {
		t.Fatal("dst is empty")
	}
}

func TestValueHexSlice(t *testing.T) {
	v, err := fastjson.Parse(`{"public_key": "2f16b386d4580b9e73bd00467e17e9c4766518d04d08073a3d999279bbe088d1"}`)
	if err != nil {
		t.Fatal(err)
	}

	var dst []byte

	if err := ValueHex(v, &dst, "public_key"); err != nil {
		t.Fatal(err)
	}

	if len(dst) == 0 {
		t.Fatal("dst is empty")
	}
}

func TestValueBatch(t *testing.T) {
	v, err := fastjson.Parse(`{
		"account_id": "2f16b386d4580b9e73bd00467e17e9c4766518d04d08073a3d999279bbe088d1",
		"balance": 1337,
		"executable": true,
		"message": "hello"
	}`)
	if err != nil {
		t.Fatal(err)
	}

	var (
		id         [32]byte
		balance    uint64
		executable bool
		message    string
	)

	if err := ValueBatch(v,
		"account_id", &id,
		"balance", &balance,
		"executable", &executable,
		"message", &message); err != nil {
		t.Fatal(err)
	}

	if id == ([32]byte{}) {
		t.Fatal("id is empty")
	}

	if balance != 1337 {
		t.Fatalf("unexpected balance: %d", balance)
	}

	if !executable {
		t.Fatal("executable is false")
	}

	if message != "hello" {
		t.Fatalf("unexpected message: %q", message)
	}
}
