package log

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fastjson"
)

var ErrInvalidHexLength = errors.New("Invalid hex bytes length")

type ErrUnmarshalFail struct {
	JSONValue  string
	Key        string
	Underlying error
}

func NewErrUnmarshalFail(v *fastjson.Value, key string, err error) *ErrUnmarshalFail {
	return &ErrUnmarshalFail{
		JSONValue:  v.String(),
		Key:        key,
		Underlying: err,
	}
}

func (err *ErrUnmarshalFail) Error() string {
	return "Error unmarshalling key " + err.Key + ": " + err.Underlying.Error()
}

func ValueString(value *fastjson.Value, key ...string) string {
	return string(value.GetStringBytes(key...))
}

func ValueHex(value *fastjson.Value, dst interface{}, key ...string) error {
	var bytes []byte

	switch dst := dst.(type) {
	case []byte:
		bytes = dst
	case *[16]byte:
		bytes = dst[:]
	case *[32]byte:
		bytes = dst[:]
	case *[64]byte:
		bytes = dst[:]
	case *[]byte:
		src := value.GetStringBytes(key...)

		*dst = make([]byte, hex.DecodedLen(len(src)))
		bytes = *dst
	default:
		panic("BUG: Unknown dst type when unmarshaling `" + strings.Join(key, ".") + "`")
	}

	i, err := hex.Decode(bytes, value.GetStringBytes(key...))
	if err != nil {
		return NewErrUnmarshalFail(value, strings.Join(key, "."), err)
	}

	if i != len(bytes) {
		return NewErrUnmarshalFail(value, strings.Join(key, "."),
			ErrInvalidHexLength)
	}

	return nil
}

func ValueUint64(value *fastjson.Value, key ...string) (uint64, error) {
	v := value.Get(key...)
	if v == nil {
		return 0, NewErrUnmarshalFail(value, strings.Join(key, "."),
			errors.New("missing"))
	}

	u, err := v.Uint64()
	if err != nil {
		return 0, NewErrUnmarshalFail(value, strings.Join(key, "."),
			errors.New("invalid uint64"))
	}

	return u, nil
}

func ValueBase64(value *fastjson.Value, key ...string) ([]byte, error) {
	v := value.GetStringBytes(key...)
	b := make([]byte, base64.StdEncoding.DecodedLen(len(v)))
	_, err := base64.StdEncoding.Decode(b, v)
	return b, err
}

func ValueTime(value *fastjson.Value, layout string, key ...string) (*time.Time, error) {
	t, err := time.Parse(layout, ValueString(value, key...))
	if err != nil {
		return nil, NewErrUnmarshalFail(value, strings.Join(key, "."), err)
	}

	return &t, nil
}

// ValueAny unmarshals the value under key into dst, dispatching on the type of
// dst. Byte destinations are decoded from hex.
func ValueAny(value *fastjson.Value, dst interface{}, key ...string) error {
	switch dst := dst.(type) {
	case []byte, *[16]byte, *[32]byte, *[64]byte, *[]byte:
		return ValueHex(value, dst, key...)

	case *string:
		*dst = ValueString(value, key...)
		return nil

	case *bool:
		*dst = value.GetBool(key...)
		return nil

	case *uint64:
		u, err := ValueUint64(value, key...)
		if err != nil {
			return err
		}

		*dst = u
		return nil

	case *uint32:
		u, err := ValueUint64(value, key...)
		if err != nil {
			return err
		}

		*dst = uint32(u)
		return nil

	case *int:
		u, err := ValueUint64(value, key...)
		if err != nil {
			return err
		}

		*dst = int(u)
		return nil

	default:
		panic("BUG: Unknown dst type when unmarshaling `" + strings.Join(key, ".") + "`")
	}
}

func ValueBatch(v *fastjson.Value, keyValPair ...interface{}) error {
	if (len(keyValPair) % 2) != 0 {
		panic("keyValPair is not even")
	}

	for i := 0; i < len(keyValPair); i += 2 {
		key, ok := keyValPair[i].(string)
		if !ok {
			panic(fmt.Sprintf("Key at index %d is not string", i))
		}

		if err := ValueAny(v, keyValPair[i+1], key); err != nil {
			return err
		}
	}

	return nil
}
