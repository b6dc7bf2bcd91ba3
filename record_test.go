package greet

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestGreetingRecordRoundTrip(t *testing.T) {
	for _, counter := range []uint32{0, 1, 7, 1337, math.MaxUint32 - 1, math.MaxUint32} {
		buf := GreetingRecord{Counter: counter}.Marshal()
		assert.Len(t, buf, SizeGreetingRecord)

		var record GreetingRecord
		assert.NoError(t, record.Unmarshal(buf))
		assert.Equal(t, counter, record.Counter)
	}
}

func TestGreetingRecordLayout(t *testing.T) {
	// Little-endian, low byte first.
	assert.Equal(t, []byte{0x39, 0x05, 0x00, 0x00}, GreetingRecord{Counter: 1337}.Marshal())
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, GreetingRecord{}.Marshal())
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, GreetingRecord{Counter: math.MaxUint32}.Marshal())
}

func TestGreetingRecordUnmarshalShortBuffer(t *testing.T) {
	var record GreetingRecord

	err := record.Unmarshal([]byte{0x01, 0x02})
	assert.Equal(t, ErrMalformedRecord, errors.Cause(err))
	assert.EqualValues(t, 0, record.Counter)

	err = record.Unmarshal(nil)
	assert.Equal(t, ErrMalformedRecord, errors.Cause(err))
}

func TestGreetingRecordUnmarshalIgnoresTrailingBytes(t *testing.T) {
	var record GreetingRecord

	assert.NoError(t, record.Unmarshal([]byte{0x2a, 0x00, 0x00, 0x00, 0xde, 0xad}))
	assert.EqualValues(t, 42, record.Counter)
}

func TestGreetingRecordMarshalInto(t *testing.T) {
	dst := []byte{0xde, 0xad, 0xbe, 0xef, 0x99}

	assert.NoError(t, GreetingRecord{Counter: 1}.MarshalInto(dst))
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00, 0x99}, dst)

	small := []byte{0xde, 0xad}

	err := GreetingRecord{Counter: 1}.MarshalInto(small)
	assert.Equal(t, ErrBufferTooSmall, errors.Cause(err))
	assert.Equal(t, []byte{0xde, 0xad}, small)
}
