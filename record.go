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
	"github.com/near/borsh-go"
	"github.com/pkg/errors"
)

// SizeGreetingRecord is the exact number of bytes a marshaled GreetingRecord
// occupies inside account data.
const SizeGreetingRecord = 4

// GreetingRecord counts how many times an account has been greeted. It lives
// at the start of the account's data as its fixed-width little-endian
// serialization, with no framing, version tag, or padding around it.
type GreetingRecord struct {
	Counter uint32
}

func (r GreetingRecord) Marshal() []byte {
	buf, err := borsh.Serialize(r)
	if err != nil {
		// A fixed-width struct cannot fail to serialize.
		panic(err)
	}

	return buf
}

// Unmarshal decodes the record from the first SizeGreetingRecord bytes of
// data. Trailing bytes are ignored. The record is left unmodified on failure.
func (r *GreetingRecord) Unmarshal(data []byte) error {
	if len(data) < SizeGreetingRecord {
		return errors.Wrapf(ErrMalformedRecord, "have %d byte(s), need %d", len(data), SizeGreetingRecord)
	}

	if err := borsh.Deserialize(r, data[:SizeGreetingRecord]); err != nil {
		return errors.Wrap(ErrMalformedRecord, err.Error())
	}

	return nil
}

// MarshalInto re-encodes the record over the start of dst. Should dst be too
// small to hold the encoding, dst is left untouched.
func (r GreetingRecord) MarshalInto(dst []byte) error {
	encoded := r.Marshal()

	if len(dst) < len(encoded) {
		return errors.Wrapf(ErrBufferTooSmall, "have %d byte(s), need %d", len(dst), len(encoded))
	}

	copy(dst, encoded)

	return nil
}
