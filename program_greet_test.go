package greet

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGreetedAccount(t *testing.T, owner AccountID, data []byte) *AccountHandle {
	t.Helper()

	var id AccountID
	id[0] = 0x47

	return NewAccountHandle(id, Account{Owner: owner, Data: data}, true, false)
}

func TestProcessInstruction(t *testing.T) {
	target := newGreetedAccount(t, GreetProgramID, make([]byte, SizeGreetingRecord))

	require.NoError(t, ProcessInstruction(GreetProgramID, []*AccountHandle{target}, nil))
	assert.Equal(t, []byte{1, 0, 0, 0}, target.Data())

	require.NoError(t, ProcessInstruction(GreetProgramID, []*AccountHandle{target}, nil))
	assert.Equal(t, []byte{2, 0, 0, 0}, target.Data())
}

func TestProcessInstructionCountsSequentially(t *testing.T) {
	target := newGreetedAccount(t, GreetProgramID, make([]byte, SizeGreetingRecord))

	for i := 0; i < 64; i++ {
		require.NoError(t, ProcessInstruction(GreetProgramID, []*AccountHandle{target}, nil))
	}

	var record GreetingRecord
	require.NoError(t, record.Unmarshal(target.Data()))
	assert.EqualValues(t, 64, record.Counter)
}

func TestProcessInstructionWrapsAround(t *testing.T) {
	data := GreetingRecord{Counter: math.MaxUint32}.Marshal()
	target := newGreetedAccount(t, GreetProgramID, data)

	require.NoError(t, ProcessInstruction(GreetProgramID, []*AccountHandle{target}, nil))

	var record GreetingRecord
	require.NoError(t, record.Unmarshal(target.Data()))
	assert.EqualValues(t, 0, record.Counter)
}

func TestProcessInstructionMissingAccount(t *testing.T) {
	err := ProcessInstruction(GreetProgramID, nil, nil)
	assert.Equal(t, ErrMissingAccount, errors.Cause(err))
}

func TestProcessInstructionIncorrectOwner(t *testing.T) {
	data := []byte{7, 0, 0, 0}
	target := newGreetedAccount(t, SystemProgramID, data)

	err := ProcessInstruction(GreetProgramID, []*AccountHandle{target}, nil)
	assert.Equal(t, ErrIncorrectOwner, errors.Cause(err))

	// A rejected greeting must leave the record untouched.
	assert.Equal(t, []byte{7, 0, 0, 0}, target.Data())
}

func TestProcessInstructionMalformedRecord(t *testing.T) {
	target := newGreetedAccount(t, GreetProgramID, []byte{1, 2})

	err := ProcessInstruction(GreetProgramID, []*AccountHandle{target}, nil)
	assert.Equal(t, ErrMalformedRecord, errors.Cause(err))
	assert.Equal(t, []byte{1, 2}, target.Data())
}

func TestProcessInstructionIgnoresPayload(t *testing.T) {
	target := newGreetedAccount(t, GreetProgramID, make([]byte, SizeGreetingRecord))

	require.NoError(t, ProcessInstruction(GreetProgramID, []*AccountHandle{target}, []byte("whatever")))
	assert.Equal(t, []byte{1, 0, 0, 0}, target.Data())
}

func TestProcessInstructionTrailingData(t *testing.T) {
	// Records only claim the first four bytes of the account; anything
	// after them belongs to the account owner and must survive.
	target := newGreetedAccount(t, GreetProgramID, []byte{5, 0, 0, 0, 0xaa, 0xbb})

	require.NoError(t, ProcessInstruction(GreetProgramID, []*AccountHandle{target}, nil))
	assert.Equal(t, []byte{6, 0, 0, 0, 0xaa, 0xbb}, target.Data())
}
