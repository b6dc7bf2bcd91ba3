package greet

import (
	"testing"

	"github.com/perlin-network/greet/conf"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFunder(balance uint64) *AccountHandle {
	var id AccountID
	id[0] = 0x01

	return NewAccountHandle(id, Account{Owner: SystemProgramID, Lamports: balance}, true, true)
}

func newUnusedAccount() *AccountHandle {
	var id AccountID
	id[0] = 0x02

	return &AccountHandle{id: id, account: Account{Owner: SystemProgramID}, writable: true}
}

func TestSystemCreateAccount(t *testing.T) {
	funder := newFunder(1000)
	target := newUnusedAccount()

	payload := CreateAccount{Space: 4, Lamports: 250, Owner: GreetProgramID}.Marshal()

	require.NoError(t, ProcessSystemInstruction(SystemProgramID, []*AccountHandle{funder, target}, payload))

	assert.EqualValues(t, 750, funder.Lamports())
	assert.EqualValues(t, 250, target.Lamports())
	assert.Equal(t, GreetProgramID, target.Owner())
	assert.Equal(t, []byte{0, 0, 0, 0}, target.Data())
	assert.True(t, target.Exists())

	// Creating the same account twice within one transaction must fail.
	err := ProcessSystemInstruction(SystemProgramID, []*AccountHandle{funder, target}, payload)
	assert.Equal(t, ErrAccountExists, errors.Cause(err))
}

func TestSystemCreateAccountInsufficientBalance(t *testing.T) {
	funder := newFunder(100)
	target := newUnusedAccount()

	payload := CreateAccount{Space: 4, Lamports: 250, Owner: GreetProgramID}.Marshal()

	err := ProcessSystemInstruction(SystemProgramID, []*AccountHandle{funder, target}, payload)
	assert.Equal(t, ErrInsufficientBalance, errors.Cause(err))

	assert.EqualValues(t, 100, funder.Lamports())
	assert.False(t, target.Exists())
}

func TestSystemCreateAccountTooLarge(t *testing.T) {
	defer conf.Reset()
	conf.Update(conf.WithMaxAccountDataSize(16))

	funder := newFunder(1000)
	target := newUnusedAccount()

	payload := CreateAccount{Space: 17, Lamports: 1, Owner: GreetProgramID}.Marshal()

	err := ProcessSystemInstruction(SystemProgramID, []*AccountHandle{funder, target}, payload)
	assert.Equal(t, ErrDataTooLarge, errors.Cause(err))
}

func TestSystemCreateAccountMissingTarget(t *testing.T) {
	funder := newFunder(1000)

	payload := CreateAccount{Space: 4, Lamports: 1, Owner: GreetProgramID}.Marshal()

	err := ProcessSystemInstruction(SystemProgramID, []*AccountHandle{funder}, payload)
	assert.Equal(t, ErrMissingAccount, errors.Cause(err))
}

func TestSystemTransfer(t *testing.T) {
	funder := newFunder(1000)
	recipient := newUnusedAccount()

	require.NoError(t, ProcessSystemInstruction(SystemProgramID,
		[]*AccountHandle{funder, recipient}, Transfer{Amount: 400}.Marshal()))

	assert.EqualValues(t, 600, funder.Lamports())
	assert.EqualValues(t, 400, recipient.Lamports())
}

func TestSystemTransferInsufficientBalance(t *testing.T) {
	funder := newFunder(10)
	recipient := newUnusedAccount()

	err := ProcessSystemInstruction(SystemProgramID,
		[]*AccountHandle{funder, recipient}, Transfer{Amount: 400}.Marshal())
	assert.Equal(t, ErrInsufficientBalance, errors.Cause(err))

	assert.EqualValues(t, 10, funder.Lamports())
	assert.EqualValues(t, 0, recipient.Lamports())
}

func TestSystemTransferToSelf(t *testing.T) {
	funder := newFunder(1000)

	require.NoError(t, ProcessSystemInstruction(SystemProgramID,
		[]*AccountHandle{funder, funder}, Transfer{Amount: 400}.Marshal()))

	// Debit and credit land on the same handle and cancel out.
	assert.EqualValues(t, 1000, funder.Lamports())
}

func TestSystemAssign(t *testing.T) {
	funder := newFunder(1000)

	require.NoError(t, ProcessSystemInstruction(SystemProgramID,
		[]*AccountHandle{funder}, Assign{Owner: GreetProgramID}.Marshal()))

	assert.Equal(t, GreetProgramID, funder.Owner())

	// Once assigned away, the system program refuses to touch the
	// account again.
	err := ProcessSystemInstruction(SystemProgramID,
		[]*AccountHandle{funder}, Assign{Owner: SystemProgramID}.Marshal())
	assert.Equal(t, ErrIncorrectOwner, errors.Cause(err))
}

func TestSystemRequiresSigner(t *testing.T) {
	var id AccountID
	id[0] = 0x01

	funder := NewAccountHandle(id, Account{Owner: SystemProgramID, Lamports: 1000}, true, false)

	err := ProcessSystemInstruction(SystemProgramID,
		[]*AccountHandle{funder, newUnusedAccount()}, Transfer{Amount: 1}.Marshal())
	assert.Equal(t, ErrNotSigner, errors.Cause(err))
}

func TestSystemRequiresWritableFunder(t *testing.T) {
	var id AccountID
	id[0] = 0x01

	funder := NewAccountHandle(id, Account{Owner: SystemProgramID, Lamports: 1000}, false, true)

	err := ProcessSystemInstruction(SystemProgramID,
		[]*AccountHandle{funder, newUnusedAccount()}, Transfer{Amount: 1}.Marshal())
	assert.Equal(t, ErrReadonlyAccount, errors.Cause(err))
}

func TestSystemBadPayload(t *testing.T) {
	funder := newFunder(1000)

	err := ProcessSystemInstruction(SystemProgramID, []*AccountHandle{funder}, nil)
	assert.Equal(t, ErrMalformedPayload, errors.Cause(err))

	err = ProcessSystemInstruction(SystemProgramID, []*AccountHandle{funder}, []byte{0xff})
	assert.Equal(t, ErrMalformedPayload, errors.Cause(err))
}

func TestSystemMissingFunder(t *testing.T) {
	err := ProcessSystemInstruction(SystemProgramID, nil, Transfer{Amount: 1}.Marshal())
	assert.Equal(t, ErrMissingAccount, errors.Cause(err))
}
