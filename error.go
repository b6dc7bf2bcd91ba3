package greet

import "github.com/pkg/errors"

// Errors programs report back to the runtime.
var (
	ErrMissingAccount  = errors.New("instruction is missing a required account")
	ErrIncorrectOwner  = errors.New("account is not owned by the program")
	ErrMalformedRecord = errors.New("account data does not hold a valid record")
	ErrBufferTooSmall  = errors.New("account data is too small to hold the record")

	ErrMalformedPayload    = errors.New("instruction payload is malformed")
	ErrNotSigner           = errors.New("account did not sign the transaction")
	ErrReadonlyAccount     = errors.New("account is not writable")
	ErrAccountExists       = errors.New("account already exists")
	ErrInsufficientBalance = errors.New("account balance is insufficient")
	ErrDataTooLarge        = errors.New("account data size exceeds the limit")
)

// Errors raised by the runtime itself.
var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrProgramNotFound  = errors.New("no program registered under the given id")
	ErrNotExecutable    = errors.New("account is not an executable program")
	ErrInvalidSignature = errors.New("transaction signature is invalid")
	ErrInvalidNonce     = errors.New("transaction nonce does not match the sender nonce")
	ErrTxQueueFull      = errors.New("mempool is at capacity")
)
