package sys

// System program opcodes.
const (
	SysOpCreateAccount byte = iota
	SysOpTransfer
	SysOpAssign
)

var (
	// S/Kademlia wallet generation difficulty parameters.
	SKademliaC1 = 1
	SKademliaC2 = 1

	// Hard cap on the marshaled size of a transaction.
	MaxTransactionSize = 10 * 1024

	// Hard cap on the number of instructions bundled into a single
	// transaction.
	MaxInstructionsPerTransaction = 16

	// Hard cap on the number of account references a single instruction
	// may carry.
	MaxAccountRefsPerInstruction = 32
)
