package greet

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// Entrypoint is the call signature every native program exports. The
// runtime invokes it with the program's own ID, handles for the
// accounts the instruction references in reference order, and the raw
// instruction payload.
type Entrypoint func(programID AccountID, accounts []*AccountHandle, data []byte) error

// Builtin program IDs are derived from well-known names so that every
// node provisions them identically without a deploy step.
var (
	SystemProgramID = ProgramIDFromName("system")
	GreetProgramID  = ProgramIDFromName("greet")
)

func ProgramIDFromName(name string) AccountID {
	return blake2b.Sum256([]byte("greet.program." + name))
}

// Registry maps program IDs to the entrypoints of the native programs
// loaded into this node. Registration happens once at startup; lookups
// afterwards are read-only.
type Registry struct {
	programs map[AccountID]Entrypoint
}

func NewRegistry(programs map[AccountID]Entrypoint) *Registry {
	r := &Registry{programs: make(map[AccountID]Entrypoint, len(programs))}

	for id, entrypoint := range programs {
		r.programs[id] = entrypoint
	}

	return r
}

func (r *Registry) Register(id AccountID, entrypoint Entrypoint) {
	r.programs[id] = entrypoint
}

func (r *Registry) Entrypoint(id AccountID) (Entrypoint, error) {
	entrypoint, registered := r.programs[id]
	if !registered {
		return nil, errors.Wrapf(ErrProgramNotFound, "no program registered under id %x", id)
	}

	return entrypoint, nil
}

// IDs returns the registered program IDs in a stable byte order.
func (r *Registry) IDs() []AccountID {
	ids := make([]AccountID, 0, len(r.programs))

	for id := range r.programs {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	return ids
}
