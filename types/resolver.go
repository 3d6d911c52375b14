package types

import (
	"encoding/hex"
	"fmt"
)

// TableHandle identifies a table created by a native.
type TableHandle [HashValueLen]byte

func (h TableHandle) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Bytes returns the handle as a byte slice.
func (h TableHandle) Bytes() []byte {
	return h[:]
}

// ModuleID names a published code module.
type ModuleID struct {
	Address AccountAddress
	Name    string
}

func (id ModuleID) String() string {
	return fmt.Sprintf("%s::%s", id.Address, id.Name)
}

// TableResolver reads committed table entries.
// A missing entry is reported as (nil, nil).
type TableResolver interface {
	ResolveTableEntry(handle TableHandle, key []byte) ([]byte, error)
}

// ModuleResolver reads published code.
// A missing module is reported as (nil, nil).
type ModuleResolver interface {
	GetModule(id ModuleID) ([]byte, error)
}

// Resolver is the read-only view of persistent state a session runs against.
// It is borrowed for the duration of one session and must not change while
// the session is open.
type Resolver interface {
	TableResolver
	ModuleResolver
}
