package types

import "fmt"

// OpKind classifies a write against its value before the session.
type OpKind uint8

const (
	OpNew OpKind = iota
	OpModify
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpNew:
		return "new"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Op is a single write. Value is empty for OpDelete.
type Op struct {
	Kind  OpKind
	Value []byte
}

// TableEntryChange is a write to one key of a table.
type TableEntryChange struct {
	Key []byte
	Op  Op
}

// TableChange holds the writes to one table, ordered by key.
type TableChange struct {
	Handle  TableHandle
	Entries []TableEntryChange
}

// TableChangeSet is everything a session did to tables.
type TableChangeSet struct {
	NewTables     []TableHandle
	RemovedTables []TableHandle
	Changes       []TableChange
}

// IsEmpty reports whether the change set carries no effect.
func (cs TableChangeSet) IsEmpty() bool {
	return len(cs.NewTables) == 0 && len(cs.RemovedTables) == 0 && len(cs.Changes) == 0
}

// UpgradePolicy restricts how a published module may be replaced.
type UpgradePolicy uint8

const (
	UpgradePolicyArbitrary UpgradePolicy = iota
	UpgradePolicyCompatible
	UpgradePolicyImmutable
)

func (p UpgradePolicy) String() string {
	switch p {
	case UpgradePolicyArbitrary:
		return "arbitrary"
	case UpgradePolicyCompatible:
		return "compatible"
	case UpgradePolicyImmutable:
		return "immutable"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
}

// Valid reports whether p is a known policy.
func (p UpgradePolicy) Valid() bool {
	return p <= UpgradePolicyImmutable
}

// Module is one named code blob.
type Module struct {
	Name string
	Code []byte
}

// PublishRequest is the code a session asked to publish under one account.
type PublishRequest struct {
	Destination AccountAddress
	Modules     []Module
	Policy      UpgradePolicy
}

// ChangeSet is the outcome of a finished session.
type ChangeSet struct {
	Tables TableChangeSet
	// Publish is nil when no code was requested.
	Publish *PublishRequest
}
