package natives

import (
	"fmt"

	"github.com/valekar/aptos-core/types"
)

// Extensions is the native capability set of one session. Each capability
// kind has exactly one slot, so a bundle can neither miss nor duplicate one.
type Extensions struct {
	Table       *TableContext
	Transaction *TransactionContext
	Code        *CodeContext
}

// NewExtensions builds a fresh bundle for a session. The resolver is only
// referenced, never owned.
func NewExtensions(resolver types.Resolver, id types.SessionID) (*Extensions, error) {
	if resolver == nil {
		return nil, fmt.Errorf("nil resolver")
	}
	scope, err := types.SessionScope(id)
	if err != nil {
		return nil, err
	}
	return &Extensions{
		Table:       NewTableContext(scope, resolver),
		Transaction: NewTransactionContext(ScriptHash(id)),
		Code:        NewCodeContext(),
	}, nil
}

// ScriptHash returns the code hash carried by a transaction session id and an
// empty hash for every other kind.
func ScriptHash(id types.SessionID) []byte {
	switch txn := id.(type) {
	case types.TxnSessionID:
		return txn.ScriptHash
	case *types.TxnSessionID:
		if txn != nil {
			return txn.ScriptHash
		}
	}
	return []byte{}
}
