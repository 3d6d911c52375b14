package storage

import (
	"fmt"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/valekar/aptos-core/types"
)

// DBResolver serves committed state from a database.
type DBResolver struct {
	db dbm.DB
}

var _ types.Resolver = (*DBResolver)(nil)

// NewDBResolver creates a resolver over db. The resolver never writes.
func NewDBResolver(db dbm.DB) *DBResolver {
	return &DBResolver{db: db}
}

// ResolveTableEntry implements types.TableResolver.
func (r *DBResolver) ResolveTableEntry(h types.TableHandle, key []byte) ([]byte, error) {
	val, err := r.db.Get(TableEntryKey(h, key))
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", h, err)
	}
	return val, nil
}

// GetModule implements types.ModuleResolver.
func (r *DBResolver) GetModule(id types.ModuleID) ([]byte, error) {
	val, err := r.db.Get(ModuleKey(id))
	if err != nil {
		return nil, fmt.Errorf("read module %s: %w", id, err)
	}
	return val, nil
}

// GetModulePolicy returns the upgrade policy a module was published with.
// ok is false when the module does not exist.
func (r *DBResolver) GetModulePolicy(id types.ModuleID) (policy types.UpgradePolicy, ok bool, err error) {
	val, err := r.db.Get(PolicyKey(id))
	if err != nil {
		return 0, false, fmt.Errorf("read policy of %s: %w", id, err)
	}
	if len(val) != 1 {
		return 0, false, nil
	}
	return types.UpgradePolicy(val[0]), true, nil
}
