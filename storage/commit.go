package storage

import (
	"errors"
	"fmt"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/valekar/aptos-core/types"
)

var (
	ErrImmutableModule = errors.New("module is immutable")
	ErrPolicyDowngrade = errors.New("upgrade policy cannot be weakened")
)

// Commit applies a finished session's change set to db in one batch.
// Removed tables are cleared before entry writes are applied.
func Commit(db dbm.DB, cs *types.ChangeSet) error {
	if cs == nil {
		return nil
	}
	if err := checkPublish(NewDBResolver(db), cs.Publish); err != nil {
		return err
	}

	batch := db.NewBatch()
	defer batch.Close()

	for _, h := range cs.Tables.RemovedTables {
		if err := deletePrefix(db, batch, TablePrefix(h)); err != nil {
			return fmt.Errorf("remove table %s: %w", h, err)
		}
	}
	for _, tc := range cs.Tables.Changes {
		for _, e := range tc.Entries {
			key := TableEntryKey(tc.Handle, e.Key)
			var err error
			switch e.Op.Kind {
			case types.OpNew, types.OpModify:
				err = batch.Set(key, e.Op.Value)
			case types.OpDelete:
				err = batch.Delete(key)
			default:
				err = fmt.Errorf("unknown op %s", e.Op.Kind)
			}
			if err != nil {
				return fmt.Errorf("write table %s: %w", tc.Handle, err)
			}
		}
	}
	if req := cs.Publish; req != nil {
		for _, m := range req.Modules {
			id := types.ModuleID{Address: req.Destination, Name: m.Name}
			if err := batch.Set(ModuleKey(id), m.Code); err != nil {
				return fmt.Errorf("write module %s: %w", id, err)
			}
			if err := batch.Set(PolicyKey(id), []byte{byte(req.Policy)}); err != nil {
				return fmt.Errorf("write policy of %s: %w", id, err)
			}
		}
	}
	return batch.WriteSync()
}

func checkPublish(r *DBResolver, req *types.PublishRequest) error {
	if req == nil {
		return nil
	}
	for _, m := range req.Modules {
		id := types.ModuleID{Address: req.Destination, Name: m.Name}
		old, ok, err := r.GetModulePolicy(id)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if old == types.UpgradePolicyImmutable {
			return fmt.Errorf("%w: %s", ErrImmutableModule, id)
		}
		if req.Policy < old {
			return fmt.Errorf("%w: %s from %s to %s", ErrPolicyDowngrade, id, old, req.Policy)
		}
	}
	return nil
}

func deletePrefix(db dbm.DB, batch dbm.Batch, prefix []byte) error {
	it, err := db.Iterator(prefix, prefixEnd(prefix))
	if err != nil {
		return err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		if err := batch.Delete(append([]byte(nil), it.Key()...)); err != nil {
			return err
		}
	}
	return it.Error()
}
