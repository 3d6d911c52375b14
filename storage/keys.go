// Package storage keeps committed state in a cometbft-db database and
// serves it to sessions as a resolver.
package storage

import "github.com/valekar/aptos-core/types"

// Key prefixes of the state layout.
const (
	prefixTableEntry   byte = 0x01
	prefixModuleCode   byte = 0x02
	prefixModulePolicy byte = 0x03
)

// TableEntryKey is 0x01 || handle || key.
func TableEntryKey(h types.TableHandle, key []byte) []byte {
	out := make([]byte, 0, 1+len(h)+len(key))
	out = append(out, prefixTableEntry)
	out = append(out, h[:]...)
	return append(out, key...)
}

// TablePrefix is the prefix shared by every entry of a table.
func TablePrefix(h types.TableHandle) []byte {
	return TableEntryKey(h, nil)
}

// ModuleKey is 0x02 || address || name.
func ModuleKey(id types.ModuleID) []byte {
	return moduleKey(prefixModuleCode, id)
}

// PolicyKey is 0x03 || address || name.
func PolicyKey(id types.ModuleID) []byte {
	return moduleKey(prefixModulePolicy, id)
}

func moduleKey(prefix byte, id types.ModuleID) []byte {
	out := make([]byte, 0, 1+types.AddressLen+len(id.Name))
	out = append(out, prefix)
	out = append(out, id.Address[:]...)
	return append(out, id.Name...)
}

// prefixEnd returns the exclusive end key for prefix iteration
func prefixEnd(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}

	// all 0xff: iterate to the end of the keyspace
	return nil
}

