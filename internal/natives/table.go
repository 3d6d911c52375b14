package natives

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sort"

	"github.com/google/btree"

	"github.com/valekar/aptos-core/types"
)

// Abort codes raised by the table natives.
const (
	AbortAlreadyExists uint64 = 100 << 8
	AbortNotFound      uint64 = 101 << 8
)

var (
	ErrAlreadyExists = errors.New("table entry already exists")
	ErrNotFound      = errors.New("table entry not found")
)

const btreeDegree = 8

// TableContext is the storage-table capability of a session. It reads
// through the resolver at most once per key and buffers every write until
// the change set is taken.
type TableContext struct {
	scope    types.HashValue
	resolver types.TableResolver

	counter       uint32
	newTables     map[types.TableHandle]struct{}
	removedTables map[types.TableHandle]struct{}
	tables        map[types.TableHandle]*table
}

type table struct {
	content *btree.BTreeG[*entry]
}

type entry struct {
	key []byte
	// original is the resolver value; nil when the key did not exist.
	original []byte
	value    []byte
	exists   bool
	dirty    bool
}

func entryLess(a, b *entry) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// NewTableContext creates the table capability for a session scope.
func NewTableContext(scope types.HashValue, resolver types.TableResolver) *TableContext {
	return &TableContext{
		scope:         scope,
		resolver:      resolver,
		newTables:     make(map[types.TableHandle]struct{}),
		removedTables: make(map[types.TableHandle]struct{}),
		tables:        make(map[types.TableHandle]*table),
	}
}

// Scope returns the session scope new handles are derived from.
func (c *TableContext) Scope() types.HashValue {
	return c.scope
}

// NewTableHandle derives the next handle of the session:
// sha3-256(scope || be32(counter)).
func (c *TableContext) NewTableHandle() types.TableHandle {
	buf := make([]byte, 0, types.HashValueLen+4)
	buf = append(buf, c.scope[:]...)
	buf = binary.BigEndian.AppendUint32(buf, c.counter)
	c.counter++
	h := types.TableHandle(types.Sha3_256(buf))
	c.newTables[h] = struct{}{}
	return h
}

func (c *TableContext) table(h types.TableHandle) *table {
	t, ok := c.tables[h]
	if !ok {
		t = &table{content: btree.NewG(btreeDegree, entryLess)}
		c.tables[h] = t
	}
	return t
}

func (c *TableContext) load(h types.TableHandle, key []byte) (*entry, error) {
	t := c.table(h)
	if e, ok := t.content.Get(&entry{key: key}); ok {
		return e, nil
	}
	e := &entry{key: append([]byte(nil), key...)}
	if c.resolvable(h) {
		val, err := c.resolver.ResolveTableEntry(h, key)
		if err != nil {
			return nil, err
		}
		if val != nil {
			e.original = val
			e.value = val
			e.exists = true
		}
	}
	t.content.ReplaceOrInsert(e)
	return e, nil
}

// resolvable reports whether h may have committed entries visible to this
// session. Tables created or destroyed in the session have none.
func (c *TableContext) resolvable(h types.TableHandle) bool {
	if _, ok := c.newTables[h]; ok {
		return false
	}
	_, removed := c.removedTables[h]
	return !removed
}

// Add inserts a new entry. It fails with ErrAlreadyExists if key is present.
func (c *TableContext) Add(h types.TableHandle, key, value []byte) error {
	e, err := c.load(h, key)
	if err != nil {
		return err
	}
	if e.exists {
		return ErrAlreadyExists
	}
	e.value = append([]byte{}, value...)
	e.exists = true
	e.dirty = true
	return nil
}

// Borrow returns the current value of key.
func (c *TableContext) Borrow(h types.TableHandle, key []byte) ([]byte, error) {
	e, err := c.load(h, key)
	if err != nil {
		return nil, err
	}
	if !e.exists {
		return nil, ErrNotFound
	}
	return e.value, nil
}

// Contains reports whether key is present.
func (c *TableContext) Contains(h types.TableHandle, key []byte) (bool, error) {
	e, err := c.load(h, key)
	if err != nil {
		return false, err
	}
	return e.exists, nil
}

// Update overwrites an existing entry.
func (c *TableContext) Update(h types.TableHandle, key, value []byte) error {
	e, err := c.load(h, key)
	if err != nil {
		return err
	}
	if !e.exists {
		return ErrNotFound
	}
	e.value = append([]byte{}, value...)
	e.dirty = true
	return nil
}

// Remove deletes key and returns the value it held.
func (c *TableContext) Remove(h types.TableHandle, key []byte) ([]byte, error) {
	e, err := c.load(h, key)
	if err != nil {
		return nil, err
	}
	if !e.exists {
		return nil, ErrNotFound
	}
	val := e.value
	e.value = nil
	e.exists = false
	e.dirty = true
	return val, nil
}

// DestroyTable drops a table and every buffered write to it. Tables created
// in this session simply disappear; committed tables are marked removed.
func (c *TableContext) DestroyTable(h types.TableHandle) {
	delete(c.tables, h)
	if _, ok := c.newTables[h]; ok {
		delete(c.newTables, h)
		return
	}
	c.removedTables[h] = struct{}{}
}

// ChangeSet classifies every touched entry against its original value.
// Tables, handles and keys are emitted in ascending byte order.
func (c *TableContext) ChangeSet() types.TableChangeSet {
	var cs types.TableChangeSet
	cs.NewTables = sortedHandles(c.newTables)
	cs.RemovedTables = sortedHandles(c.removedTables)

	handles := make([]types.TableHandle, 0, len(c.tables))
	for h := range c.tables {
		handles = append(handles, h)
	}
	sortHandles(handles)

	for _, h := range handles {
		var entries []types.TableEntryChange
		c.tables[h].content.Ascend(func(e *entry) bool {
			if !e.dirty {
				return true
			}
			existed := e.original != nil
			switch {
			case existed && e.exists:
				entries = append(entries, types.TableEntryChange{Key: e.key, Op: types.Op{Kind: types.OpModify, Value: e.value}})
			case existed && !e.exists:
				entries = append(entries, types.TableEntryChange{Key: e.key, Op: types.Op{Kind: types.OpDelete}})
			case !existed && e.exists:
				entries = append(entries, types.TableEntryChange{Key: e.key, Op: types.Op{Kind: types.OpNew, Value: e.value}})
			}
			return true
		})
		if len(entries) > 0 {
			cs.Changes = append(cs.Changes, types.TableChange{Handle: h, Entries: entries})
		}
	}
	return cs
}

func sortedHandles(set map[types.TableHandle]struct{}) []types.TableHandle {
	if len(set) == 0 {
		return nil
	}
	out := make([]types.TableHandle, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sortHandles(out)
	return out
}

func sortHandles(hs []types.TableHandle) {
	sort.Slice(hs, func(i, j int) bool {
		return bytes.Compare(hs[i][:], hs[j][:]) < 0
	})
}
