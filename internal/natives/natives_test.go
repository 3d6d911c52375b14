package natives

import (
	"bytes"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valekar/aptos-core/types"
)

// mockResolver serves fixed state and counts reads.
type mockResolver struct {
	entries map[string][]byte
	modules map[types.ModuleID][]byte
	reads   int
	err     error
}

func newMockResolver() *mockResolver {
	return &mockResolver{
		entries: make(map[string][]byte),
		modules: make(map[types.ModuleID][]byte),
	}
}

func entryKey(h types.TableHandle, key []byte) string {
	return string(h[:]) + string(key)
}

func (r *mockResolver) put(h types.TableHandle, key, value []byte) {
	r.entries[entryKey(h, key)] = value
}

func (r *mockResolver) ResolveTableEntry(h types.TableHandle, key []byte) ([]byte, error) {
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	return r.entries[entryKey(h, key)], nil
}

func (r *mockResolver) GetModule(id types.ModuleID) ([]byte, error) {
	return r.modules[id], nil
}

func testScope() types.HashValue {
	return types.Sha3_256([]byte("scope"))
}

func committedHandle() types.TableHandle {
	return types.TableHandle(types.Sha3_256([]byte("committed")))
}

func TestNewTableHandleIsDeterministic(t *testing.T) {
	a := NewTableContext(testScope(), newMockResolver())
	b := NewTableContext(testScope(), newMockResolver())
	h1, h2 := a.NewTableHandle(), a.NewTableHandle()
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, h1, b.NewTableHandle())
	assert.Equal(t, h2, b.NewTableHandle())

	other := NewTableContext(types.Sha3_256([]byte("other")), newMockResolver())
	assert.NotEqual(t, h1, other.NewTableHandle())
}

func TestTableOperations(t *testing.T) {
	r := newMockResolver()
	h := committedHandle()
	r.put(h, []byte("a"), []byte("1"))
	c := NewTableContext(testScope(), r)

	ok, err := c.Contains(h, []byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, c.Add(h, []byte("a"), []byte("x")), ErrAlreadyExists)
	require.NoError(t, c.Add(h, []byte("b"), []byte("2")))

	val, err := c.Borrow(h, []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), val)

	_, err = c.Borrow(h, []byte("missing"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, c.Update(h, []byte("missing"), []byte("v")), ErrNotFound)
	_, err = c.Remove(h, []byte("missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Update(h, []byte("a"), []byte("10")))
	removed, err := c.Remove(h, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("10"), removed)

	ok, err = c.Contains(h, []byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTableReadsResolverOncePerKey(t *testing.T) {
	r := newMockResolver()
	h := committedHandle()
	r.put(h, []byte("a"), []byte("1"))
	c := NewTableContext(testScope(), r)

	for i := 0; i < 3; i++ {
		_, err := c.Borrow(h, []byte("a"))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, r.reads)

	// tables created in the session never hit the resolver
	nh := c.NewTableHandle()
	_, err := c.Contains(nh, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, 1, r.reads)
}

func TestTableResolverErrorPassesThrough(t *testing.T) {
	r := newMockResolver()
	r.err = errors.New("disk on fire")
	c := NewTableContext(testScope(), r)
	_, err := c.Borrow(committedHandle(), []byte("a"))
	assert.ErrorIs(t, err, r.err)
}

func TestChangeSetClassification(t *testing.T) {
	r := newMockResolver()
	h := committedHandle()
	r.put(h, []byte("modify"), []byte("old"))
	r.put(h, []byte("delete"), []byte("old"))
	r.put(h, []byte("restore"), []byte("old"))
	r.put(h, []byte("read"), []byte("old"))
	c := NewTableContext(testScope(), r)

	require.NoError(t, c.Update(h, []byte("modify"), []byte("new")))
	_, err := c.Remove(h, []byte("delete"))
	require.NoError(t, err)
	_, err = c.Remove(h, []byte("restore"))
	require.NoError(t, err)
	require.NoError(t, c.Add(h, []byte("restore"), []byte("again")))
	_, err = c.Borrow(h, []byte("read"))
	require.NoError(t, err)
	require.NoError(t, c.Add(h, []byte("new"), []byte("v")))
	require.NoError(t, c.Add(h, []byte("transient"), []byte("v")))
	_, err = c.Remove(h, []byte("transient"))
	require.NoError(t, err)

	cs := c.ChangeSet()
	assert.Empty(t, cs.NewTables)
	assert.Empty(t, cs.RemovedTables)
	require.Len(t, cs.Changes, 1)
	assert.Equal(t, h, cs.Changes[0].Handle)
	assert.Equal(t, []types.TableEntryChange{
		{Key: []byte("delete"), Op: types.Op{Kind: types.OpDelete}},
		{Key: []byte("modify"), Op: types.Op{Kind: types.OpModify, Value: []byte("new")}},
		{Key: []byte("new"), Op: types.Op{Kind: types.OpNew, Value: []byte("v")}},
		{Key: []byte("restore"), Op: types.Op{Kind: types.OpModify, Value: []byte("again")}},
	}, cs.Changes[0].Entries)
}

func TestChangeSetTables(t *testing.T) {
	r := newMockResolver()
	c := NewTableContext(testScope(), r)
	committed := committedHandle()

	kept := c.NewTableHandle()
	dropped := c.NewTableHandle()
	require.NoError(t, c.Add(kept, []byte("k"), []byte("v")))
	require.NoError(t, c.Add(dropped, []byte("k"), []byte("v")))
	c.DestroyTable(dropped)
	c.DestroyTable(committed)

	cs := c.ChangeSet()
	assert.Equal(t, []types.TableHandle{kept}, cs.NewTables)
	assert.Equal(t, []types.TableHandle{committed}, cs.RemovedTables)
	require.Len(t, cs.Changes, 1)
	assert.Equal(t, kept, cs.Changes[0].Handle)
	assert.False(t, cs.IsEmpty())
}

func TestDestroyedTableReadsEmpty(t *testing.T) {
	r := newMockResolver()
	h := committedHandle()
	r.put(h, []byte("k"), []byte("v"))
	c := NewTableContext(testScope(), r)

	c.DestroyTable(h)
	ok, err := c.Contains(h, []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = c.Borrow(h, []byte("k"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, r.reads)

	// writes after the destroy start from an empty table
	require.NoError(t, c.Add(h, []byte("k"), []byte("w")))
	cs := c.ChangeSet()
	assert.Equal(t, []types.TableHandle{h}, cs.RemovedTables)
	require.Len(t, cs.Changes, 1)
	assert.Equal(t, []types.TableEntryChange{
		{Key: []byte("k"), Op: types.Op{Kind: types.OpNew, Value: []byte("w")}},
	}, cs.Changes[0].Entries)
}

func TestScriptHashIsCopied(t *testing.T) {
	src := []byte{1, 2}
	c := NewTransactionContext(src)
	src[0] = 9
	got := c.ScriptHash()
	assert.Equal(t, []byte{1, 2}, got)
	got[1] = 9
	assert.Equal(t, []byte{1, 2}, c.ScriptHash())
}

func TestChangeSetOrdering(t *testing.T) {
	c := NewTableContext(testScope(), newMockResolver())
	var handles []types.TableHandle
	for i := 0; i < 5; i++ {
		h := c.NewTableHandle()
		handles = append(handles, h)
		for _, k := range []string{"z", "a", "m"} {
			require.NoError(t, c.Add(h, []byte(k), []byte(k)))
		}
	}
	sort.Slice(handles, func(i, j int) bool { return bytes.Compare(handles[i][:], handles[j][:]) < 0 })

	cs := c.ChangeSet()
	assert.Equal(t, handles, cs.NewTables)
	require.Len(t, cs.Changes, 5)
	for i, tc := range cs.Changes {
		assert.Equal(t, handles[i], tc.Handle)
		require.Len(t, tc.Entries, 3)
		assert.Equal(t, []byte("a"), tc.Entries[0].Key)
		assert.Equal(t, []byte("m"), tc.Entries[1].Key)
		assert.Equal(t, []byte("z"), tc.Entries[2].Key)
	}
}

func TestEmptyChangeSet(t *testing.T) {
	c := NewTableContext(testScope(), newMockResolver())
	assert.True(t, c.ChangeSet().IsEmpty())
}

func TestCodeContext(t *testing.T) {
	owner := types.MustParseAccountAddress("0x1")
	c := NewCodeContext()
	assert.Nil(t, c.PendingRequest())

	require.NoError(t, c.RequestPublish(owner, types.Module{Name: "a", Code: []byte{1}}, types.UpgradePolicyCompatible))
	require.NoError(t, c.RequestPublish(owner, types.Module{Name: "b", Code: []byte{2}}, types.UpgradePolicyCompatible))

	assert.ErrorIs(t, c.RequestPublish(owner, types.Module{Name: "a"}, types.UpgradePolicyCompatible), ErrDuplicateModule)
	assert.ErrorIs(t, c.RequestPublish(owner, types.Module{Name: "c"}, types.UpgradePolicyImmutable), ErrAlreadyRequested)
	assert.ErrorIs(t, c.RequestPublish(types.MustParseAccountAddress("0x2"), types.Module{Name: "c"}, types.UpgradePolicyCompatible), ErrAlreadyRequested)
	assert.ErrorIs(t, c.RequestPublish(owner, types.Module{Name: "c"}, types.UpgradePolicy(9)), ErrInvalidPolicy)

	req := c.ExtractPublishRequest()
	require.NotNil(t, req)
	assert.Equal(t, owner, req.Destination)
	assert.Equal(t, types.UpgradePolicyCompatible, req.Policy)
	require.Len(t, req.Modules, 2)
	assert.Equal(t, "a", req.Modules[0].Name)
	assert.Nil(t, c.ExtractPublishRequest())

	// a new request may start once the previous one was taken
	require.NoError(t, c.RequestPublish(types.MustParseAccountAddress("0x2"), types.Module{Name: "a"}, types.UpgradePolicyArbitrary))
}

func TestNewExtensionsTxn(t *testing.T) {
	hash := types.Sha3_256([]byte("script"))
	id := types.TxnSessionID{
		Sender:         types.MustParseAccountAddress("0x1"),
		SequenceNumber: 3,
		ScriptHash:     hash.Bytes(),
	}
	ext, err := NewExtensions(newMockResolver(), id)
	require.NoError(t, err)

	scope, err := types.SessionScope(id)
	require.NoError(t, err)
	assert.Equal(t, scope, ext.Table.Scope())
	assert.Equal(t, hash.Bytes(), ext.Transaction.ScriptHash())
	assert.Nil(t, ext.Code.PendingRequest())
	assert.True(t, ext.Table.ChangeSet().IsEmpty())

	// a pointer id carries the same hash
	assert.Equal(t, hash.Bytes(), ScriptHash(&id))
}

func TestNewExtensionsNonTxnHasEmptyScriptHash(t *testing.T) {
	for _, id := range []types.SessionID{
		types.BlockMetaSessionID{ID: types.Sha3_256([]byte("b"))},
		types.GenesisSessionID{},
		types.VoidSessionID{},
	} {
		ext, err := NewExtensions(newMockResolver(), id)
		require.NoError(t, err, id.Kind())
		assert.NotNil(t, ext.Transaction.ScriptHash(), id.Kind())
		assert.Empty(t, ext.Transaction.ScriptHash(), id.Kind())
	}
}

func TestNewExtensionsIsFreshPerSession(t *testing.T) {
	id := types.VoidSessionID{}
	r := newMockResolver()
	a, err := NewExtensions(r, id)
	require.NoError(t, err)
	b, err := NewExtensions(r, id)
	require.NoError(t, err)

	assert.Equal(t, a.Table.Scope(), b.Table.Scope())
	assert.Equal(t, a.Table.NewTableHandle(), b.Table.NewTableHandle())
	require.NoError(t, a.Code.RequestPublish(types.AccountAddress{}, types.Module{Name: "m"}, types.UpgradePolicyArbitrary))
	assert.Nil(t, b.Code.PendingRequest())
}

func TestNewExtensionsErrors(t *testing.T) {
	_, err := NewExtensions(nil, types.VoidSessionID{})
	assert.Error(t, err)
	_, err = NewExtensions(newMockResolver(), nil)
	assert.Error(t, err)
}

func TestCatalogue(t *testing.T) {
	fns := Catalogue(types.DefaultNativeGasParameters())
	names := make(map[string]bool)
	for _, f := range fns {
		assert.NotNil(t, f.Fn, f.QualifiedName())
		assert.False(t, names[f.QualifiedName()], "duplicate %s", f.QualifiedName())
		names[f.QualifiedName()] = true
	}
	for _, want := range []string{
		"table.new_table_handle", "table.add_box", "table.borrow_box", "table.contains_box",
		"table.update_box", "table.remove_box", "table.destroy_table",
		"transaction_context.get_script_hash", "code.request_publish",
		"hash.sha3_256", "hash.keccak256",
	} {
		assert.True(t, names[want], want)
	}
	assert.Len(t, fns, 11)
}
