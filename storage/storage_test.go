package storage

import (
	"testing"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valekar/aptos-core/types"
)

func handle(b byte) types.TableHandle {
	var h types.TableHandle
	h[0] = b
	return h
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte{0x01, 0x03}, prefixEnd([]byte{0x01, 0x02}))
	assert.Equal(t, []byte{0x02}, prefixEnd([]byte{0x01, 0xff}))
	assert.Nil(t, prefixEnd([]byte{0xff, 0xff}))
	assert.Nil(t, prefixEnd(nil))
}

func TestKeysDoNotCollide(t *testing.T) {
	id := types.ModuleID{Address: types.MustParseAccountAddress("0x1"), Name: "coin"}
	assert.NotEqual(t, ModuleKey(id), PolicyKey(id))
	assert.Equal(t, byte(0x01), TableEntryKey(handle(1), []byte("k"))[0])
	assert.Len(t, TablePrefix(handle(1)), 1+types.HashValueLen)
}

func TestCommitTables(t *testing.T) {
	db := dbm.NewMemDB()
	r := NewDBResolver(db)

	h := handle(7)
	cs := &types.ChangeSet{Tables: types.TableChangeSet{
		NewTables: []types.TableHandle{h},
		Changes: []types.TableChange{{
			Handle: h,
			Entries: []types.TableEntryChange{
				{Key: []byte("a"), Op: types.Op{Kind: types.OpNew, Value: []byte("1")}},
				{Key: []byte("b"), Op: types.Op{Kind: types.OpNew, Value: []byte("2")}},
			},
		}},
	}}
	require.NoError(t, Commit(db, cs))

	v, err := r.ResolveTableEntry(h, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	cs = &types.ChangeSet{Tables: types.TableChangeSet{
		Changes: []types.TableChange{{
			Handle: h,
			Entries: []types.TableEntryChange{
				{Key: []byte("a"), Op: types.Op{Kind: types.OpModify, Value: []byte("10")}},
				{Key: []byte("b"), Op: types.Op{Kind: types.OpDelete}},
			},
		}},
	}}
	require.NoError(t, Commit(db, cs))

	v, err = r.ResolveTableEntry(h, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("10"), v)
	v, err = r.ResolveTableEntry(h, []byte("b"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCommitRemovedTable(t *testing.T) {
	db := dbm.NewMemDB()
	r := NewDBResolver(db)
	gone, kept := handle(1), handle(2)

	require.NoError(t, db.Set(TableEntryKey(gone, []byte("x")), []byte("1")))
	require.NoError(t, db.Set(TableEntryKey(gone, []byte("y")), []byte("2")))
	require.NoError(t, db.Set(TableEntryKey(kept, []byte("x")), []byte("3")))

	cs := &types.ChangeSet{Tables: types.TableChangeSet{RemovedTables: []types.TableHandle{gone}}}
	require.NoError(t, Commit(db, cs))

	for _, k := range []string{"x", "y"} {
		v, err := r.ResolveTableEntry(gone, []byte(k))
		require.NoError(t, err)
		assert.Nil(t, v, k)
	}
	v, err := r.ResolveTableEntry(kept, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), v)
}

func TestCommitPublish(t *testing.T) {
	db := dbm.NewMemDB()
	r := NewDBResolver(db)
	addr := types.MustParseAccountAddress("0xcafe")
	id := types.ModuleID{Address: addr, Name: "m"}

	publish := func(policy types.UpgradePolicy, code string) error {
		return Commit(db, &types.ChangeSet{Publish: &types.PublishRequest{
			Destination: addr,
			Modules:     []types.Module{{Name: "m", Code: []byte(code)}},
			Policy:      policy,
		}})
	}

	code, err := r.GetModule(id)
	require.NoError(t, err)
	assert.Nil(t, code)
	_, ok, err := r.GetModulePolicy(id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, publish(types.UpgradePolicyCompatible, "v1"))
	code, err = r.GetModule(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), code)
	policy, ok, err := r.GetModulePolicy(id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.UpgradePolicyCompatible, policy)

	err = publish(types.UpgradePolicyArbitrary, "v2")
	assert.ErrorIs(t, err, ErrPolicyDowngrade)

	require.NoError(t, publish(types.UpgradePolicyImmutable, "v2"))
	err = publish(types.UpgradePolicyImmutable, "v3")
	assert.ErrorIs(t, err, ErrImmutableModule)

	code, err = r.GetModule(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), code)
}

func TestCommitNil(t *testing.T) {
	assert.NoError(t, Commit(dbm.NewMemDB(), nil))
}

func TestChangeSetCodec(t *testing.T) {
	h := handle(3)
	cs := &types.ChangeSet{
		Tables: types.TableChangeSet{
			NewTables:     []types.TableHandle{h},
			RemovedTables: []types.TableHandle{handle(4)},
			Changes: []types.TableChange{{
				Handle: h,
				Entries: []types.TableEntryChange{
					{Key: []byte("a"), Op: types.Op{Kind: types.OpNew, Value: []byte("1")}},
					{Key: []byte("b"), Op: types.Op{Kind: types.OpDelete}},
				},
			}},
		},
		Publish: &types.PublishRequest{
			Destination: types.MustParseAccountAddress("0x1"),
			Modules:     []types.Module{{Name: "m", Code: []byte{0, 97, 115, 109}}},
			Policy:      types.UpgradePolicyImmutable,
		},
	}
	bz, err := EncodeChangeSet(cs)
	require.NoError(t, err)
	decoded, err := DecodeChangeSet(bz)
	require.NoError(t, err)
	assert.Equal(t, cs, decoded)

	// a decoded change set commits like the original
	db := dbm.NewMemDB()
	require.NoError(t, Commit(db, decoded))
	v, err := NewDBResolver(db).ResolveTableEntry(h, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	_, err = DecodeChangeSet([]byte{0xc1})
	assert.Error(t, err)
}

func TestCommitRemovedTableThenWrite(t *testing.T) {
	db := dbm.NewMemDB()
	h := handle(5)
	require.NoError(t, db.Set(TableEntryKey(h, []byte("old")), []byte("1")))
	require.NoError(t, db.Set(TableEntryKey(h, []byte("k")), []byte("1")))

	require.NoError(t, Commit(db, &types.ChangeSet{Tables: types.TableChangeSet{
		RemovedTables: []types.TableHandle{h},
		Changes: []types.TableChange{{
			Handle:  h,
			Entries: []types.TableEntryChange{{Key: []byte("k"), Op: types.Op{Kind: types.OpNew, Value: []byte("2")}}},
		}},
	}}))

	r := NewDBResolver(db)
	v, err := r.ResolveTableEntry(h, []byte("old"))
	require.NoError(t, err)
	assert.Nil(t, v)
	v, err = r.ResolveTableEntry(h, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}
