package natives

import (
	"context"
	"errors"

	"github.com/tetratelabs/wazero/api"

	"github.com/valekar/aptos-core/types"
)

func tableNatives(p types.TableGasParameters) []Function {
	mod := p.Module
	return []Function{
		{
			Module: mod, Name: "new_table_handle",
			Params: []api.ValueType{i32},
			Fn: func(ctx context.Context, m api.Module, stack []uint64) {
				st := callFromContext(ctx)
				st.charge(mod+".new_table_handle", p.NewTableHandle, 0)
				h := st.ext.Table.NewTableHandle()
				writeMemory(m, uint32(stack[0]), h[:])
			},
		},
		{
			Module: mod, Name: "add_box",
			Params: []api.ValueType{i32, i32, i32, i32, i32},
			Fn: func(ctx context.Context, m api.Module, stack []uint64) {
				loc := mod + ".add_box"
				st := callFromContext(ctx)
				h := readHandle(m, uint32(stack[0]))
				key := readMemory(m, uint32(stack[1]), uint32(stack[2]))
				val := readMemory(m, uint32(stack[3]), uint32(stack[4]))
				st.charge(loc, p.AddBox, len(key)+len(val))
				if err := st.ext.Table.Add(h, key, val); err != nil {
					tableFailure(loc, err)
				}
			},
		},
		{
			Module: mod, Name: "borrow_box",
			Params:  []api.ValueType{i32, i32, i32, i32, i32},
			Results: []api.ValueType{i32},
			Fn: func(ctx context.Context, m api.Module, stack []uint64) {
				loc := mod + ".borrow_box"
				st := callFromContext(ctx)
				h := readHandle(m, uint32(stack[0]))
				key := readMemory(m, uint32(stack[1]), uint32(stack[2]))
				st.charge(loc, p.BorrowBox, len(key))
				val, err := st.ext.Table.Borrow(h, key)
				if err != nil {
					tableFailure(loc, err)
				}
				st.charge(loc, types.GasCost{PerByte: p.BorrowBox.PerByte}, len(val))
				stack[0] = api.EncodeU32(writeBounded(m, uint32(stack[3]), uint32(stack[4]), val))
			},
		},
		{
			Module: mod, Name: "contains_box",
			Params:  []api.ValueType{i32, i32, i32},
			Results: []api.ValueType{i32},
			Fn: func(ctx context.Context, m api.Module, stack []uint64) {
				loc := mod + ".contains_box"
				st := callFromContext(ctx)
				h := readHandle(m, uint32(stack[0]))
				key := readMemory(m, uint32(stack[1]), uint32(stack[2]))
				st.charge(loc, p.ContainsBox, len(key))
				ok, err := st.ext.Table.Contains(h, key)
				if err != nil {
					tableFailure(loc, err)
				}
				stack[0] = 0
				if ok {
					stack[0] = 1
				}
			},
		},
		{
			Module: mod, Name: "update_box",
			Params: []api.ValueType{i32, i32, i32, i32, i32},
			Fn: func(ctx context.Context, m api.Module, stack []uint64) {
				loc := mod + ".update_box"
				st := callFromContext(ctx)
				h := readHandle(m, uint32(stack[0]))
				key := readMemory(m, uint32(stack[1]), uint32(stack[2]))
				val := readMemory(m, uint32(stack[3]), uint32(stack[4]))
				st.charge(loc, p.UpdateBox, len(key)+len(val))
				if err := st.ext.Table.Update(h, key, val); err != nil {
					tableFailure(loc, err)
				}
			},
		},
		{
			Module: mod, Name: "remove_box",
			Params:  []api.ValueType{i32, i32, i32, i32, i32},
			Results: []api.ValueType{i32},
			Fn: func(ctx context.Context, m api.Module, stack []uint64) {
				loc := mod + ".remove_box"
				st := callFromContext(ctx)
				h := readHandle(m, uint32(stack[0]))
				key := readMemory(m, uint32(stack[1]), uint32(stack[2]))
				st.charge(loc, p.RemoveBox, len(key))
				val, err := st.ext.Table.Remove(h, key)
				if err != nil {
					tableFailure(loc, err)
				}
				stack[0] = api.EncodeU32(writeBounded(m, uint32(stack[3]), uint32(stack[4]), val))
			},
		},
		{
			Module: mod, Name: "destroy_table",
			Params: []api.ValueType{i32},
			Fn: func(ctx context.Context, m api.Module, stack []uint64) {
				st := callFromContext(ctx)
				st.charge(mod+".destroy_table", p.DestroyTable, 0)
				st.ext.Table.DestroyTable(readHandle(m, uint32(stack[0])))
			},
		},
	}
}

// tableFailure turns a table error into an abort. Resolver errors are
// passed through unchanged.
func tableFailure(location string, err error) {
	switch {
	case errors.Is(err, ErrAlreadyExists):
		abort(location, AbortAlreadyExists)
	case errors.Is(err, ErrNotFound):
		abort(location, AbortNotFound)
	default:
		panic(err)
	}
}
