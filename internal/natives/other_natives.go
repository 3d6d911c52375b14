package natives

import (
	"context"
	"errors"

	"github.com/tetratelabs/wazero/api"
	"golang.org/x/crypto/sha3"

	"github.com/valekar/aptos-core/types"
)

func transactionNatives(p types.TransactionContextGasParameters) []Function {
	mod := p.Module
	return []Function{
		{
			Module: mod, Name: "get_script_hash",
			Params:  []api.ValueType{i32, i32},
			Results: []api.ValueType{i32},
			Fn: func(ctx context.Context, m api.Module, stack []uint64) {
				st := callFromContext(ctx)
				hash := st.ext.Transaction.ScriptHash()
				st.charge(mod+".get_script_hash", p.GetScriptHash, len(hash))
				stack[0] = api.EncodeU32(writeBounded(m, uint32(stack[0]), uint32(stack[1]), hash))
			},
		},
	}
}

func codeNatives(p types.CodeGasParameters) []Function {
	mod := p.Module
	return []Function{
		{
			// request_publish(owner, name_ptr, name_len, code_ptr, code_len, policy)
			Module: mod, Name: "request_publish",
			Params: []api.ValueType{i32, i32, i32, i32, i32, i32},
			Fn: func(ctx context.Context, m api.Module, stack []uint64) {
				loc := mod + ".request_publish"
				st := callFromContext(ctx)
				owner := readAddress(m, uint32(stack[0]))
				name := readMemory(m, uint32(stack[1]), uint32(stack[2]))
				code := readMemory(m, uint32(stack[3]), uint32(stack[4]))
				st.charge(loc, p.RequestPublish, len(name)+len(code))
				policy := api.DecodeU32(stack[5])
				if policy > 0xff {
					abort(loc, AbortInvalidPolicy)
				}
				err := st.ext.Code.RequestPublish(owner, types.Module{Name: string(name), Code: code}, types.UpgradePolicy(policy))
				switch {
				case err == nil:
				case errors.Is(err, ErrInvalidPolicy):
					abort(loc, AbortInvalidPolicy)
				case errors.Is(err, ErrDuplicateModule):
					abort(loc, AbortDuplicateModule)
				case errors.Is(err, ErrAlreadyRequested):
					abort(loc, AbortAlreadyRequested)
				default:
					panic(err)
				}
			},
		},
	}
}

func hashNatives(p types.HashGasParameters) []Function {
	mod := p.Module
	return []Function{
		{
			Module: mod, Name: "sha3_256",
			Params: []api.ValueType{i32, i32, i32},
			Fn: func(ctx context.Context, m api.Module, stack []uint64) {
				st := callFromContext(ctx)
				data := readMemory(m, uint32(stack[0]), uint32(stack[1]))
				st.charge(mod+".sha3_256", p.Sha3_256, len(data))
				sum := sha3.Sum256(data)
				writeMemory(m, uint32(stack[2]), sum[:])
			},
		},
		{
			Module: mod, Name: "keccak256",
			Params: []api.ValueType{i32, i32, i32},
			Fn: func(ctx context.Context, m api.Module, stack []uint64) {
				st := callFromContext(ctx)
				data := readMemory(m, uint32(stack[0]), uint32(stack[1]))
				st.charge(mod+".keccak256", p.Keccak256, len(data))
				h := sha3.NewLegacyKeccak256()
				h.Write(data)
				writeMemory(m, uint32(stack[2]), h.Sum(nil))
			},
		},
	}
}
