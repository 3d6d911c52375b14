package natives

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/valekar/aptos-core/types"
)

var i32 = api.ValueTypeI32

// Function is one native: a host function exported as Module.Name.
type Function struct {
	Module  string
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
	Fn      api.GoModuleFunc
}

// QualifiedName returns "module.name".
func (f Function) QualifiedName() string {
	return f.Module + "." + f.Name
}

// Catalogue derives the native functions from the gas parameters. The
// result is not validated here; the machine rejects bad registrations.
func Catalogue(params types.NativeGasParameters) []Function {
	var fns []Function
	fns = append(fns, tableNatives(params.Table)...)
	fns = append(fns, transactionNatives(params.TransactionContext)...)
	fns = append(fns, codeNatives(params.Code)...)
	fns = append(fns, hashNatives(params.Hash)...)
	return fns
}
