package types

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// NativeGasParameters prices every native and names the host module each
// group of natives is published under.
type NativeGasParameters struct {
	Table              TableGasParameters              `toml:"table"`
	TransactionContext TransactionContextGasParameters `toml:"transaction_context"`
	Code               CodeGasParameters               `toml:"code"`
	Hash               HashGasParameters               `toml:"hash"`
}

type TableGasParameters struct {
	Module         string  `toml:"module"`
	NewTableHandle GasCost `toml:"new_table_handle"`
	AddBox         GasCost `toml:"add_box"`
	BorrowBox      GasCost `toml:"borrow_box"`
	ContainsBox    GasCost `toml:"contains_box"`
	UpdateBox      GasCost `toml:"update_box"`
	RemoveBox      GasCost `toml:"remove_box"`
	DestroyTable   GasCost `toml:"destroy_table"`
}

type TransactionContextGasParameters struct {
	Module        string  `toml:"module"`
	GetScriptHash GasCost `toml:"get_script_hash"`
}

type CodeGasParameters struct {
	Module         string  `toml:"module"`
	RequestPublish GasCost `toml:"request_publish"`
}

type HashGasParameters struct {
	Module    string  `toml:"module"`
	Sha3_256  GasCost `toml:"sha3_256"`
	Keccak256 GasCost `toml:"keccak256"`
}

// DefaultNativeGasParameters returns the parameters used when no gas file is
// given.
func DefaultNativeGasParameters() NativeGasParameters {
	return NativeGasParameters{
		Table: TableGasParameters{
			Module:         "table",
			NewTableHandle: GasCost{Base: 1000},
			AddBox:         GasCost{Base: 1200, PerByte: 10},
			BorrowBox:      GasCost{Base: 1200, PerByte: 10},
			ContainsBox:    GasCost{Base: 1200, PerByte: 10},
			UpdateBox:      GasCost{Base: 1200, PerByte: 10},
			RemoveBox:      GasCost{Base: 1200, PerByte: 10},
			DestroyTable:   GasCost{Base: 1000},
		},
		TransactionContext: TransactionContextGasParameters{
			Module:        "transaction_context",
			GetScriptHash: GasCost{Base: 200},
		},
		Code: CodeGasParameters{
			Module:         "code",
			RequestPublish: GasCost{Base: 5000, PerByte: 7},
		},
		Hash: HashGasParameters{
			Module:    "hash",
			Sha3_256:  GasCost{Base: 1000, PerByte: 3},
			Keccak256: GasCost{Base: 1000, PerByte: 3},
		},
	}
}

// ParseNativeGasParameters decodes TOML on top of the defaults. Keys that do
// not map to a parameter are an error.
func ParseNativeGasParameters(data string) (NativeGasParameters, error) {
	params := DefaultNativeGasParameters()
	md, err := toml.Decode(data, &params)
	if err != nil {
		return NativeGasParameters{}, fmt.Errorf("decode gas parameters: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return NativeGasParameters{}, err
	}
	return params, nil
}

// LoadNativeGasParameters reads a TOML gas file on top of the defaults.
func LoadNativeGasParameters(path string) (NativeGasParameters, error) {
	params := DefaultNativeGasParameters()
	md, err := toml.DecodeFile(path, &params)
	if err != nil {
		return NativeGasParameters{}, fmt.Errorf("load gas parameters %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return NativeGasParameters{}, err
	}
	return params, nil
}

// EncodeNativeGasParameters writes params as TOML.
func EncodeNativeGasParameters(w io.Writer, params NativeGasParameters) error {
	return toml.NewEncoder(w).Encode(params)
}

func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return fmt.Errorf("unknown gas parameters: %s", strings.Join(keys, ", "))
}
