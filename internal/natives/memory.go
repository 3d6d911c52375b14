package natives

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/valekar/aptos-core/types"
)

// readMemory copies length bytes at offset out of guest memory. The copy is
// required because wazero returns a view that the guest may overwrite.
func readMemory(m api.Module, offset, length uint32) []byte {
	mem := m.Memory()
	if mem == nil {
		panic(&types.InvariantViolationError{Msg: "guest module exports no memory"})
	}
	data, ok := mem.Read(offset, length)
	if !ok {
		panic(&types.InvariantViolationError{
			Msg: fmt.Sprintf("failed to read memory at offset %d, length %d", offset, length),
		})
	}
	return append([]byte(nil), data...)
}

func writeMemory(m api.Module, offset uint32, data []byte) {
	mem := m.Memory()
	if mem == nil {
		panic(&types.InvariantViolationError{Msg: "guest module exports no memory"})
	}
	if !mem.Write(offset, data) {
		panic(&types.InvariantViolationError{
			Msg: fmt.Sprintf("failed to write %d bytes to memory at offset %d", len(data), offset),
		})
	}
}

// writeBounded writes at most capacity bytes of data to offset and returns
// the full length so the guest can retry with a larger buffer.
func writeBounded(m api.Module, offset, capacity uint32, data []byte) uint32 {
	n := uint32(len(data))
	if n > capacity {
		n = capacity
	}
	if n > 0 {
		writeMemory(m, offset, data[:n])
	}
	return uint32(len(data))
}

func readHandle(m api.Module, offset uint32) types.TableHandle {
	var h types.TableHandle
	copy(h[:], readMemory(m, offset, types.HashValueLen))
	return h
}

func readAddress(m api.Module, offset uint32) types.AccountAddress {
	var a types.AccountAddress
	copy(a[:], readMemory(m, offset, types.AddressLen))
	return a
}
