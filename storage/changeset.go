package storage

import (
	"fmt"

	"github.com/shamaton/msgpack/v2"

	"github.com/valekar/aptos-core/types"
)

// EncodeChangeSet serializes a change set so it can be committed later.
func EncodeChangeSet(cs *types.ChangeSet) ([]byte, error) {
	return msgpack.MarshalAsArray(cs)
}

// DecodeChangeSet reverses EncodeChangeSet.
func DecodeChangeSet(data []byte) (*types.ChangeSet, error) {
	var cs types.ChangeSet
	if err := msgpack.UnmarshalAsArray(data, &cs); err != nil {
		return nil, fmt.Errorf("decode change set: %w", err)
	}
	return &cs, nil
}
