package types

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// HashValueLen is the length of a hash value in bytes.
const HashValueLen = 32

// HashValue is a SHA3-256 digest. It identifies code blobs, session scopes
// and table handles.
type HashValue [HashValueLen]byte

// Sha3_256 hashes data with SHA3-256.
func Sha3_256(data []byte) HashValue {
	return HashValue(sha3.Sum256(data))
}

// NewHashValue creates a HashValue from a byte slice.
// Returns an error if the slice length is not HashValueLen.
func NewHashValue(b []byte) (HashValue, error) {
	if len(b) != HashValueLen {
		return HashValue{}, errors.New("got wrong number of bytes for hash value")
	}
	var h HashValue
	copy(h[:], b)
	return h, nil
}

// ForceNewHashValue creates a HashValue from a hex string.
// It panics in case the input is invalid.
func ForceNewHashValue(input string) HashValue {
	data, err := hex.DecodeString(input)
	if err != nil {
		panic("could not decode hex bytes")
	}
	h, err := NewHashValue(data)
	if err != nil {
		panic(err)
	}
	return h
}

func (h HashValue) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the hash as a byte slice.
func (h HashValue) Bytes() []byte {
	return h[:]
}

// MarshalJSON encodes the hash as a hex string.
func (h HashValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h[:]))
}

// UnmarshalJSON parses a hex-encoded string into a hash.
func (h *HashValue) UnmarshalJSON(input []byte) error {
	var hexString string
	if err := json.Unmarshal(input, &hexString); err != nil {
		return err
	}
	data, err := hex.DecodeString(hexString)
	if err != nil {
		return err
	}
	if len(data) != HashValueLen {
		return fmt.Errorf("got wrong number of bytes for hash value")
	}
	copy(h[:], data)
	return nil
}
