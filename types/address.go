package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLen is the length of an account address in bytes.
const AddressLen = 32

// AccountAddress identifies an account on chain.
type AccountAddress [AddressLen]byte

// ParseAccountAddress parses a hex address with an optional 0x prefix.
// Short forms such as "0x1" are left-padded with zeros.
func ParseAccountAddress(s string) (AccountAddress, error) {
	var addr AccountAddress
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if raw == "" {
		return addr, fmt.Errorf("invalid address %q: empty", s)
	}
	if len(raw) > 2*AddressLen {
		return addr, fmt.Errorf("invalid address %q: longer than %d bytes", s, AddressLen)
	}
	if len(raw)%2 == 1 {
		raw = "0" + raw
	}
	data, err := hex.DecodeString(raw)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %w", s, err)
	}
	copy(addr[AddressLen-len(data):], data)
	return addr, nil
}

// MustParseAccountAddress is like ParseAccountAddress but panics on error.
func MustParseAccountAddress(s string) AccountAddress {
	addr, err := ParseAccountAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a AccountAddress) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Bytes returns the address as a byte slice.
func (a AccountAddress) Bytes() []byte {
	return a[:]
}

// MarshalText implements encoding.TextMarshaler.
func (a AccountAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccountAddress) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
