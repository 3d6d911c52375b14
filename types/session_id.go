package types

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// SessionKind tells why a session was opened.
type SessionKind uint8

const (
	SessionKindTxn SessionKind = iota
	SessionKindBlockMeta
	SessionKindGenesis
	SessionKindVoid
)

func (k SessionKind) String() string {
	switch k {
	case SessionKindTxn:
		return "txn"
	case SessionKindBlockMeta:
		return "block_meta"
	case SessionKindGenesis:
		return "genesis"
	case SessionKindVoid:
		return "void"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// SessionID describes why a session was opened. The set of implementations
// is closed: TxnSessionID, BlockMetaSessionID, GenesisSessionID and
// VoidSessionID.
type SessionID interface {
	Kind() SessionKind
	wire() sessionIDWire
}

// TxnSessionID identifies a session executing a submitted transaction.
type TxnSessionID struct {
	Sender         AccountAddress
	SequenceNumber uint64
	// ScriptHash is the content hash of the executed code.
	ScriptHash []byte
}

// BlockMetaSessionID identifies a session running the block prologue.
type BlockMetaSessionID struct {
	ID HashValue
}

// GenesisSessionID identifies a session writing the genesis state.
type GenesisSessionID struct {
	ID HashValue
}

// VoidSessionID carries no identifying data.
type VoidSessionID struct{}

var (
	_ SessionID = TxnSessionID{}
	_ SessionID = BlockMetaSessionID{}
	_ SessionID = GenesisSessionID{}
	_ SessionID = VoidSessionID{}
)

func (TxnSessionID) Kind() SessionKind       { return SessionKindTxn }
func (BlockMetaSessionID) Kind() SessionKind { return SessionKindBlockMeta }
func (GenesisSessionID) Kind() SessionKind   { return SessionKindGenesis }
func (VoidSessionID) Kind() SessionKind      { return SessionKindVoid }

// sessionIDWire is the canonical encoding hashed into a session scope.
type sessionIDWire struct {
	_      struct{} `cbor:",toarray"`
	Kind   SessionKind
	Sender []byte
	Seq    uint64
	Hash   []byte
	ID     []byte
}

func (id TxnSessionID) wire() sessionIDWire {
	w := sessionIDWire{Kind: SessionKindTxn, Sender: id.Sender.Bytes(), Seq: id.SequenceNumber}
	if len(id.ScriptHash) > 0 {
		w.Hash = id.ScriptHash
	}
	return w
}

func (id BlockMetaSessionID) wire() sessionIDWire {
	return sessionIDWire{Kind: SessionKindBlockMeta, ID: id.ID.Bytes()}
}

func (id GenesisSessionID) wire() sessionIDWire {
	return sessionIDWire{Kind: SessionKindGenesis, ID: id.ID.Bytes()}
}

func (VoidSessionID) wire() sessionIDWire {
	return sessionIDWire{Kind: SessionKindVoid}
}

var sessionIDEncMode = mustCoreDetEncMode()

func mustCoreDetEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// EncodeSessionID returns the deterministic CBOR encoding of id.
func EncodeSessionID(id SessionID) ([]byte, error) {
	if isNilSessionID(id) {
		return nil, fmt.Errorf("nil session id")
	}
	return sessionIDEncMode.Marshal(id.wire())
}

// isNilSessionID reports an untyped nil or a nil pointer to a variant.
func isNilSessionID(id SessionID) bool {
	switch v := id.(type) {
	case nil:
		return true
	case *TxnSessionID:
		return v == nil
	case *BlockMetaSessionID:
		return v == nil
	case *GenesisSessionID:
		return v == nil
	case *VoidSessionID:
		return v == nil
	}
	return false
}

// SessionScope derives the identifier that scopes the tables of a session.
// Equal session ids always map to the same scope.
func SessionScope(id SessionID) (HashValue, error) {
	bz, err := EncodeSessionID(id)
	if err != nil {
		return HashValue{}, fmt.Errorf("encode session id: %w", err)
	}
	return Sha3_256(bz), nil
}
