package natives

// TransactionContext exposes metadata of the transaction a session runs for.
type TransactionContext struct {
	scriptHash []byte
}

// NewTransactionContext creates the capability from the content hash of the
// executed code. An empty hash is valid.
func NewTransactionContext(scriptHash []byte) *TransactionContext {
	return &TransactionContext{scriptHash: append([]byte{}, scriptHash...)}
}

// ScriptHash returns the content hash of the executed code, empty when the
// session does not run a transaction.
func (c *TransactionContext) ScriptHash() []byte {
	return append([]byte{}, c.scriptHash...)
}
