package vmext

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/valekar/aptos-core/internal/gas"
	"github.com/valekar/aptos-core/internal/machine"
	"github.com/valekar/aptos-core/internal/natives"
	"github.com/valekar/aptos-core/types"
)

// Session is one unit of execution against a fixed state snapshot and a
// fresh set of natives. A Session is not safe for concurrent use.
type Session struct {
	machine  *machine.Machine
	ext      *natives.Extensions
	resolver Resolver
	id       SessionID
	logger   zerolog.Logger
	finished bool
}

// ID returns the identity the session was opened with.
func (s *Session) ID() SessionID {
	return s.id
}

// Scope returns the identifier new table handles of this session derive from.
func (s *Session) Scope() types.HashValue {
	return s.ext.Table.Scope()
}

// ScriptHash returns the code hash the transaction natives report.
func (s *Session) ScriptHash() []byte {
	return s.ext.Transaction.ScriptHash()
}

// ExecuteScript runs entry of the given code. meter may be nil for
// unmetered execution.
//
// Guest and native aborts are returned as *types.AbortError, gas exhaustion
// as types.OutOfGasError. Resolver errors are passed through.
func (s *Session) ExecuteScript(ctx context.Context, code []byte, entry string, meter GasMeter, args ...uint64) ([]uint64, error) {
	if s.finished {
		return nil, types.ErrSessionFinished
	}
	return s.execute(ctx, code, entry, meter, args)
}

// ExecuteFunction loads a published module through the resolver and runs
// entry of it.
func (s *Session) ExecuteFunction(ctx context.Context, module types.ModuleID, entry string, meter GasMeter, args ...uint64) ([]uint64, error) {
	if s.finished {
		return nil, types.ErrSessionFinished
	}
	code, err := s.resolver.GetModule(module)
	if err != nil {
		return nil, fmt.Errorf("load module %s: %w", module, err)
	}
	if code == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrModuleNotFound, module)
	}
	return s.execute(ctx, code, entry, meter, args)
}

func (s *Session) execute(ctx context.Context, code []byte, entry string, meter GasMeter, args []uint64) ([]uint64, error) {
	if meter == nil {
		meter = gas.Unlimited()
	}
	before := meter.GasConsumed()
	res, err := s.machine.Call(natives.WithCall(ctx, s.ext, meter), code, entry, args...)
	s.logger.Debug().
		Str("entry", entry).
		Uint64("gas_used", meter.GasConsumed()-before).
		Err(err).
		Msg("executed")
	if err != nil {
		return nil, executionError(err)
	}
	return res, nil
}

// executionError unwraps the errors natives raise from wazero's wrapping.
func executionError(err error) error {
	var abortErr *types.AbortError
	if errors.As(err, &abortErr) {
		return abortErr
	}
	var oog types.OutOfGasError
	if errors.As(err, &oog) {
		return oog
	}
	return err
}

// Finish ends the session and returns everything it changed. The session
// cannot be used afterwards.
func (s *Session) Finish() (*types.ChangeSet, error) {
	if s.finished {
		return nil, types.ErrSessionFinished
	}
	s.finished = true
	cs := &types.ChangeSet{
		Tables:  s.ext.Table.ChangeSet(),
		Publish: s.ext.Code.ExtractPublishRequest(),
	}
	s.resolver = nil
	return cs, nil
}
