// Package vmext hosts a wasm machine whose natives give scripts access to
// session-scoped tables, transaction metadata, code publishing and hashing.
// A VM is created once; every unit of work runs in its own Session, which
// ends in a change set the caller commits.
package vmext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/valekar/aptos-core/internal/gas"
	"github.com/valekar/aptos-core/internal/machine"
	"github.com/valekar/aptos-core/internal/natives"
	"github.com/valekar/aptos-core/types"
)

// Resolver is the read-only state a session runs against.
type Resolver = types.Resolver

// SessionID describes why a session was opened.
type SessionID = types.SessionID

// GasMeter is charged by natives during execution.
type GasMeter = types.GasMeter

// NewGasMeter returns a meter that fails once limit is exceeded.
func NewGasMeter(limit types.Gas) GasMeter {
	return gas.NewMeter(limit)
}

// VM is the main entry point to this library.
// Create one per process and open a Session for every unit of work. A VM is
// immutable after NewVM and may be shared between goroutines.
type VM struct {
	machine *machine.Machine
	logger  zerolog.Logger
}

type vmOptions struct {
	logger           zerolog.Logger
	memoryLimitPages uint32
}

// Option configures a VM.
type Option func(*vmOptions)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *vmOptions) { o.logger = logger }
}

// WithMemoryLimitPages caps guest memory in 64KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(o *vmOptions) { o.memoryLimitPages = pages }
}

// NewVM builds the native catalogue from params and starts the machine.
// A rejected catalogue is returned as *types.InitializationError.
func NewVM(params types.NativeGasParameters, opts ...Option) (*VM, error) {
	o := vmOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	m, err := machine.New(context.Background(), natives.Catalogue(params), machine.Config{
		MemoryLimitPages: o.memoryLimitPages,
		Logger:           o.logger,
	})
	if err != nil {
		return nil, &types.InitializationError{Reason: "native catalogue rejected", Err: err}
	}
	o.logger.Info().Int("natives", m.NumNatives()).Msg("vm initialized")
	return &VM{machine: m, logger: o.logger}, nil
}

// NewSession builds a fresh extension bundle for id and returns a session
// bound to it. The resolver is referenced until the session is finished; it
// must stay unchanged for that long.
func (vm *VM) NewSession(resolver Resolver, id SessionID) (*Session, error) {
	if id == nil {
		return nil, &types.InitializationError{Reason: "nil session id"}
	}
	ext, err := natives.NewExtensions(resolver, id)
	if err != nil {
		return nil, &types.InitializationError{Reason: "build session extensions", Err: err}
	}
	vm.logger.Debug().
		Stringer("kind", id.Kind()).
		Stringer("scope", ext.Table.Scope()).
		Msg("session opened")
	return &Session{
		machine:  vm.machine,
		ext:      ext,
		resolver: resolver,
		id:       id,
		logger:   vm.logger,
	}, nil
}

// CacheMetrics reports compiled module cache usage.
type CacheMetrics = machine.Metrics

// Metrics reports compiled module cache usage.
func (vm *VM) Metrics() CacheMetrics {
	return vm.machine.CacheMetrics()
}

// Close should be called when no longer using this to free the runtime.
func (vm *VM) Close(ctx context.Context) error {
	return vm.machine.Close(ctx)
}
