// Package machine wraps a wazero runtime whose host modules are the native
// catalogue. It knows nothing about sessions; natives find their session
// through the context passed to Call.
package machine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/valekar/aptos-core/internal/natives"
	"github.com/valekar/aptos-core/types"
)

// IntrinsicsModule holds the machine's own host functions.
const IntrinsicsModule = "env"

// reservedModules cannot be claimed by natives.
var reservedModules = map[string]struct{}{
	IntrinsicsModule:         {},
	"wasi_snapshot_preview1": {},
}

// Config configures a Machine.
type Config struct {
	// MemoryLimitPages caps guest memory in 64KiB pages. Zero keeps the
	// wazero default.
	MemoryLimitPages uint32
	Logger           zerolog.Logger
}

// Machine is a wazero runtime with natives registered. It is safe for
// concurrent use.
type Machine struct {
	runtime wazero.Runtime
	cache   *moduleCache
	logger  zerolog.Logger
	natives int
}

// RegistrationError reports a native the machine refused to register.
type RegistrationError struct {
	Native string
	Reason string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("cannot register native %q: %s", e.Native, e.Reason)
}

// New creates the runtime and registers fns as host modules, grouped by
// module name in the order they first appear.
func New(ctx context.Context, fns []natives.Function, cfg Config) (*Machine, error) {
	order, groups, err := group(fns)
	if err != nil {
		return nil, err
	}

	rcfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages > 0 {
		rcfg = rcfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	m := &Machine{
		runtime: wazero.NewRuntimeWithConfig(ctx, rcfg),
		cache:   newModuleCache(),
		logger:  cfg.Logger,
		natives: len(fns),
	}

	if err := m.registerIntrinsics(ctx); err != nil {
		_ = m.runtime.Close(ctx)
		return nil, fmt.Errorf("register intrinsics: %w", err)
	}
	for _, name := range order {
		builder := m.runtime.NewHostModuleBuilder(name)
		for _, fn := range groups[name] {
			builder.NewFunctionBuilder().
				WithGoModuleFunction(fn.Fn, fn.Params, fn.Results).
				WithName(fn.Name).
				Export(fn.Name)
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			_ = m.runtime.Close(ctx)
			return nil, fmt.Errorf("instantiate native module %q: %w", name, err)
		}
		m.logger.Debug().Str("module", name).Int("natives", len(groups[name])).Msg("native module registered")
	}
	return m, nil
}

func group(fns []natives.Function) ([]string, map[string][]natives.Function, error) {
	var order []string
	groups := make(map[string][]natives.Function)
	seen := make(map[string]struct{})
	for _, fn := range fns {
		q := fn.QualifiedName()
		switch {
		case !validName(fn.Module):
			return nil, nil, &RegistrationError{Native: q, Reason: "malformed module name"}
		case !validName(fn.Name):
			return nil, nil, &RegistrationError{Native: q, Reason: "malformed function name"}
		case fn.Fn == nil:
			return nil, nil, &RegistrationError{Native: q, Reason: "no implementation"}
		}
		if _, ok := reservedModules[fn.Module]; ok {
			return nil, nil, &RegistrationError{Native: q, Reason: fmt.Sprintf("module %q is reserved", fn.Module)}
		}
		if _, ok := seen[q]; ok {
			return nil, nil, &RegistrationError{Native: q, Reason: "duplicate registration"}
		}
		seen[q] = struct{}{}
		if _, ok := groups[fn.Module]; !ok {
			order = append(order, fn.Module)
		}
		groups[fn.Module] = append(groups[fn.Module], fn)
	}
	return order, groups, nil
}

// validName accepts identifiers made of [A-Za-z0-9_], not starting with a digit.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func (m *Machine) registerIntrinsics(ctx context.Context) error {
	builder := m.runtime.NewHostModuleBuilder(IntrinsicsModule)

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			panic(&types.AbortError{Location: "script", Code: stack[0]})
		}), []api.ValueType{api.ValueTypeI64}, nil).
		WithParameterNames("code").
		Export("abort")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			mem := mod.Memory()
			if mem == nil {
				return
			}
			msg, ok := mem.Read(api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
			if !ok {
				panic(&types.InvariantViolationError{Msg: "debug_print out of bounds"})
			}
			m.logger.Debug().Str("message", string(msg)).Msg("guest debug print")
		}), []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, nil).
		WithParameterNames("ptr", "len").
		Export("debug_print")

	_, err := builder.Instantiate(ctx)
	return err
}

// NumNatives returns the number of registered natives.
func (m *Machine) NumNatives() int {
	return m.natives
}

// Call compiles code (memoised by hash), instantiates it anonymously, and
// calls entry with args. The instance is closed before returning.
func (m *Machine) Call(ctx context.Context, code []byte, entry string, args ...uint64) ([]uint64, error) {
	compiled, err := m.cache.get(ctx, m.runtime, code)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	mod, err := m.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("").WithStartFunctions())
	if err != nil {
		return nil, fmt.Errorf("instantiate: %w", err)
	}
	defer mod.Close(ctx)

	fn := mod.ExportedFunction(entry)
	if fn == nil {
		return nil, fmt.Errorf("entry function %q not exported", entry)
	}
	return fn.Call(ctx, args...)
}

// CacheMetrics reports compiled module cache usage.
func (m *Machine) CacheMetrics() Metrics {
	return m.cache.metrics()
}

// Close releases all compiled modules and the runtime.
func (m *Machine) Close(ctx context.Context) error {
	m.cache.close(ctx)
	return m.runtime.Close(ctx)
}
