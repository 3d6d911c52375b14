package natives

import (
	"context"

	"github.com/valekar/aptos-core/types"
)

type callKey struct{}

// callState is what a native sees of the session that invoked it.
type callState struct {
	ext   *Extensions
	meter types.GasMeter
}

// WithCall binds a session's extensions and gas meter to ctx. The machine
// passes ctx through to every host function invoked during the call.
func WithCall(ctx context.Context, ext *Extensions, meter types.GasMeter) context.Context {
	return context.WithValue(ctx, callKey{}, &callState{ext: ext, meter: meter})
}

func callFromContext(ctx context.Context) *callState {
	st, ok := ctx.Value(callKey{}).(*callState)
	if !ok || st.ext == nil || st.meter == nil {
		panic(&types.InvariantViolationError{Msg: "native invoked outside of a session"})
	}
	return st
}

// charge bills cost for n bytes or aborts the call when gas runs out.
func (st *callState) charge(location string, cost types.GasCost, n int) {
	if err := st.meter.ConsumeGas(cost.TotalCost(n), location); err != nil {
		panic(err)
	}
}

func abort(location string, code uint64) {
	panic(&types.AbortError{Location: location, Code: code})
}
