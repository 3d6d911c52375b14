package gas

import (
	"math"

	"github.com/valekar/aptos-core/types"
)

// Meter tracks gas consumption against a fixed limit.
type Meter struct {
	limit    types.Gas
	consumed types.Gas
}

var _ types.GasMeter = (*Meter)(nil)

// NewMeter creates a new gas meter with the specified limit
func NewMeter(limit types.Gas) *Meter {
	return &Meter{limit: limit}
}

// Unlimited returns a meter that never runs out.
func Unlimited() *Meter {
	return NewMeter(math.MaxUint64)
}

// GasConsumed implements types.GasMeter
func (m *Meter) GasConsumed() types.Gas {
	return m.consumed
}

// ConsumeGas implements types.GasMeter. A failed charge leaves the meter
// at its limit.
func (m *Meter) ConsumeGas(amount types.Gas, descriptor string) error {
	if amount > m.Remaining() {
		m.consumed = m.limit
		return types.OutOfGasError{Descriptor: descriptor}
	}
	m.consumed += amount
	return nil
}

// Remaining returns the amount of gas left
func (m *Meter) Remaining() types.Gas {
	if m.consumed >= m.limit {
		return 0
	}
	return m.limit - m.consumed
}

// Limit returns the limit the meter was created with.
func (m *Meter) Limit() types.Gas {
	return m.limit
}
