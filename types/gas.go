package types

import (
	"math"
	"math/bits"
)

// Gas represents the amount of computational resources consumed during execution.
type Gas = uint64

// GasMeter is charged by natives before they run.
type GasMeter interface {
	GasConsumed() Gas
	// ConsumeGas charges amount and returns OutOfGasError once the limit is
	// exceeded.
	ConsumeGas(amount Gas, descriptor string) error
}

// GasCost is a cost with a fixed and a per-byte component.
type GasCost struct {
	Base    Gas `toml:"base"`
	PerByte Gas `toml:"per_byte"`
}

// TotalCost calculates the cost for an operation touching n bytes. The
// result saturates at math.MaxUint64.
func (c GasCost) TotalCost(n int) Gas {
	if n < 0 {
		n = 0
	}
	hi, perBytes := bits.Mul64(c.PerByte, Gas(n))
	if hi != 0 {
		return math.MaxUint64
	}
	total, carry := bits.Add64(c.Base, perBytes, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return total
}
