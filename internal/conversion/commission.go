package conversion

import "math"

// Gateway pricing: 5.49% of the gross plus a 149-cent flat fee.
const (
	gatewayFeeRate = 0.0549
	gatewayFlatFee = 149
)

// GatewayFeeCents returns the fee for a gross amount, rounded to the nearest
// cent before the flat fee is added.
func GatewayFeeCents(grossCents int64) int64 {
	return int64(math.Round(float64(grossCents)*gatewayFeeRate)) + gatewayFlatFee
}

// NewCommission computes the commission split for a gross amount.
func NewCommission(grossCents int64) Commission {
	fee := GatewayFeeCents(grossCents)
	return Commission{
		TotalPriceInCents:     grossCents,
		GatewayFeeInCents:     fee,
		UserCommissionInCents: grossCents - fee,
	}
}
