package fee

import (
	"github.com/shopspring/decimal"

	"github.com/soltio/crypto-gateway/internal/domain/entity"
)

// Rates holds the configured fee percentages. They are read once from
// configuration; call sites never carry their own literals.
type Rates struct {
	// PlatformRate is charged on every settled payment (e.g. 0.03)
	PlatformRate decimal.Decimal
	// ProviderRate is what the processor keeps from us on processor-routed
	// payments (e.g. 0.005). Direct transfers move peer-to-peer and incur none.
	ProviderRate decimal.Decimal
}

// DefaultRates returns the platform's standard pricing
func DefaultRates() Rates {
	return Rates{
		PlatformRate: decimal.NewFromFloat(0.03),
		ProviderRate: decimal.NewFromFloat(0.005),
	}
}

// Calculator quotes fee breakdowns for gross amounts. Pure and stateless
// beyond its configured rates.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Quote computes the fee breakdown for a gross amount on the given rail.
// All results are rounded to the currency minor unit with banker's rounding.
// Identities: AmountMerchant + FeePlatform = gross;
// ProfitPlatform = FeePlatform - FeeProvider.
func (c *Calculator) Quote(gross decimal.Decimal, rail entity.Rail) entity.FeeBreakdown {
	feePlatform := gross.Mul(c.rates.PlatformRate).RoundBank(entity.MinorUnitPlaces)

	feeProvider := decimal.Zero
	if rail == entity.RailProcessor {
		feeProvider = gross.Mul(c.rates.ProviderRate).RoundBank(entity.MinorUnitPlaces)
	}

	return entity.FeeBreakdown{
		FeePlatform:    feePlatform,
		FeeProvider:    feeProvider,
		ProfitPlatform: feePlatform.Sub(feeProvider),
		AmountMerchant: gross.Sub(feePlatform),
	}
}
