package cart

import (
	"fmt"

	"github.com/craftmarket/storefront-backend/pkg/config"
	"github.com/craftmarket/storefront-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// PricingPolicy carries the constants the totals calculation depends on.
type PricingPolicy struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

// DefaultPricingPolicy returns the shop's standing policy: a 150 flat fee
// waived once the items total exceeds 1000.
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		FreeShippingThreshold: decimal.NewFromInt(1000),
		FlatShippingFee:       decimal.NewFromInt(150),
	}
}

// PolicyFromConfig parses the configured pricing constants.
func PolicyFromConfig(cfg config.PricingConfig) (PricingPolicy, error) {
	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return PricingPolicy{}, fmt.Errorf("parsing free shipping threshold: %w", err)
	}
	fee, err := decimal.NewFromString(cfg.FlatShippingFee)
	if err != nil {
		return PricingPolicy{}, fmt.Errorf("parsing flat shipping fee: %w", err)
	}
	if threshold.IsNegative() || fee.IsNegative() {
		return PricingPolicy{}, fmt.Errorf("pricing constants must be non-negative")
	}
	return PricingPolicy{FreeShippingThreshold: threshold, FlatShippingFee: fee}, nil
}

// Totals is the derived money state of a cart, each field rounded to 2
// decimals. GrandTotal is the rounded sum of the already-rounded components,
// so the displayed fields always add up.
type Totals struct {
	Items    decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Grand    decimal.Decimal
}

// ComputeTotals derives totals from the line list. It is pure: both the
// mutation and merge paths must call it rather than duplicating the
// arithmetic. Negative quantities or prices are a caller contract violation
// rejected at the mutator boundary, not here.
//
// Decimal arithmetic is exact, so half-up rounding lands on the true value
// (10.005 rounds to 10.01) without the epsilon adjustment a float
// implementation would need.
func ComputeTotals(lines []models.CartLine, policy PricingPolicy) Totals {
	if len(lines) == 0 {
		return Totals{
			Items:    decimal.Zero,
			Shipping: decimal.Zero,
			Tax:      decimal.Zero,
			Grand:    decimal.Zero,
		}
	}

	items := decimal.Zero
	for i := range lines {
		qty := decimal.NewFromInt(int64(lines[i].Quantity))
		items = items.Add(lines[i].UnitPrice.Mul(qty))
	}
	items = items.Round(2)

	shipping := policy.FlatShippingFee.Round(2)
	if items.GreaterThan(policy.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	// Tax is not charged today; the field stays so checkout consumers do not
	// need a schema change when it is.
	tax := decimal.Zero

	grand := items.Add(shipping).Add(tax).Round(2)

	return Totals{Items: items, Shipping: shipping, Tax: tax, Grand: grand}
}

func applyTotals(cart *models.Cart, totals Totals) {
	cart.ItemsTotal = totals.Items
	cart.ShippingTotal = totals.Shipping
	cart.TaxTotal = totals.Tax
	cart.GrandTotal = totals.Grand
}
