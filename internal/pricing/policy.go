package pricing

import (
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	defaultFreeShippingThreshold = decimal.NewFromInt(200)
	defaultFlatShippingFee       = decimal.NewFromInt(25)
)

// Policy is a flat-rate tax and shipping rule set.
type Policy struct {
	Name                  enums.TaxPolicy
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

// CartTaxPolicy is the rule set shown on the cart page.
func CartTaxPolicy() Policy {
	return Policy{
		Name:                  enums.TaxPolicyCart,
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: defaultFreeShippingThreshold,
		FlatShippingFee:       defaultFlatShippingFee,
	}
}

// CheckoutTaxPolicy is the rule set used for the order total.
func CheckoutTaxPolicy() Policy {
	return Policy{
		Name:                  enums.TaxPolicyCheckout,
		TaxRate:               decimal.RequireFromString("0.17"),
		FreeShippingThreshold: defaultFreeShippingThreshold,
		FlatShippingFee:       defaultFlatShippingFee,
	}
}

// Quote is the priced projection of a set of lines at full precision.
type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Quote prices the lines. Shipping is waived only when the subtotal is strictly
// above the free-shipping threshold.
func (p Policy) Quote(lines []cart.Line) Quote {
	subtotal := cart.Total(lines)
	tax := subtotal.Mul(p.TaxRate)
	shipping := p.FlatShippingFee
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	return Quote{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// Rounded rounds every amount to cents for display.
func (q Quote) Rounded() Quote {
	return Quote{
		Subtotal: q.Subtotal.Round(2),
		Tax:      q.Tax.Round(2),
		Shipping: q.Shipping.Round(2),
		Total:    q.Total.Round(2),
	}
}

// Engine resolves the two named policies.
type Engine struct {
	cart     Policy
	checkout Policy
}

// NewEngine builds an engine with the default policies.
func NewEngine() *Engine {
	return &Engine{cart: CartTaxPolicy(), checkout: CheckoutTaxPolicy()}
}

// NewEngineFromConfig builds an engine from validated pricing config. Both
// policies share the shipping rule but keep their own tax rate.
func NewEngineFromConfig(cfg config.PricingConfig) (*Engine, error) {
	threshold := cfg.Decimal(cfg.FreeShippingThreshold)
	fee := cfg.Decimal(cfg.FlatShippingFee)
	cartRate := cfg.Decimal(cfg.CartTaxRate)
	checkoutRate := cfg.Decimal(cfg.CheckoutTaxRate)
	for name, rate := range map[string]decimal.Decimal{"cart": cartRate, "checkout": checkoutRate} {
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("%s tax rate must be between 0 and 1", name)
		}
	}
	return &Engine{
		cart: Policy{
			Name:                  enums.TaxPolicyCart,
			TaxRate:               cartRate,
			FreeShippingThreshold: threshold,
			FlatShippingFee:       fee,
		},
		checkout: Policy{
			Name:                  enums.TaxPolicyCheckout,
			TaxRate:               checkoutRate,
			FreeShippingThreshold: threshold,
			FlatShippingFee:       fee,
		},
	}, nil
}

// Cart returns the cart page policy.
func (e *Engine) Cart() Policy { return e.cart }

// Checkout returns the order total policy.
func (e *Engine) Checkout() Policy { return e.checkout }

// Policy looks a policy up by name.
func (e *Engine) Policy(name enums.TaxPolicy) (Policy, error) {
	switch name {
	case enums.TaxPolicyCart:
		return e.cart, nil
	case enums.TaxPolicyCheckout:
		return e.checkout, nil
	}
	return Policy{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown pricing policy %q", name)).WithDetails(map[string]any{
		"field":  "policy",
		"reason": "must be cart or checkout",
	})
}
