// Package pricing turns a cart subtotal and an optional coupon into the
// order summary shown at checkout. Totals are always recomputed from their
// components.
package pricing

import (
	"strings"

	"github.com/angelmondragon/suuq-marketplace/pkg/config"
	"github.com/angelmondragon/suuq-marketplace/pkg/enums"
	pkgerrors "github.com/angelmondragon/suuq-marketplace/pkg/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Policy holds the fixed fees and tax rate applied to every summary.
type Policy struct {
	ShippingFee decimal.Decimal
	ServiceFee  decimal.Decimal
	TaxRate     decimal.Decimal
}

// DefaultPolicy is the storefront's standing fee schedule.
func DefaultPolicy() Policy {
	return Policy{
		ShippingFee: decimal.RequireFromString("2.00"),
		ServiceFee:  decimal.RequireFromString("1.00"),
		TaxRate:     decimal.RequireFromString("0.05"),
	}
}

// PolicyFromConfig reads the fee schedule from configuration.
func PolicyFromConfig(cfg config.PricingConfig) Policy {
	return Policy{ShippingFee: cfg.ShippingFee, ServiceFee: cfg.ServiceFee, TaxRate: cfg.TaxRate}
}

// Coupon is a discount rule keyed by a case-insensitive code.
type Coupon struct {
	Code   string           `json:"code"`
	Amount decimal.Decimal  `json:"amount"`
	Kind   enums.CouponKind `json:"kind"`
}

// Summary is the priced breakdown of a cart.
type Summary struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	ServiceFee decimal.Decimal `json:"serviceFee"`
	Tax        decimal.Decimal `json:"tax"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
}

// Summarize prices subtotal under the policy. Fees only apply to a non-empty
// cart; every component is rounded to cents before the total is summed.
func (p Policy) Summarize(subtotal decimal.Decimal, coupon *Coupon) Summary {
	subtotal = subtotal.Round(2)
	s := Summary{
		Subtotal:   subtotal,
		Shipping:   decimal.Zero,
		ServiceFee: decimal.Zero,
		Discount:   decimal.Zero,
	}
	if subtotal.IsPositive() {
		s.Shipping = p.ShippingFee.Round(2)
		s.ServiceFee = p.ServiceFee.Round(2)
	}
	s.Tax = subtotal.Mul(p.TaxRate).Round(2)
	if coupon != nil {
		s.Discount = coupon.Discount(subtotal, s.Shipping)
	}
	s.Total = s.Subtotal.Add(s.Shipping).Add(s.ServiceFee).Add(s.Tax).Sub(s.Discount)
	return s
}

// Discount returns what the coupon takes off. The result never exceeds the
// component it discounts.
func (c Coupon) Discount(subtotal, shipping decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.Kind {
	case enums.CouponKindPercentage:
		d = subtotal.Mul(c.Amount).Div(hundred)
		d = decimal.Min(d, subtotal)
	case enums.CouponKindDollar:
		d = decimal.Min(c.Amount, subtotal)
	case enums.CouponKindShipping:
		d = decimal.Min(c.Amount, shipping)
	default:
		return decimal.Zero
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d.Round(2)
}

var coupons = map[string]Coupon{
	"WELCOME10": {Code: "WELCOME10", Amount: decimal.NewFromInt(10), Kind: enums.CouponKindPercentage},
	"SAVE5":     {Code: "SAVE5", Amount: decimal.NewFromInt(5), Kind: enums.CouponKindDollar},
	"FREESHIP":  {Code: "FREESHIP", Amount: decimal.NewFromInt(2), Kind: enums.CouponKindShipping},
}

// LookupCoupon resolves a shopper-entered code against the coupon table.
func LookupCoupon(code string) (Coupon, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return Coupon{}, pkgerrors.New(pkgerrors.CodeValidation, "Please enter a coupon code")
	}
	coupon, ok := coupons[normalized]
	if !ok {
		return Coupon{}, pkgerrors.New(pkgerrors.CodeValidation, "Invalid coupon code")
	}
	return coupon, nil
}
