package checkout

import (
	"time"

	"github.com/angelmondragon/suuq-marketplace/internal/cart"
	"github.com/angelmondragon/suuq-marketplace/internal/orders"
	"github.com/angelmondragon/suuq-marketplace/internal/pricing"
	"github.com/angelmondragon/suuq-marketplace/pkg/enums"
)

// Session tracks how far a shopper has progressed through checkout.
type Session struct {
	Step      enums.CheckoutStep `json:"step"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// State is the checkout page view.
type State struct {
	Step         enums.CheckoutStep   `json:"step"`
	ShippingInfo *orders.ShippingInfo `json:"shippingInfo,omitempty"`
	PaymentInfo  *orders.PaymentInfo  `json:"paymentInfo,omitempty"`
	Coupon       *pricing.Coupon      `json:"coupon,omitempty"`
	Items        cart.Ledger          `json:"items"`
	Summary      pricing.Summary      `json:"summary"`
}

// ShippingInput is the shipping form.
type ShippingInput struct {
	FullName string
	Email    string
	Phone    string
	Address  string
	City     string
	Country  string
	Zip      string
}

// PaymentInput is the payment form. CVV is checked and then discarded.
type PaymentInput struct {
	Method         string
	CardNumber     string
	Expiry         string
	CVV            string
	CardName       string
	MobileNumber   string
	MobileOperator string
	AcceptTerms    bool
}

// Placement is the result of a finalized checkout.
type Placement struct {
	Order orders.Detail `json:"order"`
}
