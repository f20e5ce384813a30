package orders

import (
	"time"

	"github.com/angelmondragon/suuq-marketplace/internal/cart"
	"github.com/angelmondragon/suuq-marketplace/internal/pricing"
	"github.com/angelmondragon/suuq-marketplace/pkg/enums"
)

// ShippingInfo is the delivery contact captured at checkout.
type ShippingInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Zip      string `json:"zip,omitempty"`
}

// PaymentInfo is the stored payment choice. Card numbers are masked before
// they reach this type and the CVV is never kept.
type PaymentInfo struct {
	Method         enums.PaymentMethod `json:"method"`
	CardName       string              `json:"cardName,omitempty"`
	CardNumber     string              `json:"cardNumber,omitempty"`
	Expiry         string              `json:"expiry,omitempty"`
	MobileNumber   string              `json:"mobileNumber,omitempty"`
	MobileOperator string              `json:"mobileOperator,omitempty"`
}

// Summary snapshots the cart and its pricing at the time of review.
type Summary struct {
	Items   cart.Ledger     `json:"items"`
	Summary pricing.Summary `json:"summary"`
	Coupon  *pricing.Coupon `json:"coupon,omitempty"`
}

// Order is an entry in the session's order history. Only Status changes
// after creation.
type Order struct {
	ID           string            `json:"id"`
	Date         time.Time         `json:"date"`
	ShippingInfo ShippingInfo      `json:"shippingInfo"`
	PaymentInfo  PaymentInfo       `json:"paymentInfo"`
	OrderSummary Summary           `json:"orderSummary"`
	Status       enums.OrderStatus `json:"status"`
}

// TrackingStep is one stage of the delivery progress bar.
type TrackingStep struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// Detail is an order with its display labels and tracking progress.
type Detail struct {
	Order
	StatusLabel        string         `json:"statusLabel"`
	PaymentMethodLabel string         `json:"paymentMethodLabel"`
	Cancellable        bool           `json:"cancellable"`
	Tracking           []TrackingStep `json:"tracking"`
}

var trackingSteps = []TrackingStep{
	{ID: "ordered", Label: "Ordered"},
	{ID: string(enums.OrderStatusProcessing), Label: "Processing"},
	{ID: string(enums.OrderStatusShipped), Label: "Shipped"},
	{ID: string(enums.OrderStatusDelivered), Label: "Delivered"},
}

// Tracking marks every step up to and including the order's status as
// active. A cancelled order only shows that it was ordered.
func Tracking(status enums.OrderStatus) []TrackingStep {
	current := 0
	for i, step := range trackingSteps {
		if step.ID == string(status) {
			current = i
		}
	}
	out := make([]TrackingStep, len(trackingSteps))
	for i, step := range trackingSteps {
		step.Active = i <= current
		out[i] = step
	}
	return out
}

// Describe decorates an order for display.
func Describe(order Order) Detail {
	return Detail{
		Order:              order,
		StatusLabel:        order.Status.Label(),
		PaymentMethodLabel: order.PaymentInfo.Method.Label(),
		Cancellable:        order.Status.CanTransitionTo(enums.OrderStatusCancelled),
		Tracking:           Tracking(order.Status),
	}
}
