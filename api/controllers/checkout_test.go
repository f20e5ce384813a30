package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/angelmondragon/suuq-marketplace/internal/checkout"
	"github.com/angelmondragon/suuq-marketplace/internal/orders"
	"github.com/angelmondragon/suuq-marketplace/pkg/enums"
	pkgerrors "github.com/angelmondragon/suuq-marketplace/pkg/errors"
)

type stubCheckout struct {
	shipping checkout.ShippingInput
	payment  checkout.PaymentInput
	code     string
	session  string
	err      error
}

func (s *stubCheckout) State(_ context.Context, sessionID string) (checkout.State, error) {
	s.session = sessionID
	return checkout.State{Step: enums.CheckoutStepShipping}, s.err
}

func (s *stubCheckout) SubmitShipping(_ context.Context, _ string, input checkout.ShippingInput) (checkout.State, error) {
	s.shipping = input
	return checkout.State{Step: enums.CheckoutStepPayment}, s.err
}

func (s *stubCheckout) SubmitPayment(_ context.Context, _ string, input checkout.PaymentInput) (checkout.State, error) {
	s.payment = input
	return checkout.State{Step: enums.CheckoutStepReview}, s.err
}

func (s *stubCheckout) ApplyCoupon(_ context.Context, _ string, code string) (checkout.State, error) {
	s.code = code
	return checkout.State{Step: enums.CheckoutStepReview}, s.err
}

func (s *stubCheckout) PlaceOrder(_ context.Context, _ string) (checkout.Placement, error) {
	if s.err != nil {
		return checkout.Placement{}, s.err
	}
	return checkout.Placement{Order: orders.Describe(orders.Order{ID: "ORD00000001", Status: enums.OrderStatusProcessing})}, nil
}

func TestCheckoutStateUsesSession(t *testing.T) {
	svc := &stubCheckout{}
	rec := serve(http.MethodGet, "/api/v1/checkout", "/api/v1/checkout", "", CheckoutState(svc, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.session != testSession {
		t.Fatalf("expected session %s got %s", testSession, svc.session)
	}
	var state checkout.State
	decodeData(t, rec, &state)
	if state.Step != enums.CheckoutStepShipping {
		t.Fatalf("unexpected step %s", state.Step)
	}
}

func TestCheckoutShippingTrimsInput(t *testing.T) {
	svc := &stubCheckout{}
	body := `{"fullName":"  Amina Yusuf ","email":"amina@example.com","phone":"615000000","address":"Maka Al Mukarama","city":"Mogadishu","country":"Somalia"}`
	rec := serve(http.MethodPost, "/api/v1/checkout/shipping", "/api/v1/checkout/shipping", body, CheckoutShipping(svc, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.shipping.FullName != "Amina Yusuf" || svc.shipping.Zip != "" {
		t.Fatalf("unexpected input %+v", svc.shipping)
	}
}

func TestCheckoutPaymentRejectsUnknownMethod(t *testing.T) {
	svc := &stubCheckout{}
	rec := serve(http.MethodPost, "/api/v1/checkout/payment", "/api/v1/checkout/payment", `{"method":"crypto","acceptTerms":true}`, CheckoutPayment(svc, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	env := decodeError(t, rec)
	if env.Error.Details["method"] == nil {
		t.Fatalf("expected method detail, got %+v", env.Error.Details)
	}
}

func TestCheckoutPaymentForwardsCard(t *testing.T) {
	svc := &stubCheckout{}
	body := `{"method":"card","cardNumber":"4242 4242 4242 4242","expiry":"12/30","cvv":"123","cardName":"Amina","acceptTerms":true}`
	rec := serve(http.MethodPost, "/api/v1/checkout/payment", "/api/v1/checkout/payment", body, CheckoutPayment(svc, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.payment.CardNumber != "4242 4242 4242 4242" || !svc.payment.AcceptTerms {
		t.Fatalf("unexpected payment input %+v", svc.payment)
	}
}

func TestCheckoutCouponConflict(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeConflict, "a coupon has already been applied")}
	rec := serve(http.MethodPost, "/api/v1/checkout/coupon", "/api/v1/checkout/coupon", `{"code":"save5"}`, CheckoutCoupon(svc, nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
	if svc.code != "save5" {
		t.Fatalf("expected raw code forwarded, got %q", svc.code)
	}
}

func TestCheckoutPlaceCreated(t *testing.T) {
	rec := serve(http.MethodPost, "/api/v1/checkout/place", "/api/v1/checkout/place", "", CheckoutPlace(&stubCheckout{}, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	var placement checkout.Placement
	decodeData(t, rec, &placement)
	if placement.Order.ID != "ORD00000001" || placement.Order.StatusLabel != "Processing" {
		t.Fatalf("unexpected placement %+v", placement.Order)
	}
}

func TestCheckoutPlaceWrongStep(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not ready for review")}
	rec := serve(http.MethodPost, "/api/v1/checkout/place", "/api/v1/checkout/place", "", CheckoutPlace(svc, nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}
