package controllers

import (
	"net/http"

	"github.com/angelmondragon/suuq-marketplace/api/responses"
	"github.com/angelmondragon/suuq-marketplace/api/validators"
	"github.com/angelmondragon/suuq-marketplace/internal/checkout"
	"github.com/angelmondragon/suuq-marketplace/pkg/logger"
)

const maxFieldLength = 200

type shippingRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Zip      string `json:"zip"`
}

func (p shippingRequest) toInput() checkout.ShippingInput {
	return checkout.ShippingInput{
		FullName: validators.SanitizeString(p.FullName, maxFieldLength),
		Email:    validators.SanitizeString(p.Email, maxFieldLength),
		Phone:    validators.SanitizeString(p.Phone, maxFieldLength),
		Address:  validators.SanitizeString(p.Address, maxFieldLength),
		City:     validators.SanitizeString(p.City, maxFieldLength),
		Country:  validators.SanitizeString(p.Country, maxFieldLength),
		Zip:      validators.SanitizeString(p.Zip, maxFieldLength),
	}
}

type paymentRequest struct {
	Method         string `json:"method" validate:"required,oneof=card mobile paypal cod"`
	CardNumber     string `json:"cardNumber"`
	Expiry         string `json:"expiry"`
	CVV            string `json:"cvv"`
	CardName       string `json:"cardName"`
	MobileNumber   string `json:"mobileNumber"`
	MobileOperator string `json:"mobileOperator"`
	AcceptTerms    bool   `json:"acceptTerms"`
}

func (p paymentRequest) toInput() checkout.PaymentInput {
	return checkout.PaymentInput{
		Method:         p.Method,
		CardNumber:     validators.SanitizeString(p.CardNumber, maxFieldLength),
		Expiry:         validators.SanitizeString(p.Expiry, maxFieldLength),
		CVV:            validators.SanitizeString(p.CVV, maxFieldLength),
		CardName:       validators.SanitizeString(p.CardName, maxFieldLength),
		MobileNumber:   validators.SanitizeString(p.MobileNumber, maxFieldLength),
		MobileOperator: validators.SanitizeString(p.MobileOperator, maxFieldLength),
		AcceptTerms:    p.AcceptTerms,
	}
}

type couponRequest struct {
	Code string `json:"code"`
}

func CheckoutState(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout"))
			return
		}
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.State(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

func CheckoutShipping(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout"))
			return
		}
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload shippingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.SubmitShipping(r.Context(), sessionID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

func CheckoutPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout"))
			return
		}
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.SubmitPayment(r.Context(), sessionID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

func CheckoutCoupon(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout"))
			return
		}
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload couponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.ApplyCoupon(r.Context(), sessionID, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// CheckoutPlace finalizes the reviewed checkout and returns the new order.
func CheckoutPlace(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout"))
			return
		}
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		placement, err := svc.PlaceOrder(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, placement)
	}
}
