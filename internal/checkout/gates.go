package checkout

import (
	"regexp"
	"strings"
	"time"

	"github.com/angelmondragon/suuq-marketplace/internal/orders"
	pkgcheckout "github.com/angelmondragon/suuq-marketplace/pkg/checkout"
	"github.com/angelmondragon/suuq-marketplace/pkg/enums"
	pkgerrors "github.com/angelmondragon/suuq-marketplace/pkg/errors"
)

var cvvRe = regexp.MustCompile(`^[0-9]{3,4}$`)

// validateShipping gates shipping -> payment.
func validateShipping(in ShippingInput) (orders.ShippingInfo, error) {
	info := orders.ShippingInfo{
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.TrimSpace(in.Email),
		Phone:    strings.TrimSpace(in.Phone),
		Address:  strings.TrimSpace(in.Address),
		City:     strings.TrimSpace(in.City),
		Country:  strings.TrimSpace(in.Country),
		Zip:      strings.TrimSpace(in.Zip),
	}

	details := map[string]string{}
	required := []struct{ field, value string }{
		{"fullName", info.FullName},
		{"email", info.Email},
		{"phone", info.Phone},
		{"address", info.Address},
		{"city", info.City},
		{"country", info.Country},
	}
	for _, r := range required {
		if r.value == "" {
			details[r.field] = "is required"
		}
	}
	if _, missing := details["email"]; !missing && !pkgcheckout.ValidateEmail(info.Email) {
		details["email"] = "must be a valid email"
	}
	if len(details) > 0 {
		return orders.ShippingInfo{}, pkgerrors.New(pkgerrors.CodeValidation, "Please fill in all required shipping information").WithDetails(details)
	}
	return info, nil
}

// validatePayment gates payment -> review and returns the masked record to store.
func validatePayment(in PaymentInput, now time.Time) (orders.PaymentInfo, error) {
	details := map[string]string{}
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(in.Method))
	if err != nil {
		details["method"] = "must be one of card, mobile, paypal, cod"
	}

	info := orders.PaymentInfo{Method: method}
	switch method {
	case enums.PaymentMethodCard:
		number := pkgcheckout.NormalizeCardNumber(in.CardNumber)
		expiry := strings.TrimSpace(in.Expiry)
		cvv := strings.TrimSpace(in.CVV)
		name := strings.TrimSpace(in.CardName)
		switch {
		case number == "":
			details["cardNumber"] = "is required"
		case !pkgcheckout.ValidateCardNumber(number):
			details["cardNumber"] = "Invalid card number"
		}
		switch {
		case expiry == "":
			details["expiry"] = "is required"
		case !pkgcheckout.ValidateExpiry(expiry, now):
			details["expiry"] = "Invalid or expired date"
		}
		switch {
		case cvv == "":
			details["cvv"] = "is required"
		case !cvvRe.MatchString(cvv):
			details["cvv"] = "must be 3 or 4 digits"
		}
		if name == "" {
			details["cardName"] = "is required"
		}
		info.CardName = name
		info.CardNumber = pkgcheckout.MaskCardNumber(number)
		info.Expiry = expiry
	case enums.PaymentMethodMobile:
		info.MobileNumber = strings.TrimSpace(in.MobileNumber)
		info.MobileOperator = strings.TrimSpace(in.MobileOperator)
		if info.MobileNumber == "" {
			details["mobileNumber"] = "is required"
		}
		if info.MobileOperator == "" {
			details["mobileOperator"] = "is required"
		}
	}
	if !in.AcceptTerms {
		details["acceptTerms"] = "Please agree to the terms and conditions"
	}

	if len(details) > 0 {
		return orders.PaymentInfo{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment details").WithDetails(details)
	}
	return info, nil
}
