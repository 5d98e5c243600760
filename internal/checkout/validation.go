package checkout

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ValidationErrors maps a form field to the message shown next to it.
// It is an ordinary result of Submit, not an error.
type ValidationErrors map[string]string

func (v ValidationErrors) Empty() bool {
	return len(v) == 0
}

func (v ValidationErrors) clone() ValidationErrors {
	if v == nil {
		return nil
	}
	out := make(ValidationErrors, len(v))
	for k, msg := range v {
		out[k] = msg
	}
	return out
}

var (
	emailPattern      = regexp.MustCompile(`\S+@\S+\.\S+`)
	cardNumberPattern = regexp.MustCompile(`^\d{16}$`)
	expiryPattern     = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cvcPattern        = regexp.MustCompile(`^\d{3,4}$`)
	whitespace        = regexp.MustCompile(`\s`)
)

// Error keys of each payment variant.
var (
	mobileMoneyFields = []string{"paymentPhone"}
	cardFields        = []string{"cardNumber", "cardName", "expiry", "cvc"}
)

var messages = map[string]map[string]string{
	"firstName":    {"notblank": "First name is required"},
	"lastName":     {"notblank": "Last name is required"},
	"email":        {"notblank": "Email is required", "emailshape": "Email is invalid"},
	"phone":        {"notblank": "Phone number is required"},
	"address":      {"notblank": "Address is required"},
	"city":         {"notblank": "City is required"},
	"region":       {"notblank": "Region is required"},
	"paymentPhone": {"notblank": "Phone number is required for mobile money payment"},
	"cardNumber":   {"notblank": "Card number is required", "cardnumber": "Card number must be 16 digits"},
	"cardName":     {"notblank": "Name on card is required"},
	// Only the MM/YY shape is checked, not whether the month or date is valid.
	"expiry": {"notblank": "Expiry date is required", "expiry": "Expiry date must be in MM/YY format"},
	"cvc":    {"notblank": "CVC is required", "cvc": "CVC must be 3 or 4 digits"},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Error keys come from the field tag, falling back to the json name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("field"); name != "" {
			return name
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "emailshape", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "cardnumber", func(fl validator.FieldLevel) bool {
		return cardNumberPattern.MatchString(whitespace.ReplaceAllString(fl.Field().String(), ""))
	})
	mustRegister(v, "expiry", func(fl validator.FieldLevel) bool {
		return expiryPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "cvc", func(fl validator.FieldLevel) bool {
		return cvcPattern.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Validate checks the shipping details and the active payment variant.
// Inactive variant values are never looked at.
func Validate(form Form) ValidationErrors {
	errs := ValidationErrors{}
	collect(errs, validate.Struct(form.Shipping))

	switch form.Payment.Method {
	case domain.PaymentMethodMobileMoney:
		collect(errs, validate.Struct(form.Payment.MobileMoney))
	case domain.PaymentMethodCard:
		collect(errs, validate.Struct(form.Payment.Card))
	}
	return errs
}

func collect(errs ValidationErrors, err error) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return
	}
	for _, fe := range fieldErrs {
		if _, seen := errs[fe.Field()]; seen {
			continue
		}
		msg, ok := messages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		errs[fe.Field()] = msg
	}
}
