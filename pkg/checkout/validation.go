package checkout

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// ShippingDetails is the destination entered on the shipping step.
type ShippingDetails struct {
	FullName   string `json:"fullName" validate:"max=120"`
	Phone      string `json:"phone" validate:"max=32"`
	Address    string `json:"address" validate:"required,min=10,max=300"`
	City       string `json:"city" validate:"required,min=2,max=120"`
	PostalCode string `json:"postalCode" validate:"max=20"`
	Country    string `json:"country" validate:"required,max=80"`
}

// Normalize trims every field.
func (d ShippingDetails) Normalize() ShippingDetails {
	return ShippingDetails{
		FullName:   strings.TrimSpace(d.FullName),
		Phone:      strings.TrimSpace(d.Phone),
		Address:    strings.TrimSpace(d.Address),
		City:       strings.TrimSpace(d.City),
		PostalCode: strings.TrimSpace(d.PostalCode),
		Country:    strings.TrimSpace(d.Country),
	}
}

// ValidateShipping checks the destination and that a shipping rate was picked.
// Violations are reported per field in the error details.
func ValidateShipping(details ShippingDetails, rateID string) error {
	violations := map[string]string{}
	if err := validate.Struct(details.Normalize()); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
		}
		for _, fieldErr := range errs {
			violations[fieldErr.Field()] = violationMessage(fieldErr)
		}
	}
	if strings.TrimSpace(rateID) == "" {
		violations["rateId"] = "is required"
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("shipping details invalid for %d field(s)", len(violations))).WithDetails(violations)
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is invalid"
}
