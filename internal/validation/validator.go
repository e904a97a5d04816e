package validation

import (
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for CreateOrderRequest to ensure the
	// customer document is a plausible CPF/CNPJ and the phone has enough digits.
	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})

	return v
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)

	if d := digitCount(req.Customer.Document); d != 11 && d != 14 {
		sl.ReportError(req.Customer.Document, "customer.document", "Document", "document_digits",
			fmt.Sprintf("document has %d digits, want 11 or 14", d))
	}
	if d := digitCount(req.Customer.Phone); d < 10 {
		sl.ReportError(req.Customer.Phone, "customer.phone", "Phone", "phone_digits",
			fmt.Sprintf("phone has %d digits, want at least 10", d))
	}
}
