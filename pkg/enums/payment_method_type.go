package enums

import "strings"

// PaymentMethodType is how the buyer settles an order.
type PaymentMethodType string

const (
	PaymentMethodCOD    PaymentMethodType = "COD"
	PaymentMethodStripe PaymentMethodType = "STRIPE"
)

// String implements fmt.Stringer.
func (p PaymentMethodType) String() string {
	return string(p)
}

// IsCOD reports whether the method is cash on delivery.
func (p PaymentMethodType) IsCOD() bool {
	return p == PaymentMethodCOD
}

// NormalizePaymentMethodType maps "cod" in any casing to COD. Every other
// value is a card payment settled through Stripe.
func NormalizePaymentMethodType(value string) PaymentMethodType {
	if strings.EqualFold(strings.TrimSpace(value), string(PaymentMethodCOD)) {
		return PaymentMethodCOD
	}
	return PaymentMethodStripe
}
