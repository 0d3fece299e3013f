package products

import (
	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
	"github.com/marketly/marketly-backend/pkg/enums"
)

// EffectivePaymentOptions overlays a product override on its store defaults.
// Precedence per method: override, then store, then allowed.
func EffectivePaymentOptions(override dbtypes.PaymentOptionsOverride, store *dbtypes.PaymentOptions) dbtypes.PaymentOptions {
	out := dbtypes.DefaultPaymentOptions()
	if store != nil {
		out = *store
	}
	if override.COD != nil {
		out.CODEnabled = *override.COD
	}
	if override.Stripe != nil {
		out.StripeEnabled = *override.Stripe
	}
	return out
}

// Allows reports whether opts permit the payment method.
func Allows(opts dbtypes.PaymentOptions, method enums.PaymentMethodType) bool {
	if method.IsCOD() {
		return opts.CODEnabled
	}
	return opts.StripeEnabled
}
