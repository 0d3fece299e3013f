package products

import (
	"testing"

	dbtypes "github.com/marketly/marketly-backend/pkg/db/types"
	"github.com/marketly/marketly-backend/pkg/enums"
)

func boolPtr(v bool) *bool { return &v }

func TestEffectivePaymentOptions(t *testing.T) {
	storeNoCOD := dbtypes.PaymentOptions{CODEnabled: false, StripeEnabled: true}

	tests := []struct {
		name     string
		override dbtypes.PaymentOptionsOverride
		store    *dbtypes.PaymentOptions
		want     dbtypes.PaymentOptions
	}{
		{"no store no override", dbtypes.PaymentOptionsOverride{}, nil, dbtypes.PaymentOptions{CODEnabled: true, StripeEnabled: true}},
		{"store defaults", dbtypes.PaymentOptionsOverride{}, &storeNoCOD, storeNoCOD},
		{"override enables cod", dbtypes.PaymentOptionsOverride{COD: boolPtr(true)}, &storeNoCOD, dbtypes.PaymentOptions{CODEnabled: true, StripeEnabled: true}},
		{"override disables stripe", dbtypes.PaymentOptionsOverride{Stripe: boolPtr(false)}, &storeNoCOD, dbtypes.PaymentOptions{CODEnabled: false, StripeEnabled: false}},
		{"override without store", dbtypes.PaymentOptionsOverride{COD: boolPtr(false)}, nil, dbtypes.PaymentOptions{CODEnabled: false, StripeEnabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectivePaymentOptions(tt.override, tt.store)
			if got != tt.want {
				t.Fatalf("expected %+v got %+v", tt.want, got)
			}
		})
	}
}

func TestAllows(t *testing.T) {
	opts := dbtypes.PaymentOptions{CODEnabled: false, StripeEnabled: true}
	if Allows(opts, enums.PaymentMethodCOD) {
		t.Fatal("expected COD to be disallowed")
	}
	if !Allows(opts, enums.PaymentMethodStripe) {
		t.Fatal("expected stripe to be allowed")
	}
}
