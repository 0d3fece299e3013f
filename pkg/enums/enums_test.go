package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus(" Shipped ")
	if err != nil || got != OrderStatusShipped {
		t.Fatalf("expected shipped, got %q (%v)", got, err)
	}
	if _, err := ParseOrderStatus("returned"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestNormalizePaymentMethodType(t *testing.T) {
	cases := map[string]PaymentMethodType{
		"COD":    PaymentMethodCOD,
		"cod":    PaymentMethodCOD,
		" Cod ":  PaymentMethodCOD,
		"card":   PaymentMethodStripe,
		"stripe": PaymentMethodStripe,
		"":       PaymentMethodStripe,
	}
	for raw, want := range cases {
		if got := NormalizePaymentMethodType(raw); got != want {
			t.Fatalf("%q: expected %s, got %s", raw, want, got)
		}
	}
}

func TestPaymentStatusValidity(t *testing.T) {
	if !PaymentStatusCompleted.IsValid() {
		t.Fatalf("completed should be valid")
	}
	if PaymentStatus("paid").IsValid() {
		t.Fatalf("paid is not a known status")
	}
	if _, err := ParsePaymentStatus("failed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseAddressType(t *testing.T) {
	got, err := ParseAddressType("")
	if err != nil || got != AddressTypeHome {
		t.Fatalf("expected blank to default to home, got %q", got)
	}
	if _, err := ParseAddressType("villa"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestPaymentStatusSettled(t *testing.T) {
	if PaymentStatusPending.Settled() {
		t.Fatalf("pending is not settled")
	}
	if !PaymentStatusFailed.Settled() || !PaymentStatusCompleted.Settled() {
		t.Fatalf("failed and completed are settled")
	}
	if PaymentStatus("refunded").Settled() {
		t.Fatalf("unknown status cannot be settled")
	}
}
