package enums

// PaymentStatus tracks settlement of an order's money.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

var paymentStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed}

func (p PaymentStatus) String() string { return string(p) }

func (p PaymentStatus) IsValid() bool { return known(p, paymentStatuses) }

// Settled is true once a webhook has moved the payment out of pending.
func (p PaymentStatus) Settled() bool { return p != PaymentStatusPending && p.IsValid() }

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return parse("payment status", value, paymentStatuses)
}
