package checkout

import (
	"github.com/google/uuid"

	"github.com/marketly/marketly-backend/internal/products"
	"github.com/marketly/marketly-backend/pkg/enums"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
)

// CheckPaymentPolicy requires every line to allow method.
func CheckPaymentPolicy(lines []PricedLine, method enums.PaymentMethodType) error {
	var blocked []uuid.UUID
	for _, line := range lines {
		if !products.Allows(line.Options, method) {
			blocked = append(blocked, line.Product.ID)
		}
	}
	if len(blocked) == 0 {
		return nil
	}
	msg := "cash on delivery is not available for some items"
	if !method.IsCOD() {
		msg = "card payment is not available for some items"
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{
		"payment_method": method,
		"product_ids":    blocked,
	})
}
