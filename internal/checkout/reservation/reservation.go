// Package reservation takes product stock inside an order transaction.
package reservation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketly/marketly-backend/internal/products"
)

// Request asks for Qty units of ProductID.
type Request struct {
	ProductID uuid.UUID
	Qty       int
}

// Result reports the outcome of one request.
type Result struct {
	ProductID uuid.UUID
	Qty       int
	Reserved  bool
	Reason    string
}

// ReserveInventory decrements stock for every request using tx. Requests that
// cannot be satisfied are reported, not returned as errors; the caller decides
// whether to roll back.
func ReserveInventory(ctx context.Context, tx *gorm.DB, requests []Request) ([]Result, error) {
	repo := products.NewRepository(tx)
	results := make([]Result, 0, len(requests))
	for _, req := range requests {
		res := Result{ProductID: req.ProductID, Qty: req.Qty}
		if req.Qty <= 0 {
			res.Reason = "quantity must be positive"
			results = append(results, res)
			continue
		}
		ok, err := repo.DecrementStock(ctx, req.ProductID, req.Qty)
		if err != nil {
			return nil, err
		}
		res.Reserved = ok
		if !ok {
			res.Reason = "insufficient stock"
		}
		results = append(results, res)
	}
	return results, nil
}

// Failed returns the product ids whose reservation did not succeed.
func Failed(results []Result) []uuid.UUID {
	var out []uuid.UUID
	for _, res := range results {
		if !res.Reserved {
			out = append(out, res.ProductID)
		}
	}
	return out
}
