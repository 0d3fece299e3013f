package dbtypes

import (
	"database/sql/driver"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// PaymentOptions are the store-wide defaults.
type PaymentOptions struct {
	CODEnabled    bool `json:"cod_enabled"`
	StripeEnabled bool `json:"stripe_enabled"`
}

// DefaultPaymentOptions allows every method.
func DefaultPaymentOptions() PaymentOptions {
	return PaymentOptions{CODEnabled: true, StripeEnabled: true}
}

func (p *PaymentOptions) Scan(src any) error {
	out := DefaultPaymentOptions()
	if err := scanJSON("PaymentOptions", src, &out); err != nil {
		return err
	}
	*p = out
	return nil
}

func (p PaymentOptions) Value() (driver.Value, error) {
	return jsonValue(p)
}

func (PaymentOptions) GormDataType() string {
	return gormJSONType
}

func (PaymentOptions) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDBDataType(db)
}

// PaymentOptionsOverride is the per-product overlay; nil fields inherit.
type PaymentOptionsOverride struct {
	COD    *bool `json:"cod,omitempty"`
	Stripe *bool `json:"stripe,omitempty"`
}

func (p *PaymentOptionsOverride) Scan(src any) error {
	out := PaymentOptionsOverride{}
	if err := scanJSON("PaymentOptionsOverride", src, &out); err != nil {
		return err
	}
	*p = out
	return nil
}

func (p PaymentOptionsOverride) Value() (driver.Value, error) {
	return jsonValue(p)
}

func (PaymentOptionsOverride) GormDataType() string {
	return gormJSONType
}

func (PaymentOptionsOverride) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	return jsonDBDataType(db)
}
