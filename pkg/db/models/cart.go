package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the aggregate of line items and derived totals for one anonymous
// session or authenticated user. A cart starts keyed by SessionKey and gains a
// UserID when claimed at sign-in; merge logic retires the session key.
type Cart struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionKey    *string         `gorm:"column:session_key;uniqueIndex"`
	UserID        *uuid.UUID      `gorm:"column:user_id;type:uuid;uniqueIndex"`
	Lines         []CartLine      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	ItemsTotal    decimal.Decimal `gorm:"column:items_total;type:numeric(12,2);not null"`
	ShippingTotal decimal.Decimal `gorm:"column:shipping_total;type:numeric(12,2);not null"`
	TaxTotal      decimal.Decimal `gorm:"column:tax_total;type:numeric(12,2);not null"`
	GrandTotal    decimal.Decimal `gorm:"column:grand_total;type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// LineFor returns the index of the line holding the given product, or -1.
func (c *Cart) LineFor(productID uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}
