package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/muraqqa/storefront/pkg/enums"
)

// Order is the persisted result of a shipping submission.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;not null"`
	FullName         string              `gorm:"column:full_name;not null;default:''"`
	Phone            string              `gorm:"column:phone;not null;default:''"`
	Address          string              `gorm:"column:shipping_address;not null"`
	City             string              `gorm:"column:shipping_city;not null"`
	PostalCode       string              `gorm:"column:shipping_postal_code;not null;default:''"`
	Country          string              `gorm:"column:shipping_country;not null"`
	ShippingRateID   string              `gorm:"column:shipping_rate_id;not null"`
	ShippingProvider string              `gorm:"column:shipping_provider;not null;default:''"`
	ShippingService  string              `gorm:"column:shipping_service;not null;default:''"`
	PromoCode        *string             `gorm:"column:promo_code"`
	Currency         string              `gorm:"column:currency;not null"`
	Subtotal         int64               `gorm:"column:subtotal_amount;not null"`
	Shipping         int64               `gorm:"column:shipping_amount;not null"`
	Discount         int64               `gorm:"column:discount_amount;not null"`
	Tax              int64               `gorm:"column:tax_amount;not null"`
	Total            int64               `gorm:"column:total_amount;not null"`
	TrackingRef      *string             `gorm:"column:tracking_ref"`
	PaymentIntentID  *string             `gorm:"column:payment_intent_id"`
	Lines            []OrderLine         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderLine snapshots a cart line at order time.
type OrderLine struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	UnitReference string    `gorm:"column:unit_reference;not null;default:''"`
	Title         string    `gorm:"column:title;not null;default:''"`
	Quantity      int       `gorm:"column:quantity;not null"`
	UnitPrice     int64     `gorm:"column:unit_price_amount;not null"`
	FinalPrice    int64     `gorm:"column:final_price_amount;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (OrderLine) TableName() string { return "order_lines" }

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
