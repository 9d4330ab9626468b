package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/muraqqa/storefront/pkg/db/models"
	"github.com/muraqqa/storefront/pkg/enums"
)

// Draft is everything checkout knows when it asks for an order.
type Draft struct {
	UserID        uuid.UUID
	PaymentMethod enums.PaymentMethod
	Shipping      ShippingInfo
	PromoCode     string
	Currency      string
	Lines         []DraftLine
	Amounts       Amounts
}

// ShippingInfo is the destination plus the chosen rate.
type ShippingInfo struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	RateID     string `json:"rateId"`
	Provider   string `json:"provider"`
	Service    string `json:"service"`
}

// DraftLine snapshots one cart line.
type DraftLine struct {
	ProductID     uuid.UUID
	UnitReference string
	Title         string
	Quantity      int
	UnitPrice     int64
	FinalPrice    int64
}

// Amounts are the order totals in whole currency units.
type Amounts struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Discount int64 `json:"discount"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// Detail is the read model returned by GetByID.
type Detail struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"userId"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentMethod   enums.PaymentMethod `json:"paymentMethod"`
	Shipping        ShippingInfo        `json:"shipping"`
	PromoCode       *string             `json:"promoCode,omitempty"`
	Currency        string              `json:"currency"`
	Amounts         Amounts             `json:"amounts"`
	TrackingRef     *string             `json:"trackingRef,omitempty"`
	PaymentIntentID *string             `json:"paymentIntentId,omitempty"`
	Lines           []LineDetail        `json:"lines"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

type LineDetail struct {
	ProductID     uuid.UUID `json:"productId"`
	UnitReference string    `json:"unitReference,omitempty"`
	Title         string    `json:"title"`
	Quantity      int       `json:"quantity"`
	UnitPrice     int64     `json:"unitPrice"`
	FinalPrice    int64     `json:"finalPrice"`
}

func detailFromModel(order *models.Order) *Detail {
	lines := make([]LineDetail, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, LineDetail{
			ProductID:     line.ProductID,
			UnitReference: line.UnitReference,
			Title:         line.Title,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			FinalPrice:    line.FinalPrice,
		})
	}
	return &Detail{
		ID:            order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		Shipping: ShippingInfo{
			FullName:   order.FullName,
			Phone:      order.Phone,
			Address:    order.Address,
			City:       order.City,
			PostalCode: order.PostalCode,
			Country:    order.Country,
			RateID:     order.ShippingRateID,
			Provider:   order.ShippingProvider,
			Service:    order.ShippingService,
		},
		PromoCode:       order.PromoCode,
		Currency:        order.Currency,
		Amounts:         Amounts{Subtotal: order.Subtotal, Shipping: order.Shipping, Discount: order.Discount, Tax: order.Tax, Total: order.Total},
		TrackingRef:     order.TrackingRef,
		PaymentIntentID: order.PaymentIntentID,
		Lines:           lines,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

func (d Draft) toModel() *models.Order {
	order := &models.Order{
		UserID:           d.UserID,
		Status:           initialStatus(d.PaymentMethod),
		PaymentMethod:    d.PaymentMethod,
		FullName:         d.Shipping.FullName,
		Phone:            d.Shipping.Phone,
		Address:          d.Shipping.Address,
		City:             d.Shipping.City,
		PostalCode:       d.Shipping.PostalCode,
		Country:          d.Shipping.Country,
		ShippingRateID:   d.Shipping.RateID,
		ShippingProvider: d.Shipping.Provider,
		ShippingService:  d.Shipping.Service,
		Currency:         d.Currency,
		Subtotal:         d.Amounts.Subtotal,
		Shipping:         d.Amounts.Shipping,
		Discount:         d.Amounts.Discount,
		Tax:              d.Amounts.Tax,
		Total:            d.Amounts.Total,
	}
	if d.PromoCode != "" {
		code := d.PromoCode
		order.PromoCode = &code
	}
	order.Lines = make([]models.OrderLine, 0, len(d.Lines))
	for _, line := range d.Lines {
		order.Lines = append(order.Lines, models.OrderLine{
			ProductID:     line.ProductID,
			UnitReference: line.UnitReference,
			Title:         line.Title,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			FinalPrice:    line.FinalPrice,
		})
	}
	return order
}

func initialStatus(method enums.PaymentMethod) enums.OrderStatus {
	if method == enums.PaymentMethodBankTransfer {
		return enums.OrderStatusAwaitingTransfer
	}
	return enums.OrderStatusPending
}
