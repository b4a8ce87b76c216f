package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/enums"
)

// Order is a placed customer order and its payment-driven lifecycle status.
type Order struct {
	ID           int64             `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerID   int64             `gorm:"column:customer_id;not null"`
	RestaurantID int64             `gorm:"column:restaurant_id;not null"`
	Items        []OrderItem       `gorm:"column:items;type:jsonb;serializer:json;not null"`
	Subtotal     decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Status       enums.OrderStatus `gorm:"column:status;not null;default:'PLACED'"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is a snapshot of a cart line taken when the order was placed.
type OrderItem struct {
	MenuItemID int64           `json:"menuItemId"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	ItemTotal  decimal.Decimal `json:"itemTotal"`
}
