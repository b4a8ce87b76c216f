package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is a priced, single-restaurant basket of menu items.
type Cart struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	RestaurantID int64           `gorm:"column:restaurant_id;not null"`
	TotalPrice   decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null;default:0"`
	Lines        []CartLine      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// CartLine stores one menu item resolved at the time it was added.
type CartLine struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CartID       int64           `gorm:"column:cart_id;not null;uniqueIndex:cart_lines_cart_item_key"`
	ItemID       int64           `gorm:"column:item_id;not null;uniqueIndex:cart_lines_cart_item_key"`
	Position     int             `gorm:"column:position;not null"`
	RestaurantID int64           `gorm:"column:restaurant_id;not null"`
	CategoryID   *int64          `gorm:"column:category_id"`
	Name         string          `gorm:"column:name;not null"`
	Description  string          `gorm:"column:description"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	LineTotal    decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	Available    bool            `gorm:"column:available;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
