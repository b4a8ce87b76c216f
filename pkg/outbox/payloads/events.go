package payloads

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/enums"
)

// OrderLine mirrors an order item on the wire.
type OrderLine struct {
	MenuItemID int64           `json:"menuItemId"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	ItemTotal  decimal.Decimal `json:"itemTotal"`
}

// OrderPlacedEvent announces a new order to the notification fan-out.
// RestaurantID is a pointer so that producers omitting it can be detected.
type OrderPlacedEvent struct {
	OrderID      int64           `json:"orderId"`
	RestaurantID *int64          `json:"restaurantId,omitempty"`
	SubTotal     decimal.Decimal `json:"subTotal"`
	CreatedAt    time.Time       `json:"createdAt"`
	Items        []OrderLine     `json:"items"`
	ItemCount    int             `json:"itemCount"`
}

// OrderStatusChangedEvent records a payment-driven lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID        int64                `json:"orderId"`
	PreviousStatus enums.OrderStatus    `json:"previousStatus"`
	Status         enums.OrderStatus    `json:"status"`
	Outcome        enums.PaymentOutcome `json:"outcome,omitempty"`
	ChangedAt      time.Time            `json:"changedAt"`
}
