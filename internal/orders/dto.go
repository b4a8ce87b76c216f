package orders

import (
	"time"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db/models"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/enums"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox/payloads"
	"github.com/shopspring/decimal"
)

// PlaceOrderInput converts a cart into an order for a customer.
type PlaceOrderInput struct {
	CustomerID int64 `json:"customerId" validate:"required,gt=0"`
	CartID     int64 `json:"cartId" validate:"required,gt=0"`
}

// ItemDTO is one priced line of an order.
type ItemDTO struct {
	MenuItemID int64           `json:"menuItemId"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	ItemTotal  decimal.Decimal `json:"itemTotal"`
}

// OrderDTO is the API view of an order.
type OrderDTO struct {
	OrderID      int64             `json:"orderId"`
	CustomerID   int64             `json:"customerId"`
	RestaurantID int64             `json:"restaurantId"`
	Items        []ItemDTO         `json:"items"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Status       enums.OrderStatus `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// DeleteResult is the acknowledgement body returned for deletions.
type DeleteResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	OrderID int64  `json:"orderId"`
}

func FromModel(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	items := make([]ItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ItemDTO(item))
	}
	return &OrderDTO{
		OrderID:      order.ID,
		CustomerID:   order.CustomerID,
		RestaurantID: order.RestaurantID,
		Items:        items,
		Subtotal:     order.Subtotal,
		Status:       order.Status,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

func itemsFromCart(lines []models.CartLine) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			MenuItemID: line.ItemID,
			Name:       line.Name,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
			ItemTotal:  line.LineTotal,
		})
	}
	return items
}

func orderPlacedEvent(order *models.Order) payloads.OrderPlacedEvent {
	restaurantID := order.RestaurantID
	lines := make([]payloads.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payloads.OrderLine(item))
	}
	return payloads.OrderPlacedEvent{
		OrderID:      order.ID,
		RestaurantID: &restaurantID,
		SubTotal:     order.Subtotal,
		CreatedAt:    order.CreatedAt,
		Items:        lines,
		ItemCount:    len(lines),
	}
}
