package cart

import (
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// ItemRequest is one (item, quantity) pair supplied by the caller. Prices are
// never taken from the client.
type ItemRequest struct {
	ItemID   int64 `json:"itemId" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"gte=0"`
}

// LineDTO is a cart line enriched with its derived total.
type LineDTO struct {
	ItemID       int64           `json:"itemId"`
	RestaurantID int64           `json:"restaurantId"`
	CategoryID   *int64          `json:"categoryId,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Available    bool            `json:"isavailable"`
	Quantity     int             `json:"quantity"`
	LineTotal    decimal.Decimal `json:"lineTotal"`
}

// CartDTO is the API view of a cart. On update, Items holds only the lines
// processed by that request while TotalPrice covers the whole cart.
type CartDTO struct {
	CartID       int64           `json:"cartId"`
	RestaurantID int64           `json:"restaurantId,omitempty"`
	Items        []LineDTO       `json:"items"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	Deleted      bool            `json:"deleted,omitempty"`
}

func lineDTO(line models.CartLine) LineDTO {
	return LineDTO{
		ItemID:       line.ItemID,
		RestaurantID: line.RestaurantID,
		CategoryID:   line.CategoryID,
		Name:         line.Name,
		Description:  line.Description,
		Price:        line.UnitPrice,
		Available:    line.Available,
		Quantity:     line.Quantity,
		LineTotal:    line.LineTotal,
	}
}

// FromModel maps a persisted cart, including every line.
func FromModel(cart *models.Cart) *CartDTO {
	if cart == nil {
		return nil
	}
	items := make([]LineDTO, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		items = append(items, lineDTO(line))
	}
	return &CartDTO{
		CartID:       cart.ID,
		RestaurantID: cart.RestaurantID,
		Items:        items,
		TotalPrice:   cart.TotalPrice,
	}
}
