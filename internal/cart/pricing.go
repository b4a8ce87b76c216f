package cart

import (
	"fmt"

	"github.com/PrathameshGBhat/foodapp-Backend/internal/menu"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db/models"
	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const mixedRestaurantsMessage = "cart cannot contain items from multiple restaurants"

// restaurantGuard tracks the first restaurant seen and rejects any other.
type restaurantGuard struct {
	restaurantID int64
	seen         bool
}

// guardFor seeds the guard from the lines already stored on the cart.
func guardFor(cart *models.Cart) restaurantGuard {
	if len(cart.Lines) == 0 {
		return restaurantGuard{}
	}
	return restaurantGuard{restaurantID: cart.RestaurantID, seen: true}
}

func (g *restaurantGuard) admit(item *menu.Item) error {
	if item.RestaurantID <= 0 {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("menu item %d has no restaurant", item.ItemID))
	}
	if !g.seen {
		g.restaurantID = item.RestaurantID
		g.seen = true
		return nil
	}
	if g.restaurantID != item.RestaurantID {
		return pkgerrors.New(pkgerrors.CodeConflict, mixedRestaurantsMessage).WithDetails(map[string]any{
			"cartRestaurantId": g.restaurantID,
			"itemId":           item.ItemID,
			"itemRestaurantId": item.RestaurantID,
		})
	}
	return nil
}

// applyItem copies the resolved menu data onto the line and recomputes its total.
func applyItem(line *models.CartLine, item *menu.Item, quantity int) {
	line.ItemID = item.ItemID
	line.RestaurantID = item.RestaurantID
	line.CategoryID = item.CategoryID
	line.Name = item.Name
	line.Description = item.Description
	line.UnitPrice = item.Price
	line.Available = item.Available
	line.Quantity = quantity
	line.LineTotal = lineTotal(item.Price, quantity)
}

func lineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

func sumLines(lines []models.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal)
	}
	return total
}

// renumber restores dense insertion positions after removals.
func renumber(lines []models.CartLine) {
	for i := range lines {
		lines[i].Position = i
	}
}

func validateItems(items []ItemRequest, allowZero bool) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one item")
	}
	minQty := 1
	if allowZero {
		minQty = 0
	}
	for i, item := range items {
		if item.ItemID <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].itemId must be positive", i))
		}
		if item.Quantity < minQty {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d].quantity must be at least %d", i, minQty))
		}
	}
	return nil
}
