package menu

import (
	"context"
	"fmt"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/upstream"
	"github.com/shopspring/decimal"
)

// Item is the current catalog view of a menu item.
type Item struct {
	ItemID       int64           `json:"itemId"`
	RestaurantID int64           `json:"restaurantId"`
	CategoryID   *int64          `json:"categoryId"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Available    bool            `json:"isavailable"`
}

// Lookup resolves menu items by id.
type Lookup interface {
	GetItem(ctx context.Context, itemID int64) (*Item, error)
}

// Client calls the menu service.
type Client struct {
	upstream *upstream.Client
}

func NewClient(cfg config.UpstreamsConfig, opts ...upstream.Option) (*Client, error) {
	up, err := upstream.NewClient("menu", cfg.MenuServiceURL, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{upstream: up}, nil
}

// GetItem returns CodeNotFound for unknown items and CodeDependency when the
// menu service cannot answer or sends an item without a restaurant.
func (c *Client) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	if itemID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id must be positive")
	}

	var item Item
	if err := c.upstream.GetJSON(ctx, fmt.Sprintf("/api/menu/id/%d", itemID), &item); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, fmt.Sprintf("menu item %d not found", itemID))
		}
		return nil, err
	}
	if item.ItemID == 0 {
		item.ItemID = itemID
	}
	if item.RestaurantID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("menu item %d has no restaurant", itemID))
	}
	return &item, nil
}
