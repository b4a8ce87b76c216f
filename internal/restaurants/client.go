package restaurants

import (
	"context"
	"fmt"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/upstream"
)

// Restaurant carries the ownership fields the fan-out needs. VendorID is nil
// when the restaurant service has no owner on record.
type Restaurant struct {
	RestaurantID int64  `json:"restaurantId"`
	VendorID     *int64 `json:"vendorId"`
	Name         string `json:"restaurantName"`
}

// Lookup resolves restaurant ownership.
type Lookup interface {
	GetRestaurant(ctx context.Context, restaurantID int64) (*Restaurant, error)
}

type Client struct {
	upstream *upstream.Client
}

func NewClient(cfg config.UpstreamsConfig, opts ...upstream.Option) (*Client, error) {
	up, err := upstream.NewClient("restaurants", cfg.RestaurantServiceURL, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{upstream: up}, nil
}

func (c *Client) GetRestaurant(ctx context.Context, restaurantID int64) (*Restaurant, error) {
	var restaurant Restaurant
	if err := c.upstream.GetJSON(ctx, fmt.Sprintf("/api/restaurants/%d", restaurantID), &restaurant); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, fmt.Sprintf("restaurant %d not found", restaurantID))
		}
		return nil, err
	}
	if restaurant.RestaurantID == 0 {
		restaurant.RestaurantID = restaurantID
	}
	return &restaurant, nil
}
