package notifications

import (
	"time"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/enums"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox/payloads"
	"github.com/shopspring/decimal"
)

// VendorNotification is the live payload pushed to a vendor's channel. It is
// never persisted.
type VendorNotification struct {
	DestinationVendorID int64                  `json:"destinationVendorId"`
	OrderID             int64                  `json:"orderId"`
	RestaurantID        int64                  `json:"restaurantId"`
	SubTotal            decimal.Decimal        `json:"subTotal"`
	CreatedAt           time.Time              `json:"createdAt"`
	Items               []payloads.OrderLine   `json:"items"`
	ItemCount           int                    `json:"itemCount"`
	Type                enums.NotificationType `json:"type"`
}

func buildNotification(vendorID, restaurantID int64, event payloads.OrderPlacedEvent) VendorNotification {
	items := event.Items
	if items == nil {
		items = []payloads.OrderLine{}
	}
	return VendorNotification{
		DestinationVendorID: vendorID,
		OrderID:             event.OrderID,
		RestaurantID:        restaurantID,
		SubTotal:            event.SubTotal,
		CreatedAt:           event.CreatedAt,
		Items:               items,
		ItemCount:           len(event.Items),
		Type:                enums.NotificationOrderPlaced,
	}
}
