package enums

// NotificationType tags payloads pushed on vendor channels.
type NotificationType string

const NotificationOrderPlaced NotificationType = "ORDER_PLACED"
