package enums

import (
	"fmt"
	"strings"
)

// PaymentOutcome is the result reported by the payment system for an order.
type PaymentOutcome string

const (
	PaymentOutcomeSuccess   PaymentOutcome = "SUCCESS"
	PaymentOutcomeCancelled PaymentOutcome = "CANCELLED"
	PaymentOutcomeRefunded  PaymentOutcome = "REFUNDED"
	PaymentOutcomeFailed    PaymentOutcome = "FAILED"
)

var validPaymentOutcomes = []PaymentOutcome{
	PaymentOutcomeSuccess,
	PaymentOutcomeCancelled,
	PaymentOutcomeRefunded,
	PaymentOutcomeFailed,
}

func (p PaymentOutcome) String() string {
	return string(p)
}

func (p PaymentOutcome) IsValid() bool {
	for _, candidate := range validPaymentOutcomes {
		if candidate == p {
			return true
		}
	}
	return false
}

// TargetStatus maps the outcome onto the order lifecycle.
func (p PaymentOutcome) TargetStatus() OrderStatus {
	if p == PaymentOutcomeSuccess {
		return OrderStatusConfirmed
	}
	return OrderStatusCancelled
}

// ParsePaymentOutcome is case-insensitive and ignores surrounding whitespace.
func ParsePaymentOutcome(value string) (PaymentOutcome, error) {
	normalized := PaymentOutcome(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid payment outcome %q", value)
}

// PaymentOutcomeNames lists the accepted outcomes in display order.
func PaymentOutcomeNames() []string {
	names := make([]string, 0, len(validPaymentOutcomes))
	for _, o := range validPaymentOutcomes {
		names = append(names, string(o))
	}
	return names
}
