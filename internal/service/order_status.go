package service

import (
	"strings"

	"github.com/synergy-flow/internal/constants"
)

// orderTransitions 允许的订单状态流转
var orderTransitions = map[string][]string{
	constants.OrderStatusPending: {constants.OrderStatusToShip, constants.OrderStatusCancelled},
	constants.OrderStatusToShip:  {constants.OrderStatusShipped, constants.OrderStatusCancelled},
	constants.OrderStatusShipped: {constants.OrderStatusDelivered},
}

func normalizeOrderStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// canTransitOrder 判断订单能否从 from 流转到 to
func canTransitOrder(from, to string) bool {
	for _, next := range orderTransitions[normalizeOrderStatus(from)] {
		if next == normalizeOrderStatus(to) {
			return true
		}
	}
	return false
}

// isOrderFinal delivered 与 cancelled 之后订单不可再修改
func isOrderFinal(status string) bool {
	switch normalizeOrderStatus(status) {
	case constants.OrderStatusDelivered, constants.OrderStatusCancelled:
		return true
	default:
		return false
	}
}

func isKnownOrderStatus(status string) bool {
	switch normalizeOrderStatus(status) {
	case constants.OrderStatusPending,
		constants.OrderStatusToShip,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled:
		return true
	default:
		return false
	}
}
