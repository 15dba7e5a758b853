package service

import (
	"strings"

	"github.com/wasl-next/internal/constants"
)

// orderStatusRank 订单主流程状态的先后次序（终态不在其中）
var orderStatusRank = map[string]int{
	constants.OrderStatusPending:          1,
	constants.OrderStatusConfirmed:        2,
	constants.OrderStatusProcessing:       3,
	constants.OrderStatusReadyForShipping: 4,
	constants.OrderStatusShipped:          5,
	constants.OrderStatusOutForDelivery:   6,
	constants.OrderStatusDelivered:        7,
}

// terminalOrderStatuses 终态集合
var terminalOrderStatuses = map[string]bool{
	constants.OrderStatusCanceled: true,
	constants.OrderStatusReturned: true,
	constants.OrderStatusRefunded: true,
}

// NormalizeOrderStatus 清洗状态字符串
func NormalizeOrderStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// IsKnownOrderStatus 判断是否为已定义的订单状态
func IsKnownOrderStatus(status string) bool {
	status = NormalizeOrderStatus(status)
	if terminalOrderStatuses[status] {
		return true
	}
	_, ok := orderStatusRank[status]
	return ok
}

// IsTerminalOrderStatus 判断是否为终态
func IsTerminalOrderStatus(status string) bool {
	return terminalOrderStatuses[NormalizeOrderStatus(status)]
}

// CanTransitOrderStatus 判断状态迁移是否合法
// 主流程只能前进；任意非终态可进入取消；已交付可进入退货/退款
func CanTransitOrderStatus(from, to string) bool {
	from = NormalizeOrderStatus(from)
	to = NormalizeOrderStatus(to)
	if from == to {
		return false
	}
	if terminalOrderStatuses[from] {
		// 退货后允许退款
		return from == constants.OrderStatusReturned && to == constants.OrderStatusRefunded
	}
	if to == constants.OrderStatusCanceled {
		return from != constants.OrderStatusDelivered
	}
	if to == constants.OrderStatusReturned || to == constants.OrderStatusRefunded {
		return from == constants.OrderStatusDelivered
	}
	fromRank, ok := orderStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := orderStatusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
