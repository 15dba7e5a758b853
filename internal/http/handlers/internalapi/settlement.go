package internalapi

import (
	"errors"

	"github.com/wasl-next/internal/http/response"
	"github.com/wasl-next/internal/service"

	"github.com/gin-gonic/gin"
)

// DistributeOrderProfits 触发订单分润发放
func (h *Handler) DistributeOrderProfits(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	if err := h.OrderService.DistributeOrderProfits(orderID); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOrderSettlementReversed):
			respondError(c, response.CodeConflict, "order profits were reversed", nil)
		case errors.Is(err, service.ErrSettlementPlatformUnset):
			respondError(c, response.CodeInternal, "platform account not configured", err)
		default:
			respondError(c, response.CodeInternal, "profit distribution failed", err)
		}
		return
	}
	order, err := h.OrderService.GetByID(orderID)
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.Success(c, gin.H{
		"order_id":            order.ID,
		"profits_distributed": order.ProfitsDistributed,
		"distributed_at":      order.ProfitsDistributedAt,
	})
}

// ReverseOrderProfits 触发订单分润冲正
func (h *Handler) ReverseOrderProfits(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	if err := h.OrderService.ReverseOrderProfits(orderID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "profit reversal failed", err)
		return
	}
	order, err := h.OrderService.GetByID(orderID)
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.Success(c, gin.H{
		"order_id":            order.ID,
		"profits_distributed": order.ProfitsDistributed,
	})
}
