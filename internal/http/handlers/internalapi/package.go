package internalapi

import (
	"errors"

	"github.com/wasl-next/internal/http/response"
	"github.com/wasl-next/internal/queue"
	"github.com/wasl-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetOrderPackage 查询订单包裹
func (h *Handler) GetOrderPackage(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	pkg, err := h.PackageRepo.GetByOrderID(orderID)
	if err != nil {
		respondError(c, response.CodeInternal, "package fetch failed", err)
		return
	}
	if pkg == nil {
		respondError(c, response.CodeNotFound, "package not found", nil)
		return
	}
	response.Success(c, pkg)
}

// CreateOrderPackage 为订单创建或重放包裹
func (h *Handler) CreateOrderPackage(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	result, err := h.ShippingService.CreatePackageFromOrder(c.Request.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOrderNotDeliverable):
			respondError(c, response.CodeConflict, "order not in shippable status", nil)
		case errors.Is(err, service.ErrOrderMissingVillage), errors.Is(err, service.ErrInvalidDestination):
			respondError(c, response.CodeBadRequest, "invalid destination", err)
		case errors.Is(err, service.ErrNoCarrierAvailable):
			respondError(c, response.CodeConflict, "no carrier available", err)
		default:
			respondError(c, response.CodeInternal, "package create failed", err)
		}
		return
	}
	response.Success(c, packageCreationView(result))
}

// ResendOrderPackage 将待推送包裹转入异步重推队列
func (h *Handler) ResendOrderPackage(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	if h.QueueClient != nil && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueuePackageResend(queue.PackageResendPayload{OrderID: orderID}); err != nil {
			respondError(c, response.CodeInternal, "resend enqueue failed", err)
			return
		}
		requestLog(c).Infow("package_resend_scheduled", "order_id", orderID)
		response.SuccessWithMsg(c, "resend scheduled", gin.H{"order_id": orderID})
		return
	}

	// 队列未启用时同步重推
	result, err := h.OrderService.ResendPackage(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "package resend failed", err)
		return
	}
	response.Success(c, packageCreationView(result))
}
