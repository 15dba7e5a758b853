package internalapi

import (
	"errors"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/wasl-next/internal/http/handlers/shared"
	"github.com/wasl-next/internal/http/response"
	"github.com/wasl-next/internal/repository"
	"github.com/wasl-next/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderStatusChangeRequest 订单状态变更请求
type OrderStatusChangeRequest struct {
	Status string `json:"status" binding:"required"`
}

// GetOrder 查询订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	order, err := h.OrderService.GetByID(orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.Success(c, order)
}

// ListOrders 分页查询订单
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if userID, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.UserID = uint(userID)
		}
	}
	if raw := strings.TrimSpace(c.Query("profits_distributed")); raw != "" {
		if distributed, err := strconv.ParseBool(raw); err == nil {
			filter.ProfitsDistributed = &distributed
		}
	}
	if from, ok := parseQueryTime(c, "created_from"); ok {
		filter.CreatedFrom = from
	}
	if to, ok := parseQueryTime(c, "created_to"); ok {
		filter.CreatedTo = to
	}

	orders, total, err := h.OrderService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}
	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, orders, pagination)
}

// ChangeOrderStatus 变更订单状态并触发发货/结算编排
func (h *Handler) ChangeOrderStatus(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	var req OrderStatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	result, err := h.OrderService.HandleStatusChange(c.Request.Context(), orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "invalid status transition", nil)
		case errors.Is(err, service.ErrOrderMissingVillage), errors.Is(err, service.ErrInvalidDestination):
			respondError(c, response.CodeBadRequest, "invalid destination", err)
		case errors.Is(err, service.ErrNoCarrierAvailable):
			respondError(c, response.CodeConflict, "no carrier available", err)
		default:
			respondError(c, response.CodeInternal, "status change failed", err)
		}
		return
	}

	data := gin.H{"order": result.Order}
	if result.Package != nil {
		data["package"] = packageCreationView(result.Package)
	}
	response.Success(c, data)
}

func packageCreationView(result *service.PackageCreationResult) gin.H {
	view := gin.H{
		"tracking_no":      result.TrackingNo,
		"carrier_accepted": result.CarrierAccepted,
		"package":          result.Package,
	}
	if result.Err != nil {
		view["error"] = result.Err.Error()
	}
	return view
}

func parseQueryTime(c *gin.Context, key string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, false
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}
