package internalapi

import (
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/wasl-next/internal/http/handlers/shared"
	"github.com/wasl-next/internal/http/response"
	"github.com/wasl-next/internal/repository"
	"github.com/wasl-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetUserWallet 查询用户钱包账户
func (h *Handler) GetUserWallet(c *gin.Context) {
	userID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid user id", nil)
		return
	}
	account, err := h.WalletService.GetAccount(userID)
	if err != nil {
		if errors.Is(err, service.ErrWalletAccountNotFound) {
			respondError(c, response.CodeNotFound, "wallet account not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "wallet fetch failed", err)
		return
	}
	response.Success(c, account)
}

// ListUserWalletTransactions 查询用户钱包流水
func (h *Handler) ListUserWalletTransactions(c *gin.Context) {
	userID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid user id", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.WalletTransactionListFilter{
		Page:      page,
		PageSize:  pageSize,
		UserID:    userID,
		Type:      strings.TrimSpace(c.Query("type")),
		Direction: strings.TrimSpace(c.Query("direction")),
	}
	if raw := strings.TrimSpace(c.Query("order_id")); raw != "" {
		if orderID, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.OrderID = uint(orderID)
		}
	}
	if from, ok := parseQueryTime(c, "created_from"); ok {
		filter.CreatedFrom = from
	}
	if to, ok := parseQueryTime(c, "created_to"); ok {
		filter.CreatedTo = to
	}

	transactions, total, err := h.WalletService.ListTransactions(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "wallet transactions fetch failed", err)
		return
	}
	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, transactions, pagination)
}

// GetWalletTransactionByReference 按引用号查询钱包流水
func (h *Handler) GetWalletTransactionByReference(c *gin.Context) {
	reference := strings.TrimSpace(c.Param("reference"))
	if reference == "" {
		respondError(c, response.CodeBadRequest, "invalid reference", nil)
		return
	}
	txn, err := h.WalletService.GetTransactionByReference(reference)
	if err != nil {
		respondError(c, response.CodeInternal, "wallet transaction fetch failed", err)
		return
	}
	if txn == nil {
		respondError(c, response.CodeNotFound, "wallet transaction not found", nil)
		return
	}
	response.Success(c, txn)
}
