package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	apppayment "github.com/xiebiao/library/internal/application/payment"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/query"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// PaymentHandler 支付HTTP处理器
type PaymentHandler struct {
	manager     *apppayment.Manager
	listUseCase *apppayment.ListPaymentsUseCase
	getUseCase  *apppayment.GetPaymentUseCase
}

func NewPaymentHandler(
	manager *apppayment.Manager,
	listUseCase *apppayment.ListPaymentsUseCase,
	getUseCase *apppayment.GetPaymentUseCase,
) *PaymentHandler {
	return &PaymentHandler{manager: manager, listUseCase: listUseCase, getUseCase: getUseCase}
}

// ListPayments 支付列表
// @Summary      支付列表
// @Description  普通用户只能看到自己借阅产生的支付
// @Tags         支付
// @Produce      json
// @Security     BearerAuth
// @Param        status    query string false "状态" Enums(PENDING, PAID, CANCELLED)
// @Param        page      query int    false "页码" default(1)
// @Param        page_size query int    false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData{list=[]apppayment.PaymentDTO}}
// @Router       /api/v1/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	var req dto.ListPaymentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), apppayment.ListPaymentsRequest{
		Principal: middleware.GetPrincipal(c),
		Status:    strings.ToUpper(req.Status),
		Page:      query.Page{Page: req.Page, PageSize: req.PageSize},
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// GetPayment 支付详情
// @Summary      支付详情
// @Tags         支付
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "支付ID"
// @Success      200 {object} response.Response{data=apppayment.PaymentDTO}
// @Failure      404 {object} response.Response "不存在或无权查看"
// @Router       /api/v1/payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := h.getUseCase.Execute(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Success 支付成功回跳
// @Summary      支付成功回跳
// @Description  id是支付会话ID，不接受支付ID；重复调用结果不变
// @Tags         支付
// @Produce      json
// @Param        id path string true "支付会话ID"
// @Success      200 {object} response.Response{data=dto.PaymentCallbackResponse}
// @Failure      404 {object} response.Response "支付记录不存在"
// @Router       /api/v1/payments/{id}/success [get]
func (h *PaymentHandler) Success(c *gin.Context) {
	p, err := h.manager.ConfirmBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, callbackResponse(p))
}

// Cancel 支付取消回跳
// @Summary      支付取消回跳
// @Description  id是支付会话ID；PENDING → CANCELLED并作废会话；已支付的记录保持PAID
// @Tags         支付
// @Produce      json
// @Param        id path string true "支付会话ID"
// @Success      200 {object} response.Response{data=dto.PaymentCallbackResponse}
// @Failure      404 {object} response.Response "支付记录不存在"
// @Failure      502 {object} response.Response "支付服务不可用，记录保持PENDING"
// @Router       /api/v1/payments/{id}/cancel [get]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	p, err := h.manager.CancelBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, callbackResponse(p))
}

func callbackResponse(p *payment.Payment) *dto.PaymentCallbackResponse {
	msg := "Payment is pending"
	switch p.Status {
	case payment.StatusPaid:
		msg = "Payment completed"
	case payment.StatusCancelled:
		msg = "Payment cancelled, the checkout session has been closed"
	}
	return &dto.PaymentCallbackResponse{
		PaymentID:   p.ID,
		BorrowingID: p.BorrowingID,
		Status:      string(p.Status),
		Message:     msg,
	}
}
