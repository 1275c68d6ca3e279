package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	appborrowing "github.com/xiebiao/library/internal/application/borrowing"
	"github.com/xiebiao/library/internal/domain/query"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// BorrowingHandler 借阅HTTP处理器
type BorrowingHandler struct {
	createUseCase *appborrowing.CreateBorrowingUseCase
	returnUseCase *appborrowing.ReturnBorrowingUseCase
	listUseCase   *appborrowing.ListBorrowingsUseCase
	getUseCase    *appborrowing.GetBorrowingUseCase
}

func NewBorrowingHandler(
	createUseCase *appborrowing.CreateBorrowingUseCase,
	returnUseCase *appborrowing.ReturnBorrowingUseCase,
	listUseCase *appborrowing.ListBorrowingsUseCase,
	getUseCase *appborrowing.GetBorrowingUseCase,
) *BorrowingHandler {
	return &BorrowingHandler{
		createUseCase: createUseCase,
		returnUseCase: returnUseCase,
		listUseCase:   listUseCase,
		getUseCase:    getUseCase,
	}
}

// CreateBorrowing 借书
// @Summary      借书
// @Description  借阅日期为当天，库存减一；库存为0时返回400
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateBorrowingRequest true "借阅信息"
// @Success      201 {object} response.Response{data=appborrowing.BorrowingDTO}
// @Failure      400 {object} response.Response "库存不足或日期非法"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/borrowings [post]
func (h *BorrowingHandler) CreateBorrowing(c *gin.Context) {
	var req dto.CreateBorrowingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	expected, err := parseDate(req.ExpectedReturnDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), appborrowing.CreateBorrowingRequest{
		UserID:             middleware.GetPrincipal(c).UserID,
		BookID:             req.BookID,
		ExpectedReturnDate: expected,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListBorrowings 借阅列表
// @Summary      借阅列表
// @Description  普通用户只能看到自己的借阅；管理员可按user_id过滤
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        is_active query bool false "是否未归还"
// @Param        user_id   query int  false "用户ID（仅管理员生效）"
// @Param        overdue   query bool false "仅逾期未还"
// @Param        page      query int  false "页码" default(1)
// @Param        page_size query int  false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData{list=[]appborrowing.BorrowingDTO}}
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/borrowings [get]
func (h *BorrowingHandler) ListBorrowings(c *gin.Context) {
	var req dto.ListBorrowingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), appborrowing.ListBorrowingsRequest{
		Principal: middleware.GetPrincipal(c),
		IsActive:  req.IsActive,
		UserID:    req.UserID,
		Overdue:   req.Overdue,
		Page:      query.Page{Page: req.Page, PageSize: req.PageSize},
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// GetBorrowing 借阅详情
// @Summary      借阅详情（含支付记录）
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅ID"
// @Success      200 {object} response.Response{data=appborrowing.BorrowingDTO}
// @Failure      404 {object} response.Response "不存在或无权查看"
// @Router       /api/v1/borrowings/{id} [get]
func (h *BorrowingHandler) GetBorrowing(c *gin.Context) {
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

// ReturnBorrowing 还书
// @Summary      还书
// @Description  计算租金与罚金，开启支付会话并返回支付链接；actual_return_date仅管理员可指定
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                        true  "借阅ID"
// @Param        request body dto.ReturnBorrowingRequest false "归还日期"
// @Success      200 {object} response.Response{data=appborrowing.ReceiptDTO}
// @Failure      400 {object} response.Response "已归还或日期非法"
// @Failure      404 {object} response.Response "不存在或无权查看"
// @Failure      502 {object} response.Response "支付服务不可用"
// @Router       /api/v1/borrowings/{id}/return [post]
func (h *BorrowingHandler) ReturnBorrowing(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.ReturnBorrowingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	var actual *time.Time
	if req.ActualReturnDate != "" {
		d, err := parseDate(req.ActualReturnDate)
		if err != nil {
			response.Error(c, err)
			return
		}
		actual = &d
	}

	result, err := h.returnUseCase.Execute(c.Request.Context(), appborrowing.ReturnBorrowingRequest{
		BorrowingID:      id,
		Principal:        middleware.GetPrincipal(c),
		ActualReturnDate: actual,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
