package dto

// DateLayout 请求与响应中的日期格式
const DateLayout = "2006-01-02"

// CreateBorrowingRequest 借书，借阅日期为服务端当天
type CreateBorrowingRequest struct {
	BookID             uint   `json:"book_id" binding:"required" example:"1"`
	ExpectedReturnDate string `json:"expected_return_date" binding:"required" example:"2024-03-06"`
}

// ReturnBorrowingRequest 还书；actual_return_date只有管理员可以指定，缺省为今天
type ReturnBorrowingRequest struct {
	ActualReturnDate string `json:"actual_return_date" example:"2024-03-08"`
}

// ListBorrowingsRequest 借阅列表查询；普通用户传入的user_id会被忽略
type ListBorrowingsRequest struct {
	IsActive *bool `form:"is_active" example:"true"`
	UserID   *uint `form:"user_id" example:"2"`
	Overdue  bool  `form:"overdue" example:"false"`
	Page     int   `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int   `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}
