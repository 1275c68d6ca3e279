package dto

// BookRequest 新建/修改图书（全量）
type BookRequest struct {
	Title     string `json:"title" binding:"required,max=255" example:"Dune"`
	Author    string `json:"author" binding:"required,max=255" example:"Frank Herbert"`
	Cover     string `json:"cover" binding:"required,oneof=HARD SOFT hard soft" example:"HARD"`
	Inventory *int   `json:"inventory" binding:"required,min=0" example:"3"`
	DailyFee  string `json:"daily_fee" binding:"required,numeric" example:"0.30"` // 每日租金，两位小数
}

// ListBooksRequest 图书列表查询
type ListBooksRequest struct {
	Title    string `form:"title" binding:"omitempty,max=255" example:"dune"`
	Author   string `form:"author" binding:"omitempty,max=255" example:"herbert"`
	Cover    string `form:"cover" binding:"omitempty,oneof=HARD SOFT hard soft" example:"HARD"`
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}
