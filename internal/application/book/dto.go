package book

import (
	"github.com/xiebiao/library/internal/domain/book"
)

// BookListItem 列表项，不含库存与费用
type BookListItem struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Cover  string `json:"cover"`
}

// BookDTO 图书详情
type BookDTO struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Cover     string `json:"cover"`
	Inventory int    `json:"inventory"`
	DailyFee  string `json:"daily_fee"` // 两位小数，如 "0.30"
	CreatedAt string `json:"created_at"`
}

func toDTO(b *book.Book) *BookDTO {
	return &BookDTO{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Cover:     string(b.Cover),
		Inventory: b.Inventory,
		DailyFee:  b.DailyFee.StringFixed(2),
		CreatedAt: b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
