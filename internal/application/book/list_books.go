package book

import (
	"context"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/query"
)

// ListBooksUseCase 图书列表（公开）
// 书名/作者为大小写不敏感的子串匹配，封面为精确匹配
type ListBooksUseCase struct {
	bookService book.Service
}

func NewListBooksUseCase(bookService book.Service) *ListBooksUseCase {
	return &ListBooksUseCase{bookService: bookService}
}

// ListBooksRequest 列表查询
type ListBooksRequest struct {
	Title    string
	Author   string
	Cover    string
	Page     int
	PageSize int
}

// ListBooksResponse 列表查询响应
type ListBooksResponse struct {
	List       []BookListItem `json:"list"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

func (uc *ListBooksUseCase) Execute(ctx context.Context, req ListBooksRequest) (*ListBooksResponse, error) {
	filter := query.BookFilter{Title: req.Title, Author: req.Author, Cover: req.Cover}.Normalize()
	if filter.Cover != "" {
		if _, err := book.ParseCover(filter.Cover); err != nil {
			return nil, err
		}
	}
	page := query.Page{Page: req.Page, PageSize: req.PageSize}.Normalize()

	books, total, err := uc.bookService.ListBooks(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	list := make([]BookListItem, len(books))
	for i, b := range books {
		list[i] = BookListItem{
			ID:     b.ID,
			Title:  b.Title,
			Author: b.Author,
			Cover:  string(b.Cover),
		}
	}

	totalPages := int(total) / page.PageSize
	if int(total)%page.PageSize != 0 {
		totalPages++
	}

	return &ListBooksResponse{
		List:       list,
		Total:      total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetBookUseCase 图书详情（公开）
type GetBookUseCase struct {
	bookService book.Service
}

func NewGetBookUseCase(bookService book.Service) *GetBookUseCase {
	return &GetBookUseCase{bookService: bookService}
}

func (uc *GetBookUseCase) Execute(ctx context.Context, id uint) (*BookDTO, error) {
	b, err := uc.bookService.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDTO(b), nil
}
