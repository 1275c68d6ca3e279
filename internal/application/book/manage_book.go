package book

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/library/internal/domain/book"
)

// BookRequest 新建/修改图书（全量）
type BookRequest struct {
	Title     string
	Author    string
	Cover     string
	Inventory int
	DailyFee  string
}

// parse 校验封面与费用格式，其余规则交给领域实体
func (r BookRequest) parse() (book.Cover, decimal.Decimal, error) {
	cover, err := book.ParseCover(r.Cover)
	if err != nil {
		return "", decimal.Decimal{}, err
	}
	fee, err := decimal.NewFromString(r.DailyFee)
	if err != nil {
		return "", decimal.Decimal{}, book.ErrInvalidDailyFee
	}
	return cover, fee, nil
}

// CreateBookUseCase 图书上架（管理员）
type CreateBookUseCase struct {
	bookService book.Service
}

func NewCreateBookUseCase(bookService book.Service) *CreateBookUseCase {
	return &CreateBookUseCase{bookService: bookService}
}

func (uc *CreateBookUseCase) Execute(ctx context.Context, req BookRequest) (*BookDTO, error) {
	cover, fee, err := req.parse()
	if err != nil {
		return nil, err
	}
	b, err := uc.bookService.CreateBook(ctx, req.Title, req.Author, cover, req.Inventory, fee)
	if err != nil {
		return nil, err
	}
	return toDTO(b), nil
}

// UpdateBookUseCase 修改图书（管理员）
// 库存直接覆盖为新值，借阅中的副本不受影响
type UpdateBookUseCase struct {
	bookService book.Service
}

func NewUpdateBookUseCase(bookService book.Service) *UpdateBookUseCase {
	return &UpdateBookUseCase{bookService: bookService}
}

func (uc *UpdateBookUseCase) Execute(ctx context.Context, id uint, req BookRequest) (*BookDTO, error) {
	cover, fee, err := req.parse()
	if err != nil {
		return nil, err
	}
	b, err := uc.bookService.UpdateBook(ctx, id, req.Title, req.Author, cover, req.Inventory, fee)
	if err != nil {
		return nil, err
	}
	return toDTO(b), nil
}

// DeleteBookUseCase 下架图书（软删除，历史借阅仍能看到书名）
type DeleteBookUseCase struct {
	bookService book.Service
}

func NewDeleteBookUseCase(bookService book.Service) *DeleteBookUseCase {
	return &DeleteBookUseCase{bookService: bookService}
}

func (uc *DeleteBookUseCase) Execute(ctx context.Context, id uint) error {
	return uc.bookService.DeleteBook(ctx, id)
}
