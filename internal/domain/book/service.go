package book

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/library/internal/domain/query"
)

// Service 图书领域服务：目录管理（仅管理员调用，权限由接口层中间件保证）
type Service interface {
	CreateBook(ctx context.Context, title, author string, cover Cover, inventory int, dailyFee decimal.Decimal) (*Book, error)
	GetBook(ctx context.Context, id uint) (*Book, error)
	UpdateBook(ctx context.Context, id uint, title, author string, cover Cover, inventory int, dailyFee decimal.Decimal) (*Book, error)
	DeleteBook(ctx context.Context, id uint) error
	ListBooks(ctx context.Context, filter query.BookFilter, page query.Page) ([]*Book, int64, error)
}

type service struct {
	repo Repository
}

// NewService 创建图书领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateBook(ctx context.Context, title, author string, cover Cover, inventory int, dailyFee decimal.Decimal) (*Book, error) {
	b, err := NewBook(title, author, cover, inventory, dailyFee)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) GetBook(ctx context.Context, id uint) (*Book, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) UpdateBook(ctx context.Context, id uint, title, author string, cover Cover, inventory int, dailyFee decimal.Decimal) (*Book, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := b.Update(title, author, cover, inventory, dailyFee); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) DeleteBook(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) ListBooks(ctx context.Context, filter query.BookFilter, page query.Page) ([]*Book, int64, error) {
	return s.repo.List(ctx, filter.Normalize(), page.Normalize())
}
