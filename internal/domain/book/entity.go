package book

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Cover 封面类型
type Cover string

const (
	CoverHard Cover = "HARD"
	CoverSoft Cover = "SOFT"
)

// ParseCover 解析封面类型（大小写不敏感）
func ParseCover(s string) (Cover, error) {
	switch Cover(strings.ToUpper(strings.TrimSpace(s))) {
	case CoverHard:
		return CoverHard, nil
	case CoverSoft:
		return CoverSoft, nil
	default:
		return "", ErrInvalidCover
	}
}

// Book 图书实体(聚合根)
// 1. Inventory 是当前可借的副本数，只由库存账本（Ledger）在借阅/归还时增减
// 2. DailyFee 使用decimal保存，精确到分
type Book struct {
	ID        uint
	Title     string
	Author    string
	Cover     Cover
	Inventory int
	DailyFee  decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBook 创建新图书(工厂方法)，校验失败返回对应的领域错误
func NewBook(title, author string, cover Cover, inventory int, dailyFee decimal.Decimal) (*Book, error) {
	b := &Book{
		Title:     strings.TrimSpace(title),
		Author:    strings.TrimSpace(author),
		Cover:     cover,
		Inventory: inventory,
		DailyFee:  dailyFee.Round(2),
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	return b, nil
}

// Update 管理员修改图书信息
func (b *Book) Update(title, author string, cover Cover, inventory int, dailyFee decimal.Decimal) error {
	next := *b
	next.Title = strings.TrimSpace(title)
	next.Author = strings.TrimSpace(author)
	next.Cover = cover
	next.Inventory = inventory
	next.DailyFee = dailyFee.Round(2)
	if err := next.validate(); err != nil {
		return err
	}
	next.UpdatedAt = time.Now()
	*b = next
	return nil
}

// IsAvailable 是否还有可借副本
func (b *Book) IsAvailable() bool {
	return b.Inventory > 0
}

func (b *Book) validate() error {
	if b.Title == "" || len(b.Title) > 255 {
		return ErrInvalidTitle
	}
	if b.Author == "" || len(b.Author) > 255 {
		return ErrInvalidAuthor
	}
	if b.Cover != CoverHard && b.Cover != CoverSoft {
		return ErrInvalidCover
	}
	if b.Inventory < 0 {
		return ErrInvalidInventory
	}
	if b.DailyFee.IsNegative() {
		return ErrInvalidDailyFee
	}
	return nil
}
