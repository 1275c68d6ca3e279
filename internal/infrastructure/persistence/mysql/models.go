package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserModel GORM用户模型
// domain/user/entity.go是领域实体，不依赖GORM；Repository负责两者之间的转换
type UserModel struct {
	ID        uint           `gorm:"primaryKey"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Nickname  string         `gorm:"size:50;not null;comment:昵称"`
	IsAdmin   bool           `gorm:"not null;default:false;comment:是否管理员"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

func (UserModel) TableName() string {
	return "users"
}

// BookModel GORM图书模型
// 1. daily_fee 使用DECIMAL(10,2)，避免浮点误差
// 2. inventory 只通过条件UPDATE增减（见ledger.go）
type BookModel struct {
	ID        uint            `gorm:"primaryKey"`
	Title     string          `gorm:"index:idx_search;size:255;not null;comment:书名"`
	Author    string          `gorm:"index:idx_search;size:255;not null;comment:作者"`
	Cover     string          `gorm:"size:10;not null;comment:封面 HARD/SOFT"`
	Inventory int             `gorm:"not null;default:0;comment:可借副本数"`
	DailyFee  decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:日租金"`
	CreatedAt time.Time       `gorm:"comment:创建时间"`
	UpdatedAt time.Time       `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt  `gorm:"index;comment:删除时间(软删除)"`
}

func (BookModel) TableName() string {
	return "books"
}

// BorrowingModel GORM借阅模型
// 三个日期列都是DATE；actual_return_date 为NULL表示未归还
type BorrowingModel struct {
	ID                 uint       `gorm:"primaryKey"`
	BookID             uint       `gorm:"index;not null;comment:图书ID"`
	UserID             uint       `gorm:"index;not null;comment:借阅人ID"`
	BorrowDate         time.Time  `gorm:"type:date;not null;comment:借阅日期"`
	ExpectedReturnDate time.Time  `gorm:"type:date;not null;index;comment:预计归还日期"`
	ActualReturnDate   *time.Time `gorm:"type:date;index;comment:实际归还日期"`
	Book               *BookModel `gorm:"foreignKey:BookID"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (BorrowingModel) TableName() string {
	return "borrowings"
}

// PaymentModel GORM支付模型
type PaymentModel struct {
	ID          uint            `gorm:"primaryKey"`
	BorrowingID uint            `gorm:"index;not null;comment:借阅ID"`
	Type        string          `gorm:"size:10;not null;comment:PAYMENT/FINE"`
	Status      string          `gorm:"size:10;not null;index;comment:PENDING/PAID/CANCELLED"`
	MoneyToPay  decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:应付金额"`
	SessionURL  string          `gorm:"size:1024;comment:收银台地址"`
	SessionID   string          `gorm:"size:255;index;comment:支付会话ID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PaymentModel) TableName() string {
	return "payments"
}
