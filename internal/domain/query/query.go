// Package query 列表查询的过滤条件与统一授权谓词
//
// 所有"按用户可见性"的限制都集中在 Authorize 中完成，仓储层只负责把过滤条件翻译成SQL，
// 不再单独判断管理员身份。
package query

import (
	"strings"
	"time"
)

// 分页默认值
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Principal 当前认证用户
type Principal struct {
	UserID  uint
	IsAdmin bool
}

// CanSee 是否可以查看属于 ownerID 的数据
func (p Principal) CanSee(ownerID uint) bool {
	return p.IsAdmin || p.UserID == ownerID
}

// Page 分页参数
type Page struct {
	Page     int
	PageSize int
}

// Normalize 补全默认值并限制最大页大小
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset SQL偏移量
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// Limit SQL条数
func (p Page) Limit() int {
	return p.Normalize().PageSize
}

// BookFilter 图书过滤：书名/作者大小写不敏感的子串匹配，封面精确匹配
type BookFilter struct {
	Title  string
	Author string
	Cover  string
}

// Normalize 去除首尾空白，封面统一大写
func (f BookFilter) Normalize() BookFilter {
	return BookFilter{
		Title:  strings.TrimSpace(f.Title),
		Author: strings.TrimSpace(f.Author),
		Cover:  strings.ToUpper(strings.TrimSpace(f.Cover)),
	}
}

// BorrowingFilter 借阅记录过滤
// 各条件之间为AND，nil/零值表示不限制
type BorrowingFilter struct {
	IsActive *bool
	UserID   *uint
	// Overdue 仅返回未归还且预计归还日期早于 Today 的记录
	Overdue bool
	Today   time.Time
}

// Authorize 统一授权谓词：非管理员无论传入什么 user_id，都只能看到自己的记录
func (f BorrowingFilter) Authorize(p Principal) BorrowingFilter {
	if !p.IsAdmin {
		uid := p.UserID
		f.UserID = &uid
	}
	return f
}

// PaymentFilter 支付记录过滤
type PaymentFilter struct {
	Status string
	UserID *uint
}

// Authorize 非管理员只能看到自己借阅产生的支付
func (f PaymentFilter) Authorize(p Principal) PaymentFilter {
	if !p.IsAdmin {
		uid := p.UserID
		f.UserID = &uid
	}
	return f
}

// LikeEscape LIKE 的转义字符；MySQL与SQLite都支持 ESCAPE '!'
const LikeEscape = "!"

// ContainsPattern 构造 LIKE 子串匹配的模式（小写，转义通配符），配合 ESCAPE '!' 使用
func ContainsPattern(s string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
