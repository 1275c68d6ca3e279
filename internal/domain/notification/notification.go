// Package notification 借阅事件通知（Telegram格式的HTML消息）
package notification

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"
)

// Event 事件类型，同时作为MQ的routing key
type Event string

const (
	EventBorrowingCreated  Event = "borrowing.created"
	EventBorrowingReturned Event = "borrowing.returned"
)

// DateLayout 消息中的日期格式
const DateLayout = "2006-01-02"

// Message 一条通知
type Message struct {
	Event Event  `json:"event"`
	Text  string `json:"text"`
}

// NewBorrowingMessage 新借阅通知
func NewBorrowingMessage(bookTitle, userEmail string, borrowDate, expectedReturnDate time.Time) Message {
	return Message{
		Event: EventBorrowingCreated,
		Text: render("New borrowing", [][2]string{
			{"Book", bookTitle},
			{"User", userEmail},
			{"Date of borrowing", borrowDate.Format(DateLayout)},
			{"Expected return date", expectedReturnDate.Format(DateLayout)},
		}),
	}
}

// BookReturnedMessage 归还通知
func BookReturnedMessage(bookTitle, userEmail string, returnDate time.Time) Message {
	return Message{
		Event: EventBorrowingReturned,
		Text: render("Book has been returned", [][2]string{
			{"Book", bookTitle},
			{"User", userEmail},
			{"Return Date", returnDate.Format(DateLayout)},
		}),
	}
}

func render(title string, fields [][2]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n", title)
	for _, f := range fields {
		fmt.Fprintf(&sb, "<b>%s:</b> %s\n", f[0], html.EscapeString(f[1]))
	}
	return sb.String()
}

// Sender 把消息投递到具体通道（日志、MQ、Telegram）
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier 业务侧使用的通知入口：不返回错误，失败只记录日志，不影响借阅/归还结果
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}
