package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewBorrowingMessage(t *testing.T) {
	msg := NewBorrowingMessage("Dune", "a@b.com",
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, EventBorrowingCreated, msg.Event)
	assert.Equal(t, "<b>New borrowing</b>\n"+
		"<b>Book:</b> Dune\n"+
		"<b>User:</b> a@b.com\n"+
		"<b>Date of borrowing:</b> 2024-03-01\n"+
		"<b>Expected return date:</b> 2024-03-06\n", msg.Text)
}

func TestBookReturnedMessage_EscapesHTML(t *testing.T) {
	msg := BookReturnedMessage("<Tom & Jerry>", "a@b.com", time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, EventBorrowingReturned, msg.Event)
	assert.Contains(t, msg.Text, "<b>Book has been returned</b>\n")
	assert.Contains(t, msg.Text, "<b>Book:</b> &lt;Tom &amp; Jerry&gt;\n")
	assert.Contains(t, msg.Text, "<b>Return Date:</b> 2024-03-08\n")
}
