// Package notify carries stock notifications from the request path to the
// mail transport through a queue drained by background workers.
package notify

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindStockChange      Kind = "stock_change"
	KindLowStock         Kind = "low_stock"
	KindCategoryLowStock Kind = "category_low_stock"
	KindItemCreated      Kind = "item_created"
	KindItemDeleted      Kind = "item_deleted"
)

// Fields holds the pre-computed values a notification is rendered from.
// Numbers may come back as float64 after a trip through a JSON queue.
type Fields map[string]any

type Message struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	Fields    Fields    `json:"fields"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMessage(kind Kind, fields Fields) Message {
	return Message{
		ID:        uuid.New(),
		Kind:      kind,
		Fields:    fields,
		CreatedAt: time.Now().UTC(),
	}
}

// ErrNotificationFailed wraps delivery errors. It never leaves the workers.
var ErrNotificationFailed = errors.New("notification failed")

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Publish enqueues a message and only logs when that fails: a notification
// must never fail the operation that triggered it.
func Publish(ctx context.Context, q Queue, kind Kind, fields Fields) {
	msg := NewMessage(kind, fields)
	if err := q.Enqueue(ctx, msg); err != nil {
		log.Printf("[WARN] could not enqueue %s notification %s: %v", kind, msg.ID, err)
	}
}
