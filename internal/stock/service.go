// Package stock moves item quantities and decides when a category has run low.
package stock

import (
	"context"
	"errors"
	"fmt"
	"log"

	"inventory-backend/internal/models"
	"inventory-backend/internal/notify"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// Outcome is the terminal state of one adjustment that was not rejected.
type Outcome string

const (
	OutcomeNotified Outcome = "notified"
	OutcomeSkipped  Outcome = "skipped"
)

type AdjustRequest struct {
	ItemID      uint
	Delta       int
	Note        string
	PerformedBy *uint
}

type Result struct {
	Item        models.Item
	OldQuantity int
	Category    models.Category
	OldTotal    int
	NewTotal    int
	LowStock    bool
	Outcome     Outcome
}

type Service struct {
	db       *gorm.DB
	queue    notify.Queue
	detector Detector
	tracer   trace.Tracer
}

func NewService(db *gorm.DB, queue notify.Queue, detector Detector) *Service {
	return &Service{
		db:       db,
		queue:    queue,
		detector: detector,
		tracer:   otel.Tracer("inventory-backend/stock"),
	}
}

// Adjust applies req.Delta to the item and records it in the ledger. The item
// and its category stay locked until commit, so the totals compared by the
// detector cannot interleave with another adjustment in the same category.
// Notifications are enqueued only after the commit succeeded.
func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "stock.adjust",
		trace.WithAttributes(
			attribute.Int("item.id", int(req.ItemID)),
			attribute.Int("stock.delta", req.Delta),
		),
	)
	defer span.End()

	var res Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		it, err := lockItem(ctx, tx, req.ItemID)
		if err != nil {
			return err
		}
		cat, err := lockCategory(ctx, tx, it.CategoryID)
		if err != nil {
			return err
		}

		oldTotal, err := CategoryTotal(ctx, tx, cat.ID)
		if err != nil {
			return err
		}

		res.OldQuantity = it.Quantity
		res.OldTotal = oldTotal
		res.NewTotal = oldTotal

		if req.Delta != 0 {
			if err := applyDelta(ctx, tx, it, req.Delta, req.Note, req.PerformedBy); err != nil {
				return err
			}
			newTotal, err := CategoryTotal(ctx, tx, cat.ID)
			if err != nil {
				return err
			}
			res.NewTotal = newTotal
		}

		res.Item = *it
		res.Category = *cat
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	ev := s.detector.Evaluate(Subject{Kind: "category", ID: res.Category.ID, Buffer: res.Category.Buffer}, res.OldTotal, res.NewTotal)
	res.LowStock = ev.LowStock
	res.Outcome = OutcomeSkipped

	if req.Delta != 0 {
		notify.Publish(ctx, s.queue, notify.KindStockChange, notify.Fields{
			"code":    res.Item.Code,
			"name":    res.Item.Name,
			"old_qty": res.OldQuantity,
			"new_qty": res.Item.Quantity,
			"note":    req.Note,
		})
	}
	if ev.Alert {
		notify.Publish(ctx, s.queue, notify.KindCategoryLowStock, CategoryLowStockFields(res.Category, res.NewTotal, &res.Item))
		res.Outcome = OutcomeNotified
		log.Printf("category %d (%s) low on stock: total %d, buffer %d", res.Category.ID, res.Category.Name, res.NewTotal, res.Category.Buffer)
	}

	span.SetAttributes(
		attribute.Int("category.total.old", res.OldTotal),
		attribute.Int("category.total.new", res.NewTotal),
		attribute.String("stock.outcome", string(res.Outcome)),
	)
	return &res, nil
}

// CategoryLowStockFields builds the payload of a category_low_stock message.
// affected may be nil.
func CategoryLowStockFields(cat models.Category, total int, affected *models.Item) notify.Fields {
	f := notify.Fields{
		"category_name": cat.Name,
		"category_code": "",
		"total_qty":     total,
		"buffer":        cat.Buffer,
	}
	if cat.Code != nil {
		f["category_code"] = *cat.Code
	}
	if affected != nil {
		f["affected_item_code"] = affected.Code
		f["affected_item_name"] = affected.Name
	}
	return f
}

// Summary is the current aggregate of a category.
type Summary struct {
	CategoryID uint `json:"category_id"`
	TotalQty   int  `json:"total_qty"`
	Buffer     int  `json:"buffer"`
	Low        bool `json:"low"`
	ItemCount  int  `json:"item_count"`
}

func (s *Service) Summary(ctx context.Context, categoryID uint) (*Summary, error) {
	var cat models.Category
	if err := s.db.WithContext(ctx).First(&cat, "id = ?", categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %d: %w", categoryID, ErrNotFound)
		}
		return nil, fmt.Errorf("load category %d: %w", categoryID, err)
	}

	total, err := CategoryTotal(ctx, s.db, cat.ID)
	if err != nil {
		return nil, err
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Item{}).Where("category_id = ?", cat.ID).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("count items of category %d: %w", cat.ID, err)
	}

	return &Summary{
		CategoryID: cat.ID,
		TotalQty:   total,
		Buffer:     cat.Buffer,
		Low:        total < cat.Buffer,
		ItemCount:  int(n),
	}, nil
}
