package notify

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	deliveryTimeout = 30 * time.Second
	retryBackoff    = 2 * time.Second
)

// Dispatcher drains a Queue with a fixed pool of workers. Delivery is best
// effort: a failed message is logged and dropped.
type Dispatcher struct {
	queue    Queue
	notifier Notifier
	workers  int
	tracer   trace.Tracer
	wg       sync.WaitGroup
}

func NewDispatcher(queue Queue, notifier Notifier, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		queue:    queue,
		notifier: notifier,
		workers:  workers,
		tracer:   otel.Tracer("inventory-backend/notify"),
	}
}

// Start launches the workers. They stop when ctx is cancelled or the queue
// reports ErrQueueClosed; use Wait to block until they are gone.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.workerLoop(ctx, id)
		}(i)
	}
	log.Printf("started %d notification workers", d.workers)
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) workerLoop(ctx context.Context, id int) {
	for {
		msg, err := d.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] notify worker %d: dequeue: %v", id, err)
			select {
			case <-time.After(retryBackoff):
				continue
			case <-ctx.Done():
				return
			}
		}

		if err := d.deliver(ctx, msg); err != nil {
			log.Printf("[WARN] notify worker %d: %s %s: %v", id, msg.Kind, msg.ID, err)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) error {
	// deliveries already dequeued are allowed to finish during shutdown
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()

	ctx, span := d.tracer.Start(ctx, "notify.deliver",
		trace.WithAttributes(
			attribute.String("notification.id", msg.ID.String()),
			attribute.String("notification.kind", string(msg.Kind)),
		),
	)
	defer span.End()

	if err := d.notifier.Notify(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
