package notify

import (
	"context"
	"encoding/json"

	"field-booking/pkg/mailer"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DeliverySource is satisfied by mq.Consumer
type DeliverySource interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
}

// Worker consumes notification events and sends them as email
type Worker struct {
	source DeliverySource
	mailer mailer.Mailer
	log    *zap.Logger
}

func NewWorker(source DeliverySource, m mailer.Mailer, log *zap.Logger) *Worker {
	return &Worker{source: source, mailer: m, log: log.With(zap.String("worker", "notification"))}
}

// Run blocks until ctx is done or the delivery channel closes
func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.source.Deliveries(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(d)
		}
	}
}

func (w *Worker) handle(d amqp.Delivery) {
	var ev Event
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		w.log.Warn("Dropping malformed notification", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if ev.Recipient == "" {
		_ = d.Ack(false)
		return
	}

	if err := w.mailer.Send(Compose(ev)); err != nil {
		// one retry through the broker, then drop
		requeue := !d.Redelivered
		w.log.Error("Failed to send notification",
			zap.String("event", string(ev.Type)),
			zap.Bool("requeue", requeue),
			zap.Error(err))
		_ = d.Nack(false, requeue)
		return
	}

	w.log.Debug("Notification sent", zap.String("event", string(ev.Type)))
	_ = d.Ack(false)
}
