package notify

import (
	"context"
	"time"

	"field-booking/pkg/mailer"

	"go.uber.org/zap"
)

const dispatchTimeout = 10 * time.Second

// Dispatcher hands an event off for delivery without blocking the caller
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event)
}

// Publisher is satisfied by mq.Publisher
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type queueDispatcher struct {
	pub Publisher
	log *zap.Logger
}

// NewQueueDispatcher publishes events for the notification worker
func NewQueueDispatcher(pub Publisher, log *zap.Logger) Dispatcher {
	return &queueDispatcher{pub: pub, log: log.With(zap.String("dispatcher", "queue"))}
}

func (d *queueDispatcher) Dispatch(ctx context.Context, ev Event) {
	if ev.Recipient == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
		defer cancel()

		if err := d.pub.PublishJSON(ctx, string(ev.Type), ev); err != nil {
			d.log.Error("Failed to publish notification",
				zap.String("event", string(ev.Type)),
				zap.Error(err))
		}
	}()
}

type mailDispatcher struct {
	mailer mailer.Mailer
	log    *zap.Logger
}

// NewMailDispatcher sends email from a background goroutine; used when no
// broker is configured.
func NewMailDispatcher(m mailer.Mailer, log *zap.Logger) Dispatcher {
	return &mailDispatcher{mailer: m, log: log.With(zap.String("dispatcher", "mail"))}
}

func (d *mailDispatcher) Dispatch(_ context.Context, ev Event) {
	if ev.Recipient == "" {
		return
	}
	go func() {
		if err := d.mailer.Send(Compose(ev)); err != nil {
			d.log.Error("Failed to send notification",
				zap.String("event", string(ev.Type)),
				zap.Error(err))
		}
	}()
}

type nopDispatcher struct{}

func NewNopDispatcher() Dispatcher { return nopDispatcher{} }

func (nopDispatcher) Dispatch(context.Context, Event) {}
