// Package notify delivers user notifications after a state change commits.
// Delivery is best effort: failures are logged and never reach the caller.
package notify

import "time"

type EventType string

const (
	UserRegistered   EventType = "user.registered"
	BookingCreated   EventType = "booking.created"
	BookingCancelled EventType = "booking.cancelled"
	TransferApproved EventType = "transfer.approved"
	TransferRejected EventType = "transfer.rejected"
	PaymentPaid      EventType = "payment.paid"
	PaymentRefunded  EventType = "payment.refunded"
)

// RoutingKeys lists every event type, used to bind the worker queue
func RoutingKeys() []string {
	return []string{
		string(UserRegistered),
		string(BookingCreated),
		string(BookingCancelled),
		string(TransferApproved),
		string(TransferRejected),
		string(PaymentPaid),
		string(PaymentRefunded),
	}
}

const eventVersion = 1

type Event struct {
	Type          EventType         `json:"event"`
	Version       int               `json:"version"`
	Recipient     string            `json:"recipient"`
	RecipientName string            `json:"recipient_name"`
	Data          map[string]string `json:"data"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

func NewEvent(t EventType, recipient, name string, data map[string]string) Event {
	return Event{
		Type:          t,
		Version:       eventVersion,
		Recipient:     recipient,
		RecipientName: name,
		Data:          data,
		OccurredAt:    time.Now().UTC(),
	}
}
