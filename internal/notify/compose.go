package notify

import (
	"fmt"
	"strings"

	"field-booking/pkg/mailer"
)

// Compose renders the email for an event. Unknown event types get a
// generic body listing the event data.
func Compose(ev Event) mailer.Message {
	name := ev.RecipientName
	if name == "" {
		name = "Customer"
	}
	d := ev.Data

	var subject, body string
	switch ev.Type {
	case UserRegistered:
		subject = "Registration received"
		body = "Your account has been created. You can now book fields."
	case BookingCreated:
		subject = "Booking confirmed"
		body = fmt.Sprintf("Your booking at %s on %s (%s) for %s players is confirmed. Total: %s.",
			d["field_name"], d["date"], d["period"], d["players_count"], d["price"])
	case BookingCancelled:
		subject = "Booking cancelled"
		body = fmt.Sprintf("Your booking at %s on %s (%s) has been cancelled.",
			d["field_name"], d["date"], d["period"])
	case TransferApproved:
		subject = "Transfer request approved"
		body = fmt.Sprintf("Your booking has been moved to %s, period %s on %s. A new QR code has been issued.",
			d["field_name"], d["period"], d["date"])
	case TransferRejected:
		subject = "Transfer request rejected"
		body = fmt.Sprintf("Your request to move your booking to %s, period %s was rejected.",
			d["field_name"], d["period"])
	case PaymentPaid:
		subject = "Payment received"
		body = fmt.Sprintf("We received your payment of %s %s (reference %s).",
			d["amount"], d["currency"], d["merchant_order_id"])
	case PaymentRefunded:
		subject = "Payment refunded"
		body = fmt.Sprintf("Your payment of %s %s (reference %s) has been refunded.",
			d["amount"], d["currency"], d["merchant_order_id"])
	default:
		subject = "Notification"
		var sb strings.Builder
		for k, v := range d {
			fmt.Fprintf(&sb, "%s: %s\n", k, v)
		}
		body = sb.String()
	}

	return mailer.Message{
		To:      ev.Recipient,
		Subject: subject,
		Text:    fmt.Sprintf("Dear %s,\n\n%s\n", name, body),
	}
}
