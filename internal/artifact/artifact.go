// Package artifact renders QR images and keeps them in object storage
package artifact

import (
	"encoding/json"
	"fmt"

	"field-booking/internal/data/entity"
	"field-booking/pkg/storage"
	"field-booking/pkg/utils"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 300

// BookingPayload is the JSON carried by a booking's QR image
type BookingPayload struct {
	BookingID    string `json:"booking_id"`
	FieldName    string `json:"field_name"`
	Date         string `json:"date"`
	Period       string `json:"period"`
	PlayersCount int    `json:"players_count"`
	Price        string `json:"price"`
	Token        string `json:"token"`
}

type Renderer struct {
	store storage.Storage
}

func NewRenderer(store storage.Storage) *Renderer {
	return &Renderer{store: store}
}

func NewBookingPayload(b *entity.Booking, field *entity.Field, period *entity.Period) BookingPayload {
	return BookingPayload{
		BookingID:    b.ID.String(),
		FieldName:    field.Name,
		Date:         b.Date.Format(utils.DateLayout),
		Period:       period.Label(),
		PlayersCount: b.PlayersCount,
		Price:        b.Price.StringFixed(2),
		Token:        b.QRToken,
	}
}

// BookingQR renders the booking QR and returns its public URL. The key
// includes the token so a reissued QR never overwrites the previous one.
func (r *Renderer) BookingQR(b *entity.Booking, field *entity.Field, period *entity.Period) (string, error) {
	content, err := json.Marshal(NewBookingPayload(b, field, period))
	if err != nil {
		return "", fmt.Errorf("marshal booking qr: %w", err)
	}
	return r.put(fmt.Sprintf("qr-codes/bookings/%s-%s.png", b.ID, b.QRToken), string(content))
}

// ZatcaQR renders the tax invoice QR of a payment
func (r *Renderer) ZatcaQR(paymentID int64, tlv string) (string, error) {
	return r.put(fmt.Sprintf("qr-codes/zatca-%d.png", paymentID), tlv)
}

// Remove deletes a previously stored artifact by URL. Unknown URLs are ignored.
func (r *Renderer) Remove(url string) error {
	key, ok := r.store.KeyFromURL(url)
	if !ok {
		return nil
	}
	return r.store.Delete(key)
}

func (r *Renderer) put(key, content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("encode qr %s: %w", key, err)
	}
	url, err := r.store.Put(key, png)
	if err != nil {
		return "", err
	}
	return url, nil
}
