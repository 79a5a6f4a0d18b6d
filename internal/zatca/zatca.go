// Package zatca builds the simplified e-invoice QR payload required by the
// Saudi tax authority: five TLV records encoded as base64.
package zatca

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TagSellerName byte = 1
	TagVATNumber  byte = 2
	TagTimestamp  byte = 3
	TagTotal      byte = 4
	TagVAT        byte = 5

	TimestampLayout = "2006-01-02T15:04:05Z"
	maxValueLen     = 255
)

var (
	ErrValueTooLong = errors.New("tlv value longer than 255 bytes")
	ErrMalformed    = errors.New("malformed tlv payload")

	vatDivisor = decimal.RequireFromString("1.15")
)

type Invoice struct {
	SellerName string
	VATNumber  string
	Timestamp  time.Time
	Total      decimal.Decimal
	VAT        decimal.Decimal
}

// VATFromTotal extracts the 15% VAT included in a gross total
func VATFromTotal(total decimal.Decimal) decimal.Decimal {
	return total.Sub(total.Div(vatDivisor)).Round(2)
}

// NewInvoice derives the VAT amount from the gross total
func NewInvoice(seller, vatNumber string, at time.Time, total decimal.Decimal) Invoice {
	return Invoice{
		SellerName: seller,
		VATNumber:  vatNumber,
		Timestamp:  at,
		Total:      total,
		VAT:        VATFromTotal(total),
	}
}

// Encode returns base64(tag len value ...) for tags 1 to 5
func Encode(inv Invoice) (string, error) {
	values := []struct {
		tag   byte
		value string
	}{
		{TagSellerName, inv.SellerName},
		{TagVATNumber, inv.VATNumber},
		{TagTimestamp, inv.Timestamp.UTC().Format(TimestampLayout)},
		{TagTotal, inv.Total.StringFixed(2)},
		{TagVAT, inv.VAT.StringFixed(2)},
	}

	var buf []byte
	for _, v := range values {
		if len(v.value) > maxValueLen {
			return "", fmt.Errorf("tag %d: %w", v.tag, ErrValueTooLong)
		}
		buf = append(buf, v.tag, byte(len(v.value)))
		buf = append(buf, v.value...)
	}

	return base64.StdEncoding.EncodeToString(buf), nil
}

// Decode parses a base64 TLV payload into its raw tag values
func Decode(payload string) (map[byte]string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	out := make(map[byte]string)
	for i := 0; i < len(raw); {
		if i+2 > len(raw) {
			return nil, ErrMalformed
		}
		tag, n := raw[i], int(raw[i+1])
		i += 2
		if i+n > len(raw) {
			return nil, ErrMalformed
		}
		out[tag] = string(raw[i : i+n])
		i += n
	}
	return out, nil
}

// DecodeInvoice is the inverse of Encode
func DecodeInvoice(payload string) (Invoice, error) {
	values, err := Decode(payload)
	if err != nil {
		return Invoice{}, err
	}

	ts, err := time.Parse(TimestampLayout, values[TagTimestamp])
	if err != nil {
		return Invoice{}, fmt.Errorf("timestamp: %w", err)
	}
	total, err := decimal.NewFromString(values[TagTotal])
	if err != nil {
		return Invoice{}, fmt.Errorf("total: %w", err)
	}
	vat, err := decimal.NewFromString(values[TagVAT])
	if err != nil {
		return Invoice{}, fmt.Errorf("vat: %w", err)
	}

	return Invoice{
		SellerName: values[TagSellerName],
		VATNumber:  values[TagVATNumber],
		Timestamp:  ts,
		Total:      total,
		VAT:        vat,
	}, nil
}
