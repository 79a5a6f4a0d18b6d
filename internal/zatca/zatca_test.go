package zatca

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVATFromTotal(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		total string
		want  string
	}{
		{"115", "15.00"},
		{"100", "13.04"},
		{"0", "0.00"},
		{"230.00", "30.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.total, func(t *testing.T) {
			t.Parallel()
			got := VATFromTotal(decimal.RequireFromString(tc.total))
			assert.Equal(t, tc.want, got.StringFixed(2))
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	inv := NewInvoice("شركة الملاعب", "311527964100003", at, decimal.NewFromInt(115))

	payload, err := Encode(inv)
	require.NoError(t, err)

	values, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "شركة الملاعب", values[TagSellerName])
	assert.Equal(t, "311527964100003", values[TagVATNumber])
	assert.Equal(t, "2026-01-02T15:04:05Z", values[TagTimestamp])
	assert.Equal(t, "115.00", values[TagTotal])
	assert.Equal(t, "15.00", values[TagVAT])

	back, err := DecodeInvoice(payload)
	require.NoError(t, err)
	assert.Equal(t, inv.SellerName, back.SellerName)
	assert.True(t, at.Equal(back.Timestamp))
	assert.True(t, inv.VAT.Equal(back.VAT))
}

func TestEncodeLengthPrefixIsByteLength(t *testing.T) {
	t.Parallel()

	payload, err := Encode(Invoice{SellerName: "ملعب", Total: decimal.Zero, VAT: decimal.Zero})
	require.NoError(t, err)

	values, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "ملعب", values[TagSellerName])
}

func TestEncodeRejectsLongValues(t *testing.T) {
	t.Parallel()

	_, err := Encode(Invoice{SellerName: strings.Repeat("x", 256)})
	assert.ErrorIs(t, err, ErrValueTooLong)
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	_, err := Decode("AQ==") // tag without length
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Decode("AQVhYg==") // declares 5 bytes, carries 2
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Decode("not base64!")
	assert.Error(t, err)
}
