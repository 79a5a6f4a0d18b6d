package paymob

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"field-booking/internal/data/entity"
)

var ErrMissingTransaction = errors.New("webhook payload has no transaction object")

// Transaction is the "obj" of a transaction-processed callback
type Transaction struct {
	ID                   json.Number `json:"id"`
	AmountCents          json.Number `json:"amount_cents"`
	CreatedAt            string      `json:"created_at"`
	Currency             string      `json:"currency"`
	ErrorOccured         bool        `json:"error_occured"`
	HasParentTransaction bool        `json:"has_parent_transaction"`
	IntegrationID        json.Number `json:"integration_id"`
	Is3DSecure           bool        `json:"is_3d_secure"`
	IsAuth               bool        `json:"is_auth"`
	IsCapture            bool        `json:"is_capture"`
	IsRefunded           bool        `json:"is_refunded"`
	IsStandalonePayment  bool        `json:"is_standalone_payment"`
	IsVoided             bool        `json:"is_voided"`
	IsRefund             bool        `json:"is_refund"`
	IsVoid               bool        `json:"is_void"`
	Owner                json.Number `json:"owner"`
	Pending              bool        `json:"pending"`
	Success              bool        `json:"success"`
	Order                struct {
		ID              json.Number `json:"id"`
		MerchantOrderID string      `json:"merchant_order_id"`
	} `json:"order"`
	SourceData struct {
		Pan     string `json:"pan"`
		SubType string `json:"sub_type"`
		Type    string `json:"type"`
	} `json:"source_data"`
}

// Notification is a parsed webhook body. Raw keeps the untyped object for
// auditing.
type Notification struct {
	Type        string
	Transaction Transaction
	Raw         map[string]any
}

// ParseNotification decodes a webhook body of the form {"type": ..., "obj": {...}}
func ParseNotification(body []byte) (*Notification, error) {
	var envelope struct {
		Type string          `json:"type"`
		Obj  json.RawMessage `json:"obj"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	if len(envelope.Obj) == 0 || bytes.Equal(envelope.Obj, []byte("null")) {
		return nil, ErrMissingTransaction
	}

	n := &Notification{Type: envelope.Type}
	if err := json.Unmarshal(envelope.Obj, &n.Transaction); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(envelope.Obj))
	dec.UseNumber()
	if err := dec.Decode(&n.Raw); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}

	return n, nil
}

// TransactionFromQuery rebuilds the signed transaction fields from the query
// string of a browser redirect. The redirect flattens nested keys, so the
// order id arrives as "order" and card data as "source_data.*".
func TransactionFromQuery(q url.Values) *Transaction {
	flag := func(key string) bool { return q.Get(key) == "true" }
	t := &Transaction{
		ID:                   json.Number(q.Get("id")),
		AmountCents:          json.Number(q.Get("amount_cents")),
		CreatedAt:            q.Get("created_at"),
		Currency:             q.Get("currency"),
		ErrorOccured:         flag("error_occured"),
		HasParentTransaction: flag("has_parent_transaction"),
		IntegrationID:        json.Number(q.Get("integration_id")),
		Is3DSecure:           flag("is_3d_secure"),
		IsAuth:               flag("is_auth"),
		IsCapture:            flag("is_capture"),
		IsRefunded:           flag("is_refunded"),
		IsStandalonePayment:  flag("is_standalone_payment"),
		IsVoided:             flag("is_voided"),
		Owner:                json.Number(q.Get("owner")),
		Pending:              flag("pending"),
		Success:              flag("success"),
	}
	t.Order.ID = json.Number(q.Get("order"))
	t.Order.MerchantOrderID = q.Get("merchant_order_id")
	t.SourceData.Pan = q.Get("source_data.pan")
	t.SourceData.SubType = q.Get("source_data.sub_type")
	t.SourceData.Type = q.Get("source_data.type")
	return t
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// SignatureString concatenates the signed fields in Paymob's fixed order
func SignatureString(t *Transaction) string {
	var sb strings.Builder
	for _, v := range []string{
		t.AmountCents.String(),
		t.CreatedAt,
		t.Currency,
		boolString(t.ErrorOccured),
		boolString(t.HasParentTransaction),
		t.ID.String(),
		t.IntegrationID.String(),
		boolString(t.Is3DSecure),
		boolString(t.IsAuth),
		boolString(t.IsCapture),
		boolString(t.IsRefunded),
		boolString(t.IsStandalonePayment),
		boolString(t.IsVoided),
		t.Order.ID.String(),
		t.Owner.String(),
		boolString(t.Pending),
		t.SourceData.Pan,
		t.SourceData.SubType,
		t.SourceData.Type,
		boolString(t.Success),
	} {
		sb.WriteString(v)
	}
	return sb.String()
}

// Sign returns the hex HMAC-SHA512 of the signature string
func Sign(t *Transaction, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(SignatureString(t)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the received signature in constant time. An empty secret
// or signature never verifies.
func Verify(t *Transaction, secret, received string) bool {
	if secret == "" || received == "" {
		return false
	}
	expected := Sign(t, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(received)))
}

// Status maps the transaction flags onto a payment status. Refunds and voids
// win over everything, then errors, then pending, then success.
func (t *Transaction) Status() entity.PaymentStatus {
	switch {
	case t.IsRefund || t.IsVoid || t.IsRefunded || t.IsVoided:
		return entity.PaymentStatusRefunded
	case t.ErrorOccured || (!t.Success && !t.Pending):
		return entity.PaymentStatusFailed
	case t.Pending:
		return entity.PaymentStatusPending
	default:
		return entity.PaymentStatusPaid
	}
}
