package paymob

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"field-booking/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:       srv.URL,
		APIKey:        "api-key",
		SecretKey:     "sk_test",
		IntegrationID: 77,
		IframeID:      "900",
		Timeout:       2 * time.Second,
	}, zap.NewNop())
}

func TestCheckout(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/tokens", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "api-key", body["api_key"])
		_, _ = w.Write([]byte(`{"token":"auth-token"}`))
	})
	mux.HandleFunc("POST /api/ecommerce/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer auth-token", r.Header.Get("Authorization"))
		var body orderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(11500), body.AmountCents)
		assert.Equal(t, "PAYMENT_5", body.MerchantOrderID)
		assert.Equal(t, "SAR", body.Currency)
		_, _ = w.Write([]byte(`{"id":555}`))
	})
	mux.HandleFunc("POST /api/acceptance/payment_keys", func(w http.ResponseWriter, r *http.Request) {
		var body paymentKeyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(555), body.OrderID)
		assert.Equal(t, 77, body.IntegrationID)
		assert.Equal(t, 3600, body.Expiration)
		assert.Equal(t, "NA", body.BillingData.Street)
		_, _ = w.Write([]byte(`{"token":"pay-key"}`))
	})

	c := newTestClient(t, mux)
	res, err := c.Checkout(t.Context(), CheckoutRequest{
		MerchantOrderID: "PAYMENT_5",
		AmountCents:     11500,
		Currency:        "SAR",
		Billing:         NewBillingData("Sara", "sara@example.com", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, "555", res.GatewayOrderID)
	assert.Equal(t, c.config.BaseURL+"/api/acceptance/iframes/900?payment_token=pay-key", res.CheckoutURL)
}

func TestCheckoutOrderRejected(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/tokens", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"auth-token"}`))
	})
	mux.HandleFunc("POST /api/ecommerce/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"duplicate"}`))
	})

	c := newTestClient(t, mux)
	_, err := c.Checkout(t.Context(), CheckoutRequest{MerchantOrderID: "PAYMENT_1", AmountCents: 100, Currency: "SAR"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrGateway)

	var gwErr *apperror.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusUnprocessableEntity, gwErr.StatusCode)
	assert.Contains(t, gwErr.Body, "duplicate")
}

func TestCheckoutAuthFailure(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	_, err := c.Checkout(t.Context(), CheckoutRequest{MerchantOrderID: "PAYMENT_1", AmountCents: 100})
	assert.ErrorIs(t, err, apperror.ErrGateway)
}

func TestRefund(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/acceptance/void_refund/refund", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token sk_test", r.Header.Get("Authorization"))
		var body refundRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(192036465), body.TransactionID)
		assert.Equal(t, int64(5000), body.AmountCents)
		_, _ = w.Write([]byte(`{"id":192040000,"success":true,"is_refund":true}`))
	})

	c := newTestClient(t, mux)
	res, err := c.Refund(t.Context(), "192036465", 5000)
	require.NoError(t, err)
	assert.Equal(t, "192040000", res.TransactionID)
	assert.Equal(t, true, res.Raw["is_refund"])
}

func TestRefundFailures(t *testing.T) {
	t.Parallel()

	t.Run("declined in body", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":1,"success":false}`))
		}))
		_, err := c.Refund(t.Context(), "10", 100)
		assert.ErrorIs(t, err, apperror.ErrGateway)
	})

	t.Run("http error", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"already refunded"}`))
		}))
		_, err := c.Refund(t.Context(), "10", 100)
		assert.ErrorIs(t, err, apperror.ErrGateway)
	})

	t.Run("bad transaction id", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, http.NotFoundHandler())
		_, err := c.Refund(t.Context(), "", 100)
		assert.ErrorIs(t, err, apperror.ErrGateway)
	})
}
