// Package paymob talks to the Paymob accept API: checkout sessions,
// refunds, and webhook verification.
package paymob

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"field-booking/pkg/apperror"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// PaymentKeyTTL is how long a checkout stays payable
const PaymentKeyTTL = time.Hour

type Config struct {
	BaseURL       string
	APIKey        string
	SecretKey     string
	IntegrationID int
	IframeID      string
	Timeout       time.Duration
}

type Client struct {
	http   *resty.Client
	config Config
	log    *zap.Logger
}

func NewClient(config Config, log *zap.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	httpClient := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		config: config,
		log:    log.With(zap.String("gateway", "paymob")),
	}
}

type BillingData struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number"`
	Apartment      string `json:"apartment"`
	Floor          string `json:"floor"`
	Street         string `json:"street"`
	Building       string `json:"building"`
	ShippingMethod string `json:"shipping_method"`
	PostalCode     string `json:"postal_code"`
	City           string `json:"city"`
	Country        string `json:"country"`
	State          string `json:"state"`
}

// NewBillingData fills the fields Paymob requires but this system does not
// collect with "NA".
func NewBillingData(name, email, phone string) BillingData {
	if name == "" {
		name = "Guest"
	}
	if email == "" {
		email = "customer@example.com"
	}
	if phone == "" {
		phone = "966500000000"
	}
	return BillingData{
		FirstName:      name,
		LastName:       "User",
		Email:          email,
		PhoneNumber:    phone,
		Apartment:      "NA",
		Floor:          "NA",
		Street:         "NA",
		Building:       "NA",
		ShippingMethod: "NA",
		PostalCode:     "NA",
		City:           "NA",
		Country:        "SA",
		State:          "NA",
	}
}

type CheckoutRequest struct {
	MerchantOrderID string
	AmountCents     int64
	Currency        string
	Billing         BillingData
}

type CheckoutResult struct {
	// GatewayOrderID is Paymob's order id, stored as the payment's reference
	GatewayOrderID string
	CheckoutURL    string
}

type RefundResult struct {
	TransactionID string
	Raw           map[string]any
}

type authResponse struct {
	Token string `json:"token"`
}

type orderRequest struct {
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
	MerchantOrderID string `json:"merchant_order_id"`
	Items           []any  `json:"items"`
}

type orderResponse struct {
	ID int64 `json:"id"`
}

type paymentKeyRequest struct {
	AmountCents   int64       `json:"amount_cents"`
	Expiration    int         `json:"expiration"`
	OrderID       int64       `json:"order_id"`
	Currency      string      `json:"currency"`
	IntegrationID int         `json:"integration_id"`
	BillingData   BillingData `json:"billing_data"`
}

type paymentKeyResponse struct {
	Token string `json:"token"`
}

type refundRequest struct {
	TransactionID int64 `json:"transaction_id"`
	AmountCents   int64 `json:"amount_cents"`
}

// Checkout runs the three-step flow: auth token, remote order, payment key.
func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	orderID, err := c.createOrder(ctx, token, orderRequest{
		AmountCents:     req.AmountCents,
		Currency:        req.Currency,
		MerchantOrderID: req.MerchantOrderID,
		Items:           []any{},
	})
	if err != nil {
		return nil, err
	}

	key, err := c.createPaymentKey(ctx, token, paymentKeyRequest{
		AmountCents:   req.AmountCents,
		Expiration:    int(PaymentKeyTTL.Seconds()),
		OrderID:       orderID,
		Currency:      req.Currency,
		IntegrationID: c.config.IntegrationID,
		BillingData:   req.Billing,
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{
		GatewayOrderID: strconv.FormatInt(orderID, 10),
		CheckoutURL:    c.CheckoutURL(key),
	}, nil
}

func (c *Client) CheckoutURL(paymentKey string) string {
	return fmt.Sprintf("%s/api/acceptance/iframes/%s?payment_token=%s",
		c.config.BaseURL, url.PathEscape(c.config.IframeID), url.QueryEscape(paymentKey))
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	var out authResponse
	resp, err := c.request(ctx).
		SetBody(map[string]string{"api_key": c.config.APIKey}).
		SetResult(&out).
		Post("/api/auth/tokens")
	if err := c.check("auth", resp, err); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &apperror.GatewayError{Op: "paymob auth", Body: "empty token"}
	}
	return out.Token, nil
}

func (c *Client) createOrder(ctx context.Context, token string, body orderRequest) (int64, error) {
	var out orderResponse
	resp, err := c.request(ctx).
		SetAuthToken(token).
		SetBody(body).
		SetResult(&out).
		Post("/api/ecommerce/orders")
	if err := c.check("order", resp, err); err != nil {
		return 0, err
	}
	if out.ID == 0 {
		return 0, &apperror.GatewayError{Op: "paymob order", Body: "missing order id"}
	}
	return out.ID, nil
}

func (c *Client) createPaymentKey(ctx context.Context, token string, body paymentKeyRequest) (string, error) {
	var out paymentKeyResponse
	resp, err := c.request(ctx).
		SetAuthToken(token).
		SetBody(body).
		SetResult(&out).
		Post("/api/acceptance/payment_keys")
	if err := c.check("payment key", resp, err); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &apperror.GatewayError{Op: "paymob payment key", Body: "empty token"}
	}
	return out.Token, nil
}

// Refund refunds amountCents of a captured transaction
func (c *Client) Refund(ctx context.Context, transactionID string, amountCents int64) (*RefundResult, error) {
	txID, err := strconv.ParseInt(transactionID, 10, 64)
	if err != nil {
		return nil, &apperror.GatewayError{Op: "paymob refund", Err: fmt.Errorf("transaction id %q: %w", transactionID, err)}
	}

	out := map[string]any{}
	resp, err := c.request(ctx).
		SetHeader("Authorization", "Token "+c.config.SecretKey).
		SetBody(refundRequest{TransactionID: txID, AmountCents: amountCents}).
		SetResult(&out).
		Post("/api/acceptance/void_refund/refund")
	if err := c.check("refund", resp, err); err != nil {
		return nil, err
	}
	if ok, present := out["success"].(bool); present && !ok {
		return nil, &apperror.GatewayError{Op: "paymob refund", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	result := &RefundResult{Raw: out}
	switch id := out["id"].(type) {
	case float64:
		result.TransactionID = strconv.FormatInt(int64(id), 10)
	case string:
		result.TransactionID = id
	}
	return result, nil
}

// request decodes bodies as JSON whatever content type Paymob declares
func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		ForceContentType("application/json")
}

func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.log.Error("Paymob request failed", zap.String("op", op), zap.Error(err))
		return &apperror.GatewayError{Op: "paymob " + op, Err: err}
	}
	if resp.IsError() {
		c.log.Error("Paymob request rejected",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()))
		return &apperror.GatewayError{Op: "paymob " + op, StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}
