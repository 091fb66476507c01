package payment

import (
	"cinema_ticketing/config"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fakePayPal struct {
	captureStatus int
	captureBody   string
	orderBody     string
	tokenCalls    atomic.Int32
	orderCalls    atomic.Int32

	mu          sync.Mutex
	lastBody    string
	lastHeaders http.Header
}

func (f *fakePayPal) last() (string, http.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody, f.lastHeaders
}

func (f *fakePayPal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"A21AA","token_type":"Bearer","expires_in":32400}`))
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer A21AA", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.lastBody = string(body)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"5O190127TN364715T","status":"CREATED","links":[
			{"href":"https://api.sandbox.paypal.com/v2/checkout/orders/5O190127TN364715T","rel":"self","method":"GET"},
			{"href":"https://www.sandbox.paypal.com/checkoutnow?token=5O190127TN364715T","rel":"approve","method":"GET"}]}`))
	})
	mux.HandleFunc("/v2/checkout/orders/5O190127TN364715T/capture", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer A21AA", r.Header.Get("Authorization"))
		f.mu.Lock()
		f.lastHeaders = r.Header.Clone()
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.captureStatus)
		_, _ = w.Write([]byte(f.captureBody))
	})
	mux.HandleFunc("/v2/checkout/orders/5O190127TN364715T", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		f.orderCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if f.orderBody == "" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"name":"RESOURCE_NOT_FOUND"}`))
			return
		}
		_, _ = w.Write([]byte(f.orderBody))
	})
	return mux
}

// capturedOrder is an order body as PayPal returns it once captured.
func capturedOrder(ref, value string) string {
	return `{"id":"5O190127TN364715T","status":"COMPLETED","purchase_units":[
		{"reference_id":"` + ref + `","payments":{"captures":[
			{"id":"3C679366HH908993F","status":"COMPLETED","amount":{"currency_code":"USD","value":"` + value + `"}}]}}]}`
}

func newTestPayPal(t *testing.T, f *fakePayPal) *PayPal {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewPayPal(config.PayPal{
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      srv.URL,
		ReturnURL:    "http://localhost:8002/paypal/return",
		CancelURL:    "http://localhost:8002/paypal/cancel",
		Currency:     "USD",
		VNDRate:      25000,
	})
}

func TestCaptureOrderCompleted(t *testing.T) {
	f := &fakePayPal{captureStatus: http.StatusCreated, captureBody: capturedOrder("42", "20.00")}
	p := newTestPayPal(t, f)

	res, err := p.CaptureOrder(context.Background(), "5O190127TN364715T")
	require.NoError(t, err)
	assert.True(t, res.Completed())
	assert.False(t, res.AlreadyCaptured)
	assert.Equal(t, "3C679366HH908993F", res.CaptureID)
	assert.Equal(t, "42", res.ReferenceID)
	assert.Equal(t, "20.00", res.Amount)
	assert.Equal(t, "USD", res.Currency)
	assert.Zero(t, f.orderCalls.Load())
	_, headers := f.last()
	assert.Equal(t, "capture-5O190127TN364715T", headers.Get("PayPal-Request-Id"))
	assert.Equal(t, "return=representation", headers.Get("Prefer"))

	// the cached token is reused
	_, err = p.CaptureOrder(context.Background(), "5O190127TN364715T")
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.tokenCalls.Load())
}

func TestCaptureOrderNotCompleted(t *testing.T) {
	f := &fakePayPal{captureStatus: http.StatusCreated, captureBody: `{"id":"5O190127TN364715T","status":"PAYER_ACTION_REQUIRED"}`}
	p := newTestPayPal(t, f)

	res, err := p.CaptureOrder(context.Background(), "5O190127TN364715T")
	require.NoError(t, err)
	assert.False(t, res.Completed())
	assert.Equal(t, "PAYER_ACTION_REQUIRED", res.Status)
}

func TestCaptureOrderAlreadyCaptured(t *testing.T) {
	f := &fakePayPal{
		captureStatus: http.StatusUnprocessableEntity,
		captureBody: `{"name":"UNPROCESSABLE_ENTITY","message":"The requested action could not be performed.",
			"details":[{"issue":"ORDER_ALREADY_CAPTURED","description":"Order already captured."}]}`,
		orderBody: capturedOrder("99", "3.60"),
	}
	p := newTestPayPal(t, f)

	res, err := p.CaptureOrder(context.Background(), "5O190127TN364715T")
	require.NoError(t, err)
	assert.True(t, res.Completed())
	assert.True(t, res.AlreadyCaptured)
	// the earlier capture belongs to booking 99, read back from the order
	assert.Equal(t, "99", res.ReferenceID)
	assert.Equal(t, "3.60", res.Amount)
	assert.Equal(t, int32(1), f.orderCalls.Load())
}

func TestCaptureOrderAlreadyCapturedLookupFails(t *testing.T) {
	f := &fakePayPal{
		captureStatus: http.StatusUnprocessableEntity,
		captureBody:   `{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"ORDER_ALREADY_CAPTURED"}]}`,
	}
	p := newTestPayPal(t, f)

	_, err := p.CaptureOrder(context.Background(), "5O190127TN364715T")
	var gerr *GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "get order", gerr.Op)
	assert.Equal(t, http.StatusNotFound, gerr.StatusCode)
}

func TestCaptureOrderMinimalResponseReadsOrder(t *testing.T) {
	f := &fakePayPal{
		captureStatus: http.StatusCreated,
		captureBody:   `{"id":"5O190127TN364715T","status":"COMPLETED"}`,
		orderBody:     capturedOrder("42", "20.00"),
	}
	p := newTestPayPal(t, f)

	res, err := p.CaptureOrder(context.Background(), "5O190127TN364715T")
	require.NoError(t, err)
	assert.True(t, res.Completed())
	assert.Equal(t, "42", res.ReferenceID)
	assert.Equal(t, "20.00", res.Amount)
	assert.Equal(t, int32(1), f.orderCalls.Load())
}

func TestCaptureOrderGatewayRejection(t *testing.T) {
	f := &fakePayPal{
		captureStatus: http.StatusUnprocessableEntity,
		captureBody: `{"name":"UNPROCESSABLE_ENTITY","message":"The requested action could not be performed.",
			"details":[{"issue":"INSTRUMENT_DECLINED"}]}`,
	}
	p := newTestPayPal(t, f)

	_, err := p.CaptureOrder(context.Background(), "5O190127TN364715T")
	require.Error(t, err)

	var gerr *GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, http.StatusUnprocessableEntity, gerr.StatusCode)
	assert.Equal(t, "INSTRUMENT_DECLINED", gerr.Name)
	assert.Equal(t, "paypal", gerr.Gateway)
}

func TestCaptureOrderServerError(t *testing.T) {
	f := &fakePayPal{captureStatus: http.StatusInternalServerError, captureBody: `{"name":"INTERNAL_SERVER_ERROR"}`}
	p := newTestPayPal(t, f)

	_, err := p.CaptureOrder(context.Background(), "5O190127TN364715T")
	var gerr *GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, http.StatusInternalServerError, gerr.StatusCode)
}

func TestCaptureOrderBadCredentials(t *testing.T) {
	f := &fakePayPal{captureStatus: http.StatusCreated, captureBody: `{"status":"COMPLETED"}`}
	p := newTestPayPal(t, f)
	p2 := NewPayPal(config.PayPal{ClientID: "client", ClientSecret: "wrong", BaseURL: p.Config.BaseURL})

	_, err := p2.CaptureOrder(context.Background(), "5O190127TN364715T")
	var gerr *GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "capture", gerr.Op)
}

func TestCaptureOrderUnreachable(t *testing.T) {
	p := NewPayPal(config.PayPal{ClientID: "client", ClientSecret: "secret", BaseURL: "http://127.0.0.1:1"})

	_, err := p.CaptureOrder(context.Background(), "5O190127TN364715T")
	var gerr *GatewayError
	assert.True(t, errors.As(err, &gerr))
}

func TestCreateOrder(t *testing.T) {
	f := &fakePayPal{}
	p := newTestPayPal(t, f)

	order, err := p.CreateOrder(context.Background(), PayPalOrderRequest{BookingID: 42, Amount: 250_000, Description: "Booking 42"})
	require.NoError(t, err)
	assert.Equal(t, "5O190127TN364715T", order.ID)
	assert.Equal(t, "https://www.sandbox.paypal.com/checkoutnow?token=5O190127TN364715T", order.ApproveURL)

	raw, _ := f.last()
	require.True(t, json.Valid([]byte(raw)))
	body := gjson.Parse(raw)
	assert.Equal(t, "CAPTURE", body.Get("intent").String())
	assert.Equal(t, "42", body.Get("purchase_units.0.reference_id").String())
	assert.Equal(t, "10.00", body.Get("purchase_units.0.amount.value").String())
	assert.Equal(t, "USD", body.Get("purchase_units.0.amount.currency_code").String())
	assert.True(t, strings.HasSuffix(body.Get("application_context.return_url").String(), "/paypal/return?bookingId=42"))
}

func TestVerifyCapture(t *testing.T) {
	p := NewPayPal(config.PayPal{Currency: "USD", VNDRate: 25000})
	paid := CaptureResult{Status: PayPalStatusCompleted, ReferenceID: "42", Amount: "20.00", Currency: "USD"}

	assert.NoError(t, p.VerifyCapture(paid, 42, 500_000))

	amount := paid
	amount.Amount = "20"
	assert.NoError(t, p.VerifyCapture(amount, 42, 500_000))

	cases := map[string]CaptureResult{
		"other booking":  {Status: PayPalStatusCompleted, ReferenceID: "99", Amount: "20.00", Currency: "USD"},
		"no reference":   {Status: PayPalStatusCompleted, Amount: "20.00", Currency: "USD"},
		"underpaid":      {Status: PayPalStatusCompleted, ReferenceID: "42", Amount: "3.60", Currency: "USD"},
		"other currency": {Status: PayPalStatusCompleted, ReferenceID: "42", Amount: "20.00", Currency: "EUR"},
		"no amount":      {Status: PayPalStatusCompleted, ReferenceID: "42", Currency: "USD"},
	}
	for name, res := range cases {
		err := p.VerifyCapture(res, 42, 500_000)
		assert.ErrorIs(t, err, ErrCaptureMismatch, name)
	}
}
