package payment

import (
	"bytes"
	"cinema_ticketing/config"
	"cinema_ticketing/constants"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	PayPalStatusCompleted = "COMPLETED"

	issueAlreadyCaptured = "ORDER_ALREADY_CAPTURED"
)

// PayPal talks to the PayPal Orders v2 API. Authentication uses the OAuth2
// client-credentials grant; tokens are cached by the oauth2 transport.
type PayPal struct {
	Config config.PayPal
	client *http.Client
}

func NewPayPal(cfg config.PayPal) *PayPal {
	base := &http.Client{Timeout: 20 * time.Second}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     strings.TrimRight(cfg.BaseURL, "/") + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := cc.Client(ctx)
	client.Timeout = 30 * time.Second
	return &PayPal{Config: cfg, client: client}
}

type PayPalOrderRequest struct {
	BookingID   uint
	Amount      float64 // VND
	Description string
}

type PayPalOrder struct {
	ID         string
	Status     string
	ApproveURL string
}

type CaptureResult struct {
	Status    string
	CaptureID string
	// ReferenceID is the booking id the order was created for.
	ReferenceID string
	Amount      string
	Currency    string
	// AlreadyCaptured is set when PayPal reports the order was captured by an
	// earlier request.
	AlreadyCaptured bool
}

func (r CaptureResult) Completed() bool {
	return r.Status == PayPalStatusCompleted
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalPurchaseUnit struct {
	ReferenceID string       `json:"reference_id"`
	CustomID    string       `json:"custom_id,omitempty"`
	Description string       `json:"description,omitempty"`
	Amount      paypalAmount `json:"amount"`
}

type paypalAppContext struct {
	ReturnURL  string `json:"return_url"`
	CancelURL  string `json:"cancel_url"`
	UserAction string `json:"user_action"`
}

type paypalCreateOrder struct {
	Intent             string               `json:"intent"`
	PurchaseUnits      []paypalPurchaseUnit `json:"purchase_units"`
	ApplicationContext paypalAppContext     `json:"application_context"`
}

// CreateOrder creates a CAPTURE-intent order and returns the approval link the
// customer must visit.
func (p *PayPal) CreateOrder(ctx context.Context, req PayPalOrderRequest) (PayPalOrder, error) {
	bookingID := strconv.FormatUint(uint64(req.BookingID), 10)
	q := url.Values{}
	q.Set("bookingId", bookingID)

	body := paypalCreateOrder{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{{
			ReferenceID: bookingID,
			CustomID:    bookingID,
			Description: req.Description,
			Amount: paypalAmount{
				CurrencyCode: p.Config.Currency,
				Value:        p.convertAmount(req.Amount),
			},
		}},
		ApplicationContext: paypalAppContext{
			ReturnURL:  p.Config.ReturnURL + "?" + q.Encode(),
			CancelURL:  p.Config.CancelURL + "?" + q.Encode(),
			UserAction: "PAY_NOW",
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return PayPalOrder{}, err
	}

	res, err := p.do(ctx, "create order", http.MethodPost, "/v2/checkout/orders", payload, "")
	if err != nil {
		return PayPalOrder{}, err
	}

	order := PayPalOrder{
		ID:         res.Get("id").String(),
		Status:     res.Get("status").String(),
		ApproveURL: res.Get(`links.#(rel=="approve").href`).String(),
	}
	if order.ApproveURL == "" {
		order.ApproveURL = res.Get(`links.#(rel=="payer-action").href`).String()
	}
	if order.ID == "" || order.ApproveURL == "" {
		return PayPalOrder{}, &GatewayError{Gateway: constants.GATEWAY_PAYPAL, Op: "create order", Err: errors.New("response has no order id or approve link")}
	}
	return order, nil
}

// CaptureOrder finalises an approved order. A returned error means the
// capture call itself failed; a non-completed status is reported through
// CaptureResult. The result always carries the order's reference id and the
// captured amount so the caller can check them against the booking.
func (p *PayPal) CaptureOrder(ctx context.Context, token string) (CaptureResult, error) {
	path := "/v2/checkout/orders/" + url.PathEscape(token) + "/capture"
	res, err := p.do(ctx, "capture", http.MethodPost, path, nil, "capture-"+token)
	if err != nil {
		var gerr *GatewayError
		if errors.As(err, &gerr) && gerr.Name == issueAlreadyCaptured {
			order, err := p.GetOrder(ctx, token)
			if err != nil {
				return CaptureResult{}, err
			}
			order.AlreadyCaptured = true
			return order, nil
		}
		return CaptureResult{}, err
	}

	capture := captureResult(res)
	if capture.Completed() && (capture.ReferenceID == "" || capture.Amount == "") {
		// minimal response, ask for the full order
		order, err := p.GetOrder(ctx, token)
		if err != nil {
			return CaptureResult{}, err
		}
		return order, nil
	}
	return capture, nil
}

// GetOrder reads an order with its first purchase unit and capture.
func (p *PayPal) GetOrder(ctx context.Context, id string) (CaptureResult, error) {
	res, err := p.do(ctx, "get order", http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(id), nil, "")
	if err != nil {
		return CaptureResult{}, err
	}
	return captureResult(res), nil
}

// VerifyCapture checks that a completed capture paid for this booking: the
// order must reference the booking and the captured amount must equal the
// booking total converted to the PayPal currency.
func (p *PayPal) VerifyCapture(res CaptureResult, bookingID uint, totalVND float64) error {
	ref := strconv.FormatUint(uint64(bookingID), 10)
	if res.ReferenceID != ref {
		return fmt.Errorf("%w: order references booking %q, not %s", ErrCaptureMismatch, res.ReferenceID, ref)
	}
	want := p.convertAmount(totalVND)
	if !strings.EqualFold(res.Currency, p.Config.Currency) || normalizeAmount(res.Amount) != want {
		return fmt.Errorf("%w: captured %s %s, booking costs %s %s",
			ErrCaptureMismatch, res.Amount, res.Currency, want, p.Config.Currency)
	}
	return nil
}

func captureResult(res gjson.Result) CaptureResult {
	unit := res.Get("purchase_units.0")
	ref := unit.Get("reference_id").String()
	if ref == "" {
		ref = unit.Get("custom_id").String()
	}
	capture := unit.Get("payments.captures.0")
	return CaptureResult{
		Status:      res.Get("status").String(),
		CaptureID:   capture.Get("id").String(),
		ReferenceID: ref,
		Amount:      capture.Get("amount.value").String(),
		Currency:    capture.Get("amount.currency_code").String(),
	}
}

func normalizeAmount(v string) string {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	return fmt.Sprintf("%.2f", f)
}

func (p *PayPal) do(ctx context.Context, op, method, path string, payload []byte, requestID string) (gjson.Result, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	endpoint := strings.TrimRight(p.Config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return gjson.Result{}, &GatewayError{Gateway: constants.GATEWAY_PAYPAL, Op: op, Err: err}
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", "return=representation")
	if requestID != "" {
		req.Header.Set("PayPal-Request-Id", requestID)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return gjson.Result{}, &GatewayError{Gateway: constants.GATEWAY_PAYPAL, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, &GatewayError{Gateway: constants.GATEWAY_PAYPAL, Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res := gjson.ParseBytes(raw)
		name := res.Get("details.0.issue").String()
		if name == "" {
			name = res.Get("name").String()
		}
		msg := res.Get("message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return gjson.Result{}, &GatewayError{
			Gateway:    constants.GATEWAY_PAYPAL,
			Op:         op,
			StatusCode: resp.StatusCode,
			Name:       name,
			Err:        errors.New(msg),
		}
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, &GatewayError{Gateway: constants.GATEWAY_PAYPAL, Op: op, StatusCode: resp.StatusCode, Err: errors.New("invalid JSON response")}
	}
	return gjson.ParseBytes(raw), nil
}

func (p *PayPal) convertAmount(vnd float64) string {
	rate := p.Config.VNDRate
	if rate <= 0 {
		rate = 1
	}
	return fmt.Sprintf("%.2f", vnd/rate)
}
