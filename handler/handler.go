package handler

import (
	"cinema_ticketing/helper"
	"cinema_ticketing/model"
	"cinema_ticketing/payment"
	"cinema_ticketing/settlement"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// BookingStore is the read and admin side of the booking tables.
type BookingStore interface {
	FindBooking(ctx context.Context, id uint) (*model.Booking, error)
	ListBookings(ctx context.Context, status string) ([]model.Booking, error)
	CancelBooking(ctx context.Context, id uint) (bool, error)
	FindCustomer(ctx context.Context, id uint) (*model.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*model.Customer, error)
	SumConfirmedBookingAmounts(ctx context.Context, customerID uint) (float64, error)
}

type Settler interface {
	SettleDetailed(ctx context.Context, bookingID uint) (settlement.Result, error)
}

type VNPayGateway interface {
	BuildPaymentURL(req payment.VNPayPaymentRequest) string
	Verify(query url.Values) payment.VerifyResult
}

type PayPalGateway interface {
	CreateOrder(ctx context.Context, req payment.PayPalOrderRequest) (payment.PayPalOrder, error)
	CaptureOrder(ctx context.Context, token string) (payment.CaptureResult, error)
	VerifyCapture(res payment.CaptureResult, bookingID uint, totalVND float64) error
}

type Config struct {
	Store       BookingStore
	Settler     Settler
	VNPay       VNPayGateway
	PayPal      PayPalGateway
	Publisher   *helper.StatusPublisher
	Log         *zap.Logger
	FrontendURL string
	JWTSecret   []byte
	Tiers       []model.LoyaltyTier
}

type Handler struct {
	store       BookingStore
	settler     Settler
	vnpay       VNPayGateway
	paypal      PayPalGateway
	publisher   *helper.StatusPublisher
	log         *zap.Logger
	frontendURL string
	jwtSecret   []byte
	tiers       []model.LoyaltyTier
}

func New(cfg Config) *Handler {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	tiers := cfg.Tiers
	if len(tiers) == 0 {
		tiers = helper.DefaultLoyaltyTiers
	}
	return &Handler{
		store:       cfg.Store,
		settler:     cfg.Settler,
		vnpay:       cfg.VNPay,
		paypal:      cfg.PayPal,
		publisher:   cfg.Publisher,
		log:         log,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		jwtSecret:   cfg.JWTSecret,
		tiers:       tiers,
	}
}

// ticketURL builds {frontend}/tickets/{id}?status=...&message=..., the
// contract read by the booking status page.
func (h *Handler) ticketURL(bookingID, status, message string) string {
	q := url.Values{}
	q.Set("status", status)
	if message != "" {
		q.Set("message", message)
	}
	return fmt.Sprintf("%s/tickets/%s?%s", h.frontendURL, url.PathEscape(bookingID), q.Encode())
}

func (h *Handler) errorURL(message string) string {
	q := url.Values{}
	q.Set("message", message)
	return fmt.Sprintf("%s/payment/error?%s", h.frontendURL, q.Encode())
}

func parseBookingID(ref string) (uint, error) {
	id, err := strconv.ParseUint(ref, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid booking reference %q: %w", ref, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid booking reference %q", ref)
	}
	return uint(id), nil
}

// settle runs the settlement procedure and announces a confirmed booking.
func (h *Handler) settle(ctx context.Context, gateway string, bookingID uint) (settlement.Result, error) {
	res, err := h.settler.SettleDetailed(ctx, bookingID)
	if err != nil {
		return res, err
	}
	if res.Settled {
		_ = h.publisher.Publish(ctx, helper.BookingStatusEvent{
			BookingId: bookingID,
			Status:    res.Status,
			Points:    res.Loyalty.Points,
		})
	} else {
		h.log.Warn("payment callback for booking that is not pending",
			zap.String("gateway", gateway),
			zap.Uint("bookingId", bookingID),
			zap.String("status", res.Status))
	}
	return res, nil
}
