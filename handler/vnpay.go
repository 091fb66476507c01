package handler

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/model"
	"cinema_ticketing/payment"
	"cinema_ticketing/settlement"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// VNPayReturn handles the browser redirect from VNPay. It always answers
// with a redirect.
func (h *Handler) VNPayReturn(c *fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("vnpay return panicked",
				zap.String("gateway", constants.GATEWAY_VNPAY),
				zap.Any("panic", r))
			err = c.Redirect(h.errorURL(constants.MESSAGE_UNEXPECTED_ERROR))
		}
	}()

	query, parseErr := url.ParseQuery(string(c.Request().URI().QueryString()))
	if parseErr != nil {
		h.log.Warn("vnpay return has a malformed query", zap.Error(parseErr))
	}

	result := h.vnpay.Verify(query)
	if !result.Valid {
		h.log.Warn("vnpay return signature rejected",
			zap.String("gateway", constants.GATEWAY_VNPAY),
			zap.String("txnRef", query.Get("vnp_TxnRef")))
		return c.Redirect(h.errorURL(constants.MESSAGE_INVALID_SIGNATURE))
	}

	if !result.Succeeded() {
		return c.Redirect(h.ticketURL(result.TxnRef, constants.REDIRECT_FAILED, payment.VNPayMessage(result.ResultCode)))
	}

	bookingID, err := parseBookingID(result.TxnRef)
	if err != nil {
		h.log.Error("vnpay return has an unusable booking reference",
			zap.String("gateway", constants.GATEWAY_VNPAY),
			zap.String("txnRef", result.TxnRef),
			zap.Error(err))
		return c.Redirect(h.errorURL(constants.MESSAGE_UNEXPECTED_ERROR))
	}

	if _, err := h.settle(c.UserContext(), constants.GATEWAY_VNPAY, bookingID); err != nil {
		h.log.Error("settlement failed",
			zap.String("gateway", constants.GATEWAY_VNPAY),
			zap.Uint("bookingId", bookingID),
			zap.Error(err))
		return c.Redirect(h.errorURL(constants.MESSAGE_UNEXPECTED_ERROR))
	}

	return c.Redirect(h.ticketURL(result.TxnRef, constants.REDIRECT_SUCCESS, ""))
}

// VNPay IPN response codes.
const (
	ipnConfirmed        = "00"
	ipnOrderNotFound    = "01"
	ipnAlreadyConfirmed = "02"
	ipnInvalidAmount    = "04"
	ipnInvalidSignature = "97"
	ipnUnknownError     = "99"
)

// VNPayIPN answers VNPay's server-to-server notification. VNPay retries until
// it receives RspCode 00 or 02, so settlement here is the same exactly-once
// procedure the return URL uses.
func (h *Handler) VNPayIPN(c *fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("vnpay ipn panicked", zap.Any("panic", r))
			err = c.JSON(model.IPNResponse{RspCode: ipnUnknownError, Message: "Unknown error"})
		}
	}()

	raw := string(c.Request().URI().QueryString())
	if c.Method() == fiber.MethodPost && len(c.Body()) > 0 {
		raw = string(c.Body())
	}
	query, _ := url.ParseQuery(raw)

	result := h.vnpay.Verify(query)
	if !result.Valid {
		h.log.Warn("vnpay ipn signature rejected", zap.String("txnRef", query.Get("vnp_TxnRef")))
		return c.JSON(model.IPNResponse{RspCode: ipnInvalidSignature, Message: "Invalid signature"})
	}

	bookingID, err := parseBookingID(result.TxnRef)
	if err != nil {
		return c.JSON(model.IPNResponse{RspCode: ipnOrderNotFound, Message: "Order not found"})
	}

	ctx := c.UserContext()
	booking, err := h.store.FindBooking(ctx, bookingID)
	if errors.Is(err, settlement.ErrBookingNotFound) {
		return c.JSON(model.IPNResponse{RspCode: ipnOrderNotFound, Message: "Order not found"})
	}
	if err != nil {
		h.log.Error("vnpay ipn lookup failed", zap.Uint("bookingId", bookingID), zap.Error(err))
		return c.JSON(model.IPNResponse{RspCode: ipnUnknownError, Message: "Unknown error"})
	}

	if int64(booking.TotalPrice) != result.Amount {
		h.log.Warn("vnpay ipn amount mismatch",
			zap.Uint("bookingId", bookingID),
			zap.Int64("amount", result.Amount),
			zap.Float64("expected", booking.TotalPrice))
		return c.JSON(model.IPNResponse{RspCode: ipnInvalidAmount, Message: "Invalid amount"})
	}
	if booking.Status != constants.BOOKING_PENDING {
		return c.JSON(model.IPNResponse{RspCode: ipnAlreadyConfirmed, Message: "Order already confirmed"})
	}

	if !result.Succeeded() {
		h.log.Info("vnpay ipn reports a failed payment",
			zap.Uint("bookingId", bookingID),
			zap.String("code", result.ResultCode))
		return c.JSON(model.IPNResponse{RspCode: ipnConfirmed, Message: "Confirm Success"})
	}

	res, err := h.settle(ctx, constants.GATEWAY_VNPAY, bookingID)
	if err != nil {
		h.log.Error("settlement failed",
			zap.String("gateway", constants.GATEWAY_VNPAY),
			zap.Uint("bookingId", bookingID),
			zap.Error(err))
		return c.JSON(model.IPNResponse{RspCode: ipnUnknownError, Message: "Unknown error"})
	}
	if !res.Settled {
		return c.JSON(model.IPNResponse{RspCode: ipnAlreadyConfirmed, Message: "Order already confirmed"})
	}
	return c.JSON(model.IPNResponse{RspCode: ipnConfirmed, Message: "Confirm Success"})
}
