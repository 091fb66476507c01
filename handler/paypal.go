package handler

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/model"
	"cinema_ticketing/settlement"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PayPalReturn captures an approved PayPal order and settles the booking.
// validate.PayPalReturn has already rejected requests without bookingId or
// token. bookingId comes from the browser, so the booking is settled only
// when the captured order was created for it and paid its full total.
func (h *Handler) PayPalReturn(c *fiber.Ctx) (err error) {
	input, ok := c.Locals("paypalReturn").(model.PayPalReturnQuery)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": constants.MISSING_PAYPAL_PARAMS})
	}
	ref := strconv.FormatUint(uint64(input.BookingId), 10)

	defer func() {
		if r := recover(); r != nil {
			h.log.Error("paypal return panicked",
				zap.String("gateway", constants.GATEWAY_PAYPAL),
				zap.Uint("bookingId", input.BookingId),
				zap.Any("panic", r))
			err = c.Redirect(h.ticketURL(ref, constants.REDIRECT_FAILED, constants.MESSAGE_SERVER_ERROR))
		}
	}()

	ctx := c.UserContext()
	capture, err := h.paypal.CaptureOrder(ctx, input.Token)
	if err != nil {
		h.log.Error("paypal capture failed",
			zap.String("gateway", constants.GATEWAY_PAYPAL),
			zap.Uint("bookingId", input.BookingId),
			zap.Error(err))
		return c.Redirect(h.ticketURL(ref, constants.REDIRECT_FAILED, constants.MESSAGE_SERVER_ERROR))
	}

	if !capture.Completed() {
		h.log.Warn("paypal capture not completed",
			zap.String("gateway", constants.GATEWAY_PAYPAL),
			zap.Uint("bookingId", input.BookingId),
			zap.String("status", capture.Status))
		return c.Redirect(h.ticketURL(ref, constants.REDIRECT_FAILED, constants.MESSAGE_CAPTURE_FAILED))
	}

	booking, err := h.store.FindBooking(ctx, input.BookingId)
	if err != nil {
		h.log.Error("load booking for paypal capture failed",
			zap.String("gateway", constants.GATEWAY_PAYPAL),
			zap.Uint("bookingId", input.BookingId),
			zap.String("captureId", capture.CaptureID),
			zap.Error(err))
		if errors.Is(err, settlement.ErrBookingNotFound) {
			return c.Redirect(h.ticketURL(ref, constants.REDIRECT_FAILED, constants.MESSAGE_CAPTURE_FAILED))
		}
		return c.Redirect(h.ticketURL(ref, constants.REDIRECT_FAILED, constants.MESSAGE_SERVER_ERROR))
	}

	if err := h.paypal.VerifyCapture(capture, booking.ID, booking.TotalPrice); err != nil {
		// tiền đã bị capture nhưng không khớp booking, cần đối soát tay
		h.log.Error("paypal capture does not match booking",
			zap.String("gateway", constants.GATEWAY_PAYPAL),
			zap.Uint("bookingId", input.BookingId),
			zap.String("captureId", capture.CaptureID),
			zap.String("referenceId", capture.ReferenceID),
			zap.String("amount", capture.Amount),
			zap.String("currency", capture.Currency),
			zap.Bool("alreadyCaptured", capture.AlreadyCaptured),
			zap.Error(err))
		return c.Redirect(h.ticketURL(ref, constants.REDIRECT_FAILED, constants.MESSAGE_CAPTURE_FAILED))
	}

	if _, err := h.settle(ctx, constants.GATEWAY_PAYPAL, input.BookingId); err != nil {
		h.log.Error("settlement failed",
			zap.String("gateway", constants.GATEWAY_PAYPAL),
			zap.Uint("bookingId", input.BookingId),
			zap.String("captureId", capture.CaptureID),
			zap.Error(err))
		return c.Redirect(h.ticketURL(ref, constants.REDIRECT_FAILED, constants.MESSAGE_SERVER_ERROR))
	}

	return c.Redirect(h.ticketURL(ref, constants.REDIRECT_SUCCESS, ""))
}

// PayPalCancel is PayPal's cancel_url. The booking stays PENDING.
func (h *Handler) PayPalCancel(c *fiber.Ctx) error {
	ref := c.Query("bookingId")
	if _, err := parseBookingID(ref); err != nil {
		return c.Redirect(h.errorURL(constants.MESSAGE_PAYMENT_CANCELLED))
	}
	return c.Redirect(h.ticketURL(ref, constants.REDIRECT_FAILED, constants.MESSAGE_PAYMENT_CANCELLED))
}
