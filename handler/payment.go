package handler

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/middleware"
	"cinema_ticketing/model"
	"cinema_ticketing/payment"
	"cinema_ticketing/settlement"
	"cinema_ticketing/utils"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CreatePayment starts checkout for a PENDING booking owned by the caller and
// returns the gateway URL the browser should open.
func (h *Handler) CreatePayment(c *fiber.Ctx) error {
	input, ok := c.Locals("createPaymentInput").(model.CreatePaymentInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_PARSE_DATA_TO_LOCALS, nil)
	}
	claim, ok := middleware.Claims(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, nil)
	}

	ctx := c.UserContext()
	booking, err := h.store.FindBooking(ctx, input.BookingId)
	if errors.Is(err, settlement.ErrBookingNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.BOOKING_NOT_FOUND, err)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if booking.CustomerID == nil || *booking.CustomerID != claim.CustomerId {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_OWNER, nil)
	}
	if booking.Status != constants.BOOKING_PENDING {
		return utils.ErrorResponse(c, fiber.StatusConflict, constants.BOOKING_NOT_PENDING, nil)
	}

	res := model.PaymentResponse{Method: input.Method, BookingId: booking.ID}
	switch input.Method {
	case constants.METHOD_VNPAY:
		res.PaymentUrl = h.vnpay.BuildPaymentURL(payment.VNPayPaymentRequest{
			Amount:    int64(booking.TotalPrice),
			OrderInfo: fmt.Sprintf("Thanh toan booking %d - ve xem phim", booking.ID),
			TxnRef:    strconv.FormatUint(uint64(booking.ID), 10),
			IPAddr:    c.IP(),
		})
	case constants.METHOD_PAYPAL:
		order, err := h.paypal.CreateOrder(ctx, payment.PayPalOrderRequest{
			BookingID:   booking.ID,
			Amount:      booking.TotalPrice,
			Description: fmt.Sprintf("Booking %s", booking.PublicCode),
		})
		if err != nil {
			h.log.Error("paypal create order failed",
				zap.String("gateway", constants.GATEWAY_PAYPAL),
				zap.Uint("bookingId", booking.ID),
				zap.Error(err))
			return utils.ErrorResponse(c, fiber.StatusBadGateway, constants.PAYMENT_URL_ERROR, err)
		}
		res.PaymentUrl = order.ApproveURL
	}

	return utils.SuccessResponse(c, fiber.StatusOK, res)
}
