package handler

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/middleware"
	"cinema_ticketing/model"
	"cinema_ticketing/settlement"
	"cinema_ticketing/utils"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

func toBookingResponse(booking *model.Booking) (model.BookingResponse, error) {
	var res model.BookingResponse
	if err := copier.Copy(&res, booking); err != nil {
		return res, err
	}
	if res.Items == nil {
		res.Items = []model.BookingItemResponse{}
	}
	return res, nil
}

// canView lets the booking's customer and admins see it.
func canView(claim model.TokenClaim, booking *model.Booking) bool {
	isOwner := booking.CustomerID != nil && *booking.CustomerID == claim.CustomerId
	return isOwner || claim.Role == constants.ROLE_ADMIN
}

// GetBooking is the ticket page API. Confirmed bookings carry a QR code of
// the public code.
func (h *Handler) GetBooking(c *fiber.Ctx) error {
	id := c.Locals("inputId").(uint)
	claim, ok := middleware.Claims(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.UNAUTHORIZED, nil)
	}

	booking, err := h.store.FindBooking(c.UserContext(), id)
	if errors.Is(err, settlement.ErrBookingNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.BOOKING_NOT_FOUND, err)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	if !canView(claim, booking) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_OWNER, nil)
	}

	res, err := toBookingResponse(booking)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	if booking.Status == constants.BOOKING_CONFIRMED && booking.PublicCode != "" {
		qr, err := utils.TicketQRDataURL(booking.PublicCode)
		if err != nil {
			h.log.Warn("generate ticket qr failed", zap.Uint("bookingId", booking.ID), zap.Error(err))
		}
		res.QRCode = qr
	}

	return utils.SuccessResponse(c, fiber.StatusOK, res)
}
