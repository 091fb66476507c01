package handler

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/helper"
	"cinema_ticketing/model"
	"cinema_ticketing/settlement"
	"cinema_ticketing/utils"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Admin handlers sit behind middleware.RequireRole(constants.ROLE_ADMIN).

func (h *Handler) ListBookings(c *fiber.Ctx) error {
	filter, _ := c.Locals("filterBooking").(model.FilterBooking)

	bookings, err := h.store.ListBookings(c.UserContext(), filter.Status)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	res := make([]model.BookingResponse, 0, len(bookings))
	for i := range bookings {
		item, err := toBookingResponse(&bookings[i])
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
		}
		res = append(res, item)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, res)
}

// SettleBooking confirms a booking by hand, e.g. after checking a bank
// statement. It goes through the same exactly-once procedure as the gateways.
func (h *Handler) SettleBooking(c *fiber.Ctx) error {
	id := c.Locals("inputId").(uint)

	res, err := h.settle(c.UserContext(), "admin", id)
	if errors.Is(err, settlement.ErrBookingNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.BOOKING_NOT_FOUND, err)
	}
	if err != nil {
		h.log.Error("manual settlement failed", zap.Uint("bookingId", id), zap.Error(err))
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"bookingId": id,
		"settled":   res.Settled,
		"status":    res.Status,
		"points":    res.Loyalty.Points,
		"tier":      res.Loyalty.TierName,
	})
}

func (h *Handler) CancelBooking(c *fiber.Ctx) error {
	id := c.Locals("inputId").(uint)
	ctx := c.UserContext()

	cancelled, err := h.store.CancelBooking(ctx, id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if !cancelled {
		if _, err := h.store.FindBooking(ctx, id); errors.Is(err, settlement.ErrBookingNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.BOOKING_NOT_FOUND, err)
		}
		return utils.ErrorResponse(c, fiber.StatusConflict, constants.BOOKING_NOT_PENDING, nil)
	}

	_ = h.publisher.Publish(ctx, helper.BookingStatusEvent{BookingId: id, Status: constants.BOOKING_CANCELLED})
	h.log.Info("booking cancelled by admin", zap.Uint("bookingId", id))
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"bookingId": id, "status": constants.BOOKING_CANCELLED})
}

func (h *Handler) CustomerLoyalty(c *fiber.Ctx) error {
	id := c.Locals("inputId").(uint)
	ctx := c.UserContext()

	customer, err := h.store.FindCustomer(ctx, id)
	if errors.Is(err, settlement.ErrCustomerNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.CUSTOMER_NOT_FOUND, err)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	spend, err := h.store.SumConfirmedBookingAmounts(ctx, id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.CustomerLoyalty{
		CustomerId:    customer.ID,
		LoyaltyPoints: customer.LoyaltyPoints,
		LifetimeSpend: spend,
		Tier:          helper.TierFor(h.tiers, spend).Name,
	})
}
