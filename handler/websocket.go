package handler

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/helper"
	"cinema_ticketing/middleware"
	"cinema_ticketing/settlement"
	"cinema_ticketing/utils"
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// BookingSocketAccess runs before the websocket upgrade, after
// middleware.Protected and validate.GetById. Only the booking's customer or
// an admin may watch it.
func (h *Handler) BookingSocketAccess(c *fiber.Ctx) error {
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
	return c.Next()
}

// BookingStatusSocket sends the current booking status, then relays every
// status change published on booking:{id} until the client disconnects.
// BookingSocketAccess has already checked the caller.
func (h *Handler) BookingStatusSocket(c *websocket.Conn) {
	defer c.Close()

	id64, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id64 == 0 {
		_ = c.WriteJSON(map[string]string{"error": "invalid booking id"})
		return
	}
	bookingID := uint(id64)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Gửi trạng thái hiện tại lần đầu
	booking, err := h.store.FindBooking(ctx, bookingID)
	if err != nil {
		_ = c.WriteJSON(map[string]string{"error": "booking not found"})
		return
	}
	if err := c.WriteJSON(helper.BookingStatusEvent{BookingId: booking.ID, Status: booking.Status}); err != nil {
		return
	}

	// Sub kênh Redis
	pubsub := h.publisher.Subscribe(ctx, bookingID)
	if pubsub == nil {
		return
	}
	defer pubsub.Close()

	// Khi client đóng kết nối thì dừng relay
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	channel := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-channel:
			if !ok {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				h.log.Debug("websocket write failed", zap.Uint("bookingId", bookingID), zap.Error(err))
				return
			}
		}
	}
}
