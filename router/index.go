package router

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/handler"
	"cinema_ticketing/middleware"
	"cinema_ticketing/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App, h *handler.Handler, jwtSecret []byte) {
	protected := middleware.Protected(jwtSecret)
	adminOnly := middleware.RequireRole(constants.ROLE_ADMIN)

	app.Get("/healthz", h.Health)

	// Gateway callbacks
	vnpay := app.Group("/vnpay", logger.New())
	vnpay.Get("/return", h.VNPayReturn)
	vnpay.Get("/ipn", h.VNPayIPN)
	vnpay.Post("/ipn", h.VNPayIPN)

	paypal := app.Group("/paypal", logger.New())
	paypal.Get("/return", validate.PayPalReturn(), h.PayPalReturn)
	paypal.Get("/cancel", h.PayPalCancel)

	app.Post("/payments", logger.New(), protected, validate.CreatePayment(), h.CreatePayment)

	ws := app.Group("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/bookings/:id", protected, validate.GetById("id"), h.BookingSocketAccess, websocket.New(h.BookingStatusSocket))

	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1")

	auth := v1.Group("/auth")
	auth.Post("/login", validate.Login(), h.Login)

	bookings := v1.Group("/bookings")
	bookings.Get("/:id", protected, validate.GetById("id"), h.GetBooking)

	admin := v1.Group("/admin", protected, adminOnly)
	admin.Get("/bookings", validate.FilterBooking(), h.ListBookings)
	admin.Post("/bookings/:id/settle", validate.GetById("id"), h.SettleBooking)
	admin.Post("/bookings/:id/cancel", validate.GetById("id"), h.CancelBooking)
	admin.Get("/customers/:id/loyalty", validate.GetById("id"), h.CustomerLoyalty)
}
