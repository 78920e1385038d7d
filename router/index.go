package router

import (
	"bakery_manager/handler"
	"bakery_manager/middleware"
	"bakery_manager/model"
	"bakery_manager/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// Options holds what the route table needs besides the handlers. A nil LimiterStorage
// keeps rate-limit counters in memory.
type Options struct {
	JWTSecret      []byte
	LimiterStorage fiber.Storage
}

func SetupRoutes(app *fiber.App, h *handler.Handler, opts Options) {
	protected := middleware.Protected(opts.JWTSecret)
	optionalJWT := middleware.OptionalJWT(opts.JWTSecret)
	admin := middleware.AdminOnly()

	// The socket route skips the access log.
	app.Get("/api/orders/:id/ws", optionalJWT, validate.GetByID("id"), h.OrderSocketUpgrade, websocket.New(h.OrderSocket))

	api := app.Group("/api", logger.New())

	api.Post("/webhooks/stripe", h.StripeWebhook)

	auth := api.Group("/auth")
	auth.Post("/register", validate.Body[model.RegisterCustomerInput](), h.Register)
	auth.Post("/login", validate.Body[model.LoginInput](), h.Login)
	auth.Post("/logout", h.Logout)
	auth.Get("/me", protected, h.Me)

	api.Get("/products", h.ListProducts)
	api.Get("/time-slots", h.ListTimeSlots)
	api.Get("/delivery-zones/lookup", h.LookupDeliveryZone)
	api.Get("/discount-codes/:code", h.PreviewDiscountCode)
	api.Get("/settings", h.GetSettings)

	api.Post("/checkout", optionalJWT, validate.Checkout(), h.Checkout)

	orders := api.Group("/orders")
	orders.Get("/", protected, h.ListMyOrders)
	orders.Get("/:id", optionalJWT, validate.GetByID("id"), h.GetOrder)
	orders.Get("/:id/history", optionalJWT, validate.GetByID("id"), h.OrderHistory)
	orders.Post("/:id/cancel",
		middleware.CancelRateLimit(opts.LimiterStorage),
		optionalJWT,
		validate.GetByID("id"),
		validate.CancelOrder(),
		h.CancelOrder,
	)

	adminGroup := api.Group("/admin", protected, admin)
	adminGroup.Get("/orders", h.AdminListOrders)
	adminGroup.Patch("/orders/:id/status", validate.GetByID("id"), validate.UpdateOrderStatus(), h.AdminUpdateOrderStatus)
	adminGroup.Post("/products", validate.CreateProduct(), h.AdminCreateProduct)
	adminGroup.Post("/time-slots", validate.CreateTimeSlot(), h.AdminCreateTimeSlot)
	adminGroup.Post("/delivery-zones", validate.CreateDeliveryZone(), h.AdminCreateDeliveryZone)
	adminGroup.Post("/discount-codes", validate.CreateDiscountCode(), h.AdminCreateDiscountCode)
	adminGroup.Put("/settings", validate.UpdateSettings(), h.UpdateSettings)
}
