// Package router assembles the HTTP surface: middleware chain, public
// discovery routes, and the role-guarded route groups behind the
// gateway trust boundary.
package router

import (
	"net/http"

	"dashmart/internal/handler"
	"dashmart/internal/middleware"
	"dashmart/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers bundles the per-entity handlers the router mounts.
type Handlers struct {
	Shop     *handler.ShopHandler
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Order    *handler.OrderHandler
	Delivery *handler.DeliveryHandler
	Coupon   *handler.CouponHandler
}

// New builds the full route tree. Every route except /health sits
// behind the gateway key check and carries a resolved principal.
func New(h Handlers, gatewayKey string, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.GatewayAuth(gatewayKey, logger))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Discovery and catalogue reads, open to every authenticated role.
		r.Get("/shops/nearby", h.Shop.Nearby)
		r.Get("/shops/{id}", h.Shop.GetByID)
		r.Get("/shops/{id}/products", h.Product.ListByShop)
		r.Get("/products/{id}", h.Product.GetByID)
		r.Get("/orders/{id}", h.Order.GetByID)

		// Merchant routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleManager, model.RoleAdmin))

			r.Post("/shops", h.Shop.Create)
			r.Get("/shops/mine", h.Shop.ListMine)
			r.Put("/shops/{id}", h.Shop.Update)
			r.Patch("/shops/{id}/active", h.Shop.SetActive)
			r.Get("/shops/{id}/orders", h.Order.ListByShop)

			r.Post("/products", h.Product.Create)
			r.Put("/products/{id}", h.Product.Update)
			r.Delete("/products/{id}", h.Product.Delete)
			r.Patch("/products/{id}/stock", h.Product.SetStock)
			r.Patch("/products/{id}/availability", h.Product.SetAvailability)

			r.Patch("/orders/{id}/status", h.Order.UpdateStatus)
			r.Post("/orders/{id}/assign", h.Order.AssignPartner)
		})

		// Customer routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleCustomer))

			r.Get("/cart", h.Cart.Get)
			r.Delete("/cart", h.Cart.Clear)
			r.Post("/cart/items", h.Cart.AddItem)
			r.Put("/cart/items/{itemId}", h.Cart.UpdateItem)
			r.Delete("/cart/items/{itemId}", h.Cart.RemoveItem)
			r.Post("/cart/coupon", h.Cart.ApplyCoupon)
			r.Delete("/cart/coupon", h.Cart.RemoveCoupon)

			r.Post("/orders", h.Order.Create)
			r.Get("/orders", h.Order.ListMine)
		})

		// Cancellation is shared: the service decides per role whether
		// the order may still be cancelled.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleCustomer, model.RoleManager, model.RoleAdmin))
			r.Post("/orders/{id}/cancel", h.Order.Cancel)
		})

		// Delivery partner routes.
		r.Route("/delivery", func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RolePartner))

			r.Post("/register", h.Delivery.Register)
			r.Get("/profile", h.Delivery.GetProfile)
			r.Put("/profile", h.Delivery.UpdateProfile)
			r.Patch("/availability", h.Delivery.SetAvailability)
			r.Post("/location", h.Delivery.UpdateLocation)
			r.Get("/earnings", h.Delivery.Earnings)

			r.Get("/orders", h.Delivery.MyOrders)
			r.Get("/orders/available", h.Delivery.AvailableOrders)
			r.Get("/orders/active", h.Delivery.ActiveOrder)
			r.Post("/orders/{id}/accept", h.Delivery.Accept)
			r.Post("/orders/{id}/pickup", h.Delivery.PickUp)
			r.Post("/orders/{id}/start", h.Delivery.StartDelivery)
			r.Post("/orders/{id}/complete", h.Delivery.Complete)
		})

		// Admin routes.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleAdmin))

			r.Get("/orders", h.Order.ListAll)
			r.Patch("/shops/{id}/verify", h.Shop.SetVerified)
			r.Get("/partners", h.Delivery.ListPartners)
			r.Patch("/partners/{id}/verify", h.Delivery.VerifyPartner)
			r.Post("/coupons", h.Coupon.Create)
			r.Get("/coupons", h.Coupon.List)
			r.Patch("/coupons/{id}/active", h.Coupon.SetActive)
		})
	})

	return r
}
