package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PrathameshGBhat/foodapp-Backend/api/controllers"
	cartcontrollers "github.com/PrathameshGBhat/foodapp-Backend/api/controllers/cart"
	notificationcontrollers "github.com/PrathameshGBhat/foodapp-Backend/api/controllers/notifications"
	ordercontrollers "github.com/PrathameshGBhat/foodapp-Backend/api/controllers/orders"
	"github.com/PrathameshGBhat/foodapp-Backend/api/middleware"
	"github.com/PrathameshGBhat/foodapp-Backend/internal/cart"
	"github.com/PrathameshGBhat/foodapp-Backend/internal/orders"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	gatherer prometheus.Gatherer,
	cartService cart.Service,
	ordersService orders.Service,
	fanout notificationcontrollers.OrderPlacedHandler,
	streamer notificationcontrollers.VendorStreamer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisP,
		}))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/carts", func(r chi.Router) {
			r.Post("/", cartcontrollers.Create(cartService, logg))
			r.Get("/", cartcontrollers.List(cartService, logg))
			r.Get("/{cartId}", cartcontrollers.Get(cartService, logg))
			r.Put("/{cartId}", cartcontrollers.Update(cartService, logg))
			r.Delete("/{cartId}", cartcontrollers.Delete(cartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Place(ordersService, logg))
			r.Get("/", ordercontrollers.List(ordersService, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
			r.Put("/{orderId}", ordercontrollers.Advance(ordersService, logg))
			r.Delete("/{orderId}", ordercontrollers.Delete(ordersService, logg))
			r.Put("/{orderId}/status", ordercontrollers.ApplyPaymentOutcome(ordersService, logg))
			r.Put("/{orderId}/update-status", ordercontrollers.ApplyPaymentOutcome(ordersService, logg))
		})

		send := notificationcontrollers.Send(fanout, logg)
		r.Post("/notifications/send", send)
		r.Post("/notification/send", send)
		r.Get("/vendors/{vendorId}/notifications/stream", notificationcontrollers.Stream(streamer, logg))
	})

	return r
}
