package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/quanlynhankhau/registry-api/internal/auth"
	"github.com/quanlynhankhau/registry-api/internal/payment"
	"github.com/quanlynhankhau/registry-api/internal/transport/middleware"
	"github.com/quanlynhankhau/registry-api/internal/transport/swagger"
	"github.com/quanlynhankhau/registry-api/internal/user"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth    *auth.Handler
	User    *user.Handler
	Payment *payment.Handler
	Webhook *payment.WebhookHandler
}

// RegisterAllRoutes wires the full route tree. Webhook endpoints stay outside
// the auth group: the payment provider and bank notifiers authenticate with
// signatures, not tokens.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, handlers Handlers, cors middleware.CORSConfig, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(cors))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if handlers.Webhook != nil {
			r.Post("/payments/webhook", handlers.Webhook.ProviderWebhook)
			r.Post("/payments/quick-link/webhook", handlers.Webhook.QuickLinkWebhook)
		}

		if handlers.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", handlers.Auth.Login)
			sr.Post("/refresh", handlers.Auth.RefreshToken)
			sr.Post("/logout", handlers.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(handlers.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)

			if handlers.User != nil {
				pr.Get("/users/me", handlers.User.GetCurrentUser)
			}

			if handlers.Payment != nil {
				pr.Route("/payments", func(pay chi.Router) {
					pay.Post("/", handlers.Payment.CreatePayment)
					pay.Post("/quick-link", handlers.Payment.CreateQuickLinkPayment)
					pay.Get("/{paymentID}/status", handlers.Payment.GetPaymentStatus)

					// Notification feed is staff-only.
					pay.Group(func(nr chi.Router) {
						nr.Use(handlers.Auth.RequireStaff)
						nr.Get("/notifications", handlers.Payment.ListNotifications)
						nr.Get("/notifications/unread-count", handlers.Payment.UnreadNotificationCount)
						nr.Post("/notifications/{notificationID}/read", handlers.Payment.MarkNotificationRead)
						nr.Post("/notifications/read-all", handlers.Payment.MarkAllNotificationsRead)
					})
				})
			}
		})
	})
}
