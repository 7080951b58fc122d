// Package ewaapi собирает HTTP API сервиса доставки и его зависимости.
package ewaapi

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	authhandler "github.com/magabrotheeeer/ewa-delivery/internal/http/handlers/auth"
	cataloghandler "github.com/magabrotheeeer/ewa-delivery/internal/http/handlers/catalog"
	deliveryhandler "github.com/magabrotheeeer/ewa-delivery/internal/http/handlers/delivery"
	"github.com/magabrotheeeer/ewa-delivery/internal/http/handlers/health"
	notificationhandler "github.com/magabrotheeeer/ewa-delivery/internal/http/handlers/notification"
	pickuphandler "github.com/magabrotheeeer/ewa-delivery/internal/http/handlers/pickup"
	staffhandler "github.com/magabrotheeeer/ewa-delivery/internal/http/handlers/staff"
	subscriptionhandler "github.com/magabrotheeeer/ewa-delivery/internal/http/handlers/subscription"
	tickethandler "github.com/magabrotheeeer/ewa-delivery/internal/http/handlers/ticket"
	"github.com/magabrotheeeer/ewa-delivery/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/metrics"
	"github.com/magabrotheeeer/ewa-delivery/internal/lifecycle"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// AuthService обслуживает маршруты входа и проверяет токены.
type AuthService interface {
	authhandler.Service
	middlewarectx.TokenValidator
}

// Services набор сервисов, обслуживающих маршруты.
type Services struct {
	Auth         AuthService
	Catalog      cataloghandler.Service
	Subscription subscriptionhandler.Service
	Delivery     deliveryhandler.Service
	Pickup       pickuphandler.Service
	Ticket       tickethandler.Service
	Notification notificationhandler.Service
	Staff        staffhandler.Service
	Health       map[string]health.Pinger
}

// RouteOptions параметры общих middleware.
type RouteOptions struct {
	RequestTimeout time.Duration
	RateLimiter    *middlewarectx.RateLimiter
	Metrics        *metrics.Metrics
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, opts RouteOptions) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middleware.Timeout(opts.RequestTimeout),
		middlewarectx.Metrics(opts.Metrics),
	)

	auth := authhandler.New(logger, svc.Auth)
	catalog := cataloghandler.New(logger, svc.Catalog)
	subscriptions := subscriptionhandler.New(logger, svc.Subscription)
	deliveries := deliveryhandler.New(logger, svc.Delivery)
	pickups := pickuphandler.New(logger, svc.Pickup)
	tickets := tickethandler.New(logger, svc.Ticket)
	notifications := notificationhandler.New(logger, svc.Notification)
	staff := staffhandler.New(logger, svc.Staff)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(opts.RateLimiter.Middleware)

		// Открытые конечные точки
		r.Post("/register", auth.Register)
		r.Post("/login", auth.Login)
		r.Get("/health", health.New(logger, svc.Health).ServeHTTP)
		r.Get("/products", catalog.Products)
		r.Get("/plans", catalog.Plans)
		r.Get("/pickup-points", pickups.List)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))

			r.Get("/session", auth.Session)
			r.Delete("/session", auth.Logout)
			r.Patch("/profile", auth.UpdateProfile)

			r.Get("/subscriptions", subscriptions.List)
			r.Get("/subscriptions/{id}", subscriptions.Get)
			r.Post("/subscriptions/{id}/pause", subscriptions.Action(lifecycle.ActionPause))
			r.Post("/subscriptions/{id}/resume", subscriptions.Action(lifecycle.ActionResume))
			r.Post("/subscriptions/{id}/cancel", subscriptions.Action(lifecycle.ActionCancel))
			r.Get("/orders", subscriptions.Orders)

			r.Get("/deliveries", deliveries.List)
			r.Post("/deliveries/{id}/skip", deliveries.Skip)
			r.Post("/deliveries/{id}/reschedule", deliveries.Reschedule)
			r.With(middlewarectx.RequireRole(logger, models.RoleAdmin, models.RoleOperator)).
				Post("/deliveries/{id}/dispatch", deliveries.Dispatch)

			r.Post("/pickup-points/{id}/bookings", pickups.Book)

			r.Get("/tickets", tickets.List)
			r.Post("/tickets", tickets.Create)
			r.Get("/tickets/{id}", tickets.Get)
			r.Post("/tickets/{id}/messages", tickets.Reply)
			r.With(middlewarectx.RequireRole(logger, models.RoleAdmin, models.RoleSupport)).
				Put("/tickets/{id}/status", tickets.SetStatus)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin, models.RoleEditor))
				r.Get("/plans/all", catalog.AllPlans)
				r.Get("/plans/quote", catalog.Quote)
				r.Post("/plans", catalog.CreatePlan)
				r.Put("/plans/{id}", catalog.UpdatePlan)

				r.Get("/notifications", notifications.List)
				r.Post("/notifications", notifications.Create)
				r.Put("/notifications/{id}", notifications.Update)
				r.Post("/notifications/{id}/schedule", notifications.Schedule)
				r.Post("/notifications/{id}/send", notifications.Send)
			})

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))
				r.Get("/staff", staff.List)
				r.Post("/staff", staff.Create)
				r.Put("/staff/{id}", staff.Update)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
