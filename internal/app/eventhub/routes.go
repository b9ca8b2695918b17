// Package eventhub собирает HTTP API: маршруты, middleware и зависимости обработчиков.
package eventhub

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация swagger-спецификации для /docs.
	_ "github.com/magabrotheeeer/eventhub/docs"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/checkin"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/events/attendees"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/events/byslug"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/events/categories"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/events/create"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/events/dashboard"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/events/featured"
	myevents "github.com/magabrotheeeer/eventhub/internal/http/handlers/events/mine"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/events/nearby"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/events/popular"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/events/remove"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/health"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/registrations/cancel"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/registrations/check"
	myregistrations "github.com/magabrotheeeer/eventhub/internal/http/handlers/registrations/mine"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/registrations/register"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/users/me"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/users/onboarding"
	"github.com/magabrotheeeer/eventhub/internal/http/handlers/users/upgrade"
	"github.com/magabrotheeeer/eventhub/internal/http/middlewarectx"
	checkinservice "github.com/magabrotheeeer/eventhub/internal/services/checkin"
	eventsservice "github.com/magabrotheeeer/eventhub/internal/services/events"
	registrationsservice "github.com/magabrotheeeer/eventhub/internal/services/registrations"
	usersservice "github.com/magabrotheeeer/eventhub/internal/services/users"
)

// Services набор сервисов бизнес-логики, которые обслуживает API.
type Services struct {
	Users         *usersservice.UserService
	Events        *eventsservice.EventService
	Registrations *registrationsservice.RegistrationService
	CheckIn       *checkinservice.CheckInService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	svc Services,
	tokens middlewarectx.TokenParser,
	limiter *middlewarectx.RateLimiter,
	db health.Pinger,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(tokens, svc.Users, logger))
			limited := r.With(middlewarectx.RateLimitMiddleware(limiter, logger))

			r.Get("/users/me", me.New(logger, svc.Users).ServeHTTP)
			r.Post("/users/me/onboarding", onboarding.New(logger, svc.Users).ServeHTTP)
			r.Post("/users/me/pro", upgrade.New(logger, svc.Users).ServeHTTP)

			r.Post("/events", create.New(logger, svc.Events).ServeHTTP)
			r.Get("/events/mine", myevents.New(logger, svc.Events).ServeHTTP)
			r.Get("/events/by-slug/{slug}", byslug.New(logger, svc.Events).ServeHTTP)
			r.Get("/events/featured", featured.New(logger, svc.Events).ServeHTTP)
			r.Get("/events/nearby", nearby.New(logger, svc.Events).ServeHTTP)
			r.Get("/events/popular", popular.New(logger, svc.Events).ServeHTTP)
			r.Get("/events/categories", categories.New(logger, svc.Events).ServeHTTP)
			r.Delete("/events/{id}", remove.New(logger, svc.Events).ServeHTTP)
			r.Get("/events/{id}/dashboard", dashboard.New(logger, svc.Events).ServeHTTP)
			r.Get("/events/{id}/registrations", attendees.New(logger, svc.Events).ServeHTTP)

			r.Get("/events/{id}/registration", check.New(logger, svc.Registrations).ServeHTTP)
			limited.Post("/events/{id}/registrations", register.New(logger, svc.Registrations).ServeHTTP)
			r.Delete("/registrations/{id}", cancel.New(logger, svc.Registrations).ServeHTTP)
			r.Get("/registrations/mine", myregistrations.New(logger, svc.Registrations).ServeHTTP)

			limited.Post("/checkins", checkin.New(logger, svc.CheckIn).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
