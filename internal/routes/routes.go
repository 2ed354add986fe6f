package routes

import (
	"github.com/folio-org/mod-login-sub000/internal/handlers"
	"github.com/folio-org/mod-login-sub000/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	loginHandler *handlers.LoginHandler,
	passwordHandler *handlers.PasswordHandler,
	attemptsHandler *handlers.AttemptsHandler,
) {
	// Rate limiting config for the login endpoint
	rateLimitConfig := middleware.DefaultLoginRateLimit()

	// All routes require a tenant
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireTenant)

		r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/login", loginHandler.Login)

		r.Post("/password/update", passwordHandler.UpdatePassword)
		r.Post("/password/action", passwordHandler.CreateAction)
		r.Post("/password/reset", passwordHandler.ResetPassword)
		r.Post("/password/repeatable", passwordHandler.CheckRepeatable)

		r.Get("/attempts/{userId}", attemptsHandler.GetAttempts)
		r.Delete("/credentials/{userId}", attemptsHandler.DeleteCredential)
	})
}
