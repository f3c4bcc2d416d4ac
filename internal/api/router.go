package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "relayr/internal/api/context"
	"relayr/internal/api/handlers"
	"relayr/internal/api/middleware"
)

type Dependencies struct {
	WebhookHandler *handlers.WebhookHandler
	APIKeyHandler  *handlers.APIKeyHandler
	HealthHandler  *handlers.HealthHandler

	AuthMiddleware   *middleware.AuthMiddleware
	APIKeyMiddleware *middleware.APIKeyMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/health", wrap(deps.HealthHandler.Handle))

	authMid := deps.AuthMiddleware
	keyMid := deps.APIKeyMiddleware

	// Dashboard administration (session token)
	router.POST("/api/v1/webhooks", chain(deps.WebhookHandler.Create, authMid.Handle))
	router.GET("/api/v1/webhooks", chain(deps.WebhookHandler.List, authMid.Handle))
	router.GET("/api/v1/webhooks/:webhook_id", chain(deps.WebhookHandler.Get, authMid.Handle))
	router.PATCH("/api/v1/webhooks/:webhook_id", chain(deps.WebhookHandler.Update, authMid.Handle))
	router.DELETE("/api/v1/webhooks/:webhook_id", chain(deps.WebhookHandler.Delete, authMid.Handle))
	router.POST("/api/v1/webhooks/:webhook_id/test", chain(deps.WebhookHandler.Test, authMid.Handle))

	router.POST("/api/v1/keys", chain(deps.APIKeyHandler.Create, authMid.Handle))
	router.GET("/api/v1/keys", chain(deps.APIKeyHandler.List, authMid.Handle))
	router.PATCH("/api/v1/keys/:key_id", chain(deps.APIKeyHandler.Update, authMid.Handle))
	router.DELETE("/api/v1/keys/:key_id", chain(deps.APIKeyHandler.Delete, authMid.Handle))

	// Programmatic API (API key, rate limited)
	router.POST("/v1/webhooks",
		chain(deps.WebhookHandler.Create, keyMid.Handle, middleware.RequirePermission("webhooks:manage")))
	router.GET("/v1/webhooks",
		chain(deps.WebhookHandler.List, keyMid.Handle, middleware.RequirePermission("webhooks:read")))
	router.GET("/v1/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Get, keyMid.Handle, middleware.RequirePermission("webhooks:read")))
	router.PATCH("/v1/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Update, keyMid.Handle, middleware.RequirePermission("webhooks:manage")))
	router.DELETE("/v1/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Delete, keyMid.Handle, middleware.RequirePermission("webhooks:manage")))
	router.POST("/v1/webhooks/:webhook_id/test",
		chain(deps.WebhookHandler.Test, keyMid.Handle, middleware.RequirePermission("webhooks:manage")))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
