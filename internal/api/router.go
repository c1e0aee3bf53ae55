package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "hookd/internal/api/context"
	"hookd/internal/api/handlers"
	"hookd/internal/api/middleware"
)

type Dependencies struct {
	EndpointHandler *handlers.EndpointHandler
	EventHandler    *handlers.EventHandler
	ReceiverHandler *handlers.ReceiverHandler
	HealthHandler   *handlers.HealthHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	authMid := deps.AuthMiddleware

	// Endpoint registry
	router.POST("/api/v1/webhook_endpoints",
		chain(deps.EndpointHandler.Create, authMid.Handle))
	router.GET("/api/v1/webhook_endpoints",
		chain(deps.EndpointHandler.List, authMid.Handle))
	router.GET("/api/v1/webhook_endpoints/:endpoint_id",
		chain(deps.EndpointHandler.Get, authMid.Handle))
	router.PATCH("/api/v1/webhook_endpoints/:endpoint_id",
		chain(deps.EndpointHandler.Update, authMid.Handle))
	router.DELETE("/api/v1/webhook_endpoints/:endpoint_id",
		chain(deps.EndpointHandler.Delete, authMid.Handle))

	// Delivery test trigger and history
	router.POST("/api/v1/webhook_endpoints/:endpoint_id/test",
		chain(deps.EndpointHandler.Test, authMid.Handle))
	router.GET("/api/v1/webhook_endpoints/:endpoint_id/deliveries",
		chain(deps.EndpointHandler.ListDeliveries, authMid.Handle))

	// Event producer surface
	router.POST("/api/v1/events",
		chain(deps.EventHandler.Publish, authMid.Handle))

	// Sample receiver for conformance testing
	router.POST("/receiver", wrap(deps.ReceiverHandler.Receive))

	router.GET("/health", wrap(deps.HealthHandler.Check))

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
