// Package rest serves the composed GraphQL schema over HTTP.
package rest

import (
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"graphgate/application/ports"
	"graphgate/infrastructure/persistence/connection"
	"graphgate/interfaces/graphql/federation"
	"graphgate/interfaces/http/rest/handlers"
	"graphgate/interfaces/http/rest/middleware"
	apperrors "graphgate/pkg/errors"
	"graphgate/pkg/observability"
)

// Options selects the optional surfaces of the router.
type Options struct {
	EnablePlayground bool
	EnableCORS       bool
	CORSOrigins      []string
	Debug            bool
	ReadyTimeout     time.Duration
}

// Router creates and configures the HTTP router
type Router struct {
	schema    *federation.Schema
	conns     connection.Manager[ports.Store]
	collector *observability.Collector
	logger    *zap.Logger
	opts      Options
}

// NewRouter creates a new router instance. collector may be nil, which
// disables /metrics and request metrics.
func NewRouter(
	schema *federation.Schema,
	conns connection.Manager[ports.Store],
	collector *observability.Collector,
	logger *zap.Logger,
	opts Options,
) *Router {
	return &Router{
		schema:    schema,
		conns:     conns,
		collector: collector,
		logger:    logger,
		opts:      opts,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.collector != nil {
		router.Use(middleware.Metrics(rt.collector))
	}

	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	errorHandler := apperrors.NewErrorHandler(rt.logger, rt.opts.Debug)

	health := handlers.NewHealthHandler(rt.conns, rt.opts.ReadyTimeout, errorHandler, rt.logger)
	router.Get("/health", health.Health)
	router.Get("/ready", health.Ready)

	var recorder handlers.ErrorRecorder
	if rt.collector != nil {
		recorder = rt.collector
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	router.Method(http.MethodPost, "/graphql", handlers.NewGraphQLHandler(rt.schema, errorHandler, recorder, rt.logger))

	if rt.opts.EnablePlayground {
		router.Method(http.MethodGet, "/playground", playground.Handler("graphgate", "/graphql"))
	}

	return router
}
