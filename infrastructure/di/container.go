package di

import (
	"go.uber.org/zap"

	"graphgate/application/ports"
	"graphgate/infrastructure/config"
	"graphgate/infrastructure/persistence/connection"
	"graphgate/interfaces/graphql/federation"
	"graphgate/interfaces/http/rest"
	"graphgate/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	LogLevel  zap.AtomicLevel
	Collector *observability.Collector
	Tracer    *observability.Tracer
	Conns     connection.Manager[ports.Store]
	Schema    *federation.Schema
	Router    *rest.Router
	Watcher   *config.Watcher
}
