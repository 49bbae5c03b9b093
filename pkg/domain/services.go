package domain

// Well-known service names resolved through the service registry.
const (
	ServiceSettings    = "settings_service"
	ServiceCache       = "cache_service"
	ServiceSharedCache = "shared_component_cache_service"
	ServiceVariable    = "variable_service"
	ServiceTracing     = "tracing_service"
	ServiceSocket      = "socket_service"
)
