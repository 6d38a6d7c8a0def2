// internal/app/bootstrap/hooks.go
package bootstrap

import "github.com/dalemusser/waffle/app"

// Hooks runs the community hub server through WAFFLE's lifecycle, in order:
// config, validation, Mongo connect, schema, startup jobs, router, shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "communityhub",
	LoadConfig:     LoadConfig,
	ValidateConfig: ValidateConfig,
	ConnectDB:      ConnectDB,
	EnsureSchema:   EnsureSchema,
	Startup:        Startup,
	BuildHandler:   BuildHandler,
	Shutdown:       Shutdown,
}
