// Package app wires the reconciliation service together: configuration,
// telemetry, the run manager and the HTTP router.
//
// # Initialization Flow
//
//	1. Resolve the run directories and create them
//	2. Initialize OpenTelemetry and the application instruments
//	3. Build the engine, run store and run manager
//	4. Create the services, handlers and middleware chain
//	5. Configure the HTTP server
//
// # Usage
//
//	app, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return app.Run(ctx)
//
// Run returns once ctx is cancelled and shutdown has finished. Active runs
// are cancelled during shutdown and websocket subscribers are disconnected.
// The package never calls os.Exit.
package app
