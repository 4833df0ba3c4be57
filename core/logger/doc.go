// Package logger builds the zap logger shared by the server, the engine and
// the transports.
//
// Level debug selects zap's development preset (ISO8601 times, caller); any
// other level uses the production preset at that level, falling back to info
// for unknown names. Format console is meant for terminals and the replay and
// export commands; json is the default for the long-running server.
//
// HTTP handlers log through WithRayID so that lines for one request share the
// ray_id set by the rayid middleware:
//
//	logg, _ := logger.New(&cfg.Log)
//	engine := reconcile.NewEngine(reconcile.Config{Logger: logg})
//
//	l := logger.WithRayID(logg, c)
//	l.Warn("Webhook rejected", zap.Error(err))
package logger
