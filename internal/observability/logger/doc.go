// Package logger provee un logger singleton basado en zap con helpers
// para campos estructurados estándar.
//
// Uso típico:
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Op("Login"))
//	log.Info("login ok", logger.Email(email))
//
// Los middlewares inyectan un logger "scoped" (request_id, method, path)
// en el contexto; From(ctx) lo recupera o cae al singleton.
package logger
