// Package logger builds slog loggers with environment presets and
// context-aware attribute injection.
//
// A service usually constructs one logger at startup:
//
//	log := logger.New(logger.WithProduction("bookingkit"))
//
// or from environment configuration:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log := logger.NewFromConfig(cfg)
//
// Attribute helpers (logger.Error, logger.UserID, logger.Feature, ...)
// keep log field names consistent across services.
package logger
