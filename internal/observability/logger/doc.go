// Package logger expone un logger Zap singleton con scoping por contexto.
//
// Inicialización (una vez, en cmd/):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
// En controllers/services:
//
//	log := logger.From(ctx).With(logger.Component("script"))
//	log.Info("script compiled", logger.Count(len(ops)))
//
// El middleware de logging inyecta en el contexto un logger con
// request_id, method y path, así que From(ctx) ya los trae.
package logger
