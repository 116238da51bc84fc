// Package logger provides structured logging for the HAL client using
// zerolog.
//
// Loggers are scoped by component ("rest", "proxy", "client") and carry the
// request fields of the HAL exchange they describe (relation, href, method,
// status).
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("proxy")
//	log.Debug("following link", logger.Fields(logger.FieldRelation, "manager"))
package logger
