// Package logger builds *slog.Logger instances from functional options and
// decorates their handler so attributes stored in a context.Context are added
// to every record logged with that context.
//
// # Usage
//
//	log := logger.New(
//		logger.WithEnvironment(os.Getenv("APP_ENV"), "landlord"),
//		logger.WithContextExtractors(landlord.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "tenant resolved", logger.Domain(host), logger.TenantID(id))
//
// Attribute helpers in attr.go keep key names consistent across packages.
// Discard returns a logger for library code that was given none.
package logger
