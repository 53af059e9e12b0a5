// Package logger builds the service's slog loggers: JSON to stdout, an
// optional Sentry fan-out for warnings and errors, and context extractors
// that stamp request-scoped attributes (request id) onto every record.
package logger
