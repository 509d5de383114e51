// Package logging defines the minimal structured-logging interface used
// across the service.
package logging

// Logger is a structured logger. The variadic args are key-value pairs:
//
//	log.Info("starting server", "addr", addr)
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}
