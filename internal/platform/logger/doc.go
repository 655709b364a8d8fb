// Package logger provides structured logging functionality for the application.
//
// It utilizes Go's standard library log/slog package to implement structured JSON logging
// with configurable log levels. Request identifiers stored in a context are attached
// to every record logged with that context, so HTTP requests and the tasks they start
// can be correlated.
package logger
