// Package logx wraps zerolog behind a small structured-logging API.
//
// The Service owns the configured sinks (console, file, optional Telegram
// mirror) and supports live reconfiguration via Apply(). Loggers derived
// from the Service stay valid across Apply() calls. The zero-value Logger
// is a safe no-op.
package logx
