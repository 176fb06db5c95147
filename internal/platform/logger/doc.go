// Package logger provides structured logging setup and context helpers
// for carrying a request-scoped logger through call chains.
package logger
