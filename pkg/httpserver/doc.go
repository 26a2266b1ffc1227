// Package httpserver runs an http.Server with graceful shutdown and
// health probe handlers.
package httpserver
