// Package httpserver runs an http.Handler until its context is cancelled,
// then drains in-flight requests within ShutdownTimeout.
package httpserver
