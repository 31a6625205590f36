package handler

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Context is what a HandlerFunc receives. It is the request's
// context.Context, so it can be passed straight to the dispatcher and
// stores, plus access to the raw request and writer.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	// RequestID returns the id assigned by the request id middleware, or "".
	RequestID() string
}

// NewContext binds a request and its writer. The context is captured once;
// later changes to r's context are not observed.
func NewContext(w http.ResponseWriter, r *http.Request) Context {
	return &requestContext{Context: r.Context(), w: w, r: r}
}

type requestContext struct {
	context.Context
	w http.ResponseWriter
	r *http.Request
}

func (c *requestContext) Request() *http.Request {
	return c.r
}

func (c *requestContext) ResponseWriter() http.ResponseWriter {
	return c.w
}

func (c *requestContext) RequestID() string {
	return logger.RequestIDFromContext(c.Context)
}
