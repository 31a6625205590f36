// Package handler adapts typed request handlers to net/http for the JSON
// API.
//
// A handler receives a bound request value and returns a Response:
//
//	func dispatchEvent(ctx handler.Context, ev dispatch.Event) handler.Response {
//		res := engine.Dispatch(ctx, ev)
//		return handler.JSON(res)
//	}
//
//	r.Post("/v1/dispatch", handler.Wrap(dispatchEvent,
//		handler.WithBinders[dispatch.Event](handler.BindJSON),
//	))
//
// Every response uses the same envelope:
//
//	{"data": ..., "meta": ..., "error": {"code": "...", "message": "...", "details": {...}}}
//
// Errors are mapped to status codes by type: HTTPError carries its own code,
// ValidationError becomes 422 and anything else is a 500 whose message is
// not exposed to the client.
package handler
