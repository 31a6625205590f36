// Package api exposes the dispatcher over HTTP.
//
//	POST /v1/dispatch          dispatch an event, returns dispatch.Result (always 200 for a decodable body)
//	POST /v1/templates/test    render and send one template to one address
//	GET  /v1/deliveries        delivery log of one business object
//	GET  /healthz              dependency health
//
// Routes under /v1 require a bearer token when one is configured.
package api
