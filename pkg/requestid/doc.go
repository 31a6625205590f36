// Package requestid tags every HTTP request with a correlation ID.
//
// The ID is taken from the X-Request-ID header when it is well formed,
// otherwise a UUID is generated. It is echoed in the response header and
// stored with logger.WithRequestID, so every log record written while
// serving the request, including delivery attempts, carries request_id.
package requestid
