// Package clientip resolves the address of the caller behind reverse
// proxies and keeps it on the request context.
//
// Headers are consulted in order and the first one holding a valid address
// wins; RemoteAddr is the fallback. Only trust forwarding headers that your
// edge proxy overwrites.
//
//	r.Use(clientip.Middleware(clientip.DefaultHeaders...))
//	...
//	ip := clientip.FromContext(r.Context())
package clientip
