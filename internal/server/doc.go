// Package server hosts the Fiber HTTP application and its middleware chain:
// panic recovery, request ids, the catch-all route into the content handler,
// and the error handler that turns escaped errors into fixed plain bodies.
// Content semantics live behind the ContentHandler interface so this package
// stays free of filesystem and cache knowledge; diagnostics routes under /-/
// are attached separately by internal/server/routes.
package server
