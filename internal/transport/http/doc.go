// Package http holds the HTTP handlers of the reconciliation service. They
// parse and validate requests, delegate to the services package and answer
// with JSON or RFC 7807 problems.
package http
