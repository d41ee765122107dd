// Package client talks to a gatekeeper server: the HTTP API for account
// operations and the gRPC endpoint for session checks. Transport failures
// are reported as ErrUnavailable; server refusals map to the other sentinel
// errors of this package.
package client
