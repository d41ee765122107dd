// Package cli implements the gatekeeper command-line client.
//
// Commands:
//
//	register           create an account and store its token
//	login [email]      sign in and store the token
//	logout             revoke the stored token and delete it
//	me                 show the signed-in user (HTTP)
//	whoami             show the signed-in user (gRPC)
//	status             check server health over gRPC
//
// The token is kept in the file given by -f.
package cli
