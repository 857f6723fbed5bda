// Package mock provides an in-process API server that issues, rotates and
// validates bearer tokens the way the real backend does, so the client-side
// refresh flow can be exercised end to end without external services.
//
// Tests can expire access tokens or revoke refresh tokens at any point to
// simulate session expiry.
package mock
