// Package store defines the credential store holding the access/refresh token
// pair used by the authorization transport in the sibling `transport` package.
//
// It ships with an in-memory implementation that is sufficient for most CLI or
// unit-test scenarios, an afs-backed file store that survives process restarts
// and a Redis store that lets several processes share one session.
package store
