// Package transport implements an http.RoundTripper that attaches the stored
// bearer token to every outbound request and transparently recovers from
// `401 Unauthorized` by running a single coordinated token refresh, even when
// many requests are in flight at once.
//
// Requests failing authentication while a refresh is already underway join it
// as waiters; every waiter observes the same outcome and is replayed at most
// once with the new access token. A failed refresh clears the credential
// store and raises the session-expired callback.
//
// The RoundTripper can be used directly with an http.Client or through the
// higher-level client in the root package.
package transport
