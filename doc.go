// Package authhttp provides a high-level HTTP client for APIs protected by
// bearer tokens.
//
// The package glues the credential stores defined in client/auth/store with the
// refresh-coordinating RoundTripper from client/auth/transport and convenience
// configuration structures. In practice it exposes one primary entry-point:
//
//	New – returns a client that authenticates every request with the stored
//	access token and transparently refreshes it when the API answers 401.
//
// Options can be populated from YAML files or environment variables, making it
// straightforward to pick an in-memory, file (afs) or Redis backed token store.
//
// Example:
//
//	cli, _ := authhttp.New(ctx, &authhttp.ClientOptions{BaseURL: "http://localhost:8000/api/v1"})
//	_, _ = cli.Login(ctx, "user@example.com", "secret-password")
//	resp, _ := cli.Get(ctx, "/profile/me")
//
// A refresh that cannot be recovered clears the stored tokens and notifies every
// OnSessionExpired subscriber so the application can send the user back to login.
package authhttp
