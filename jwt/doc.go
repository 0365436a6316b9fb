// Package jwt provides client-side decoding of session token claims.
//
// The session token is an opaque bearer credential issued by the external
// identity provider. The client never verifies signatures — it holds no
// verification keys and token validity is enforced server-side on every
// request. What the client does need is a one-time, cached extraction of the
// subject identity and expiry so that authentication-state queries never
// re-read storage or re-parse the token.
//
// # Fail-closed contract
//
// A token whose claims cannot be decoded yields nil claims, a zero identity,
// and an "expired" answer from [SessionClaims.Expired]. Query paths never
// panic or propagate parse errors to opportunistic callers.
//
// # What this package must NOT do
//
//   - Verify signatures or make trust decisions.
//   - Import any other package in this module (it is a leaf).
package jwt
