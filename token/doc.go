// Package token implements the token authority: issuance and verification
// of short-lived signed session claims, and generation, encoding, and
// verification of long-lived refresh credentials.
//
// # Claims tokens
//
// Claims are JWS compact tokens signed with HS256 under a shared secret.
// Every issued token carries a random jti so a revocation registry can key
// on it. Verification gates on both signature and expiry; an expired but
// correctly signed token is rejected.
//
// # Refresh credentials
//
// A refresh credential is a uuid session id plus 256 bits of entropy
// encoded base64url. Only the Argon2id hash of the secret ever leaves this
// package for persistence; the plaintext exists only in the return value
// handed to the caller. The wire format is "<session-id>.<secret>" — the
// separator cannot occur inside the canonical uuid encoding.
//
// # Architecture boundaries
//
// The authority is a leaf: it performs no I/O and persists nothing.
// Session storage, revocation, and rotation policy belong to the caller.
// Clock and entropy are injected capabilities so tests can substitute
// deterministic fakes.
package token
