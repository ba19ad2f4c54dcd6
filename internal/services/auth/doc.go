// Package auth implements account registration, login, and the bearer token
// verification every table operation is gated on.
//
// Identity is the only persisted state in the system: users live in SQLite,
// tokens are short-lived HMAC-signed JWTs carrying the subject id.
package auth
