// Command hashpw generates the bcrypt hash the server reads from
// API_PASSWORD_HASH.
//
// The photo library server has no user accounts. When API_PASSWORD_HASH
// is set, every /api route requires the matching shared password as an
// Authorization: Bearer token; when unset, the API is open. This utility
// produces the hash without needing a running server or database.
//
// Usage:
//
//	hashpw
//
// The password is prompted for twice with echo disabled and never written
// anywhere; only the hash is printed. Passwords shorter than 6 characters
// are rejected.
package main
