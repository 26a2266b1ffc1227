// Package auth issues and verifies HS256 bearer tokens and provides the
// HTTP middleware that puts the authenticated user ID into the request
// context. Downstream handlers read it back with UserIDFromContext.
package auth
