// Package redis connects to a Redis server with retries and exposes a
// health probe. It is used for caching usage counter results so that
// feature gate checks do not hit PostgreSQL on every request.
package redis
