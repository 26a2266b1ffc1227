// Package pg wires up the PostgreSQL connection pool: pgxpool connection
// management with startup retries, goose migrations, health probes, and
// helpers for classifying common PostgreSQL errors.
package pg
