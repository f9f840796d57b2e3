// Package stores provides the route-history persistence layer for RouteNet.
// It is SQLite-backed; the default in-memory DSN keeps history scoped to
// the process lifetime, and operators can opt into a file-backed database.
package stores
