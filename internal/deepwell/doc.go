// Package deepwell owns the record store behind the terminal server.
//
// Ownership boundary:
// - SQLite-backed users, sites, task forces, and SCP records
// - clearance level lookup (name + render colour)
// - access log writes
//
// The store hands normalized primitives to callers; it never touches the
// wire protocol.
package deepwell
