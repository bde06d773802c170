// Package server runs the SCiPnet terminal daemon: the TCP accept loop,
// per-connection session handling (authentication then file access), and the
// clearance policy that decides granted / redacted / expunged responses.
package server
