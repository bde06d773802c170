// Package protocol owns the scipnet wire contract.
//
// Ownership boundary:
// - message type and schema registry
// - payload validation primitives
// - envelope builder and codec
// - framed send/receive over a stream connection
package protocol
