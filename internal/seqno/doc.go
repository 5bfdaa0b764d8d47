// Package seqno generates the sequence numbers stamped on outgoing protocol
// messages.
//
// The low bit of a sequence number tells the remote peer whether the message
// carries content (1) or is acknowledgment/control traffic (0). The remaining
// bits count the content-related messages sent before it:
//
//	seq = 2*sent + 1   // content-related; sent is then incremented
//	seq = 2*sent       // ack-only; no state change
//
// A fresh generator fed ack, content, content, ack yields 0, 1, 3, 4.
//
// The counter lives in memory only. A new process, or a call to Reset when a
// connection is re-established, starts counting from zero again.
package seqno
