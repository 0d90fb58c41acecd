// Package bridge carries bus transactions over a byte stream (e.g. a
// serial port) between the logger and a bus adapter.
package bridge

// Every transaction is one request frame answered by one reply frame:
//
//	0xA5 | seq | code | len | payload[len] | sum
//
// sum is the low byte of the sum of seq, code, len and payload.
// A request (code 0x01) carries addr | nread | wbytes, a reply (code 0x81)
// carries status | rbytes and echoes the request seq.
//
// Replies are matched by seq. A reply for a later request fails all
// earlier pending requests with ErrNoReply. A corrupted frame is dropped
// and the parser waits for the next start byte.
