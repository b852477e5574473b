// Package protocol implements the two generations of framed byte
// protocol spoken over a GATT characteristic: the classic "v1" API
// (SOP/ASYNC framed, no escaping) and the newer "v2" API (0x8D..0xD8
// delimited, byte-stuffed).
package protocol

import "fmt"

// Key correlates a sent request with its eventual response, or routes
// an unsolicited notification to its listeners. It is comparable and
// safe to use as a map key.
type Key struct {
	V2 bool
	A  byte // v2: device id.   v1: frame marker (sopMarker or asyncMarker).
	B  byte // v2: command id.  v1: sequence number (sync) or id code (async).
	C  byte // v2: sequence number. v1: unused.
}

func (k Key) String() string {
	if k.V2 {
		return fmt.Sprintf("v2(did=%#02x,cid=%#02x,seq=%#02x)", k.A, k.B, k.C)
	}
	return fmt.Sprintf("v1(marker=%#02x,val=%#02x)", k.A, k.B)
}

// Packet is the common interface implemented by every decoded frame,
// for both protocol generations.
type Packet interface {
	// Key identifies the request this packet answers, or the
	// notification route it belongs to.
	Key() Key
	// Data returns the packet's payload, excluding any framing,
	// checksum, or header bytes.
	Data() []byte
	// IsError reports whether the packet carries a non-success status
	// code, and the code itself.
	IsError() (byte, bool)
}

// DecodeError reports a malformed frame. The offending bytes are kept
// so callers can log them without needing to re-slice the original
// buffer.
type DecodeError struct {
	Reason string
	Bytes  []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: decode error: %s (%d bytes)", e.Reason, len(e.Bytes))
}

// checksum computes the one's-complement-style checksum shared by both
// protocol generations: 0xFF minus the sum of the given bytes, modulo
// 0x100.
func checksum(b []byte) byte {
	var sum int
	for _, v := range b {
		sum += int(v)
	}
	return byte(0xFF - (sum % 0x100))
}
