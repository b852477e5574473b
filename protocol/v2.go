package protocol

// v2 implements the newer, delimited-and-escaped framing used by the
// second generation command API. Grounded on
// original_source/spherov2/packet.py's Packet/Flags/Encoding/Collector
// classes.

const (
	v2Start  byte = 0x8D
	v2End    byte = 0xD8
	v2Escape byte = 0xAB

	v2EscEscape byte = 0x23
	v2EscStart  byte = 0x05
	v2EscEnd    byte = 0x50
)

// V2Flags is the single flags byte carried by every v2 packet.
type V2Flags byte

const (
	V2IsResponse               V2Flags = 0b00000001
	V2RequestsResponse         V2Flags = 0b00000010
	V2RequestsOnlyErrorResponse V2Flags = 0b00000100
	V2IsActivity               V2Flags = 0b00001000
	V2HasTargetID              V2Flags = 0b00010000
	V2HasSourceID              V2Flags = 0b00100000
	V2ExtendedFlags            V2Flags = 0b10000000
)

// V2Packet is a single frame of the newer wire protocol, covering
// requests, synchronous responses and asynchronous notifications
// alike; which one it is is determined by its Flags.
type V2Packet struct {
	Flags    V2Flags
	TargetID byte // valid only if Flags&V2HasTargetID != 0.
	SourceID byte // valid only if Flags&V2HasSourceID != 0.
	DID, CID byte
	Seq      byte
	ErrCode  byte // valid only if Flags&V2IsResponse != 0.
	Payload  []byte
}

func (p V2Packet) rawPayload() []byte {
	out := make([]byte, 0, 7+len(p.Payload))
	out = append(out, byte(p.Flags))
	if p.Flags&V2HasTargetID != 0 {
		out = append(out, p.TargetID)
	}
	if p.Flags&V2HasSourceID != 0 {
		out = append(out, p.SourceID)
	}
	out = append(out, p.DID, p.CID, p.Seq)
	if p.Flags&V2IsResponse != 0 {
		out = append(out, p.ErrCode)
	}
	out = append(out, p.Payload...)
	return out
}

// Build encodes the packet, including byte-stuffing and start/end
// delimiters, ready to write to the device characteristic.
func (p V2Packet) Build() []byte {
	raw := p.rawPayload()
	raw = append(raw, checksum(raw))
	out := make([]byte, 0, len(raw)*2+2)
	out = append(out, v2Start)
	out = append(out, escapeV2(raw)...)
	out = append(out, v2End)
	return out
}

func escapeV2(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		switch b {
		case v2Escape:
			out = append(out, v2Escape, v2EscEscape)
		case v2Start:
			out = append(out, v2Escape, v2EscStart)
		case v2End:
			out = append(out, v2Escape, v2EscEnd)
		default:
			out = append(out, b)
		}
	}
	return out
}

// Key identifies the response this packet answers (for a request) or
// was sent in answer to (for a response); notification listeners key
// on the same (did, cid) pair with a wildcard sequence number.
func (p V2Packet) Key() Key {
	return Key{V2: true, A: p.DID, B: p.CID, C: p.Seq}
}

func (p V2Packet) Data() []byte { return p.Payload }

func (p V2Packet) IsError() (byte, bool) {
	if p.Flags&V2IsResponse == 0 {
		return 0, false
	}
	return p.ErrCode, p.ErrCode != 0x00
}

// V2SeqWildcard is the sequence number used to key notification
// listeners, since notifications do not correlate to any particular
// request sequence number.
const V2SeqWildcard byte = 0xFF

// V2Collector accumulates bytes arriving from the notification
// characteristic, undoing the escape encoding and yielding complete
// frames as it finds matched start/end delimiters.
type V2Collector struct {
	buf []byte
}

// Add feeds newly-received bytes into the collector and returns every
// complete packet decoded so far.
func (c *V2Collector) Add(data []byte) ([]Packet, error) {
	c.buf = append(c.buf, data...)
	var out []Packet
	for {
		p, consumed, err := c.tryParse()
		if err != nil {
			c.buf = nil
			return out, err
		}
		if consumed == 0 {
			break
		}
		c.buf = c.buf[consumed:]
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *V2Collector) tryParse() (Packet, int, error) {
	buf := c.buf
	i := 0
	for i < len(buf) && buf[i] != v2Start {
		i++
	}
	if i == len(buf) {
		return nil, i, nil
	}
	start := i
	i++
	var raw []byte
	for i < len(buf) {
		switch buf[i] {
		case v2End:
			frame, err := decodeV2Raw(raw)
			if err != nil {
				return nil, 0, err
			}
			return frame, i + 1, nil
		case v2Escape:
			if i+1 >= len(buf) {
				return nil, start, nil // wait for more data.
			}
			var b byte
			switch buf[i+1] {
			case v2EscEscape:
				b = v2Escape
			case v2EscStart:
				b = v2Start
			case v2EscEnd:
				b = v2End
			default:
				return nil, 0, &DecodeError{Reason: "v2 invalid escape sequence", Bytes: buf[i : i+2]}
			}
			raw = append(raw, b)
			i += 2
		default:
			raw = append(raw, buf[i])
			i++
		}
	}
	// Ran out of data mid-frame: wait for more.
	return nil, start, nil
}

func decodeV2Raw(raw []byte) (V2Packet, error) {
	const minLen = 5 // flags, did, cid, seq, checksum: the smallest possible frame (no target/source id, no error byte).
	if len(raw) < minLen {
		return V2Packet{}, &DecodeError{Reason: "v2 frame too short", Bytes: raw}
	}
	want := checksum(raw[:len(raw)-1])
	if got := raw[len(raw)-1]; got != want {
		return V2Packet{}, &DecodeError{Reason: "v2 checksum mismatch", Bytes: raw}
	}
	body := raw[:len(raw)-1]
	var p V2Packet
	p.Flags = V2Flags(body[0])
	body = body[1:]
	if p.Flags&V2HasTargetID != 0 {
		if len(body) < 1 {
			return V2Packet{}, &DecodeError{Reason: "v2 frame missing target id", Bytes: raw}
		}
		p.TargetID = body[0]
		body = body[1:]
	}
	if p.Flags&V2HasSourceID != 0 {
		if len(body) < 1 {
			return V2Packet{}, &DecodeError{Reason: "v2 frame missing source id", Bytes: raw}
		}
		p.SourceID = body[0]
		body = body[1:]
	}
	if len(body) < 3 {
		return V2Packet{}, &DecodeError{Reason: "v2 frame missing did/cid/seq", Bytes: raw}
	}
	p.DID, p.CID, p.Seq = body[0], body[1], body[2]
	body = body[3:]
	if p.Flags&V2IsResponse != 0 {
		if len(body) < 1 {
			return V2Packet{}, &DecodeError{Reason: "v2 response frame missing error code", Bytes: raw}
		}
		p.ErrCode = body[0]
		body = body[1:]
	}
	p.Payload = append([]byte(nil), body...)
	return p, nil
}
