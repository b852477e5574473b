package protocol

// v1 implements the classic, unescaped framing: a fixed two-byte start
// marker followed by a small header, a length byte (or two, for
// notifications), the payload and a trailing checksum. Grounded on the
// documented Sphero v1 API framing (SOP1/SOP2, DID/CID/SEQ/DLEN, MRSP),
// matched against original_source/spherov2/controls/v1.py's Packet and
// Collector classes.

const (
	sopMarker   byte = 0xFF // sync response / outgoing request marker.
	asyncMarker byte = 0xFE // asynchronous notification marker.
)

// V1Flags controls how a request is framed in its SOP2 byte.
type V1Flags byte

const (
	V1FlagAnswer       V1Flags = 0x01
	V1FlagResetTimeout V1Flags = 0x02
)

// V1Request is an outgoing command in the classic protocol.
type V1Request struct {
	DID, CID, Seq byte
	Flags         V1Flags
	Payload       []byte
}

// Build encodes the request for writing to the device characteristic.
func (r V1Request) Build() []byte {
	dlen := byte(len(r.Payload) + 1)
	body := make([]byte, 0, 4+len(r.Payload)+1)
	body = append(body, r.DID, r.CID, r.Seq, dlen)
	body = append(body, r.Payload...)
	chk := checksum(body)
	out := make([]byte, 0, 2+len(body)+1)
	out = append(out, sopMarker, 0xFC|byte(r.Flags))
	out = append(out, body...)
	out = append(out, chk)
	return out
}

// Key identifies the response this request expects.
func (r V1Request) Key() Key {
	return Key{A: sopMarker, B: r.Seq}
}

// Data returns the outgoing payload; a request carries no response
// data of its own, but satisfying Packet lets Execute pass the
// request itself through as the keyed value it was built from.
func (r V1Request) Data() []byte { return r.Payload }

// IsError always reports no error: a request is never itself a
// failure response.
func (r V1Request) IsError() (byte, bool) { return 0, false }

// V1Response is a synchronous reply to a V1Request.
type V1Response struct {
	MRSP    byte
	Seq     byte
	Payload []byte
}

func (r V1Response) Key() Key          { return Key{A: sopMarker, B: r.Seq} }
func (r V1Response) Data() []byte      { return r.Payload }
func (r V1Response) IsError() (byte, bool) { return r.MRSP, r.MRSP != 0x00 }

// V1Async is an unsolicited notification in the classic protocol,
// routed by its ID code rather than a sequence number.
type V1Async struct {
	IDCode  byte
	Payload []byte
}

func (a V1Async) Key() Key          { return Key{A: asyncMarker, B: a.IDCode} }
func (a V1Async) Data() []byte      { return a.Payload }
func (a V1Async) IsError() (byte, bool) { return 0, false }

// V1AsyncKey returns the Key a v1 asynchronous notification with the
// given id code routes under, for registering a Subscribe callback
// against it ahead of time.
func V1AsyncKey(idCode byte) Key { return Key{A: asyncMarker, B: idCode} }

// V1Collector accumulates bytes arriving from the notification
// characteristic and yields complete frames as they close.
type V1Collector struct {
	buf []byte
}

// Add feeds newly-received bytes into the collector and returns every
// complete packet decoded so far. Malformed frames are reported as a
// DecodeError and the collector's buffer is reset, mirroring the
// classic library's behaviour of discarding a corrupt stream rather
// than trying to resynchronize byte-by-byte.
func (c *V1Collector) Add(data []byte) ([]Packet, error) {
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

func (c *V1Collector) tryParse() (Packet, int, error) {
	buf := c.buf
	// Resynchronize on the start marker, discarding noise in front of it.
	for len(buf) > 0 && buf[0] != sopMarker {
		buf = buf[1:]
	}
	skipped := len(c.buf) - len(buf)
	if len(buf) < 2 {
		return nil, skipped, nil
	}
	switch buf[1] {
	case sopMarker:
		if len(buf) < 5 {
			return nil, skipped, nil
		}
		mrsp, seq, dlen := buf[2], buf[3], buf[4]
		total := 5 + int(dlen)
		if len(buf) < total {
			return nil, skipped, nil
		}
		frame := buf[:total]
		payload := frame[5 : total-1]
		want := checksum(frame[2 : total-1])
		if got := frame[total-1]; got != want {
			return nil, 0, &DecodeError{Reason: "v1 sync response checksum mismatch", Bytes: frame}
		}
		return V1Response{MRSP: mrsp, Seq: seq, Payload: append([]byte(nil), payload...)}, skipped + total, nil
	case asyncMarker:
		if len(buf) < 5 {
			return nil, skipped, nil
		}
		idCode := buf[2]
		dlen := int(buf[3])<<8 | int(buf[4])
		total := 5 + dlen
		if dlen < 1 {
			return nil, 0, &DecodeError{Reason: "v1 async dlen underflow", Bytes: buf[:5]}
		}
		if len(buf) < total {
			return nil, skipped, nil
		}
		frame := buf[:total]
		payload := frame[5 : total-1]
		want := checksum(frame[2 : total-1])
		if got := frame[total-1]; got != want {
			return nil, 0, &DecodeError{Reason: "v1 async checksum mismatch", Bytes: frame}
		}
		return V1Async{IDCode: idCode, Payload: append([]byte(nil), payload...)}, skipped + total, nil
	default:
		return nil, 0, &DecodeError{Reason: "v1 unexpected start of packet 2", Bytes: buf[:2]}
	}
}
