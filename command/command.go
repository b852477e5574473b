// Package command is the typed encoder/decoder catalogue: one function
// per (device-id, command-id) pair, plus notifier declarations that
// pair a notification route with a lifter turning raw bytes into a
// semantic event. Grounded cid-for-cid on the original command tables
// for core, power, drive, animatronic, sensor, io, system_info,
// connection, api_and_shell and system_mode.
package command

import (
	"encoding/binary"
	"fmt"
	"math"

	"spherogo.dev/protocol"
)

// Device IDs ("did" in the wire format).
const (
	DIDAPIAndShell  byte = 16
	DIDSystemInfo   byte = 17
	DIDSystemMode   byte = 18
	DIDPower        byte = 19
	DIDDrive        byte = 22
	DIDAnimatronic  byte = 23
	DIDSensor       byte = 24
	DIDConnection   byte = 25
	DIDIO           byte = 26
	DIDFactoryTest  byte = 31
	DIDBootloader   byte = 1
	DIDFirmware     byte = 29
	// DIDSpheroLegacy is the classic "Sphero" catalogue (roll,
	// set_heading, set_stabilization, set_raw_motors, set_data_streaming,
	// set_main_led) spoken only by v1 toys. It predates and is entirely
	// distinct from the v2 did=22/24/26 catalogues above.
	DIDSpheroLegacy byte = 2
)

// Method names one (did, cid) pair: the catalogue's unit of
// identification for capability lookups.
type Method struct {
	DID, CID byte
}

func (m Method) String() string { return fmt.Sprintf("(%d,%d)", m.DID, m.CID) }

// Target optionally pins a command to a specific on-robot processor.
// A nil *Target means "route as a free command".
type Target struct {
	// Ordinal is the processor's index, as declared by a toy model
	// (0 = primary, 1 = secondary, ...).
	Ordinal byte
}

// tid/sid formula from spec.md §3: tid = (1<<4) | processor_ordinal,
// sid = 0x01.
func (tg *Target) apply(p *protocol.V2Packet) {
	if tg == nil {
		return
	}
	p.Flags |= protocol.V2HasTargetID | protocol.V2HasSourceID
	p.TargetID = (1 << 4) | tg.Ordinal
	p.SourceID = 0x01
}

// BuildV2 constructs a v2 request packet for method, honouring an
// optional processor Target, and sets the sequence number the caller
// obtained from its transactor.
func BuildV2(m Method, seq byte, target *Target, payload []byte) protocol.V2Packet {
	p := protocol.V2Packet{
		Flags:   protocol.V2RequestsResponse,
		DID:     m.DID,
		CID:     m.CID,
		Seq:     seq,
		Payload: payload,
	}
	target.apply(&p)
	return p
}

// BuildV1 constructs a v1 request packet for method.
func BuildV1(m Method, seq byte, payload []byte) protocol.V1Request {
	return protocol.V1Request{
		DID:     m.DID,
		CID:     m.CID,
		Seq:     seq,
		Flags:   protocol.V1FlagAnswer,
		Payload: payload,
	}
}

// Notifier declares an asynchronous event route: (did, cid) with the
// wildcard sequence number, plus an optional lifter translating the
// raw payload into a semantic event.
type Notifier struct {
	Method Method
	Lift   func(payload []byte) (any, error)
}

// KeyV2 returns the protocol.Key this notifier is dispatched under on
// the v2 wire.
func (n Notifier) KeyV2() protocol.Key {
	return protocol.Key{V2: true, A: n.Method.DID, B: n.Method.CID, C: protocol.V2SeqWildcard}
}

// --- shared payload helpers ---

func be16(v uint16) []byte { b := make([]byte, 2); binary.BigEndian.PutUint16(b, v); return b }
func be32(v uint32) []byte { b := make([]byte, 4); binary.BigEndian.PutUint32(b, v); return b }

func readBE16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func readBE32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

func f32(v float32) []byte { return be32(math.Float32bits(v)) }
func readF32(b []byte) float32 { return math.Float32frombits(readBE32(b)) }

func errShortPayload(what string) error {
	return fmt.Errorf("command: %s payload too short", what)
}
