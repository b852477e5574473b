package command

import "spherogo.dev/protocol"

// SpheroLegacy (did=2): the classic "Sphero" command catalogue spoken
// by v1 toys. It is a wholly separate set of (did, cid) pairs from the
// v2 drive/sensor/io catalogues under did=22/24/26 above; a v1 toy
// never answers those.
var (
	LegacySetHeading           = Method{DIDSpheroLegacy, 1}
	LegacySetStabilization     = Method{DIDSpheroLegacy, 2}
	LegacySetDataStreaming     = Method{DIDSpheroLegacy, 17}
	LegacySetMainLED           = Method{DIDSpheroLegacy, 32}
	LegacySetBackLEDBrightness = Method{DIDSpheroLegacy, 33}
	LegacyRoll                 = Method{DIDSpheroLegacy, 48}
	LegacySetRawMotors         = Method{DIDSpheroLegacy, 51}
)

// LegacyNotifier declares a v1 asynchronous notification route by its
// async id code: the classic protocol's ASYNC-marker frames carry no
// did/cid, only an id code, so this is a distinct keyspace from
// Notifier's (did, cid) pairs.
type LegacyNotifier struct {
	IDCode byte
	Lift   func(payload []byte) (any, error)
}

// Key returns the protocol.Key this notifier is dispatched under on
// the v1 wire.
func (n LegacyNotifier) Key() protocol.Key { return protocol.V1AsyncKey(n.IDCode) }

// LegacySensorStreamingDataNotify is async id code 3, carrying raw
// big-endian 16-bit samples for whichever sensor groups are currently
// enabled, in declaration order.
var LegacySensorStreamingDataNotify = LegacyNotifier{IDCode: 3, Lift: liftSensorStreamingData}

// LegacyRollMode selects the classic roll command's motion mode.
type LegacyRollMode byte

const (
	LegacyRollStop      LegacyRollMode = 0
	LegacyRollGo        LegacyRollMode = 1
	LegacyRollCalibrate LegacyRollMode = 2
)

// LegacyReverseFlag marks a classic roll as running in reverse, the
// only way direction is carried on the wire in this catalogue.
type LegacyReverseFlag byte

const (
	LegacyReverseOff LegacyReverseFlag = 0
	LegacyReverseOn  LegacyReverseFlag = 1
)

// EncodeLegacyRoll packs [speed, heading_be16, roll_mode, reverse_flag].
func EncodeLegacyRoll(speed byte, heading uint16, mode LegacyRollMode, reverse LegacyReverseFlag) []byte {
	out := []byte{speed}
	out = append(out, be16(heading)...)
	out = append(out, byte(mode), byte(reverse))
	return out
}

// EncodeLegacySetHeading packs a bare heading_be16, with no speed or
// mode byte.
func EncodeLegacySetHeading(heading uint16) []byte { return be16(heading) }

// EncodeLegacySetStabilization packs a single on/off byte.
func EncodeLegacySetStabilization(on bool) []byte {
	if on {
		return []byte{1}
	}
	return []byte{0}
}

// EncodeLegacySetRawMotors packs [left_mode, left_speed, right_mode, right_speed].
func EncodeLegacySetRawMotors(leftMode RawMotorMode, leftSpeed byte, rightMode RawMotorMode, rightSpeed byte) []byte {
	return []byte{byte(leftMode), leftSpeed, byte(rightMode), rightSpeed}
}

// EncodeLegacySetDataStreaming packs
// [interval:u16, num_samples_per_packet:u16, mask:u32, count:u8, extended_mask:u32].
func EncodeLegacySetDataStreaming(interval, numSamplesPerPacket uint16, mask uint32, count byte, extendedMask uint32) []byte {
	out := be16(interval)
	out = append(out, be16(numSamplesPerPacket)...)
	out = append(out, be32(mask)...)
	out = append(out, count)
	out = append(out, be32(extendedMask)...)
	return out
}

// EncodeLegacySetMainLED packs a bare [r, g, b] triple; unlike the v2
// io catalogue's all-LEDs commands, this one carries no mask.
func EncodeLegacySetMainLED(r, g, b byte) []byte { return []byte{r, g, b} }

// EncodeLegacySetBackLEDBrightness packs a single brightness byte for
// the white back-aiming light, addressed separately from the main LED.
func EncodeLegacySetBackLEDBrightness(brightness byte) []byte { return []byte{brightness} }
