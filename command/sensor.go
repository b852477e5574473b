package command

import "fmt"

// Sensor (did=24): v1 bitmask streaming, v2 slotted streaming service,
// collision detection, locator, gyro/accelerometer thresholds, color
// detection.
var (
	SetSensorStreamingMask         = Method{DIDSensor, 0}
	GetSensorStreamingMask         = Method{DIDSensor, 1}
	SetExtendedSensorStreamingMask = Method{DIDSensor, 12}
	GetExtendedSensorStreamingMask = Method{DIDSensor, 13}
	EnableGyroMaxNotify            = Method{DIDSensor, 15}
	ConfigureCollisionDetection    = Method{DIDSensor, 17}
	ResetLocatorXAndY              = Method{DIDSensor, 19}
	SetLocatorFlags                = Method{DIDSensor, 23}
	EnableColorDetectionNotify     = Method{DIDSensor, 53}
	GetCurrentDetectedColorReading = Method{DIDSensor, 55}
	EnableColorDetection           = Method{DIDSensor, 56}
	ConfigureStreamingService      = Method{DIDSensor, 57}
	StartStreamingService          = Method{DIDSensor, 58}
	StopStreamingService           = Method{DIDSensor, 59}
	ClearStreamingService          = Method{DIDSensor, 60}
)

var (
	SensorStreamingDataNotify  = Notifier{Method: Method{DIDSensor, 2}, Lift: liftSensorStreamingData}
	GyroMaxNotify              = Notifier{Method: Method{DIDSensor, 16}}
	CollisionDetectedNotify    = Notifier{Method: Method{DIDSensor, 18}, Lift: liftCollisionDetected}
	ColorDetectionNotify       = Notifier{Method: Method{DIDSensor, 54}}
	StreamingServiceDataNotify = Notifier{Method: Method{DIDSensor, 61}}
)

// EncodeSetSensorStreamingMask packs [interval:u16, count:u8, mask:u32].
func EncodeSetSensorStreamingMask(interval uint16, count byte, mask uint32) []byte {
	out := be16(interval)
	out = append(out, count)
	out = append(out, be32(mask)...)
	return out
}

// EncodeSetExtendedSensorStreamingMask packs [mask:u32].
func EncodeSetExtendedSensorStreamingMask(mask uint32) []byte { return be32(mask) }

// EncodeConfigureCollisionDetection packs
// [method, x_th, y_th, x_spd, y_spd, dead_time].
func EncodeConfigureCollisionDetection(method, xThreshold, yThreshold, xSpeed, ySpeed, deadTime byte) []byte {
	return []byte{method, xThreshold, yThreshold, xSpeed, ySpeed, deadTime}
}

// CollisionDetectedEvent is the lifted form of CollisionDetectedNotify:
// accelerations (g), axis flags, power readings and a timestamp in
// seconds.
type CollisionDetectedEvent struct {
	Accel   [3]float32 // x, y, z
	XAxis   bool
	YAxis   bool
	Power   [3]int16 // x, y, z
	Time    float32  // seconds
}

// liftCollisionDetected unpacks >3h B 3h B L: three int16 accelerations
// (divided by 4096), a mask byte (bit0 = x axis, bit1 = y axis), three
// int16 power readings, a mask byte (unused/reserved), and a uint32
// time (divided by 1000 to produce seconds).
func liftCollisionDetected(b []byte) (any, error) {
	const wantLen = 18 // 3×int16 + byte + 3×int16 + byte + uint32
	if len(b) < wantLen {
		return nil, fmt.Errorf("command: collision payload too short: %d bytes", len(b))
	}
	readI16 := func(off int) int16 { return int16(readBE16(b[off : off+2])) }
	var ev CollisionDetectedEvent
	ev.Accel[0] = float32(readI16(0)) / 4096
	ev.Accel[1] = float32(readI16(2)) / 4096
	ev.Accel[2] = float32(readI16(4)) / 4096
	axisMask := b[6]
	ev.XAxis = axisMask&0x01 != 0
	ev.YAxis = axisMask&0x02 != 0
	ev.Power[0] = readI16(7)
	ev.Power[1] = readI16(9)
	ev.Power[2] = readI16(11)
	// b[13] is a reserved byte, not surfaced.
	ev.Time = float32(readBE32(b[14:18])) / 1000
	return ev, nil
}

// StreamingServiceData is the lifted form of StreamingServiceDataNotify:
// a slot token (low nibble = slot index) and the raw payload for the
// streaming controller to decode against its slot configuration.
type StreamingServiceData struct {
	Token   byte
	Payload []byte
}

func liftSensorStreamingData(b []byte) (any, error) {
	return b, nil
}
