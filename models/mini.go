package models

import (
	"time"

	"spherogo.dev/command"
)

func miniSensors() []SensorGroup {
	return []SensorGroup{
		{Name: "quaternion", Components: []SensorComponent{
			{Name: "x", Bit: 0x2000000, Min: -1, Max: 1},
			{Name: "y", Bit: 0x1000000, Min: -1, Max: 1},
			{Name: "z", Bit: 0x800000, Min: -1, Max: 1},
			{Name: "w", Bit: 0x400000, Min: -1, Max: 1},
		}},
		{Name: "attitude", Components: []SensorComponent{
			{Name: "pitch", Bit: 0x40000, Min: -179, Max: 180},
			{Name: "roll", Bit: 0x20000, Min: -179, Max: 180},
			{Name: "yaw", Bit: 0x10000, Min: -179, Max: 180},
		}},
		{Name: "accelerometer", Components: []SensorComponent{
			{Name: "x", Bit: 0x8000, Min: -8.19, Max: 8.19},
			{Name: "y", Bit: 0x4000, Min: -8.19, Max: 8.19},
			{Name: "z", Bit: 0x2000, Min: -8.19, Max: 8.19},
		}},
		{Name: "accel_one", Components: []SensorComponent{
			{Name: "accel_one", Bit: 0x200, Min: 0, Max: 8000},
		}},
		{Name: "locator", Components: []SensorComponent{
			{Name: "x", Bit: 0x40, Min: -32768, Max: 32767, Modifier: func(v float32) float32 { return v * 100 }},
			{Name: "y", Bit: 0x20, Min: -32768, Max: 32767, Modifier: func(v float32) float32 { return v * 100 }},
		}},
		{Name: "velocity", Components: []SensorComponent{
			{Name: "x", Bit: 0x10, Min: -32768, Max: 32767, Modifier: func(v float32) float32 { return v * 100 }},
			{Name: "y", Bit: 0x8, Min: -32768, Max: 32767, Modifier: func(v float32) float32 { return v * 100 }},
		}},
		{Name: "speed", Components: []SensorComponent{
			{Name: "speed", Bit: 0x4, Min: 0, Max: 32767},
		}},
		{Name: "core_time", Components: []SensorComponent{
			{Name: "core_time", Bit: 0x2, Min: 0, Max: 0},
		}},
	}
}

func miniExtendedSensors() []SensorGroup {
	return []SensorGroup{
		{Name: "gyroscope", Components: []SensorComponent{
			{Name: "x", Bit: 0x2000000, Min: -20000, Max: 20000},
			{Name: "y", Bit: 0x1000000, Min: -20000, Max: 20000},
			{Name: "z", Bit: 0x800000, Min: -20000, Max: 20000},
		}},
	}
}

// Mini is the compact, single-processor v2 rolling toy: no animatronic
// surface, a seven-LED roster (an aiming light plus separate main-body
// and user-programmable body colours).
func Mini() *Model {
	m := &Model{
		Name:            "Sphero Mini",
		FilterPrefix:    "SM-",
		Prefix:          "SM-",
		Generation:      GenV2,
		CmdSafeInterval: 60 * time.Millisecond,
		LEDs: []string{
			"aiming",
			"body_red", "body_green", "body_blue",
			"user_body_red", "user_body_green", "user_body_blue",
		},
		LEDMaskWidthBytes: 2,
		Sensors:           miniSensors(),
		ExtendedSensors:   miniExtendedSensors(),
		Implemented: map[command.Method]Routing{
			command.SetRawMotors:            {},
			command.ResetYaw:                {},
			command.DriveWithHeading:        {},
			command.SetStabilization:        {},
			command.SetAllLEDsWith16BitMask: {},
			command.SetSensorStreamingMask:  {},
			command.GetPowerState:           {},
			command.GetVersions:             {},
			command.Sleep:                   {},
		},
	}
	return m
}
