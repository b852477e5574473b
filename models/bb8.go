package models

import (
	"time"

	"spherogo.dev/command"
)

// bb8Sensors is the classic Sphero's base sensor table: attitude,
// accelerometer, gyroscope, and the back EMF pair from the drive
// motors' own feedback.
func bb8Sensors() []SensorGroup {
	return []SensorGroup{
		{Name: "attitude", Components: []SensorComponent{
			{Name: "pitch", Bit: 0x40000, Min: -179, Max: 180},
			{Name: "roll", Bit: 0x20000, Min: -179, Max: 180},
			{Name: "yaw", Bit: 0x10000, Min: -179, Max: 180},
		}},
		{Name: "accelerometer", Components: []SensorComponent{
			{Name: "x", Bit: 0x8000, Min: -32768, Max: 32767, Modifier: func(v float32) float32 { return v / 4096 }},
			{Name: "y", Bit: 0x4000, Min: -32768, Max: 32767, Modifier: func(v float32) float32 { return v / 4096 }},
			{Name: "z", Bit: 0x2000, Min: -32768, Max: 32767, Modifier: func(v float32) float32 { return v / 4096 }},
		}},
		{Name: "gyroscope", Components: []SensorComponent{
			{Name: "x", Bit: 0x1000, Min: -20000, Max: 20000, Modifier: func(v float32) float32 { return v * 0.1 }},
			{Name: "y", Bit: 0x800, Min: -20000, Max: 20000, Modifier: func(v float32) float32 { return v * 0.1 }},
			{Name: "z", Bit: 0x400, Min: -20000, Max: 20000, Modifier: func(v float32) float32 { return v * 0.1 }},
		}},
		{Name: "back_emf", Components: []SensorComponent{
			{Name: "left", Bit: 0x40, Min: -32768, Max: 32767},
			{Name: "right", Bit: 0x20, Min: -32768, Max: 32767},
		}},
	}
}

func bb8ExtendedSensors() []SensorGroup {
	return []SensorGroup{
		{Name: "quaternion", Components: []SensorComponent{
			{Name: "x", Bit: 0x80000000, Min: -10000, Max: 10000, Modifier: func(v float32) float32 { return v / 10000 }},
			{Name: "y", Bit: 0x40000000, Min: -10000, Max: 10000, Modifier: func(v float32) float32 { return v / 10000 }},
			{Name: "z", Bit: 0x20000000, Min: -10000, Max: 10000, Modifier: func(v float32) float32 { return v / 10000 }},
			{Name: "w", Bit: 0x10000000, Min: -10000, Max: 10000, Modifier: func(v float32) float32 { return v / 10000 }},
		}},
		{Name: "locator", Components: []SensorComponent{
			{Name: "x", Bit: 0x8000000, Min: -32768, Max: 32767},
			{Name: "y", Bit: 0x4000000, Min: -32768, Max: 32767},
		}},
		{Name: "accel_one", Components: []SensorComponent{
			{Name: "accel_one", Bit: 0x2000000, Min: 0, Max: 8000},
		}},
		{Name: "velocity", Components: []SensorComponent{
			{Name: "x", Bit: 0x1000000, Min: -32768, Max: 32767, Modifier: func(v float32) float32 { return v * 0.1 }},
			{Name: "y", Bit: 0x800000, Min: -32768, Max: 32767, Modifier: func(v float32) float32 { return v * 0.1 }},
		}},
		{Name: "speed", Components: []SensorComponent{
			{Name: "speed", Bit: 0x400000, Min: 0, Max: 32767},
		}},
	}
}

// BB8 is the classic single-processor, v1 toy: a single-colour main
// body LED plus a white back-light aiming LED, no animatronic surface.
func BB8() *Model {
	m := &Model{
		Name:              "Sphero BB-8",
		FilterPrefix:      "BB-",
		Prefix:            "BB-",
		Generation:        GenV1,
		CmdSafeInterval:   60 * time.Millisecond,
		LEDs:              []string{"main_red", "main_green", "main_blue", "back_light"},
		LEDMaskWidthBytes: 2,
		Sensors:           bb8Sensors(),
		ExtendedSensors:   bb8ExtendedSensors(),
		Implemented: map[command.Method]Routing{
			command.LegacySetRawMotors:         {},
			command.LegacyRoll:                 {},
			command.LegacySetStabilization:     {},
			command.LegacySetMainLED:           {},
			command.LegacySetBackLEDBrightness: {},
			command.LegacySetDataStreaming:     {},
			command.GetPowerState:              {},
			command.GetVersions:                {},
			command.Sleep:                      {},
		},
	}
	return m
}
