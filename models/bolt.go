package models

import (
	"time"

	"spherogo.dev/command"
)

func boltSensors() []SensorGroup {
	return []SensorGroup{
		{Name: "accelerometer", Components: []SensorComponent{
			{Name: "x", Bit: 0x2000000, Min: -1, Max: 1},
			{Name: "y", Bit: 0x1000000, Min: -1, Max: 1},
			{Name: "z", Bit: 0x800000, Min: -1, Max: 1},
		}},
		{Name: "gyro", Components: []SensorComponent{
			{Name: "x", Bit: 0x8000, Min: -2000, Max: 2000},
			{Name: "y", Bit: 0x4000, Min: -2000, Max: 2000},
			{Name: "z", Bit: 0x2000, Min: -2000, Max: 2000},
		}},
		{Name: "locator", Components: []SensorComponent{
			{Name: "x", Bit: 0x40, Min: -32768, Max: 32767, Modifier: func(v float32) float32 { return v * 100 }},
			{Name: "y", Bit: 0x20, Min: -32768, Max: 32767, Modifier: func(v float32) float32 { return v * 100 }},
		}},
	}
}

func boltExtendedSensors() []SensorGroup {
	return []SensorGroup{
		{Name: "velocity", Components: []SensorComponent{
			{Name: "x", Bit: 0x2000000, Min: -20000, Max: 20000},
			{Name: "y", Bit: 0x1000000, Min: -20000, Max: 20000},
		}},
		{Name: "orientation", Components: []SensorComponent{
			{Name: "pitch", Bit: 0x40000, Min: -179, Max: 180},
			{Name: "roll", Bit: 0x20000, Min: -179, Max: 180},
			{Name: "yaw", Bit: 0x10000, Min: -179, Max: 180},
		}},
	}
}

// BOLT is the two-processor, v2 rolling toy: front and back RGB LEDs
// (its LED matrix is not in the roster), and the v2 slotted streaming
// surface including color detection (slot zero only, enforced by the
// streaming controller).
func BOLT() *Model {
	primary := &command.Target{Ordinal: byte(ProcessorPrimary)}
	m := &Model{
		Name:              "Sphero BOLT",
		FilterPrefix:      "BT-",
		Prefix:            "BT-",
		Generation:        GenV2,
		CmdSafeInterval:   60 * time.Millisecond,
		LEDs:              []string{"back_red", "back_green", "back_blue", "front_red", "front_green", "front_blue"},
		LEDMaskWidthBytes: 2,
		Sensors:           boltSensors(),
		ExtendedSensors:   boltExtendedSensors(),
		StreamingServices: []StreamingService{
			{Name: "accelerometer", Processor: ProcessorPrimary, Slot: 0, DataSize: StreamingThirtyTwoBit, Attributes: boltSensors()[0].Components},
			{Name: "gyro", Processor: ProcessorPrimary, Slot: 1, DataSize: StreamingSixteenBit, Attributes: boltSensors()[1].Components},
			{Name: "color_detection", Processor: ProcessorPrimary, Slot: 0, DataSize: StreamingEightBit, Attributes: []SensorComponent{
				{Name: "r", Bit: 0x1, Min: 0, Max: 255},
				{Name: "g", Bit: 0x2, Min: 0, Max: 255},
				{Name: "b", Bit: 0x4, Min: 0, Max: 255},
			}},
		},
		Implemented: map[command.Method]Routing{
			command.SetRawMotors:               {Target: primary},
			command.ResetYaw:                   {Target: primary},
			command.DriveWithHeading:            {Target: primary},
			command.SetStabilization:            {Target: primary},
			command.SetAllLEDsWith16BitMask:     {},
			command.SetSensorStreamingMask:       {Target: primary},
			command.ConfigureCollisionDetection:  {Target: primary},
			command.ResetLocatorXAndY:            {Target: primary},
			command.EnableColorDetection:          {Target: primary},
			command.GetCurrentDetectedColorReading: {Target: primary},
			command.ConfigureStreamingService:     {Target: primary},
			command.StartStreamingService:          {Target: primary},
			command.StopStreamingService:           {Target: primary},
			command.ClearStreamingService:          {Target: primary},
			command.GetPowerState:                  {},
			command.GetVersions:                    {},
			command.Sleep:                          {},
		},
	}
	return m
}
