package models

import (
	"time"

	"spherogo.dev/command"
)

// rvrLEDs is the 31-entry chassis LED roster, ordinal = mask bit.
var rvrLEDs = []string{
	"right_headlight_red", "right_headlight_green", "right_headlight_blue",
	"left_headlight_red", "left_headlight_green", "left_headlight_blue",
	"left_status_indication_red", "left_status_indication_green", "left_status_indication_blue",
	"right_status_indication_red", "right_status_indication_green", "right_status_indication_blue",
	"battery_door_rear_red", "battery_door_rear_green", "battery_door_rear_blue",
	"battery_door_front_red", "battery_door_front_green", "battery_door_front_blue",
	"power_button_front_red", "power_button_front_green", "power_button_front_blue",
	"power_button_rear_red", "power_button_rear_green", "power_button_rear_blue",
	"left_brakelight_red", "left_brakelight_green", "left_brakelight_blue",
	"right_brakelight_red", "right_brakelight_green", "right_brakelight_blue",
	"undercarriage_white",
}

func rvrSensors() []SensorGroup {
	return []SensorGroup{
		{Name: "accelerometer", Components: []SensorComponent{
			{Name: "x", Bit: 0x2000000, Min: -1, Max: 1},
			{Name: "y", Bit: 0x1000000, Min: -1, Max: 1},
			{Name: "z", Bit: 0x800000, Min: -1, Max: 1},
		}},
		{Name: "gyro", Components: []SensorComponent{
			{Name: "x", Bit: 0x8000, Min: -8.19, Max: 8.19},
			{Name: "y", Bit: 0x4000, Min: -8.19, Max: 8.19},
			{Name: "z", Bit: 0x2000, Min: -8.19, Max: 8.19},
		}},
		{Name: "locator", Components: []SensorComponent{
			{Name: "x", Bit: 0x40, Min: -32768, Max: 32767, Modifier: func(v float32) float32 { return v * 100 }},
			{Name: "y", Bit: 0x20, Min: -32768, Max: 32767, Modifier: func(v float32) float32 { return v * 100 }},
		}},
	}
}

func rvrExtendedSensors() []SensorGroup {
	return []SensorGroup{
		{Name: "velocity", Components: []SensorComponent{
			{Name: "x", Bit: 0x2000000, Min: -20000, Max: 20000},
			{Name: "y", Bit: 0x1000000, Min: -20000, Max: 20000},
		}},
	}
}

// RVR is the two-processor tracked rover: 31-LED chassis, drive,
// v2 slotted streaming, no animatronic surface.
func RVR() *Model {
	primary := &command.Target{Ordinal: byte(ProcessorPrimary)}
	m := &Model{
		Name:              "Sphero RVR",
		FilterPrefix:      "RV",
		Prefix:            "RV-",
		Generation:        GenV2,
		CmdSafeInterval:   75 * time.Millisecond,
		LEDs:              rvrLEDs,
		LEDMaskWidthBytes: 4,
		Sensors:           rvrSensors(),
		ExtendedSensors:   rvrExtendedSensors(),
		StreamingServices: []StreamingService{
			{Name: "accelerometer", Processor: ProcessorPrimary, Slot: 0, DataSize: StreamingThirtyTwoBit, Attributes: rvrSensors()[0].Components},
			{Name: "gyro", Processor: ProcessorPrimary, Slot: 1, DataSize: StreamingSixteenBit, Attributes: rvrSensors()[1].Components},
			{Name: "locator", Processor: ProcessorPrimary, Slot: 2, DataSize: StreamingThirtyTwoBit, Attributes: rvrSensors()[2].Components},
		},
		Implemented: map[command.Method]Routing{
			command.SetRawMotors:                    {Target: primary},
			command.ResetYaw:                        {Target: primary},
			command.DriveWithHeading:                 {Target: primary},
			command.SetStabilization:                 {Target: primary},
			command.SetAllLEDsWith32BitMask:          {},
			command.SetSensorStreamingMask:           {Target: primary},
			command.ConfigureCollisionDetection:      {Target: primary},
			command.ResetLocatorXAndY:                {Target: primary},
			command.ConfigureStreamingService:        {Target: primary},
			command.StartStreamingService:            {Target: primary},
			command.StopStreamingService:              {Target: primary},
			command.ClearStreamingService:             {Target: primary},
			command.GetPowerState:                     {},
			command.GetVersions:                       {},
		},
	}
	return m
}
