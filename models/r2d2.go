package models

import (
	"time"

	"spherogo.dev/command"
)

func r2d2Sensors() []SensorGroup {
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
	}
}

// R2D2 is the two-processor, v2 droid: drive on the primary
// processor, head/leg animatronics on the secondary processor.
func R2D2() *Model {
	primary := &command.Target{Ordinal: byte(ProcessorPrimary)}
	secondary := &command.Target{Ordinal: byte(ProcessorSecondary)}
	m := &Model{
		Name:              "Sphero R2-D2",
		FilterPrefix:      "D2-",
		Prefix:            "D2-",
		Generation:        GenV2,
		CmdSafeInterval:   120 * time.Millisecond,
		LEDs:              []string{"front_red", "front_green", "front_blue", "back_red", "back_green", "back_blue", "logic_display"},
		LEDMaskWidthBytes: 2,
		Sensors:           r2d2Sensors(),
		Implemented: map[command.Method]Routing{
			command.SetRawMotors:        {Target: primary},
			command.ResetYaw:            {Target: primary},
			command.DriveWithHeading:     {Target: primary},
			command.SetStabilization:     {Target: primary},
			command.SetAllLEDsWith16BitMask: {},
			command.SetSensorStreamingMask: {Target: primary},

			command.PlayAnimation:         {Target: secondary},
			command.StopAnimation:         {Target: secondary},
			command.PerformLegAction:      {Target: secondary},
			command.SetHeadPosition:       {Target: secondary},
			command.GetHeadPosition:       {Target: secondary},
			command.SetLegPosition:        {Target: secondary},
			command.GetLegPosition:        {Target: secondary},
			command.GetLegAction:          {Target: secondary},
			command.EnableIdleAnimations:  {Target: secondary},
			command.EnableTrophyMode:      {Target: secondary},
			command.GetTrophyModeEnabled:  {Target: secondary},

			command.GetPowerState: {},
			command.GetVersions:   {},
			command.Sleep:         {},
		},
	}
	return m
}
