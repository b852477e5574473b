package models

import (
	"testing"

	"spherogo.dev/command"
)

func TestRVRImplementsDrive(t *testing.T) {
	m := RVR()
	r, ok := m.Implements(command.DriveWithHeading)
	if !ok {
		t.Fatal("expected RVR to implement DriveWithHeading")
	}
	if r.Target == nil || r.Target.Ordinal != byte(ProcessorPrimary) {
		t.Fatalf("expected drive pinned to primary processor, got %+v", r.Target)
	}
	if _, ok := m.Implements(command.PlayAnimation); ok {
		t.Fatal("RVR should not implement animatronic commands")
	}
}

func TestRVRLEDOrdinal(t *testing.T) {
	m := RVR()
	if got := m.LEDOrdinal("undercarriage_white"); got != 30 {
		t.Fatalf("got ordinal %d, want 30", got)
	}
	if got := m.LEDOrdinal("right_headlight_red"); got != 0 {
		t.Fatalf("got ordinal %d, want 0", got)
	}
	if got := m.LEDOrdinal("nonexistent"); got != -1 {
		t.Fatalf("got ordinal %d, want -1", got)
	}
}

func TestR2D2RoutesAnimatronicToSecondary(t *testing.T) {
	m := R2D2()
	r, ok := m.Implements(command.PlayAnimation)
	if !ok {
		t.Fatal("expected R2D2 to implement PlayAnimation")
	}
	if r.Target == nil || r.Target.Ordinal != byte(ProcessorSecondary) {
		t.Fatalf("expected animatronic pinned to secondary processor, got %+v", r.Target)
	}
	r2, ok := m.Implements(command.DriveWithHeading)
	if !ok || r2.Target == nil || r2.Target.Ordinal != byte(ProcessorPrimary) {
		t.Fatalf("expected drive pinned to primary processor, got %+v ok=%v", r2.Target, ok)
	}
}

func TestBoltColorDetectionSlotZero(t *testing.T) {
	m := BOLT()
	for _, svc := range m.StreamingServices {
		if svc.IsColorDetection() && svc.Slot != 0 {
			t.Fatalf("color_detection must be slot 0, got %d", svc.Slot)
		}
	}
}

func TestMiniIsV1SingleProcessor(t *testing.T) {
	m := Mini()
	if m.Generation != GenV1 {
		t.Fatalf("expected Mini to be v1, got %v", m.Generation)
	}
	r, ok := m.Implements(command.DriveWithHeading)
	if !ok {
		t.Fatal("expected Mini to implement DriveWithHeading")
	}
	if r.Target != nil {
		t.Fatalf("v1 single-processor model should not pin a target, got %+v", r.Target)
	}
}

func TestSensorGroupMask(t *testing.T) {
	g := SensorGroup{Components: []SensorComponent{{Bit: 0x1}, {Bit: 0x4}}}
	if g.Mask() != 0x5 {
		t.Fatalf("got mask %#x, want 0x5", g.Mask())
	}
}

func TestSensorComponentScale(t *testing.T) {
	c := SensorComponent{Min: -1, Max: 1, Modifier: func(v float32) float32 { return v * 2 }}
	if got := c.Scale(3); got != 6 {
		t.Fatalf("got %v, want 6", got)
	}
	c2 := SensorComponent{Min: -1, Max: 1}
	if got := c2.Scale(5); got != 5 {
		t.Fatalf("identity scale got %v, want 5", got)
	}
}
