package led

import (
	"context"
	"testing"
	"time"

	"spherogo.dev/models"
	"spherogo.dev/protocol"
	"spherogo.dev/transactor"
	"spherogo.dev/transport"
)

func TestSetLEDsBuildsMaskInOrdinalOrder(t *testing.T) {
	var gotPayload []byte
	var col protocol.V2Collector
	sim := transport.NewSimulator(func(sim *transport.Simulator, characteristic string, data []byte) {
		pkts, err := col.Add(data)
		if err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		for _, p := range pkts {
			req := p.(protocol.V2Packet)
			gotPayload = req.Payload
			resp := protocol.V2Packet{Flags: protocol.V2IsResponse, DID: req.DID, CID: req.CID, Seq: req.Seq}
			sim.Notify(transport.CharV2Command, resp.Build())
		}
	})
	tr := transactor.New(sim, transactor.V2, transactor.Config{SafeInterval: time.Millisecond, Timeout: time.Second})
	if err := tr.Open(context.Background(), "sim"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer tr.Close(context.Background())

	m := models.RVR()
	c := New(tr, m)
	err := c.SetLEDs(context.Background(), map[string]byte{
		"right_headlight_red": 0xAA,
		"undercarriage_white": 0xBB,
	})
	if err != nil {
		t.Fatalf("set leds: %v", err)
	}
	if len(gotPayload) != 6 { // 4-byte mask + 2 values
		t.Fatalf("unexpected payload length %d: % x", len(gotPayload), gotPayload)
	}
	wantMask := uint32(1)<<0 | uint32(1)<<30
	gotMask := uint32(gotPayload[0])<<24 | uint32(gotPayload[1])<<16 | uint32(gotPayload[2])<<8 | uint32(gotPayload[3])
	if gotMask != wantMask {
		t.Fatalf("got mask %#x, want %#x", gotMask, wantMask)
	}
	if gotPayload[4] != 0xAA || gotPayload[5] != 0xBB {
		t.Fatalf("unexpected values % x", gotPayload[4:])
	}
}

func TestSetLEDsBatteryDoorOrdinals(t *testing.T) {
	var gotPayload []byte
	var col protocol.V2Collector
	sim := transport.NewSimulator(func(sim *transport.Simulator, characteristic string, data []byte) {
		pkts, err := col.Add(data)
		if err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		for _, p := range pkts {
			req := p.(protocol.V2Packet)
			gotPayload = req.Payload
			resp := protocol.V2Packet{Flags: protocol.V2IsResponse, DID: req.DID, CID: req.CID, Seq: req.Seq}
			sim.Notify(transport.CharV2Command, resp.Build())
		}
	})
	tr := transactor.New(sim, transactor.V2, transactor.Config{SafeInterval: time.Millisecond, Timeout: time.Second})
	if err := tr.Open(context.Background(), "sim"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer tr.Close(context.Background())

	c := New(tr, models.RVR())
	err := c.SetLEDs(context.Background(), map[string]byte{
		"battery_door_rear_red":    0x11,
		"battery_door_rear_green":  0x22,
		"battery_door_rear_blue":   0x33,
		"battery_door_front_red":   0x44,
		"battery_door_front_green": 0x55,
		"battery_door_front_blue":  0x66,
	})
	if err != nil {
		t.Fatalf("set leds: %v", err)
	}
	wantMask := uint32(0x3f) << 12 // bits 12-17
	gotMask := uint32(gotPayload[0])<<24 | uint32(gotPayload[1])<<16 | uint32(gotPayload[2])<<8 | uint32(gotPayload[3])
	if gotMask != wantMask {
		t.Fatalf("got mask %#x, want %#x", gotMask, wantMask)
	}
	wantValues := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	gotValues := gotPayload[4:]
	if len(gotValues) != len(wantValues) {
		t.Fatalf("unexpected values % x", gotValues)
	}
	for i, v := range wantValues {
		if gotValues[i] != v {
			t.Fatalf("unexpected values % x, want % x", gotValues, wantValues)
		}
	}
}

func TestSetLEDsEmptyMappingEmitsNothing(t *testing.T) {
	called := false
	sim := transport.NewSimulator(func(_ *transport.Simulator, characteristic string, _ []byte) {
		if characteristic == transport.CharV2Command {
			called = true
		}
	})
	tr := transactor.New(sim, transactor.V2, transactor.Config{SafeInterval: time.Millisecond, Timeout: time.Second})
	if err := tr.Open(context.Background(), "sim"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer tr.Close(context.Background())

	c := New(tr, models.RVR())
	if err := c.SetLEDs(context.Background(), map[string]byte{"nonexistent": 1}); err != nil {
		t.Fatalf("set leds: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if called {
		t.Fatal("expected no write for an unrecognised LED name")
	}
}
