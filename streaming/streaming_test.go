package streaming

import (
	"context"
	"testing"
	"time"

	"spherogo.dev/command"
	"spherogo.dev/models"
	"spherogo.dev/protocol"
	"spherogo.dev/transactor"
	"spherogo.dev/transport"
)

func echoOK(t *testing.T, seen *[]protocol.V2Packet) func(sim *transport.Simulator, characteristic string, data []byte) {
	t.Helper()
	var col protocol.V2Collector
	return func(sim *transport.Simulator, characteristic string, data []byte) {
		pkts, err := col.Add(data)
		if err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		for _, p := range pkts {
			req := p.(protocol.V2Packet)
			*seen = append(*seen, req)
			resp := protocol.V2Packet{Flags: protocol.V2IsResponse, DID: req.DID, CID: req.CID, Seq: req.Seq}
			sim.Notify(transport.CharV2Command, resp.Build())
		}
	}
}

func newTestController(t *testing.T, seen *[]protocol.V2Packet) (*Controller, *transactor.Transactor) {
	t.Helper()
	sim := transport.NewSimulator(echoOK(t, seen))
	tr := transactor.New(sim, transactor.V2, transactor.Config{SafeInterval: time.Millisecond, Timeout: time.Second})
	if err := tr.Open(context.Background(), "sim"); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { tr.Close(context.Background()) })
	return New(tr, models.RVR()), tr
}

func TestEnableConfiguresAndStartsStreaming(t *testing.T) {
	var seen []protocol.V2Packet
	c, _ := newTestController(t, &seen)
	defer c.Close()

	if err := c.Enable(context.Background(), "accelerometer"); err != nil {
		t.Fatalf("enable: %v", err)
	}

	var sawConfigure, sawStart bool
	for _, p := range seen {
		switch p.CID {
		case command.ConfigureStreamingService.CID:
			sawConfigure = true
		case command.StartStreamingService.CID:
			sawStart = true
		}
	}
	if !sawConfigure {
		t.Fatal("expected a configure_streaming_service call")
	}
	if !sawStart {
		t.Fatal("expected a start_streaming_service call")
	}
}

func TestDisableAllStopsAndClears(t *testing.T) {
	var seen []protocol.V2Packet
	c, _ := newTestController(t, &seen)
	defer c.Close()

	if err := c.Enable(context.Background(), "accelerometer"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	seen = nil
	if err := c.DisableAll(context.Background()); err != nil {
		t.Fatalf("disable all: %v", err)
	}

	var sawClear, sawConfigure bool
	for _, p := range seen {
		switch p.CID {
		case command.ClearStreamingService.CID:
			sawClear = true
		case command.ConfigureStreamingService.CID:
			sawConfigure = true
		}
	}
	if !sawClear {
		t.Fatal("expected a clear_streaming_service call")
	}
	if sawConfigure {
		t.Fatal("did not expect a configure call when transitioning to Stop")
	}
}

func TestSetIntervalRestartsOnlyWhileStreaming(t *testing.T) {
	var seen []protocol.V2Packet
	c, _ := newTestController(t, &seen)
	defer c.Close()

	// Empty: SetInterval must not touch the wire.
	if err := c.SetInterval(context.Background(), 50); err != nil {
		t.Fatalf("set interval (empty): %v", err)
	}
	if len(seen) != 0 {
		t.Fatalf("expected no wire traffic while empty, got %d packets", len(seen))
	}

	if err := c.Enable(context.Background(), "gyro"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	seen = nil
	if err := c.SetInterval(context.Background(), 200); err != nil {
		t.Fatalf("set interval: %v", err)
	}
	for _, p := range seen {
		if p.CID == command.ConfigureStreamingService.CID {
			t.Fatal("restart must not reconfigure slots")
		}
	}
}

func TestOnNotifyDecodesAndRescalesSample(t *testing.T) {
	var seen []protocol.V2Packet
	c, _ := newTestController(t, &seen)
	defer c.Close()

	if err := c.Enable(context.Background(), "gyro"); err != nil {
		t.Fatalf("enable: %v", err)
	}

	// gyro is 16-bit, [-8.19, 8.19], x/y/z: maximise x (0xFFFF), zero
	// the rest.
	payload := []byte{0x01} // token: slot 1.
	payload = append(payload, 0xFF, 0xFF) // x
	payload = append(payload, 0x00, 0x00) // y
	payload = append(payload, 0x00, 0x00) // z

	got := make(chan Sample, 1)
	c.Subscribe(func(s Sample) { got <- s })

	pkt := protocol.V2Packet{
		Flags:   protocol.V2HasSourceID,
		DID:     command.DIDSensor,
		CID:     command.StreamingServiceDataNotify.Method.CID,
		Seq:     protocol.V2SeqWildcard,
		SourceID: byte(models.ProcessorPrimary),
		Payload: payload,
	}
	c.onNotify(pkt)

	select {
	case s := <-got:
		x := s["gyro"]["x"]
		if x < 8.0 || x > 8.19 {
			t.Fatalf("got x=%v, want close to 8.19", x)
		}
		if s["gyro"]["y"] != -8.19 {
			t.Fatalf("got y=%v, want -8.19", s["gyro"]["y"])
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sample")
	}
}

func TestColorDetectionDiscardedOffSlotZero(t *testing.T) {
	var seen []protocol.V2Packet
	c, _ := newTestController(t, &seen)
	defer c.Close()

	// RVR has no color_detection service; exercise the guard directly
	// against a synthetic non-zero-slot service entry.
	svc := models.StreamingService{Name: "color_detection", Slot: 2, DataSize: models.StreamingEightBit, Attributes: []models.SensorComponent{{Name: "r", Min: 0, Max: 255}}}
	c.mu.Lock()
	c.slots[models.ProcessorPrimary] = map[int][]slotEntry{2: {{index: 0, service: svc}}}
	c.mu.Unlock()

	got := make(chan Sample, 1)
	c.Subscribe(func(s Sample) { got <- s })

	pkt := protocol.V2Packet{
		Flags:    protocol.V2HasSourceID,
		DID:      command.DIDSensor,
		CID:      command.StreamingServiceDataNotify.Method.CID,
		SourceID: byte(models.ProcessorPrimary),
		Payload:  []byte{0x02, 0xFF},
	}
	c.onNotify(pkt)

	select {
	case s := <-got:
		if _, ok := s["color_detection"]; ok {
			t.Fatal("color_detection sample must be discarded off slot zero")
		}
	case <-time.After(50 * time.Millisecond):
		// No publish at all is also an acceptable outcome here since
		// the only configured service was discarded.
	}
}
