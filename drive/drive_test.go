package drive

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

func newTestController(t *testing.T, respond func(sim *transport.Simulator, characteristic string, data []byte)) (*Controller, *transactor.Transactor) {
	t.Helper()
	sim := transport.NewSimulator(respond)
	tr := transactor.New(sim, transactor.V2, transactor.Config{SafeInterval: time.Millisecond, Timeout: time.Second})
	if err := tr.Open(context.Background(), "sim"); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { tr.Close(context.Background()) })
	return New(tr, models.RVR()), tr
}

// echoOK decodes an incoming v2 request and answers with a matching
// zero-error response, capturing the decoded request for inspection.
func echoOK(t *testing.T, got *protocol.V2Packet) func(sim *transport.Simulator, characteristic string, data []byte) {
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
			*got = req
			resp := protocol.V2Packet{
				Flags: protocol.V2IsResponse,
				DID:   req.DID, CID: req.CID, Seq: req.Seq,
			}
			sim.Notify(transport.CharV2Command, resp.Build())
		}
	}
}

func TestRollStartBackwardInvertsHeadingAndFlag(t *testing.T) {
	var got protocol.V2Packet
	c, _ := newTestController(t, echoOK(t, &got))

	if err := c.RollStart(context.Background(), 30, -100); err != nil {
		t.Fatalf("roll start: %v", err)
	}
	payload := got.Payload
	if len(payload) != 4 {
		t.Fatalf("unexpected payload length %d", len(payload))
	}
	speed := payload[0]
	heading := uint16(payload[1])<<8 | uint16(payload[2])
	flags := command.DriveFlags(payload[3])
	if speed != 100 {
		t.Fatalf("got speed %d, want 100", speed)
	}
	if heading != 210 {
		t.Fatalf("got heading %d, want 210", heading)
	}
	if flags != command.DriveBackward {
		t.Fatalf("got flags %#x, want BACKWARD", flags)
	}
}

func TestRollStartBoostAddsTurbo(t *testing.T) {
	var got protocol.V2Packet
	c, _ := newTestController(t, echoOK(t, &got))
	c.Boost(true)

	if err := c.RollStart(context.Background(), 0, 100); err != nil {
		t.Fatalf("roll start: %v", err)
	}
	flags := command.DriveFlags(got.Payload[3])
	if flags&command.DriveTurbo == 0 {
		t.Fatalf("expected turbo flag set, got %#x", flags)
	}
}

func TestHeadingWrapsModulo360(t *testing.T) {
	var got protocol.V2Packet
	c, _ := newTestController(t, echoOK(t, &got))

	if err := c.SetHeading(context.Background(), 400); err != nil {
		t.Fatalf("set heading: %v", err)
	}
	heading := uint16(got.Payload[1])<<8 | uint16(got.Payload[2])
	if heading != 40 {
		t.Fatalf("got heading %d, want 40", heading)
	}
}

func TestUnsupportedOperationForUnimplementedModel(t *testing.T) {
	sim := transport.NewSimulator(func(*transport.Simulator, string, []byte) {})
	tr := transactor.New(sim, transactor.V2, transactor.Config{SafeInterval: time.Millisecond, Timeout: time.Second})
	if err := tr.Open(context.Background(), "sim"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer tr.Close(context.Background())

	bare := &models.Model{Generation: models.GenV2, Implemented: map[command.Method]models.Routing{}}
	c := New(tr, bare)
	err := c.SetRawMotors(context.Background(), command.RawMotorForward, 10, command.RawMotorForward, 10)
	if err == nil {
		t.Fatal("expected an error")
	}
}
