package sphero

import (
	"context"
	"testing"
	"time"

	"spherogo.dev/command"
	"spherogo.dev/models"
	"spherogo.dev/protocol"
	"spherogo.dev/transport"
)

func echoOK(t *testing.T) (func(sim *transport.Simulator, characteristic string, data []byte), *[]protocol.V2Packet) {
	t.Helper()
	var col protocol.V2Collector
	seen := new([]protocol.V2Packet)
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
	}, seen
}

func TestClientOpenWiresControllersForV2Model(t *testing.T) {
	respond, _ := echoOK(t)
	sim := transport.NewSimulator(respond)
	c := New(sim, models.RVR())
	if err := c.Open(context.Background(), "sim"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close(context.Background())

	if c.Sensor != nil {
		t.Fatal("v2 model should not get a v1 sensor controller")
	}
	if c.Streaming == nil {
		t.Fatal("v2 model should get a streaming controller")
	}
	if c.Drive == nil || c.LED == nil {
		t.Fatal("expected drive and led controllers to be populated")
	}
}

func TestClientOpenWiresControllersForV1Model(t *testing.T) {
	sim := transport.NewSimulator(func(*transport.Simulator, string, []byte) {})
	c := New(sim, models.BB8())
	if err := c.Open(context.Background(), "sim"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close(context.Background())

	if c.Streaming != nil {
		t.Fatal("v1 model should not get a v2 streaming controller")
	}
	if c.Sensor == nil {
		t.Fatal("v1 model should get a sensor controller")
	}
}

func TestVersionsDecodesResponse(t *testing.T) {
	var col protocol.V2Collector
	sim := transport.NewSimulator(func(sim *transport.Simulator, characteristic string, data []byte) {
		pkts, err := col.Add(data)
		if err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		for _, p := range pkts {
			req := p.(protocol.V2Packet)
			if req.CID != command.GetVersions.CID {
				continue
			}
			resp := protocol.V2Packet{
				Flags:   protocol.V2IsResponse,
				DID:     req.DID, CID: req.CID, Seq: req.Seq,
				Payload: []byte{1, 2, 3, 4, 5, 0x12, 0x34, 0x56},
			}
			sim.Notify(transport.CharV2Command, resp.Build())
		}
	})
	c := New(sim, models.RVR())
	if err := c.Open(context.Background(), "sim"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close(context.Background())

	v, err := c.Versions(context.Background())
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if v.ModelNumber != 2 || v.HardwareVersion != 3 {
		t.Fatalf("unexpected versions: %+v", v)
	}
}

func TestUnsupportedOperationNeverReachesWire(t *testing.T) {
	sim := transport.NewSimulator(func(*transport.Simulator, string, []byte) {})
	bare := &models.Model{Generation: models.GenV2, Implemented: map[command.Method]models.Routing{}}
	c := New(sim, bare)
	if err := c.Open(context.Background(), "sim"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close(context.Background())

	if err := c.Sleep(context.Background()); err == nil {
		t.Fatal("expected ErrUnsupportedOperation")
	}
}

func TestPlayAnimationWaitsForCompletion(t *testing.T) {
	var col protocol.V2Collector
	sim := transport.NewSimulator(func(sim *transport.Simulator, characteristic string, data []byte) {
		pkts, err := col.Add(data)
		if err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		for _, p := range pkts {
			req := p.(protocol.V2Packet)
			resp := protocol.V2Packet{Flags: protocol.V2IsResponse, DID: req.DID, CID: req.CID, Seq: req.Seq}
			sim.Notify(transport.CharV2Command, resp.Build())
			if req.CID == command.PlayAnimation.CID {
				complete := protocol.V2Packet{
					DID: command.PlayAnimationCompleteNotify.Method.DID,
					CID: command.PlayAnimationCompleteNotify.Method.CID,
					Seq: protocol.V2SeqWildcard,
				}
				sim.Notify(transport.CharV2Command, complete.Build())
			}
		}
	})
	c := New(sim, models.R2D2())
	if err := c.Open(context.Background(), "sim"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.PlayAnimation(ctx, 7, true); err != nil {
		t.Fatalf("play animation: %v", err)
	}
}
