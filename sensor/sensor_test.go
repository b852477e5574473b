package sensor

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

// buildV1SyncResponse builds a minimal, no-payload v1 sync response
// frame for a test fixture, mirroring V1Request.Build's framing.
func buildV1SyncResponse(mrsp, seq byte) []byte {
	body := []byte{mrsp, seq, 1} // dlen=1: checksum byte only.
	var sum int
	for _, b := range body {
		sum += int(b)
	}
	chk := byte(0xFF - (sum % 0x100))
	out := []byte{0xFF, 0xFF}
	out = append(out, body...)
	out = append(out, chk)
	return out
}

func newTestTransactor(t *testing.T, respond func(sim *transport.Simulator, characteristic string, data []byte)) *transactor.Transactor {
	t.Helper()
	sim := transport.NewSimulator(respond)
	tr := transactor.New(sim, transactor.V1, transactor.Config{SafeInterval: time.Millisecond, Timeout: time.Second})
	if err := tr.Open(context.Background(), "sim"); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { tr.Close(context.Background()) })
	return tr
}

func TestEnableBuildsMaskAndIssuesStreamingCommand(t *testing.T) {
	var gotPayload []byte
	tr := newTestTransactor(t, func(sim *transport.Simulator, characteristic string, data []byte) {
		if characteristic != transport.CharV1Command {
			return
		}
		// A v1 request frame is [SOP, SOP2, DID, CID, SEQ, DLEN,
		// payload..., CHK]; V1Collector decodes only responses and
		// notifications, so the request is sliced here directly.
		if len(data) < 7 {
			t.Errorf("decode: short request frame % x", data)
			return
		}
		cid, seq := data[3], data[4]
		if cid == command.LegacySetDataStreaming.CID {
			gotPayload = append([]byte(nil), data[6:len(data)-1]...)
		}
		sim.Notify(transport.CharV1Response, buildV1SyncResponse(0x00, seq))
	})

	m := models.BB8()
	c := New(tr, m)
	defer c.Close()

	if err := c.Enable(context.Background(), "gyroscope"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if len(gotPayload) != 13 { // interval:2 + samples_per_packet:2 + mask:4 + count:1 + extended_mask:4
		t.Fatalf("unexpected payload length %d: % x", len(gotPayload), gotPayload)
	}
}

func TestOnNotifyDecodesSampleWithModifier(t *testing.T) {
	tr := newTestTransactor(t, func(*transport.Simulator, string, []byte) {})
	m := models.Mini()
	c := New(tr, m)
	defer c.Close()

	c.mu.Lock()
	c.enabled["locator"] = true
	c.mu.Unlock()

	// locator has x then y, each int16, both with modifier = *100.
	payload := []byte{0x00, 0x0A, 0xFF, 0xF6} // x=10 -> 1000, y=-10 -> -1000
	p := protocol.V1Async{IDCode: 0x01, Payload: payload}

	got := make(chan Sample, 1)
	c.Subscribe(func(s Sample) { got <- s })
	c.onNotify(p)

	select {
	case s := <-got:
		if s["locator"]["x"] != 1000 {
			t.Fatalf("got x=%v, want 1000", s["locator"]["x"])
		}
		if s["locator"]["y"] != -1000 {
			t.Fatalf("got y=%v, want -1000", s["locator"]["y"])
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for sample")
	}
}
