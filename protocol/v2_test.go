package protocol

import (
	"bytes"
	"testing"
)

func TestV2BuildRoundTrip(t *testing.T) {
	p := V2Packet{
		Flags:   V2RequestsResponse | V2HasTargetID,
		TargetID: 0x11,
		DID:     0x1A,
		CID:     0x05,
		Seq:     0x8D, // deliberately a reserved byte, to exercise escaping.
		Payload: []byte{0xAB, 0xD8, 0x01},
	}
	frame := p.Build()
	if frame[0] != v2Start || frame[len(frame)-1] != v2End {
		t.Fatalf("frame not properly delimited: % x", frame)
	}

	var c V2Collector
	pkts, err := c.Add(frame)
	if err != nil {
		t.Fatal(err)
	}
	if len(pkts) != 1 {
		t.Fatalf("got %d packets, want 1", len(pkts))
	}
	got := pkts[0].(V2Packet)
	if got.Flags != p.Flags || got.TargetID != p.TargetID || got.DID != p.DID || got.CID != p.CID || got.Seq != p.Seq {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, p)
	}
	if !bytes.Equal(got.Data(), p.Payload) {
		t.Fatalf("payload mismatch: got % x, want % x", got.Data(), p.Payload)
	}
}

func TestV2ResponseError(t *testing.T) {
	p := V2Packet{
		Flags:   V2IsResponse,
		DID:     0x18,
		CID:     0x02,
		Seq:     0x01,
		ErrCode: 0x02,
	}
	frame := p.Build()
	var c V2Collector
	pkts, err := c.Add(frame)
	if err != nil {
		t.Fatal(err)
	}
	code, isErr := pkts[0].IsError()
	if !isErr || code != 0x02 {
		t.Fatalf("got (%d,%v), want (2,true)", code, isErr)
	}
}

func TestV2CollectorPartialThenComplete(t *testing.T) {
	p := V2Packet{DID: 0x16, CID: 0x01, Seq: 0x09, Payload: []byte{0x01, 0x02, 0x03}}
	frame := p.Build()

	var c V2Collector
	pkts, err := c.Add(frame[:len(frame)/2])
	if err != nil {
		t.Fatal(err)
	}
	if len(pkts) != 0 {
		t.Fatalf("expected no packets yet, got %d", len(pkts))
	}
	pkts, err = c.Add(frame[len(frame)/2:])
	if err != nil {
		t.Fatal(err)
	}
	if len(pkts) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(pkts))
	}
}

func TestV2CollectorChecksumMismatch(t *testing.T) {
	p := V2Packet{DID: 0x16, CID: 0x01, Seq: 0x09}
	frame := p.Build()
	frame[len(frame)-2] ^= 0xFF // corrupt the escaped checksum byte.

	var c V2Collector
	if _, err := c.Add(frame); err == nil {
		t.Fatal("expected checksum mismatch error")
	}
}

func TestV2Key(t *testing.T) {
	p := V2Packet{DID: 0x16, CID: 0x01, Seq: 0x09}
	k := p.Key()
	if !k.V2 || k.A != 0x16 || k.B != 0x01 || k.C != 0x09 {
		t.Fatalf("unexpected key: %+v", k)
	}
}
