// Package transport defines the BLE transport boundary consumed by the
// transactor: scan, connect, write-characteristic, subscribe-notification.
// Concrete adapters (a real GATT stack, a TCP bridge client, or the
// in-memory Simulator below) all implement Adapter.
package transport

import "context"

// GATT characteristic UUIDs for both protocol generations.
const (
	// v2 API: command and response share one characteristic.
	CharV2Command  = "00010002-574f-4f20-5370-6865726f2121"
	CharV2AntiDOS  = "00020005-574f-4f20-5370-6865726f2121"
	CharV2DFU      = "00020002-574f-4f20-5370-6865726f2121"

	// v1 API: separate command/response characteristics, plus a few
	// fixed handshake characteristics.
	CharV1Command  = "22bb746f-2ba1-7554-2d6f-726568705327"
	CharV1Response = "22bb746f-2ba6-7554-2d6f-726568705327"
	CharV1AntiDOS  = "22bb746f-2bbd-7554-2d6f-726568705327"
	CharV1TXPower  = "22bb746f-2bb2-7554-2d6f-726568705327"
	CharV1Wake     = "22bb746f-2bbf-7554-2d6f-726568705327"
)

// Handshake payloads written during open, per spec.md §4.3.
var (
	V1AntiDOSPayload = []byte("011i3")
	V1WakePayload    = []byte{0x07}
	V2AntiDOSPayload = []byte("usetheforce...band")
)

// ScanResult describes one advertising peripheral seen during a Scan.
type ScanResult struct {
	Name    string
	Address string
	RSSI    int
}

// Adapter is the BLE transport boundary. Implementations are expected to
// be safe for concurrent use by a single Transactor; the transactor never
// calls Write from more than one goroutine.
type Adapter interface {
	// Scan reports advertising peripherals until ctx is done or the
	// returned channel is drained and closed.
	Scan(ctx context.Context) (<-chan ScanResult, error)
	// Connect establishes a GATT connection to the given address.
	Connect(ctx context.Context, address string) error
	// Disconnect tears down the current connection, if any.
	Disconnect(ctx context.Context) error
	// Write performs a characteristic write.
	Write(ctx context.Context, characteristic string, data []byte) error
	// Subscribe registers handler to be invoked with each notification
	// payload received on characteristic. Only one subscription per
	// characteristic is expected.
	Subscribe(ctx context.Context, characteristic string, handler func([]byte)) error
}
