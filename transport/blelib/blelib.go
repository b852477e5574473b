//go:build !windows

// Package blelib is an optional concrete transport.Adapter over the
// go-ble/ble GATT library (the maintained descendant of paypal/gatt
// and currantlabs/ble). It is build-tagged out on platforms the
// underlying library does not support, mirroring how the rest of this
// module's ancestry build-tags hardware-specific drivers out of the
// host build.
package blelib

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-ble/ble"

	"spherogo.dev/transport"
)

// Adapter is a transport.Adapter backed by a real GATT radio via
// go-ble/ble. The zero value is not usable; construct with New.
type Adapter struct {
	device ble.Device

	mu      sync.Mutex
	client  ble.Client
	profile *ble.Profile
	chars   map[string]*ble.Characteristic
}

// New wraps an already-initialised ble.Device (typically
// linux.NewDevice() or darwin.NewDevice()) as a transport.Adapter.
// Constructing the platform device itself is left to the caller, since
// it is the one piece of this library genuinely platform-specific.
func New(device ble.Device) *Adapter {
	ble.SetDefaultDevice(device)
	return &Adapter{device: device, chars: make(map[string]*ble.Characteristic)}
}

var _ transport.Adapter = (*Adapter)(nil)

// Scan reports advertising peripherals until ctx is done.
func (a *Adapter) Scan(ctx context.Context) (<-chan transport.ScanResult, error) {
	out := make(chan transport.ScanResult)
	go func() {
		defer close(out)
		err := ble.Scan(ctx, true, func(adv ble.Advertisement) {
			select {
			case out <- transport.ScanResult{
				Name:    adv.LocalName(),
				Address: adv.Addr().String(),
				RSSI:    adv.RSSI(),
			}:
			case <-ctx.Done():
			}
		}, nil)
		if err != nil && err != context.Canceled && err != ctx.Err() {
			// Scan stopped abnormally; nothing further to deliver.
			return
		}
	}()
	return out, nil
}

// Connect dials the peripheral at address and discovers its GATT
// profile so Write/Subscribe can resolve characteristic UUIDs.
func (a *Adapter) Connect(ctx context.Context, address string) error {
	addr := ble.NewAddr(address)
	cln, err := ble.Dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("blelib: dial %s: %w", address, err)
	}
	profile, err := cln.DiscoverProfile(true)
	if err != nil {
		cln.CancelConnection()
		return fmt.Errorf("blelib: discover profile: %w", err)
	}
	a.mu.Lock()
	a.client = cln
	a.profile = profile
	a.mu.Unlock()
	return nil
}

func (a *Adapter) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	cln := a.client
	a.client = nil
	a.profile = nil
	a.mu.Unlock()
	if cln == nil {
		return nil
	}
	return cln.CancelConnection()
}

func (a *Adapter) findCharacteristic(uuid string) (ble.Client, *ble.Characteristic, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil || a.profile == nil {
		return nil, nil, fmt.Errorf("blelib: not connected")
	}
	if c, ok := a.chars[uuid]; ok {
		return a.client, c, nil
	}
	u, err := ble.Parse(uuid)
	if err != nil {
		return nil, nil, fmt.Errorf("blelib: parse uuid %s: %w", uuid, err)
	}
	found := a.profile.Find(ble.NewCharacteristic(u))
	if found == nil {
		return nil, nil, fmt.Errorf("blelib: characteristic %s not found", uuid)
	}
	c, ok := found.(*ble.Characteristic)
	if !ok {
		return nil, nil, fmt.Errorf("blelib: %s resolved to a non-characteristic attribute", uuid)
	}
	a.chars[uuid] = c
	return a.client, c, nil
}

// Write performs a characteristic write, without waiting for a GATT
// write response; the protocol's own request/response correlation
// (transactor.Execute) is the layer that waits for a reply.
func (a *Adapter) Write(ctx context.Context, characteristic string, data []byte) error {
	cln, c, err := a.findCharacteristic(characteristic)
	if err != nil {
		return err
	}
	return cln.WriteCharacteristic(c, data, true)
}

// Subscribe registers handler for notifications on characteristic.
func (a *Adapter) Subscribe(ctx context.Context, characteristic string, handler func([]byte)) error {
	cln, c, err := a.findCharacteristic(characteristic)
	if err != nil {
		return err
	}
	return cln.Subscribe(c, false, func(req []byte) {
		handler(append([]byte(nil), req...))
	})
}
