// Package sensor is the v1 bitmask streaming controller: it tracks
// which named sensor groups are enabled, rebuilds the base/extended
// masks on every change, issues set_data_streaming, and decodes
// incoming samples into a nested map published to subscribers.
package sensor

import (
	"context"
	"sync"

	"spherogo.dev/command"
	"spherogo.dev/models"
	"spherogo.dev/protocol"
	"spherogo.dev/transactor"
)

// Sample is one decoded streaming notification: group name to
// component name to scaled value.
type Sample map[string]map[string]float32

// Controller manages the v1 streaming bitmask for one connected toy.
type Controller struct {
	tr    *transactor.Transactor
	model *models.Model

	mu       sync.Mutex
	enabled  map[string]bool
	count    byte
	interval uint16

	subMu sync.Mutex
	subs  map[int]func(Sample)
	nextID int
	unsub  func()
}

// New builds a sensor controller and registers its notification
// listener. Call Close to release the listener when done.
func New(tr *transactor.Transactor, model *models.Model) *Controller {
	c := &Controller{
		tr:      tr,
		model:   model,
		enabled: make(map[string]bool),
		count:   0,
		subs:    make(map[int]func(Sample)),
	}
	c.unsub = tr.Subscribe(command.LegacySensorStreamingDataNotify.Key(), c.onNotify)
	return c
}

// Close unregisters the controller's notification listener.
func (c *Controller) Close() {
	if c.unsub != nil {
		c.unsub()
	}
}

// Subscribe registers fn to receive every decoded Sample. It returns a
// function that unsubscribes.
func (c *Controller) Subscribe(fn func(Sample)) func() {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Controller) allGroups() []models.SensorGroup {
	return append(append([]models.SensorGroup(nil), c.model.Sensors...), c.model.ExtendedSensors...)
}

func (c *Controller) findGroup(name string) (models.SensorGroup, bool) {
	for _, g := range c.allGroups() {
		if g.Name == name {
			return g, true
		}
	}
	return models.SensorGroup{}, false
}

// Enable adds the named groups to the enabled set and reissues the
// streaming mask.
func (c *Controller) Enable(ctx context.Context, groupNames ...string) error {
	c.mu.Lock()
	for _, n := range groupNames {
		c.enabled[n] = true
	}
	c.mu.Unlock()
	return c.apply(ctx)
}

// Disable removes the named groups from the enabled set and reissues
// the streaming mask.
func (c *Controller) Disable(ctx context.Context, groupNames ...string) error {
	c.mu.Lock()
	for _, n := range groupNames {
		delete(c.enabled, n)
	}
	c.mu.Unlock()
	return c.apply(ctx)
}

// SetInterval sets the v1 streaming interval, in tenths of a
// millisecond, and reissues the streaming mask.
func (c *Controller) SetInterval(ctx context.Context, interval uint16) error {
	c.mu.Lock()
	c.interval = interval
	c.mu.Unlock()
	return c.apply(ctx)
}

func (c *Controller) masks() (base, extended uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range c.model.Sensors {
		if c.enabled[g.Name] {
			base |= g.Mask()
		}
	}
	for _, g := range c.model.ExtendedSensors {
		if c.enabled[g.Name] {
			extended |= g.Mask()
		}
	}
	return base, extended
}

// numSamplesPerPacket is always 1: the classic API's set_data_streaming
// always emits one sample per configured packet.
const numSamplesPerPacket = 1

func (c *Controller) apply(ctx context.Context) error {
	base, extended := c.masks()
	c.mu.Lock()
	interval, count := c.interval, c.count
	c.mu.Unlock()

	if _, ok := c.model.Implements(command.LegacySetDataStreaming); !ok {
		return transactor.ErrUnsupportedOperation
	}
	payload := command.EncodeLegacySetDataStreaming(interval, numSamplesPerPacket, base, count, extended)
	req := command.BuildV1(command.LegacySetDataStreaming, c.tr.NextSeq(), payload)
	_, err := c.tr.Execute(ctx, req, req.Build())
	return err
}

// onNotify decodes one streaming sample packet: n big-endian 16-bit
// words, popped one per declared component in descending-bit (i.e.
// declaration) order per enabled group, scaled and published as a
// nested map.
func (c *Controller) onNotify(p protocol.Packet) {
	data := p.Data()
	sample := make(Sample)

	var names []string
	c.mu.Lock()
	for _, g := range c.allGroups() {
		if c.enabled[g.Name] {
			names = append(names, g.Name)
		}
	}
	c.mu.Unlock()

	offset := 0
	for _, name := range names {
		g, ok := c.findGroup(name)
		if !ok {
			continue
		}
		values := make(map[string]float32, len(g.Components))
		for _, comp := range g.Components {
			if offset+2 > len(data) {
				return
			}
			raw := int16(uint16(data[offset])<<8 | uint16(data[offset+1]))
			offset += 2
			// v1 samples are scaled by the component's modifier alone,
			// unlike the v2 streaming service's min/max rescale.
			values[comp.Name] = comp.Scale(float32(raw))
		}
		sample[name] = values
	}

	c.subMu.Lock()
	subs := make([]func(Sample), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()
	for _, fn := range subs {
		fn(sample)
	}
}
