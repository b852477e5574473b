// Package streaming is the v2 slotted streaming controller: it
// negotiates per-processor, per-slot service configuration, drives the
// Stop/Start/Restart lifecycle on every enable/disable/interval change,
// and decodes incoming slotted frames into named scalar samples.
package streaming

import (
	"context"
	"encoding/binary"
	"sync"

	"spherogo.dev/command"
	"spherogo.dev/models"
	"spherogo.dev/protocol"
	"spherogo.dev/transactor"
)

// Sample is one decoded streaming frame: service name to attribute
// name to rescaled value.
type Sample map[string]map[string]float32

// lifecycle mirrors spec.md §4.9's state machine.
type lifecycle int

const (
	lifecycleStop lifecycle = iota
	lifecycleStart
	lifecycleRestart
)

// slotEntry is one service configured into a slot; index is its
// ordinal position among the slot's services, the wire identifier the
// robot-side slot decoder keys its own per-attribute unpacking on.
type slotEntry struct {
	index   int
	service models.StreamingService
}

// Controller manages the v2 slotted streaming surface for one
// connected toy.
type Controller struct {
	tr    *transactor.Transactor
	model *models.Model

	mu       sync.Mutex
	enabled  map[string]bool
	interval uint16

	// slots[processor][slotNumber] is the ordered list of services
	// currently configured into that processor's slot.
	slots map[models.Processor]map[int][]slotEntry

	subMu  sync.Mutex
	subs   map[int]func(Sample)
	nextID int
	unsub  func()
}

// New builds a streaming controller and registers its notification
// listener. Call Close to release the listener when done.
func New(tr *transactor.Transactor, model *models.Model) *Controller {
	c := &Controller{
		tr:      tr,
		model:   model,
		enabled: make(map[string]bool),
		slots:   make(map[models.Processor]map[int][]slotEntry),
		subs:    make(map[int]func(Sample)),
	}
	c.unsub = tr.Subscribe(command.StreamingServiceDataNotify.KeyV2(), c.onNotify)
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

// Enable adds the named services to the enabled set and reconfigures.
func (c *Controller) Enable(ctx context.Context, names ...string) error {
	c.mu.Lock()
	for _, n := range names {
		c.enabled[n] = true
	}
	empty := len(c.enabled) == 0
	c.mu.Unlock()
	if empty {
		return c.transition(ctx, lifecycleStop)
	}
	return c.transition(ctx, lifecycleStart)
}

// Disable removes the named services from the enabled set and
// reconfigures, or stops streaming entirely if none remain.
func (c *Controller) Disable(ctx context.Context, names ...string) error {
	c.mu.Lock()
	for _, n := range names {
		delete(c.enabled, n)
	}
	empty := len(c.enabled) == 0
	c.mu.Unlock()
	if empty {
		return c.transition(ctx, lifecycleStop)
	}
	return c.transition(ctx, lifecycleStart)
}

// DisableAll clears every enabled service and stops streaming.
func (c *Controller) DisableAll(ctx context.Context) error {
	c.mu.Lock()
	c.enabled = make(map[string]bool)
	c.mu.Unlock()
	return c.transition(ctx, lifecycleStop)
}

// SetInterval sets the streaming interval, in milliseconds, and
// restarts streaming (no slot reconfiguration) if already streaming.
func (c *Controller) SetInterval(ctx context.Context, interval uint16) error {
	c.mu.Lock()
	c.interval = interval
	empty := len(c.enabled) == 0
	c.mu.Unlock()
	if empty {
		return nil
	}
	return c.transition(ctx, lifecycleRestart)
}

// processors is the fixed pair every transition iterates, per spec.md
// §4.9.
var processors = [2]models.Processor{models.ProcessorPrimary, models.ProcessorSecondary}

func (c *Controller) transition(ctx context.Context, lc lifecycle) error {
	for _, proc := range processors {
		target := &command.Target{Ordinal: byte(proc)}
		if err := c.stopOn(ctx, target); err != nil {
			return err
		}
		switch lc {
		case lifecycleStop:
			if err := c.clearOn(ctx, target); err != nil {
				return err
			}
			c.setSlots(proc, nil)
		case lifecycleStart:
			if err := c.clearOn(ctx, target); err != nil {
				return err
			}
			bySlot := c.buildSlots(proc)
			c.setSlots(proc, bySlot)
			for slot, entries := range bySlot {
				if len(entries) == 0 {
					continue
				}
				if err := c.configureSlot(ctx, target, slot, entries); err != nil {
					return err
				}
			}
			if err := c.startOn(ctx, target); err != nil {
				return err
			}
		case lifecycleRestart:
			if err := c.startOn(ctx, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Controller) buildSlots(proc models.Processor) map[int][]slotEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int][]slotEntry)
	for _, svc := range c.model.StreamingServices {
		if svc.Processor != proc || !c.enabled[svc.Name] {
			continue
		}
		slot := out[svc.Slot]
		out[svc.Slot] = append(slot, slotEntry{index: len(slot), service: svc})
	}
	return out
}

func (c *Controller) setSlots(proc models.Processor, bySlot map[int][]slotEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if bySlot == nil {
		delete(c.slots, proc)
		return
	}
	c.slots[proc] = bySlot
}

func (c *Controller) stopOn(ctx context.Context, target *command.Target) error {
	return c.execute(ctx, command.StopStreamingService, target, nil)
}

func (c *Controller) clearOn(ctx context.Context, target *command.Target) error {
	return c.execute(ctx, command.ClearStreamingService, target, nil)
}

func (c *Controller) startOn(ctx context.Context, target *command.Target) error {
	c.mu.Lock()
	interval := c.interval
	c.mu.Unlock()
	return c.execute(ctx, command.StartStreamingService, target, be16(interval))
}

// configureSlot emits configure_streaming_service(slot, [index, size]...)
// for one slot's worth of services, each service contributing one
// (attribute-group index, byte-size) pair per spec.md §4.9.
func (c *Controller) configureSlot(ctx context.Context, target *command.Target, slot int, entries []slotEntry) error {
	payload := []byte{byte(slot)}
	for _, e := range entries {
		payload = append(payload, byte(e.index>>8), byte(e.index))
		payload = append(payload, byte(e.service.DataSize/8))
	}
	return c.execute(ctx, command.ConfigureStreamingService, target, payload)
}

func (c *Controller) execute(ctx context.Context, m command.Method, target *command.Target, payload []byte) error {
	if _, ok := c.model.Implements(m); !ok {
		return transactor.ErrUnsupportedOperation
	}
	req := command.BuildV2(m, c.tr.NextSeq(), target, payload)
	_, err := c.tr.Execute(ctx, req, req.Build())
	return err
}

func be16(v uint16) []byte { b := make([]byte, 2); binary.BigEndian.PutUint16(b, v); return b }

// onNotify decodes one slotted streaming frame: the token's low nibble
// selects the slot, the source id's low nibble selects the processor;
// each configured service's attributes are read in declaration order,
// DataSize/8 bytes each, rescaled into [min,max] and published.
func (c *Controller) onNotify(p protocol.Packet) {
	v2, ok := p.(protocol.V2Packet)
	if !ok {
		return
	}
	data := p.Data()
	if len(data) < 1 {
		return
	}
	token := data[0]
	payload := data[1:]
	slotIdx := int(token & 0x0F)
	proc := models.Processor(v2.SourceID & 0x0F)

	c.mu.Lock()
	entries := append([]slotEntry(nil), c.slots[proc][slotIdx]...)
	c.mu.Unlock()
	if len(entries) == 0 {
		return
	}

	sample := make(Sample)
	offset := 0
	for _, e := range entries {
		svc := e.service
		if svc.IsColorDetection() && svc.Slot != 0 {
			continue
		}
		values := make(map[string]float32, len(svc.Attributes))
		n := int(svc.DataSize / 8)
		maxRaw := float64((uint64(1) << svc.DataSize) - 1)
		for _, attr := range svc.Attributes {
			if offset+n > len(payload) {
				return
			}
			raw := readUint(payload[offset : offset+n])
			offset += n
			scaled := float32(float64(attr.Min) + float64(raw)/maxRaw*float64(attr.Max-attr.Min))
			values[attr.Name] = attr.Scale(scaled)
		}
		sample[svc.Name] = values
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

func readUint(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}
