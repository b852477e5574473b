// Package models holds the per-toy capability table: which commands a
// concrete model implements (and whether they must be pinned to a
// processor), its LED roster in bit order, and its sensor/streaming
// schemas. This replaces an inheritance hierarchy with a single data
// table per model, matched against the command catalogue at runtime.
package models

import (
	"time"

	"spherogo.dev/command"
)

// Generation distinguishes which wire protocol and characteristic set
// a model speaks.
type Generation int

const (
	GenV1 Generation = iota
	GenV2
)

// Processor identifies one of a two-processor droid's on-board
// controllers. Ordinal matches the value plugged into the v2
// tid formula: tid = (1<<4) | ordinal.
type Processor byte

const (
	ProcessorPrimary   Processor = 0
	ProcessorSecondary Processor = 1
)

// Routing records how a model dispatches one command: as a free
// command, or pinned to a specific on-board processor.
type Routing struct {
	Target *command.Target
}

// SensorComponent is one named, scaled scalar within a sensor group or
// streaming service attribute list.
type SensorComponent struct {
	Name     string
	Bit      uint32 // this component's bit, as a value within the 32-bit mask.
	Min, Max float32
	Modifier func(raw float32) float32 // optional; nil means identity.
}

func (c SensorComponent) Scale(raw float32) float32 {
	if c.Modifier != nil {
		return c.Modifier(raw)
	}
	return raw
}

// SensorGroup is a named, ordered set of components sharing one 32-bit
// mask namespace (e.g. "accelerometer" with x/y/z). Components must be
// declared in bit-descending order, matching the on-wire sample order.
type SensorGroup struct {
	Name       string
	Components []SensorComponent
}

// Mask ORs every component's bit together.
func (g SensorGroup) Mask() uint32 {
	var m uint32
	for _, c := range g.Components {
		m |= c.Bit
	}
	return m
}

// StreamingDataSize is the v2 streaming service's per-attribute sample
// width.
type StreamingDataSize int

const (
	StreamingEightBit   StreamingDataSize = 8
	StreamingSixteenBit StreamingDataSize = 16
	StreamingThirtyTwoBit StreamingDataSize = 32
)

// StreamingService is a named bundle of attributes occupying one v2
// streaming slot on one processor.
type StreamingService struct {
	Name       string
	Processor  Processor
	Slot       int
	DataSize   StreamingDataSize
	Attributes []SensorComponent
}

// IsColorDetection reports whether this service is the one subject to
// the "slot zero only" restriction in spec.md §4 (Streaming service).
func (s StreamingService) IsColorDetection() bool { return s.Name == "color_detection" }

// Model is the complete capability record for one concrete toy.
type Model struct {
	Name            string
	FilterPrefix    string
	Prefix          string
	Generation      Generation
	CmdSafeInterval time.Duration

	Implemented map[command.Method]Routing

	// LEDs is the LED roster in ordinal (bit-position) order.
	LEDs []string
	// LEDMaskWidthBytes is the narrowest mask width this model
	// implements for its all-LEDs command (2 or 4).
	LEDMaskWidthBytes int

	Sensors         []SensorGroup
	ExtendedSensors []SensorGroup

	StreamingServices []StreamingService
}

// Implements reports whether m routes method, and how.
func (m *Model) Implements(method command.Method) (Routing, bool) {
	r, ok := m.Implemented[method]
	return r, ok
}

// LEDOrdinal returns the bit position of the named LED, or -1 if the
// model has no such LED.
func (m *Model) LEDOrdinal(name string) int {
	for i, n := range m.LEDs {
		if n == name {
			return i
		}
	}
	return -1
}
