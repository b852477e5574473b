package transport

import (
	"context"
	"errors"
	"sync"
)

// Simulator is an in-memory fake Adapter for tests. It owns a single
// goroutine that drains writes off a channel, the same shape as a real
// GATT radio driver's single writer, grounded on the channel-owned
// device-state-machine pattern used for simulated hardware devices
// elsewhere in this codebase's ancestry. Unlike a single fixed-protocol
// device, this simulator is protocol-agnostic: callers supply a Respond
// hook that inspects the write and emits notifications back through
// Notify, so the same Simulator serves v1 and v2 fixtures alike.
type Simulator struct {
	Respond func(sim *Simulator, characteristic string, data []byte)

	mu       sync.Mutex
	handlers map[string]func([]byte)

	cmds  chan simWrite
	done  chan struct{}
	close sync.Once
}

type simWrite struct {
	characteristic string
	data           []byte
}

// NewSimulator starts the simulator's internal goroutine. respond may be
// nil for tests that only exercise the write path.
func NewSimulator(respond func(sim *Simulator, characteristic string, data []byte)) *Simulator {
	s := &Simulator{
		Respond:  respond,
		handlers: make(map[string]func([]byte)),
		cmds:     make(chan simWrite),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Simulator) run() {
	for {
		select {
		case <-s.done:
			return
		case w := <-s.cmds:
			if s.Respond != nil {
				s.Respond(s, w.characteristic, w.data)
			}
		}
	}
}

// Scan reports no peripherals; the simulator represents an
// already-chosen, already-addressable device.
func (s *Simulator) Scan(ctx context.Context) (<-chan ScanResult, error) {
	ch := make(chan ScanResult)
	close(ch)
	return ch, nil
}

func (s *Simulator) Connect(ctx context.Context, address string) error { return nil }

func (s *Simulator) Disconnect(ctx context.Context) error { return nil }

func (s *Simulator) Write(ctx context.Context, characteristic string, data []byte) error {
	select {
	case <-s.done:
		return errors.New("transport: simulator closed")
	default:
	}
	select {
	case s.cmds <- simWrite{characteristic, append([]byte(nil), data...)}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return errors.New("transport: simulator closed")
	}
}

func (s *Simulator) Subscribe(ctx context.Context, characteristic string, handler func([]byte)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[characteristic] = handler
	return nil
}

// Notify delivers data to whatever handler is currently subscribed to
// characteristic, if any. Safe to call from within a Respond callback.
func (s *Simulator) Notify(characteristic string, data []byte) {
	s.mu.Lock()
	h := s.handlers[characteristic]
	s.mu.Unlock()
	if h != nil {
		h(data)
	}
}

// Close stops the simulator's internal goroutine. Idempotent.
func (s *Simulator) Close() error {
	s.close.Do(func() { close(s.done) })
	return nil
}
