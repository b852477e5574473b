// Package transactor implements the sequence-multiplexed request/
// response correlation core: it owns a transport.Adapter, serialises
// writes with an inter-command safety delay, blocks callers until a
// matching response arrives, and fans out unsolicited notifications to
// subscribers without blocking the transport's notification callback.
package transactor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"spherogo.dev/protocol"
	"spherogo.dev/transport"
)

// Config controls the transactor's timing behaviour.
type Config struct {
	// SafeInterval is the minimum delay enforced between consecutive
	// writes, per the model's cmd_safe_interval.
	SafeInterval time.Duration
	// Timeout bounds how long Execute waits for a matching response.
	// Zero means the 10-second default.
	Timeout time.Duration
	// MaxConcurrentDispatch bounds how many subscriber callbacks may
	// run at once.
	MaxConcurrentDispatch int64
}

const defaultTimeout = 10 * time.Second
const defaultMaxConcurrentDispatch = 8

var (
	// ErrTimeout is returned by Execute when no matching response
	// arrives within the configured timeout.
	ErrTimeout = errors.New("transactor: timeout waiting for response")
	// ErrConnectionClosed is returned to every outstanding Execute call
	// when Close runs while requests are still pending.
	ErrConnectionClosed = errors.New("transactor: connection closed")
	// ErrUnsupportedOperation is returned by a domain controller when
	// the bound model's capability table has no route for the
	// requested command.
	ErrUnsupportedOperation = errors.New("transactor: operation not supported by this model")
)

// CommandExecuteError reports a non-success status code returned by
// the device for an executed command.
type CommandExecuteError struct {
	Code byte
	V2   bool
}

func (e *CommandExecuteError) Error() string {
	return fmt.Sprintf("transactor: command failed with code %#02x", e.Code)
}

// Versioned distinguishes which codec and characteristic set a
// Transactor talks to.
type Versioned int

const (
	V1 Versioned = iota
	V2
)

type waiter struct {
	ch chan protocol.Packet
}

type subscription struct {
	fn func(protocol.Packet)
}

// Transactor is the concurrency core described above. Create one per
// connected toy with New, call Open before issuing commands, and Close
// when done.
type Transactor struct {
	adapter transport.Adapter
	version Versioned
	cfg     Config

	seqMu sync.Mutex
	seq   byte

	mu        sync.Mutex
	waiters   map[protocol.Key][]*waiter
	listeners map[protocol.Key]map[*subscription]struct{}
	closed    bool

	outbound    chan []byte
	closeSignal chan struct{}
	drained     chan struct{}

	v1collector protocol.V1Collector
	v2collector protocol.V2Collector

	dispatchSem *semaphore.Weighted
}

// New constructs a Transactor bound to adapter. It does not connect;
// call Open to perform the handshake and start the writer.
func New(adapter transport.Adapter, version Versioned, cfg Config) *Transactor {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxConcurrentDispatch == 0 {
		cfg.MaxConcurrentDispatch = defaultMaxConcurrentDispatch
	}
	return &Transactor{
		adapter:     adapter,
		version:     version,
		cfg:         cfg,
		waiters:     make(map[protocol.Key][]*waiter),
		listeners:   make(map[protocol.Key]map[*subscription]struct{}),
		outbound:    make(chan []byte, 16),
		closeSignal: make(chan struct{}),
		drained:     make(chan struct{}),
		dispatchSem: semaphore.NewWeighted(cfg.MaxConcurrentDispatch),
	}
}

// Open connects the adapter, performs the fixed per-version handshake,
// registers the notification handler, and starts the writer goroutine.
func (t *Transactor) Open(ctx context.Context, address string) error {
	if err := t.adapter.Connect(ctx, address); err != nil {
		return fmt.Errorf("transactor: connect: %w", err)
	}
	switch t.version {
	case V1:
		if err := t.adapter.Subscribe(ctx, transport.CharV1Response, t.onNotify); err != nil {
			return fmt.Errorf("transactor: subscribe: %w", err)
		}
		if err := t.adapter.Write(ctx, transport.CharV1AntiDOS, transport.V1AntiDOSPayload); err != nil {
			return fmt.Errorf("transactor: v1 handshake (anti-dos): %w", err)
		}
		if err := t.adapter.Write(ctx, transport.CharV1Wake, transport.V1WakePayload); err != nil {
			return fmt.Errorf("transactor: v1 handshake (wake): %w", err)
		}
	case V2:
		if err := t.adapter.Subscribe(ctx, transport.CharV2Command, t.onNotify); err != nil {
			return fmt.Errorf("transactor: subscribe: %w", err)
		}
		if err := t.adapter.Write(ctx, transport.CharV2AntiDOS, transport.V2AntiDOSPayload); err != nil {
			return fmt.Errorf("transactor: v2 handshake (anti-dos): %w", err)
		}
	}
	go t.writeLoop()
	return nil
}

// Close drains the outbound queue, fails every outstanding Execute
// call with ErrConnectionClosed, and disconnects the adapter.
func (t *Transactor) Close(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	for key, ws := range t.waiters {
		for _, w := range ws {
			close(w.ch)
		}
		delete(t.waiters, key)
	}
	t.mu.Unlock()

	close(t.closeSignal)
	<-t.drained
	return t.adapter.Disconnect(ctx)
}

func (t *Transactor) writeLoop() {
	defer close(t.drained)
	for {
		var payload []byte
		select {
		case payload = <-t.outbound:
		case <-t.closeSignal:
			// Write whatever is still queued, then stop.
			select {
			case payload = <-t.outbound:
			default:
				return
			}
		}
		chunks := t.fragment(payload)
		for _, chunk := range chunks {
			char := transport.CharV2Command
			if t.version == V1 {
				char = transport.CharV1Command
			}
			if err := t.adapter.Write(context.Background(), char, chunk); err != nil {
				log.Printf("transactor: write failed: %v", err)
			}
		}
		time.Sleep(t.cfg.SafeInterval)
	}
}

// fragment splits v1 payloads over 20 bytes into consecutive 20-byte
// chunks; v2 payloads are always written whole.
func (t *Transactor) fragment(payload []byte) [][]byte {
	if t.version == V2 || len(payload) <= 20 {
		return [][]byte{payload}
	}
	var out [][]byte
	for len(payload) > 0 {
		n := 20
		if n > len(payload) {
			n = len(payload)
		}
		out = append(out, payload[:n])
		payload = payload[n:]
	}
	return out
}

// NextSeq returns the next sequence number, monotone mod 256.
func (t *Transactor) NextSeq() byte {
	t.seqMu.Lock()
	defer t.seqMu.Unlock()
	s := t.seq
	t.seq++
	return s
}

// Execute enqueues a request for writing, waits for its matching
// response (keyed by packet.Key()), and returns it. If the response
// carries a non-success error code, it returns a *CommandExecuteError
// together with the decoded response.
func (t *Transactor) Execute(ctx context.Context, req protocol.Packet, build []byte) (protocol.Packet, error) {
	key := req.Key()
	w := &waiter{ch: make(chan protocol.Packet, 1)}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	t.waiters[key] = append(t.waiters[key], w)
	t.mu.Unlock()

	select {
	case t.outbound <- build:
	case <-ctx.Done():
		t.removeWaiter(key, w)
		return nil, ctx.Err()
	case <-t.closeSignal:
		t.removeWaiter(key, w)
		return nil, ErrConnectionClosed
	}

	timeout := t.cfg.Timeout
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-w.ch:
		if !ok {
			return nil, ErrConnectionClosed
		}
		if code, isErr := resp.IsError(); isErr {
			return resp, &CommandExecuteError{Code: code, V2: t.version == V2}
		}
		return resp, nil
	case <-timer.C:
		t.removeWaiter(key, w)
		return nil, ErrTimeout
	case <-ctx.Done():
		t.removeWaiter(key, w)
		return nil, ctx.Err()
	}
}

func (t *Transactor) removeWaiter(key protocol.Key, w *waiter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ws := t.waiters[key]
	for i, other := range ws {
		if other == w {
			t.waiters[key] = append(ws[:i], ws[i+1:]...)
			break
		}
	}
	if len(t.waiters[key]) == 0 {
		delete(t.waiters, key)
	}
}

// Subscribe registers fn to be invoked, on a bounded worker, for every
// notification matching key. It returns a function that unsubscribes.
func (t *Transactor) Subscribe(key protocol.Key, fn func(protocol.Packet)) func() {
	sub := &subscription{fn: fn}
	t.mu.Lock()
	if t.listeners[key] == nil {
		t.listeners[key] = make(map[*subscription]struct{})
	}
	t.listeners[key][sub] = struct{}{}
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.listeners[key], sub)
	}
}

// onNotify is the adapter's notification callback: it must return
// quickly, so it only feeds the codec collector and dispatches.
func (t *Transactor) onNotify(data []byte) {
	var pkts []protocol.Packet
	var err error
	if t.version == V1 {
		pkts, err = t.v1collector.Add(data)
	} else {
		pkts, err = t.v2collector.Add(data)
	}
	if err != nil {
		log.Printf("transactor: decode error: %v", err)
	}
	for _, p := range pkts {
		t.route(p)
	}
}

func (t *Transactor) route(p protocol.Packet) {
	key := p.Key()

	t.mu.Lock()
	ws := t.waiters[key]
	var resolved *waiter
	if len(ws) > 0 {
		resolved = ws[0]
		rest := append([]*waiter(nil), ws[1:]...)
		if len(rest) > 0 {
			t.waiters[key] = rest
		} else {
			delete(t.waiters, key)
		}
	}
	var subs []*subscription
	for s := range t.listeners[key] {
		subs = append(subs, s)
	}
	t.mu.Unlock()

	if resolved != nil {
		resolved.ch <- p
	}

	for _, s := range subs {
		s := s
		t.dispatch(func() { s.fn(p) })
	}
}

func (t *Transactor) dispatch(fn func()) {
	ctx := context.Background()
	if err := t.dispatchSem.Acquire(ctx, 1); err != nil {
		log.Printf("transactor: dispatch semaphore: %v", err)
		return
	}
	go func() {
		defer t.dispatchSem.Release(1)
		fn()
	}()
}
