// Package tcpbridge implements the client side of the optional TCP
// bridge collaborator: a companion process that proxies a real BLE
// radio over a plain TCP connection, so a transactor can run against
// hardware on a different machine than the one issuing commands.
//
// The wire format standardises on network byte order throughout,
// resolving the one inconsistency in the bridge's original design
// (some fields packed host-endian, some network-endian) in favour of
// one rule applied everywhere: every multi-byte field, including the
// scan-timeout float, is big-endian.
package tcpbridge

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net"
	"sync"

	"spherogo.dev/transport"
)

// Op codes, one byte, client to server.
const (
	opScan        byte = 0x00
	opInit        byte = 0x01
	opSetCallback byte = 0x02
	opWrite       byte = 0x03
	opEnd         byte = 0xFF
)

// Response codes, one byte, server to client.
const (
	respOK     byte = 0x00
	respOnData byte = 0x01
	respError  byte = 0xFF
)

// Client is a transport.Adapter backed by a TCP connection to a bridge
// server.
type Client struct {
	conn net.Conn
	r    *bufio.Reader

	cmdMu sync.Mutex // serializes one outstanding command + its ack at a time.

	mu       sync.Mutex
	handlers map[string]func([]byte)
	scanning bool
	scanCh   chan transport.ScanResult
	ackCh    chan error

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial connects to a bridge server at addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcpbridge: dial: %w", err)
	}
	c := &Client{
		conn:     conn,
		r:        bufio.NewReader(conn),
		handlers: make(map[string]func([]byte)),
		closed:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

var _ transport.Adapter = (*Client)(nil)

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func writeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint16(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readString(r io.Reader) (string, error) {
	b, err := readBytes(r)
	return string(b), err
}

func readBytes(r io.Reader) ([]byte, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// readLoop continuously reads frames off the connection. ON_DATA frames
// are dispatched immediately (to the active scan, or to a subscribed
// characteristic handler); OK/ERROR frames complete the single
// in-flight command.
func (c *Client) readLoop() {
	for {
		code, err := c.r.ReadByte()
		if err != nil {
			c.mu.Lock()
			if c.scanCh != nil {
				close(c.scanCh)
				c.scanCh = nil
			}
			c.mu.Unlock()
			c.closeOnce.Do(func() { close(c.closed) })
			return
		}
		switch code {
		case respOnData:
			c.handleOnData()
		case respOK:
			c.deliver(nil)
		case respError:
			msg, _ := readString(c.r)
			c.deliver(fmt.Errorf("tcpbridge: %s", msg))
		default:
			c.closeOnce.Do(func() { close(c.closed) })
			return
		}
	}
}

func (c *Client) handleOnData() {
	c.mu.Lock()
	scanning := c.scanning
	c.mu.Unlock()
	if scanning {
		name, err := readString(c.r)
		if err != nil {
			return
		}
		addr, err := readString(c.r)
		if err != nil {
			return
		}
		c.mu.Lock()
		ch := c.scanCh
		c.mu.Unlock()
		if ch != nil {
			ch <- transport.ScanResult{Name: name, Address: addr}
		}
		return
	}
	characteristic, err := readString(c.r)
	if err != nil {
		return
	}
	data, err := readBytes(c.r)
	if err != nil {
		return
	}
	c.mu.Lock()
	h := c.handlers[characteristic]
	c.mu.Unlock()
	if h != nil {
		h(data)
	}
}

func (c *Client) deliver(err error) {
	c.mu.Lock()
	ch := c.ackCh
	c.ackCh = nil
	c.mu.Unlock()
	if ch != nil {
		ch <- err
	}
}

// ackCh is guarded by mu; only meaningful while cmdMu is held by the
// in-flight command.
func (c *Client) withAck(ctx context.Context, send func() error) error {
	ch := make(chan error, 1)
	c.mu.Lock()
	c.ackCh = ch
	c.mu.Unlock()
	if err := send(); err != nil {
		return err
	}
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return fmt.Errorf("tcpbridge: connection closed")
	}
}

func (c *Client) Scan(ctx context.Context) (<-chan transport.ScanResult, error) {
	c.cmdMu.Lock()
	ch := make(chan transport.ScanResult)
	c.mu.Lock()
	c.scanning = true
	c.scanCh = ch
	c.mu.Unlock()
	err := c.withAck(ctx, func() error {
		if _, err := c.conn.Write([]byte{opScan}); err != nil {
			return err
		}
		return binary.Write(c.conn, binary.BigEndian, math.Float32bits(defaultScanTimeoutSeconds))
	})
	c.mu.Lock()
	c.scanning = false
	c.mu.Unlock()
	c.cmdMu.Unlock()
	if err != nil {
		c.mu.Lock()
		c.scanning = false
		c.scanCh = nil
		c.mu.Unlock()
		close(ch)
		return ch, err
	}
	return ch, nil
}

const defaultScanTimeoutSeconds = 5.0

func (c *Client) Connect(ctx context.Context, address string) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	return c.withAck(ctx, func() error {
		if _, err := c.conn.Write([]byte{opInit}); err != nil {
			return err
		}
		return writeString(c.conn, address)
	})
}

func (c *Client) Disconnect(ctx context.Context) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	_, err := c.conn.Write([]byte{opEnd})
	return err
}

func (c *Client) Write(ctx context.Context, characteristic string, data []byte) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	return c.withAck(ctx, func() error {
		if _, err := c.conn.Write([]byte{opWrite}); err != nil {
			return err
		}
		if err := writeString(c.conn, characteristic); err != nil {
			return err
		}
		return writeBytes(c.conn, data)
	})
}

func (c *Client) Subscribe(ctx context.Context, characteristic string, handler func([]byte)) error {
	c.mu.Lock()
	c.handlers[characteristic] = handler
	c.mu.Unlock()

	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	return c.withAck(ctx, func() error {
		if _, err := c.conn.Write([]byte{opSetCallback}); err != nil {
			return err
		}
		return writeString(c.conn, characteristic)
	})
}
