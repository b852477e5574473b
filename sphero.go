// Package sphero wires the transactor, command catalogue and a toy's
// capability table into a ready-to-use client: the composition root
// that an "Edu" façade or example program would sit on top of (both
// explicitly out of scope here, per spec.md §1).
package sphero

import (
	"context"

	"spherogo.dev/command"
	"spherogo.dev/drive"
	"spherogo.dev/led"
	"spherogo.dev/models"
	"spherogo.dev/protocol"
	"spherogo.dev/sensor"
	"spherogo.dev/streaming"
	"spherogo.dev/transactor"
	"spherogo.dev/transport"
)

// Client is one connected toy, composing the concurrency core with the
// model's declared capability table. Each controller is built eagerly
// at construction, matching the toy's generation: Sensor is populated
// for v1 models, Streaming for v2 models.
type Client struct {
	Transactor *transactor.Transactor
	Model      *models.Model

	Drive     *drive.Controller
	LED       *led.Controller
	Sensor    *sensor.Controller    // non-nil only for v1 models.
	Streaming *streaming.Controller // non-nil only for v2 models.
}

// versionFor maps a model's generation to its transactor wire version.
func versionFor(m *models.Model) transactor.Versioned {
	if m.Generation == models.GenV2 {
		return transactor.V2
	}
	return transactor.V1
}

// New builds a Client bound to adapter and model, without connecting.
// Call Open before issuing any command.
func New(adapter transport.Adapter, model *models.Model) *Client {
	cfg := transactor.Config{SafeInterval: model.CmdSafeInterval}
	tr := transactor.New(adapter, versionFor(model), cfg)
	c := &Client{
		Transactor: tr,
		Model:      model,
		Drive:      drive.New(tr, model),
		LED:        led.New(tr, model),
	}
	if model.Generation == models.GenV2 {
		c.Streaming = streaming.New(tr, model)
	} else {
		c.Sensor = sensor.New(tr, model)
	}
	return c
}

// Open performs the transport connect and protocol handshake per
// spec.md §4.3.
func (c *Client) Open(ctx context.Context, address string) error {
	return c.Transactor.Open(ctx, address)
}

// Close releases the toy's notification listeners and disconnects the
// transport.
func (c *Client) Close(ctx context.Context) error {
	if c.Sensor != nil {
		c.Sensor.Close()
	}
	if c.Streaming != nil {
		c.Streaming.Close()
	}
	return c.Transactor.Close(ctx)
}

// Ping round-trips a no-op request, useful as a liveness check.
func (c *Client) Ping(ctx context.Context) error {
	return c.execute(ctx, command.Ping, nil)
}

// Versions reports the toy's firmware/hardware version record.
func (c *Client) Versions(ctx context.Context) (command.Versions, error) {
	resp, err := c.executeForResponse(ctx, command.GetVersions, nil)
	if err != nil {
		return command.Versions{}, err
	}
	return command.DecodeVersions(resp)
}

// PowerState reports the toy's current battery/charging state.
func (c *Client) PowerState(ctx context.Context) (command.PowerState, error) {
	resp, err := c.executeForResponse(ctx, command.GetPowerState, nil)
	if err != nil {
		return command.PowerState{}, err
	}
	return command.DecodePowerState(resp)
}

// Sleep puts the toy to sleep.
func (c *Client) Sleep(ctx context.Context) error {
	return c.execute(ctx, command.Sleep, nil)
}

// PlayAnimation triggers a droid animation by id and, if wait is true,
// blocks until the device's completion notification fires or ctx is
// done.
func (c *Client) PlayAnimation(ctx context.Context, animation uint16, wait bool) error {
	if !wait {
		return c.execute(ctx, command.PlayAnimation, command.EncodePlayAnimation(animation))
	}

	done := make(chan struct{}, 1)
	unsub := c.Transactor.Subscribe(command.PlayAnimationCompleteNotify.KeyV2(), func(protocol.Packet) {
		select {
		case done <- struct{}{}:
		default:
		}
	})
	defer unsub()

	if err := c.execute(ctx, command.PlayAnimation, command.EncodePlayAnimation(animation)); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) target(m command.Method) *command.Target {
	routing, ok := c.Model.Implements(m)
	if !ok {
		return nil
	}
	return routing.Target
}

func (c *Client) execute(ctx context.Context, m command.Method, payload []byte) error {
	if _, ok := c.Model.Implements(m); !ok {
		return transactor.ErrUnsupportedOperation
	}
	if c.Model.Generation == models.GenV2 {
		req := command.BuildV2(m, c.Transactor.NextSeq(), c.target(m), payload)
		_, err := c.Transactor.Execute(ctx, req, req.Build())
		return err
	}
	req := command.BuildV1(m, c.Transactor.NextSeq(), payload)
	_, err := c.Transactor.Execute(ctx, req, req.Build())
	return err
}

func (c *Client) executeForResponse(ctx context.Context, m command.Method, payload []byte) ([]byte, error) {
	if _, ok := c.Model.Implements(m); !ok {
		return nil, transactor.ErrUnsupportedOperation
	}
	var resp interface {
		Data() []byte
	}
	if c.Model.Generation == models.GenV2 {
		req := command.BuildV2(m, c.Transactor.NextSeq(), c.target(m), payload)
		p, err := c.Transactor.Execute(ctx, req, req.Build())
		if err != nil {
			return nil, err
		}
		resp = p
	} else {
		req := command.BuildV1(m, c.Transactor.NextSeq(), payload)
		p, err := c.Transactor.Execute(ctx, req, req.Build())
		if err != nil {
			return nil, err
		}
		resp = p
	}
	return resp.Data(), nil
}
