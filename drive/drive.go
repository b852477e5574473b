// Package drive is the roll/heading/stabilisation controller: a thin
// typed layer translating roll intent into the command catalogue's
// drive-with-heading and raw-motor encoders, honouring each model's
// generation-specific direction-inversion rule and a sticky boost bit.
package drive

import (
	"context"

	"spherogo.dev/command"
	"spherogo.dev/models"
	"spherogo.dev/transactor"
)

// Controller drives one connected toy's motors.
type Controller struct {
	tr    *transactor.Transactor
	model *models.Model
	boost bool
}

// New builds a drive controller bound to an open transactor and the
// model's routing table.
func New(tr *transactor.Transactor, model *models.Model) *Controller {
	return &Controller{tr: tr, model: model}
}

// Boost sets or clears the sticky boost bit. While set, every
// RollStart adds the turbo flag on v2 models.
func (c *Controller) Boost(on bool) { c.boost = on }

func normalizeHeading(h int) uint16 {
	h %= 360
	if h < 0 {
		h += 360
	}
	return uint16(h)
}

func clampSpeed(speed int) (magnitude byte, negative bool) {
	neg := speed < 0
	if neg {
		speed = -speed
	}
	if speed > 255 {
		speed = 255
	}
	return byte(speed), neg
}

// RollStart rolls at heading (degrees) and speed (-255..255); a
// negative speed inverts direction per the model's generation.
func (c *Controller) RollStart(ctx context.Context, heading, speed int) error {
	mag, negative := clampSpeed(speed)

	if c.model.Generation == models.GenV2 {
		h := heading
		flags := command.DriveForward
		if negative {
			flags = command.DriveBackward
			h += 180
		}
		wireHeading := normalizeHeading(h)
		if c.boost {
			flags |= command.DriveTurbo
		}
		return c.executeV2(ctx, command.DriveWithHeading, command.EncodeDriveWithHeading(mag, wireHeading, flags))
	}
	// v1's classic roll carries direction as a discrete reverse flag,
	// not a mode bit in the flags byte; the heading is additionally
	// rotated 180° when reversing, matching the real roll_start.
	reverse := command.LegacyReverseOff
	h := heading
	if negative {
		reverse = command.LegacyReverseOn
		h += 180
	}
	wireHeading := normalizeHeading(h)
	return c.executeV1(ctx, command.LegacyRoll, command.EncodeLegacyRoll(mag, wireHeading, command.LegacyRollGo, reverse))
}

// RollStop stops rolling, holding heading.
func (c *Controller) RollStop(ctx context.Context, heading int) error {
	wireHeading := normalizeHeading(heading)
	if c.model.Generation == models.GenV2 {
		return c.executeV2(ctx, command.DriveWithHeading, command.EncodeDriveWithHeading(0, wireHeading, command.DriveForward))
	}
	return c.executeV1(ctx, command.LegacyRoll, command.EncodeLegacyRoll(0, wireHeading, command.LegacyRollStop, command.LegacyReverseOff))
}

// SetHeading reorients without changing speed.
func (c *Controller) SetHeading(ctx context.Context, heading int) error {
	wireHeading := normalizeHeading(heading)
	if c.model.Generation == models.GenV2 {
		return c.executeV2(ctx, command.DriveWithHeading, command.EncodeDriveWithHeading(0, wireHeading, command.DriveForward))
	}
	// The classic API has no discrete set_heading call wired to a
	// drive target; DriveControl reorients via a zero-speed calibrate
	// roll instead.
	return c.executeV1(ctx, command.LegacyRoll, command.EncodeLegacyRoll(0, wireHeading, command.LegacyRollCalibrate, command.LegacyReverseOff))
}

// ResetHeading re-zeroes the toy's heading reference.
func (c *Controller) ResetHeading(ctx context.Context) error {
	if c.model.Generation == models.GenV2 {
		return c.executeV2(ctx, command.ResetYaw, command.EncodeResetYaw())
	}
	return c.executeV1(ctx, command.LegacyRoll, command.EncodeLegacyRoll(0, 0, command.LegacyRollCalibrate, command.LegacyReverseOff))
}

// SetStabilization enables or disables the attitude-control loop.
// Callers must disable stabilisation before driving raw motors.
func (c *Controller) SetStabilization(ctx context.Context, on bool) error {
	if c.model.Generation == models.GenV2 {
		return c.executeV2(ctx, command.SetStabilization, command.EncodeSetStabilization(on))
	}
	return c.executeV1(ctx, command.LegacySetStabilization, command.EncodeLegacySetStabilization(on))
}

// SetRawMotors drives the two motors directly in an abstract mode,
// bypassing stabilisation.
func (c *Controller) SetRawMotors(ctx context.Context, leftMode command.RawMotorMode, leftSpeed byte, rightMode command.RawMotorMode, rightSpeed byte) error {
	if c.model.Generation == models.GenV2 {
		return c.executeV2(ctx, command.SetRawMotors, command.EncodeSetRawMotors(leftMode, leftSpeed, rightMode, rightSpeed))
	}
	return c.executeV1(ctx, command.LegacySetRawMotors, command.EncodeLegacySetRawMotors(leftMode, leftSpeed, rightMode, rightSpeed))
}

func (c *Controller) executeV2(ctx context.Context, m command.Method, payload []byte) error {
	routing, ok := c.model.Implements(m)
	if !ok {
		return transactor.ErrUnsupportedOperation
	}
	req := command.BuildV2(m, c.tr.NextSeq(), routing.Target, payload)
	_, err := c.tr.Execute(ctx, req, req.Build())
	return err
}

func (c *Controller) executeV1(ctx context.Context, m command.Method, payload []byte) error {
	if _, ok := c.model.Implements(m); !ok {
		return transactor.ErrUnsupportedOperation
	}
	req := command.BuildV1(m, c.tr.NextSeq(), payload)
	_, err := c.tr.Execute(ctx, req, req.Build())
	return err
}
