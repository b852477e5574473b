// Package led is the all-LEDs controller: given a mapping from LED
// name to 0..255, it builds the bit mask and value list in ordinal
// order and emits the narrowest mask-width command the bound model
// implements.
package led

import (
	"context"

	"spherogo.dev/command"
	"spherogo.dev/models"
	"spherogo.dev/transactor"
)

// Controller drives one connected toy's LEDs.
type Controller struct {
	tr    *transactor.Transactor
	model *models.Model
}

func New(tr *transactor.Transactor, model *models.Model) *Controller {
	return &Controller{tr: tr, model: model}
}

// SetLEDs sets each named LED in mapping to its 0..255 value. On v2
// models, LEDs not declared by the model are ignored and the narrowest
// all-LEDs mask command the model implements is used. On v1 models,
// which have no addressable LED mask, "main_red"/"main_green"/
// "main_blue" (the single body LED's channels) and "back_light" (a
// separate white aiming light) are recognized instead.
func (c *Controller) SetLEDs(ctx context.Context, mapping map[string]byte) error {
	if c.model.Generation != models.GenV2 {
		return c.setLEDsV1(ctx, mapping)
	}

	var mask uint32
	var values []byte
	for i, name := range c.model.LEDs {
		v, ok := mapping[name]
		if !ok {
			continue
		}
		mask |= 1 << uint(i)
		values = append(values, v)
	}
	if mask == 0 {
		return nil
	}

	method := command.LEDMethodForWidth(c.model.LEDMaskWidthBytes)
	routing, ok := c.model.Implements(method)
	if !ok {
		return transactor.ErrUnsupportedOperation
	}
	payload := command.EncodeSetAllLEDsWithMask(c.model.LEDMaskWidthBytes, mask, values)
	req := command.BuildV2(method, c.tr.NextSeq(), routing.Target, payload)
	_, err := c.tr.Execute(ctx, req, req.Build())
	return err
}

func (c *Controller) setLEDsV1(ctx context.Context, mapping map[string]byte) error {
	r, hasR := mapping["main_red"]
	g, hasG := mapping["main_green"]
	b, hasB := mapping["main_blue"]
	if hasR || hasG || hasB {
		if _, ok := c.model.Implements(command.LegacySetMainLED); !ok {
			return transactor.ErrUnsupportedOperation
		}
		req := command.BuildV1(command.LegacySetMainLED, c.tr.NextSeq(), command.EncodeLegacySetMainLED(r, g, b))
		if _, err := c.tr.Execute(ctx, req, req.Build()); err != nil {
			return err
		}
	}
	if back, ok := mapping["back_light"]; ok {
		if _, ok := c.model.Implements(command.LegacySetBackLEDBrightness); !ok {
			return transactor.ErrUnsupportedOperation
		}
		req := command.BuildV1(command.LegacySetBackLEDBrightness, c.tr.NextSeq(), command.EncodeLegacySetBackLEDBrightness(back))
		if _, err := c.tr.Execute(ctx, req, req.Build()); err != nil {
			return err
		}
	}
	return nil
}
