package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jo-hoe/aisign/internal/backend/commandstructure"
	"github.com/jo-hoe/aisign/internal/backend/watermark"
)

const defaultGenerator = "demo_ai_engine"

// WatermarkParams represents typed parameters for the watermark command
type WatermarkParams struct {
	Strength  float64
	Generator string
}

// NewWatermarkParamsFromMap creates WatermarkParams from a generic map
func NewWatermarkParamsFromMap(params map[string]any) (*WatermarkParams, error) {
	strength := commandstructure.GetFloatParam(params, "strength", watermark.DefaultStrength)
	generator := commandstructure.GetStringParam(params, "generator", defaultGenerator)

	if strength <= 0 {
		return nil, fmt.Errorf("strength must be positive, got %v", strength)
	}
	if generator == "" {
		return nil, fmt.Errorf("generator cannot be empty")
	}

	return &WatermarkParams{
		Strength:  strength,
		Generator: generator,
	}, nil
}

// WatermarkCommand embeds a generator signature into the image and re-encodes it
// in its original format
type WatermarkCommand struct {
	name     string
	params   *WatermarkParams
	embedder *watermark.Embedder
	now      func() time.Time
}

// NewWatermarkCommand creates a new watermark command from configuration parameters
func NewWatermarkCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewWatermarkParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return newWatermarkCommand(typedParams), nil
}

// NewWatermarkCommandWithParams creates a new watermark command from concrete typed parameters
func NewWatermarkCommandWithParams(strength float64, generator string) (*WatermarkCommand, error) {
	typedParams, err := NewWatermarkParamsFromMap(map[string]any{"strength": strength, "generator": generator})
	if err != nil {
		return nil, err
	}
	return newWatermarkCommand(typedParams), nil
}

func newWatermarkCommand(params *WatermarkParams) *WatermarkCommand {
	return &WatermarkCommand{
		name:     "WatermarkCommand",
		params:   params,
		embedder: watermark.NewEmbedder(params.Strength),
		now:      time.Now,
	}
}

// Name returns the command name
func (c *WatermarkCommand) Name() string {
	return c.name
}

// GetParams returns the typed parameters
func (c *WatermarkCommand) GetParams() *WatermarkParams {
	return c.params
}

// Execute signs the image
func (c *WatermarkCommand) Execute(imageData []byte) ([]byte, error) {
	img, format, err := watermark.Decode(imageData)
	if err != nil {
		slog.Error("WatermarkCommand: failed to decode image", "error", err)
		return nil, err
	}

	signature, err := watermark.NewMetadata(c.params.Generator, c.now()).Signature()
	if err != nil {
		return nil, err
	}

	signed, err := c.embedder.Embed(img, signature)
	if err != nil {
		slog.Warn("WatermarkCommand: failed to embed signature", "error", err, "format", format)
		return nil, err
	}

	out, outFormat, err := watermark.Encode(signed, format)
	if err != nil {
		slog.Error("WatermarkCommand: failed to encode signed image", "error", err, "format", format)
		return nil, err
	}

	slog.Debug("WatermarkCommand: image signed",
		"input_format", format,
		"output_format", outFormat,
		"input_size_bytes", len(imageData),
		"output_size_bytes", len(out))

	return out, nil
}

func init() {
	commandstructure.DefaultRegistry.MustRegister("WatermarkCommand", NewWatermarkCommand)
}
