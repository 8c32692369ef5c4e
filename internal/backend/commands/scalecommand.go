package commands

import (
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/aisign/internal/backend/commandstructure"
	"github.com/jo-hoe/aisign/internal/backend/watermark"
)

// ScaleParams represents typed parameters for scale command
type ScaleParams struct {
	MaxHeight int
	MaxWidth  int
}

// NewScaleParamsFromMap creates ScaleParams from a generic map
func NewScaleParamsFromMap(params map[string]any) (*ScaleParams, error) {
	if err := commandstructure.ValidateRequiredParams(params, []string{"maxHeight", "maxWidth"}); err != nil {
		return nil, err
	}

	height := commandstructure.GetIntParam(params, "maxHeight", 0)
	width := commandstructure.GetIntParam(params, "maxWidth", 0)
	if err := validateBounds(height, width); err != nil {
		return nil, err
	}

	return &ScaleParams{
		MaxHeight: height,
		MaxWidth:  width,
	}, nil
}

// ScaleCommand shrinks uploads that exceed the configured bounds, preserving
// aspect ratio and format. Smaller images pass through untouched.
type ScaleCommand struct {
	name   string
	params *ScaleParams
}

// NewScaleCommand creates a new scale command from configuration parameters
func NewScaleCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewScaleParamsFromMap(params)
	if err != nil {
		return nil, err
	}

	return &ScaleCommand{
		name:   "ScaleCommand",
		params: typedParams,
	}, nil
}

// NewScaleCommandWithParams creates a new scale command from concrete typed parameters
func NewScaleCommandWithParams(maxHeight, maxWidth int) (*ScaleCommand, error) {
	if err := validateBounds(maxHeight, maxWidth); err != nil {
		return nil, err
	}

	return &ScaleCommand{
		name: "ScaleCommand",
		params: &ScaleParams{
			MaxHeight: maxHeight,
			MaxWidth:  maxWidth,
		},
	}, nil
}

func validateBounds(height, width int) error {
	// below the signable minimum nothing could be signed afterwards
	if height < watermark.MinDimension {
		return fmt.Errorf("maxHeight must be at least %d, got %d", watermark.MinDimension, height)
	}
	if width < watermark.MinDimension {
		return fmt.Errorf("maxWidth must be at least %d, got %d", watermark.MinDimension, width)
	}
	return nil
}

// Name returns the command name
func (c *ScaleCommand) Name() string {
	return c.name
}

// GetParams returns the typed parameters
func (c *ScaleCommand) GetParams() *ScaleParams {
	return c.params
}

// Execute fits the image into the configured bounds
func (c *ScaleCommand) Execute(imageData []byte) ([]byte, error) {
	img, format, err := watermark.Decode(imageData)
	if err != nil {
		slog.Error("ScaleCommand: failed to decode image", "error", err)
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() <= c.params.MaxWidth && bounds.Dy() <= c.params.MaxHeight {
		slog.Debug("ScaleCommand: image within bounds; skipping scaling",
			"width", bounds.Dx(),
			"height", bounds.Dy())
		return imageData, nil
	}

	scaled := imaging.Fit(img, c.params.MaxWidth, c.params.MaxHeight, imaging.Lanczos)
	out, outFormat, err := watermark.Encode(scaled, format)
	if err != nil {
		slog.Error("ScaleCommand: failed to encode scaled image", "error", err, "format", format)
		return nil, err
	}

	slog.Debug("ScaleCommand: scaling complete",
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"scaled_width", scaled.Bounds().Dx(),
		"scaled_height", scaled.Bounds().Dy(),
		"format", outFormat,
		"output_size_bytes", len(out))

	return out, nil
}

func init() {
	commandstructure.DefaultRegistry.MustRegister("ScaleCommand", NewScaleCommand)
}
