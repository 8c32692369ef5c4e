package commands

import (
	"fmt"
	"log/slog"

	"github.com/jo-hoe/aisign/internal/backend/commandstructure"
	"github.com/jo-hoe/aisign/internal/backend/watermark"
)

var losslessFormats = map[string]bool{
	"png":  true,
	"bmp":  true,
	"tiff": true,
}

// LosslessParams represents typed parameters for the lossless command
type LosslessParams struct {
	Format string
	Force  bool
}

// NewLosslessParamsFromMap creates LosslessParams from a generic map
func NewLosslessParamsFromMap(params map[string]any) (*LosslessParams, error) {
	format := commandstructure.GetStringParam(params, "format", "png")
	if format == "tif" {
		format = "tiff"
	}
	if !losslessFormats[format] {
		return nil, fmt.Errorf("format must be one of png, bmp or tiff, got %q", format)
	}
	return &LosslessParams{
		Format: format,
		Force:  commandstructure.GetBoolParam(params, "force", false),
	}, nil
}

// LosslessCommand re-encodes lossy uploads (jpeg, webp, gif) into a lossless
// format. Placed before WatermarkCommand it keeps the embedded coefficients out
// of JPEG quantization.
type LosslessCommand struct {
	name   string
	params *LosslessParams
}

// NewLosslessCommand creates a new lossless command from configuration parameters
func NewLosslessCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewLosslessParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &LosslessCommand{name: "LosslessCommand", params: typedParams}, nil
}

// Name returns the command name
func (c *LosslessCommand) Name() string {
	return c.name
}

func (c *LosslessCommand) Execute(imageData []byte) ([]byte, error) {
	current, err := watermark.SniffFormat(imageData)
	if err != nil {
		return nil, err
	}
	if losslessFormats[current] && !c.params.Force {
		slog.Debug("LosslessCommand: input already lossless", "format", current)
		return imageData, nil
	}

	img, _, err := watermark.Decode(imageData)
	if err != nil {
		return nil, err
	}
	out, format, err := watermark.Encode(img, c.params.Format)
	if err != nil {
		return nil, err
	}

	slog.Debug("LosslessCommand: image re-encoded",
		"input_format", current,
		"output_format", format,
		"input_size_bytes", len(imageData),
		"output_size_bytes", len(out))
	return out, nil
}

func init() {
	commandstructure.DefaultRegistry.MustRegister("LosslessCommand", NewLosslessCommand)
}
