// Package imgsize extracts dimensions from encoded screenshot bytes.
package imgsize

import (
	"bytes"
	"fmt"
	"image"

	// Registered decoders for the formats the device produces.
	_ "image/jpeg"
	_ "image/png"
)

// Size returns the dimensions and format of an encoded image.
func Size(data []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("could not decode image header: %w", err)
	}

	return cfg.Width, cfg.Height, format, nil
}
