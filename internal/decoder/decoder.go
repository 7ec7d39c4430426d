// Package decoder extracts the text payload of a QR code from raw image bytes.
package decoder

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotFound is returned when the input holds no readable QR code. It is an
// expected outcome, not a failure of the decoder.
var ErrNotFound = errors.New("qr code not found")

// DefaultMaxPixels bounds width*height before a full decode is attempted.
const DefaultMaxPixels = 40_000_000

// Decoder reads QR codes from PNG, JPEG, GIF, BMP, TIFF and WebP images.
type Decoder struct {
	maxPixels int
}

// New returns a Decoder with the default pixel budget.
func New() *Decoder {
	return &Decoder{maxPixels: DefaultMaxPixels}
}

// Decode returns the QR payload found in data, or ErrNotFound.
func (d *Decoder) Decode(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNotFound
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", ErrNotFound
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > d.maxPixels {
		return "", ErrNotFound
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", ErrNotFound
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", ErrNotFound
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", ErrNotFound
	}

	text := result.GetText()
	if text == "" {
		return "", ErrNotFound
	}
	return text, nil
}
