// Package media holds the QR and document conversion helpers used by the
// recognition modes.
package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 512

// GenerateQR renders text into a PNG QR image.
func GenerateQR(text string) ([]byte, error) {
	png, err := qrcode.Encode(text, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// DecodeQR reads a QR code from an encoded image. Photos of screens often
// fail the first pass, so a TRY_HARDER pass runs before giving up; an
// image without a readable code returns "" and no error.
func DecodeQR(imageData []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize image: %w", err)
	}

	reader := zxqrcode.NewQRCodeReader()
	if result, err := reader.Decode(bmp, nil); err == nil {
		return result.GetText(), nil
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	if result, err := reader.Decode(bmp, hints); err == nil {
		return result.GetText(), nil
	}

	return "", nil
}
