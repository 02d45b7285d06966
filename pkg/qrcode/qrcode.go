package qrcode

import (
	"encoding/base64"
	"fmt"
	"image/color"

	goqrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 256

// Renderer turns textual payloads into PNG QR images.
type Renderer struct {
	size       int
	level      goqrcode.RecoveryLevel
	foreground color.Color
	background color.Color
}

// NewRenderer builds a renderer producing square images of the given pixel size.
func NewRenderer(size int) *Renderer {
	if size <= 0 {
		size = defaultSize
	}
	return &Renderer{
		size:       size,
		level:      goqrcode.High,
		foreground: color.RGBA{R: 0x43, G: 0x38, B: 0xca, A: 0xff},
		background: color.White,
	}
}

// PNG encodes payload into a PNG image.
func (r *Renderer) PNG(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("qr payload is empty")
	}
	code, err := goqrcode.New(payload, r.level)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	code.ForegroundColor = r.foreground
	code.BackgroundColor = r.background

	png, err := code.PNG(r.size)
	if err != nil {
		return nil, fmt.Errorf("render qr png: %w", err)
	}
	return png, nil
}

// DataURL encodes payload as a base64 PNG data URL suitable for <img src>.
func (r *Renderer) DataURL(payload string) (string, error) {
	png, err := r.PNG(payload)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
