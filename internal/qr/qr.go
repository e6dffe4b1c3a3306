// Package qr renders resolution URLs into scannable image artifacts.
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Renderer turns a URL into an image artifact. It is a pure collaborator: the
// registration transaction treats a rendering failure as fatal.
type Renderer interface {
	Render(url string) (string, error)
}

// ImageRenderer produces PNG data URIs, matching what browser <img> tags
// consume directly.
type ImageRenderer struct {
	size int
}

func NewImageRenderer() *ImageRenderer {
	return &ImageRenderer{size: 256}
}

func (r *ImageRenderer) Render(url string) (string, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, r.size)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
