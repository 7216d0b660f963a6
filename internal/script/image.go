// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package script

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
)

// flattenPNG composites a PNG onto an opaque white background and re-encodes
// it. Matplotlib and friends save transparent figures; Jupyter shows them on
// a white page, and the generated app reproduces that.
func flattenPNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}

	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeBase64 decodes a notebook media payload, tolerating the line
// wrapping Jupyter inserts.
func decodeBase64(b64 string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, b64)
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	return data, nil
}

// preparePNG decodes a base64 PNG payload and flattens it for display.
func preparePNG(b64 string) ([]byte, error) {
	raw, err := decodeBase64(b64)
	if err != nil {
		return nil, err
	}
	return flattenPNG(raw)
}

// emitImage writes an st.image call carrying the image bytes inline.
func emitImage(w *writer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	w.linef(`st.image(base64.b64decode(%s), use_column_width="auto")`, pyEscape(encoded))
}
