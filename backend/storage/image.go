package storage

import (
	"bytes"
	"context"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// FitImage downscales an encoded image so it fits within maxW x maxH,
// keeping aspect ratio and the source format. Images already inside the box
// and data that does not decode as an image are returned unchanged.
func FitImage(data []byte, maxW, maxH int) ([]byte, bool, error) {
	if maxW <= 0 || maxH <= 0 {
		return data, false, nil
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return data, false, nil
	}
	if cfg.Width <= maxW && cfg.Height <= maxH {
		return data, false, nil
	}
	imgFormat, err := imaging.FormatFromExtension(format)
	if err != nil {
		return data, false, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, false, err
	}
	fitted := imaging.Fit(img, maxW, maxH, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imgFormat); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

type fittingRelay struct {
	Relay
	maxW, maxH int
}

// WithImageFitting wraps a relay so uploads under the images/ prefix are
// downscaled by FitImage first. Other keys pass straight through.
func WithImageFitting(r Relay, maxW, maxH int) Relay {
	return &fittingRelay{Relay: r, maxW: maxW, maxH: maxH}
}

func (f *fittingRelay) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	if !IsImageKey(key) {
		return f.Relay.Upload(ctx, key, r, contentType)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	fitted, _, err := FitImage(data, f.maxW, f.maxH)
	if err != nil {
		return "", err
	}
	return f.Relay.Upload(ctx, key, bytes.NewReader(fitted), contentType)
}
