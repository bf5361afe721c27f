// Package media prepares images before they are sent to the image host.
package media

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Downscale fits the image at src into a maxDim x maxDim box and writes the
// result next to it. It returns the path to upload and whether a new file was
// written; the caller owns that file. Images that already fit, and files
// imaging cannot decode, are returned unchanged.
func Downscale(src, contentType string, maxDim int) (string, bool, error) {
	if maxDim <= 0 {
		return src, false, nil
	}
	format, ok := formatFor(contentType)
	if !ok {
		return src, false, nil
	}
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return src, false, nil
	}
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return src, false, nil
	}
	fitted := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	out, err := os.CreateTemp(filepath.Dir(src), "fit-*")
	if err != nil {
		return src, false, fmt.Errorf("create resized file: %w", err)
	}
	if err := imaging.Encode(out, fitted, format, imaging.JPEGQuality(85)); err != nil {
		out.Close()
		os.Remove(out.Name())
		return src, false, fmt.Errorf("encode resized image: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return src, false, fmt.Errorf("close resized file: %w", err)
	}
	return out.Name(), true, nil
}

func formatFor(contentType string) (imaging.Format, bool) {
	switch contentType {
	case "image/jpeg":
		return imaging.JPEG, true
	case "image/png":
		return imaging.PNG, true
	case "image/gif":
		return imaging.GIF, true
	}
	return 0, false
}
