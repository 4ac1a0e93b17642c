package scraper

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// captureListingImage screenshots the listing's thumbnail into the shared
// output directory and returns the path the API serves it under. The file is
// fully written before the path is handed back.
func (s *Scraper) captureListingImage(el *rod.Element, src Source, index int) (string, error) {
	img, err := el.Element(src.Selectors.Image)
	if err != nil {
		return "", fmt.Errorf("thumbnail not found: %w", err)
	}

	bin, err := img.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return "", fmt.Errorf("capture failed: %w", err)
	}

	if err := os.MkdirAll(s.opts.ScreenshotDir, 0755); err != nil {
		return "", fmt.Errorf("screenshot directory: %w", err)
	}

	name := fmt.Sprintf("%s-%d-%d.png", src.Slug, index, time.Now().UnixMilli())
	if err := os.WriteFile(filepath.Join(s.opts.ScreenshotDir, name), bin, 0644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}

	return "/screenshots/" + name, nil
}
