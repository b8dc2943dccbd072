package social

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// Card dimensions per destination. The Instagram square doubles as
// the generic card size.
const (
	CardWidth  = 1080
	CardHeight = 1080

	FacebookCardWidth  = 1200
	FacebookCardHeight = 630

	captureTimeout = 30 * time.Second
)

// CaptureCard renders a card page in headless Chromium and writes the
// screenshot as PNG. The page signals rendering completion by setting
// data-ready="true" on its root element.
func CaptureCard(parentCtx context.Context, pageURL string, width int, height int, outPath string) error {
	if width <= 0 {
		width = CardWidth
	}
	if height <= 0 {
		height = CardHeight
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, captureTimeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Let the final paint settle before the screenshot.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture %s: %w", pageURL, err)
	}

	if err := os.WriteFile(outPath, png, 0o644); err != nil {
		return fmt.Errorf("capture %s: write png: %w", pageURL, err)
	}
	return nil
}
