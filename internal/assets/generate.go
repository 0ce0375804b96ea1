package assets

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"
)

// generateBackground renders a background image via Pollinations.ai
// (free, no key). Used only when no local or Drive background exists
// and assets.generate_background is enabled; any failure degrades to
// the solid-color default like every other missing asset.
func (r *Resolver) generateBackground(ctx context.Context, destPath string) error {
	prompt := r.cfg.Assets.BackgroundPrompt
	if prompt == "" {
		prompt = "calm japanese living room at dusk, warm lamp light, soft focus, no text, no people"
	}

	imageURL := fmt.Sprintf(
		"https://image.pollinations.ai/prompt/%s?width=%d&height=%d&nologo=true&model=flux",
		url.PathEscape(prompt),
		r.cfg.Video.Width, r.cfg.Video.Height,
	)

	client := &http.Client{Timeout: 60 * time.Second}

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = downloadImage(ctx, client, imageURL, destPath)
		if err == nil {
			return nil
		}
		log.Printf("[assets] Background generation attempt %d failed: %v", attempt, err)
		time.Sleep(time.Duration(attempt) * 3 * time.Second)
	}
	return fmt.Errorf("pollinations fetch failed after 3 attempts: %w", err)
}

func downloadImage(ctx context.Context, client *http.Client, imageURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from Pollinations", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	// An error page is not an image.
	if len(data) < 100 {
		return fmt.Errorf("response too small (%d bytes)", len(data))
	}
	return os.WriteFile(destPath, data, 0644)
}
