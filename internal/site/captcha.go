package site

import (
	"bytes"
	"context"
	"fmt"
	"image"

	// Challenge images arrive as GIF, but register the other common
	// formats so a site change does not break the sniff.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
)

// Captcha fetches fresh challenge-image bytes. The endpoint is
// non-deterministic; a random query token busts any cache in between.
func (c *Client) Captcha(ctx context.Context) ([]byte, error) {
	return c.getBytes(ctx, c.URL("captcha/show_captcha.php")+"?"+uuid.NewString())
}

// resolveCaptcha fetches a challenge image, hands it to the prompter's
// viewer and blocks for the human-entered code. No retries happen here;
// attempt counting is the caller's responsibility.
func (c *Client) resolveCaptcha(ctx context.Context, purpose string) (string, error) {
	raw, err := c.Captcha(ctx)
	if err != nil {
		return "", err
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("captcha response is not an image: %w", err)
	}
	if err := c.prompter.ShowImage(raw, "."+format); err != nil {
		return "", err
	}
	code, err := c.prompter.Prompt(fmt.Sprintf("Please enter the captcha (%s): ", purpose))
	if err != nil {
		return "", fmt.Errorf("read captcha code: %w", err)
	}
	return code, nil
}
