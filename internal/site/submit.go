package site

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// SubmitResult is the classified outcome of a submission attempt. An
// unsolved outcome carries no answer fields, so merging it into the
// catalog can never clear previously known correct data.
type SubmitResult struct {
	// CorrectAnswer is the canonical answer echoed by the site, set only
	// when Solved is true.
	CorrectAnswer string
	// CompletedOn is the completion timestamp, set only when Solved is true.
	CompletedOn string
	// Solved reports whether the puzzle stands solved after this attempt.
	Solved bool
	// AlreadySolved reports that the puzzle was solved before this
	// attempt; nothing was posted.
	AlreadySolved bool
}

// Submit runs the submission protocol for one puzzle. When the puzzle
// is already completed by this identity the previously recorded answer
// is returned without posting anything. captcha may be supplied by the
// caller; when empty the challenge is resolved interactively, retrying
// a rejected code up to the configured attempt cap.
func (c *Client) Submit(ctx context.Context, id int, answer string, captcha string) (SubmitResult, error) {
	if err := c.EnsureLoggedIn(ctx); err != nil {
		return SubmitResult{}, err
	}

	pageURL := c.problemURL(id)
	doc, _, err := c.get(ctx, pageURL)
	if err != nil {
		return SubmitResult{}, err
	}

	form := doc.Find("form").First()
	if form.Length() == 0 {
		return SubmitResult{}, fmt.Errorf("problem %d page missing submission form", id)
	}

	// Re-submitting a solved puzzle never re-posts.
	if strings.Contains(form.Text(), "Completed") {
		result := SubmitResult{
			CorrectAnswer: strings.TrimSpace(form.Find("b").First().Text()),
			CompletedOn:   strings.TrimSpace(form.Find("span").First().Text()),
			Solved:        true,
			AlreadySolved: true,
		}
		if err := c.persistSession(); err != nil {
			return result, err
		}
		return result, nil
	}

	token, ok := form.Find(`input[name="submit_token"]`).First().Attr("value")
	if !ok {
		return SubmitResult{}, fmt.Errorf("problem %d page missing submit token", id)
	}

	for attempt := 1; attempt <= c.captchaAttempts; attempt++ {
		code := captcha
		if code == "" {
			code, err = c.resolveCaptcha(ctx, fmt.Sprintf("submit %d", id))
			if err != nil {
				return SubmitResult{}, err
			}
		}

		result, err := c.postAnswer(ctx, id, pageURL, answer, code, token)
		if err == nil {
			if perr := c.persistSession(); perr != nil {
				return result, perr
			}
			return result, nil
		}
		if !errors.Is(err, ErrBadCaptcha) || captcha != "" {
			// A caller-supplied code is spent after one round; the
			// caller decides whether to retry with a fresh challenge.
			return SubmitResult{}, err
		}
		c.log.Warn("captcha rejected during submission",
			zap.Int("problem", id), zap.Int("attempt", attempt))
	}
	return SubmitResult{}, ErrCaptchaAttemptsExceeded
}

// postAnswer performs one POST round and classifies the response.
func (c *Client) postAnswer(ctx context.Context, id int, pageURL, answer, captcha, token string) (SubmitResult, error) {
	doc, _, err := c.postForm(ctx, pageURL, url.Values{
		fmt.Sprintf("guess_%d", id): {answer},
		"captcha":                   {captcha},
		"submit_token":              {token},
	})
	if err != nil {
		return SubmitResult{}, err
	}

	if message := strings.TrimSpace(doc.Find("#message").First().Text()); message != "" {
		return SubmitResult{}, fmt.Errorf("%s: %w", message, ErrBadCaptcha)
	}

	verdict := doc.Find("p").First().Text()
	switch {
	case strings.Contains(verdict, "incorrect"):
		return SubmitResult{}, nil
	case strings.Contains(verdict, "correct"):
		// The form now shows the canonical answer and completion date.
		confirm, _, err := c.get(ctx, pageURL)
		if err != nil {
			return SubmitResult{}, err
		}
		form := confirm.Find("form").First()
		if form.Length() == 0 {
			return SubmitResult{}, fmt.Errorf("problem %d confirmation page missing form", id)
		}
		return SubmitResult{
			CorrectAnswer: strings.TrimSpace(form.Find("b").First().Text()),
			CompletedOn:   strings.TrimSpace(form.Find("span").First().Text()),
			Solved:        true,
		}, nil
	default:
		return SubmitResult{}, fmt.Errorf("problem %d: unrecognized submission response", id)
	}
}
