package site

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/liamcryan/ieuler/internal/models"
)

// LoggedIn probes the current session by fetching the home page and
// looking for the authenticated-user marker element. No side effects
// beyond the probe itself.
func (c *Client) LoggedIn(ctx context.Context) (bool, error) {
	doc, _, err := c.get(ctx, c.URL(""))
	if err != nil {
		return false, err
	}
	return doc.Find("#info_panel strong").Length() > 0, nil
}

// EnsureLoggedIn guarantees that subsequent site requests carry a valid
// session. When the current session is anonymous it loads credentials
// from the store (prompting the user if none exist), then runs the
// challenge-and-sign-in flow, retrying a rejected challenge up to the
// configured attempt cap. Credentials and session cookies are persisted
// only after a successful login.
func (c *Client) EnsureLoggedIn(ctx context.Context) error {
	ok, err := c.LoggedIn(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	creds, err := c.store.Credentials()
	if err != nil {
		return err
	}
	if creds == nil {
		if !c.prompter.Confirm("A login is required. Would you like to continue?") {
			return fmt.Errorf("login declined: %w", ErrLoginUnsuccessful)
		}
		username, err := c.prompter.Prompt("Please enter your Project Euler username: ")
		if err != nil {
			return err
		}
		password, err := c.prompter.Password("Please enter your Project Euler password: ")
		if err != nil {
			return err
		}
		creds = &models.Credentials{Username: username, Password: password}
	}

	for attempt := 1; attempt <= c.captchaAttempts; attempt++ {
		code, err := c.resolveCaptcha(ctx, "sign in")
		if err != nil {
			return err
		}
		err = c.Login(ctx, creds.Username, creds.Password, code)
		if errors.Is(err, ErrBadCaptcha) {
			c.log.Warn("captcha rejected during sign in", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return err
		}
		if err := c.store.SaveCredentials(*creds); err != nil {
			return err
		}
		return c.persistSession()
	}
	return ErrCaptchaAttemptsExceeded
}

// Login posts the credentials and challenge code to the sign-in
// endpoint and classifies the outcome. A redirect to the post-login
// landing page means success; otherwise the page's error-message
// element decides between ErrLoginUnsuccessful and ErrBadCaptcha.
func (c *Client) Login(ctx context.Context, username, password, captcha string) error {
	doc, finalURL, err := c.postForm(ctx, c.URL("sign_in"), url.Values{
		"username": {username},
		"password": {password},
		"captcha":  {captcha},
		"sign_in":  {"Sign In"},
	})
	if err != nil {
		return err
	}

	if finalURL != nil && finalURL.String() == c.URL("archives") {
		return nil
	}

	message := strings.TrimSpace(doc.Find("#message").First().Text())
	if message == "" {
		return fmt.Errorf("sign-in response missing error message element")
	}
	if strings.Contains(message, "Username not known") {
		return fmt.Errorf("%s: %w", message, ErrLoginUnsuccessful)
	}
	if strings.Contains(message, "did not enter the confirmation code") {
		return fmt.Errorf("%s: %w", message, ErrBadCaptcha)
	}
	return fmt.Errorf("%s: %w", message, ErrLoginUnsuccessful)
}

// Logout fetches the home page, locates the sign-out link and follows
// it. Callers re-probe with LoggedIn to confirm.
func (c *Client) Logout(ctx context.Context) error {
	doc, _, err := c.get(ctx, c.URL(""))
	if err != nil {
		return err
	}
	href, ok := doc.Find(`a[title="Sign Out"]`).First().Attr("href")
	if !ok {
		return nil
	}
	if _, _, err := c.get(ctx, c.URL(href)); err != nil {
		return err
	}
	return c.persistSession()
}
