package site

import "errors"

// Expected failure outcomes of the site protocol. Callers match these
// with errors.Is; anything else coming out of this package is a
// transport or parse failure.
var (
	// ErrLoginUnsuccessful reports a rejected username/password or a
	// failed post-login verification. Not retried automatically.
	ErrLoginUnsuccessful = errors.New("login unsuccessful")

	// ErrBadCaptcha reports a rejected challenge code. Callers may retry
	// with a fresh challenge, bounded by the configured attempt cap.
	ErrBadCaptcha = errors.New("captcha rejected")

	// ErrCaptchaAttemptsExceeded reports that the challenge retry cap was
	// exhausted. Fatal for the current operation.
	ErrCaptchaAttemptsExceeded = errors.New("too many captcha attempts")

	// ErrProblemDoesNotExist reports a puzzle id the site does not serve.
	ErrProblemDoesNotExist = errors.New("problem does not exist")
)
