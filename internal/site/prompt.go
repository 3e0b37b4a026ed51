package site

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// Prompter abstracts the human collaborator: confirmations, text input,
// hidden password input and displaying a challenge image.
type Prompter interface {
	// Confirm asks a yes/no question and reports the answer.
	Confirm(prompt string) bool
	// Prompt reads one line of input.
	Prompt(prompt string) (string, error)
	// Password reads one line without echoing it.
	Password(prompt string) (string, error)
	// ShowImage displays challenge image bytes to the user. ext is the
	// file extension matching the image format, including the dot.
	ShowImage(img []byte, ext string) error
}

// TermPrompter prompts on a terminal and displays images through an
// external viewer command.
type TermPrompter struct {
	// In is the input stream, normally os.Stdin.
	In io.Reader
	// Out is the output stream, normally os.Stdout.
	Out io.Writer
	// Viewer is the command used to open image files.
	Viewer string
}

// NewTermPrompter returns a TermPrompter on stdin/stdout using the given
// viewer command.
func NewTermPrompter(viewer string) *TermPrompter {
	return &TermPrompter{In: os.Stdin, Out: os.Stdout, Viewer: viewer}
}

// Confirm asks a y/n question; anything not starting with "y" is no.
func (p *TermPrompter) Confirm(prompt string) bool {
	answer, err := p.Prompt(prompt + " [y/N]: ")
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(answer), "y")
}

// Prompt reads one trimmed line of input.
func (p *TermPrompter) Prompt(prompt string) (string, error) {
	fmt.Fprint(p.Out, prompt)
	scanner := bufio.NewScanner(p.In)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// Password reads a line without echo when stdin is a terminal, falling
// back to a plain prompt otherwise.
func (p *TermPrompter) Password(prompt string) (string, error) {
	if f, ok := p.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.Out, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return p.Prompt(prompt)
}

// ShowImage writes the image to a temp file and launches the viewer on
// it. The viewer runs detached; the user reads the code from it and
// types it back at the prompt.
func (p *TermPrompter) ShowImage(img []byte, ext string) error {
	f, err := os.CreateTemp("", "captcha-*"+ext)
	if err != nil {
		return fmt.Errorf("write captcha image: %w", err)
	}
	if _, err := f.Write(img); err != nil {
		f.Close()
		return fmt.Errorf("write captcha image: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write captcha image: %w", err)
	}

	cmd := exec.Command(p.Viewer, f.Name())
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch viewer %s on %s: %w", p.Viewer, filepath.Base(f.Name()), err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
