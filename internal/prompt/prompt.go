// package prompt asks the user questions in the terminal using huh forms.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/shared"
)

// Huh implements the session prompter on top of huh forms.
type Huh struct {
	accessible bool
	input      io.Reader
	output     io.Writer
}

// NewHuh creates a prompter reading from stdin. Accessible mode drops the TUI for plain
// line-based questions (for screen readers and non-tty input).
func NewHuh(accessible bool) *Huh {
	return &Huh{accessible: accessible, input: os.Stdin, output: os.Stderr}
}

// WithIO returns a copy of h using r and w instead of the terminal.
func (h *Huh) WithIO(r io.Reader, w io.Writer) *Huh {
	c := *h
	c.input, c.output = r, w
	return &c
}

// Decide asks question and returns one of choices.
func (h *Huh) Decide(ctx context.Context, question string, choices []models.Decision) (models.Decision, error) {
	if len(choices) == 0 {
		return models.Decision{}, fmt.Errorf("%w: no choices", shared.ErrInvalidArgument)
	}

	answer := choices[0]
	field := huh.NewSelect[models.Decision]().
		Title(question).
		Options(decisionOptions(choices)...).
		Value(&answer)

	if err := h.run(ctx, field); err != nil {
		return models.Decision{}, err
	}
	return answer, nil
}

// Select asks question and returns the index of the chosen label.
func (h *Huh) Select(ctx context.Context, question string, labels []string) (int, error) {
	if len(labels) == 0 {
		return 0, fmt.Errorf("%w: no options", shared.ErrInvalidArgument)
	}

	answer := 0
	field := huh.NewSelect[int]().
		Title(question).
		Options(indexOptions(labels)...).
		Value(&answer)

	if err := h.run(ctx, field); err != nil {
		return 0, err
	}
	return answer, nil
}

// Input asks for a line of text, re-asking until validate accepts it.
func (h *Huh) Input(ctx context.Context, question string, validate func(string) error) (string, error) {
	var answer string
	field := huh.NewInput().
		Title(question).
		Value(&answer)
	if validate != nil {
		field = field.Validate(func(s string) error { return validate(strings.TrimSpace(s)) })
	}

	if err := h.run(ctx, field); err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func (h *Huh) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithAccessible(h.accessible).
		WithInput(h.input).
		WithOutput(h.output)

	err := form.RunWithContext(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, huh.ErrUserAborted), errors.Is(err, context.Canceled):
		return shared.ErrAborted
	default:
		return fmt.Errorf("prompt failed: %w", err)
	}
}

func decisionOptions(choices []models.Decision) []huh.Option[models.Decision] {
	opts := make([]huh.Option[models.Decision], len(choices))
	for i, c := range choices {
		opts[i] = huh.NewOption(c.String(), c)
	}
	return opts
}

func indexOptions(labels []string) []huh.Option[int] {
	opts := make([]huh.Option[int], len(labels))
	for i, l := range labels {
		opts[i] = huh.NewOption(l, i)
	}
	return opts
}

// ExistingDir validates that path names an existing directory.
func ExistingDir(path string) error {
	if path == "" {
		return fmt.Errorf("%w: a path is required", shared.ErrInvalidPath)
	}
	if !shared.IsDir(path) {
		return fmt.Errorf("%w: %s is not a directory", shared.ErrInvalidPath, path)
	}
	return nil
}
