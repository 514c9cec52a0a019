package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrNotInteractive is returned by prompts when no terminal is attached.
var ErrNotInteractive = errors.New("not running in an interactive terminal")

// Confirm asks a yes/no question. It defaults to "no".
func Confirm(ctx context.Context, question string) (bool, error) {
	if !IsInteractive() {
		return false, ErrNotInteractive
	}

	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(question).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	))
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// Secret prompts for a value without echoing it.
func Secret(ctx context.Context, title string) (string, error) {
	if !IsInteractive() {
		return "", ErrNotInteractive
	}

	var value string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			EchoMode(huh.EchoModePassword).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("value must not be empty")
				}
				return nil
			}).
			Value(&value),
	))
	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}
