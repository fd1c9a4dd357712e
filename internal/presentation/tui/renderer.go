package tui

import (
	"github.com/charmbracelet/glamour"

	"github.com/aretw0/triage/pkg/runner"
)

// NewRenderer returns a runner.ContentRenderer that renders markdown using
// glamour, picking a light or dark style from the terminal background.
// If glamour cannot be initialized the markdown is passed through untouched.
func NewRenderer() runner.ContentRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

// NewStyledRenderer uses a fixed glamour style ("dark", "light", "notty", ...).
func NewStyledRenderer(style string) (runner.ContentRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}
