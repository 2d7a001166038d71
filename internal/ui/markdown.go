package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

const (
	markdownWriterMissingMessageConstant  = "markdown writer not configured"
	markdownRendererErrorTemplateConstant = "create markdown renderer: %w"
	markdownRenderErrorTemplateConstant   = "render markdown: %w"
	unknownMarkdownStyleTemplateConstant  = "unknown markdown style %q (expected one of %s)"
	markdownStyleSeparatorConstant        = ", "
)

// ErrMarkdownWriterNotConfigured indicates the renderer was asked to write to a nil writer.
var ErrMarkdownWriterNotConfigured = errors.New(markdownWriterMissingMessageConstant)

// MarkdownStyles lists the glamour styles accepted by MarkdownRenderer.
func MarkdownStyles() []string {
	return []string{
		styles.AutoStyle,
		styles.AsciiStyle,
		styles.NoTTYStyle,
		styles.DarkStyle,
		styles.LightStyle,
		styles.DraculaStyle,
		styles.TokyoNightStyle,
		styles.PinkStyle,
	}
}

// MarkdownRenderer renders markdown documents for a terminal.
type MarkdownRenderer struct {
	style    string
	wordWrap int
}

// NewMarkdownRenderer validates style and returns a renderer wrapping at wordWrap columns.
// A zero wordWrap disables wrapping.
func NewMarkdownRenderer(style string, wordWrap int) (*MarkdownRenderer, error) {
	normalizedStyle := strings.ToLower(strings.TrimSpace(style))
	if len(normalizedStyle) == 0 {
		normalizedStyle = styles.AutoStyle
	}
	for _, knownStyle := range MarkdownStyles() {
		if knownStyle == normalizedStyle {
			return &MarkdownRenderer{style: normalizedStyle, wordWrap: wordWrap}, nil
		}
	}
	return nil, fmt.Errorf(unknownMarkdownStyleTemplateConstant, style, strings.Join(MarkdownStyles(), markdownStyleSeparatorConstant))
}

// Render writes the rendered markdown to writer.
func (renderer *MarkdownRenderer) Render(writer io.Writer, markdown string) error {
	if writer == nil {
		return ErrMarkdownWriterNotConfigured
	}

	termRenderer, creationError := glamour.NewTermRenderer(
		glamour.WithStandardStyle(renderer.style),
		glamour.WithWordWrap(renderer.wordWrap),
	)
	if creationError != nil {
		return fmt.Errorf(markdownRendererErrorTemplateConstant, creationError)
	}

	rendered, renderError := termRenderer.Render(markdown)
	if renderError != nil {
		return fmt.Errorf(markdownRenderErrorTemplateConstant, renderError)
	}

	_, writeError := io.WriteString(writer, rendered)
	return writeError
}
