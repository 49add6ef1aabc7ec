package handlers

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// answerMarkdown renders assistant answers. Raw HTML in model output is escaped.
var answerMarkdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
)

func renderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := answerMarkdown.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
