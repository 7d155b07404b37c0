// Package render converts note bodies from markdown into display markup.
// Rendering is best-effort: a broken body degrades to empty output and a
// log line, never to a failed request.
package render

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ilmarsk/notehub/internal/logger"
)

// RenderService renders markdown note bodies into sanitized HTML.
type RenderService interface {
	// Render converts body into display markup. A nil body yields empty
	// markup. Render never returns an error; failures are logged and
	// degrade to empty output.
	Render(body *string) template.HTML
}

type renderService struct {
	md goldmark.Markdown
}

// NewRenderService builds a renderer with GFM extensions. Raw HTML in the
// source is not passed through (goldmark's default), which keeps the
// output safe to embed.
func NewRenderService() RenderService {
	return &renderService{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
				extension.TaskList,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}
}

// Render implements RenderService.
func (s *renderService) Render(body *string) template.HTML {
	if body == nil || *body == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(*body), &buf); err != nil {
		logger.Warnf("markdown render degraded to empty output: %v", err)
		return ""
	}
	return template.HTML(buf.String())
}
