package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// ExportService renders normalized study content as a printable HTML page.
// Math spans keep their math/math-inline wrappers for the PDF renderer.
type ExportService interface {
	RenderHTML(ctx context.Context, title, text, profile string) ([]byte, error)
}

type exportService struct {
	text TextService
	now  func() time.Time
}

func NewExportService(text TextService) ExportService {
	return &exportService{text: text, now: time.Now}
}

var exportTemplate = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Noto Sans", "Noto Sans Devanagari", sans-serif; margin: 2.5rem; line-height: 1.6; }
.content { white-space: pre-wrap; }
.math { display: block; margin: 0.75rem 0; text-align: center; font-family: "STIX Two Math", serif; }
.math-inline { font-family: "STIX Two Math", serif; }
footer { margin-top: 2rem; font-size: 0.75rem; color: #666; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="content">{{.Body}}</div>
<footer>Generated {{.Generated}}</footer>
</body>
</html>
`))

func (s *exportService) RenderHTML(ctx context.Context, title, text, profile string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrTextRequired
	}
	if profile == "" {
		profile = "export"
	}
	body, err := s.text.Normalize(ctx, text, profile, FormatHTML)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Study notes"
	}

	var buf bytes.Buffer
	err = exportTemplate.Execute(&buf, struct {
		Title     string
		Body      template.HTML
		Generated string
	}{
		Title: title,
		// NormalizeHTML escapes everything outside its own wrappers
		Body:      template.HTML(body),
		Generated: s.now().UTC().Format("2006-01-02 15:04 MST"),
	})
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}
	return buf.Bytes(), nil
}
