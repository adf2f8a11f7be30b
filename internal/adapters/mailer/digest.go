package mailer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
)

const digestSubject = "Your daily TikTok trend strategy"

const digestHTML = `<!doctype html>
<html><body style="font-family:sans-serif;max-width:640px;margin:auto">
<h1>Today's trend strategy</h1>
<p>Based on {{.Summary.AnalyzedVideosCount}} analyzed of {{.Summary.VideosCount}} trending videos
for <em>{{.BusinessDescription}}</em>.</p>
{{with .Summary.SearchQueries}}<p>Searches: {{join . ", "}}</p>{{end}}
{{range .Sections}}<h2>{{.Title}}</h2><p style="white-space:pre-line">{{.Body}}</p>
{{else}}<p style="white-space:pre-line">{{.Summary.MarketingStrategy.RawText}}</p>
{{end}}<p style="color:#888">Generated {{.GeneratedAt.Format "Jan 2, 2006 15:04 MST"}}</p>
</body></html>`

const digestText = `Today's trend strategy
Based on {{.Summary.AnalyzedVideosCount}} analyzed of {{.Summary.VideosCount}} trending videos for {{.BusinessDescription}}.
{{range .Sections}}
{{.Title}}
{{.Body}}
{{else}}
{{.Summary.MarketingStrategy.RawText}}
{{end}}`

var (
	funcs        = map[string]any{"join": strings.Join}
	htmlTemplate = htmltemplate.Must(htmltemplate.New("digest").Funcs(funcs).Parse(digestHTML))
	textTemplate = texttemplate.Must(texttemplate.New("digest").Funcs(funcs).Parse(digestText))
)

// DigestParams groups the inputs of RenderDigest.
type DigestParams struct {
	To                  string
	BusinessDescription string
	Snapshot            json.RawMessage
	GeneratedAt         time.Time
}

type section struct {
	Title string
	Body  string
}

type digestView struct {
	BusinessDescription string
	Summary             model.RunSummary
	Sections            []section
	GeneratedAt         time.Time
}

// RenderDigest builds the notification email from a stored run snapshot.
func RenderDigest(p DigestParams) (core.Email, error) {
	if len(p.Snapshot) == 0 {
		return core.Email{}, errors.New("snapshot is empty")
	}
	var summary model.RunSummary
	if err := json.Unmarshal(p.Snapshot, &summary); err != nil {
		return core.Email{}, fmt.Errorf("decode snapshot: %w", err)
	}

	view := digestView{
		BusinessDescription: p.BusinessDescription,
		Summary:             summary,
		Sections:            sections(summary.MarketingStrategy),
		GeneratedAt:         p.GeneratedAt.UTC(),
	}

	var html, text bytes.Buffer
	if err := htmlTemplate.Execute(&html, view); err != nil {
		return core.Email{}, fmt.Errorf("render html: %w", err)
	}
	if err := textTemplate.Execute(&text, view); err != nil {
		return core.Email{}, fmt.Errorf("render text: %w", err)
	}
	return core.Email{
		To:      p.To,
		Subject: digestSubject,
		HTML:    html.String(),
		Text:    strings.TrimSpace(text.String()),
	}, nil
}

func sections(doc model.StrategyDocument) []section {
	var out []section
	for _, s := range []section{
		{"Content themes", doc.ContentThemes},
		{"Posting frequency", doc.PostingFrequency},
		{"Hashtags", doc.Hashtags},
		{"Engagement", doc.Engagement},
		{"Recommendations", doc.Recommendations},
	} {
		if strings.TrimSpace(s.Body) != "" {
			out = append(out, s)
		}
	}
	return out
}
