package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
)

const queryGenerationPrompt = `You are a short-form video marketing researcher.
Given a business description, propose up to 5 short search phrases that would surface
trending TikTok videos relevant to that business and its customers.
Respond with a JSON array of strings only, for example ["phrase one", "phrase two"].`

const summarizationPrompt = `You are a social media strategist for small businesses.
You will receive analyses of trending short-form videos and a business description.
Write a marketing strategy with exactly these headed sections, each header on its own line
followed by a colon:
Content themes:
Posting frequency:
Hashtags:
Engagement:
Recommendations:`

// maxAnalysisChars bounds each analysis included in the summarization prompt.
const maxAnalysisChars = 4000

var (
	_ core.QueryGenerator = (*Client)(nil)
	_ core.Summarizer     = (*Client)(nil)
)

// GenerateQueries returns the model's raw answer; parsing is left to the caller.
func (c *Client) GenerateQueries(ctx context.Context, businessDescription string) (string, error) {
	desc := strings.TrimSpace(businessDescription)
	if desc == "" {
		return "", fmt.Errorf("llm generate queries: business description required")
	}
	return c.complete(ctx, "llm generate queries", []chatMessage{
		{Role: "system", Content: queryGenerationPrompt},
		{Role: "user", Content: "Business description: " + desc},
	})
}

// Summarize aggregates successful analyses into free-text strategy advice.
func (c *Client) Summarize(ctx context.Context, req core.SummarizeRequest) (string, error) {
	if len(req.Analyses) == 0 {
		return "", fmt.Errorf("llm summarize: no analyses")
	}
	return c.complete(ctx, "llm summarize", []chatMessage{
		{Role: "system", Content: summarizationPrompt},
		{Role: "user", Content: buildSummaryInput(req.BusinessDescription, req.Analyses)},
	})
}

func buildSummaryInput(businessDescription string, analyses []model.AnalysisResult) string {
	var b strings.Builder
	b.WriteString("Business description: ")
	b.WriteString(strings.TrimSpace(businessDescription))
	b.WriteString("\n\n")
	for i, a := range analyses {
		text := strings.TrimSpace(a.Text)
		if r := []rune(text); len(r) > maxAnalysisChars {
			text = string(r[:maxAnalysisChars]) + "..."
		}
		fmt.Fprintf(&b, "Video %d (%s):\n%s\n\n", i+1, a.VideoID, text)
	}
	return strings.TrimSpace(b.String())
}
