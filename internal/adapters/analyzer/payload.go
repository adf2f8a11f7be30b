package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/target/trendscout/internal/core"
)

const analysisPrompt = `Analyze this trending short-form video for a small business.
Business description: %s

Answer with these labelled sections:
Visuals: what happens in the video (scenes, on-screen text, format).
Transcript: the spoken words, or "none" if nobody speaks.
Why it works: hooks, pacing, trends, sounds.
Adaptation: how this business could adapt the idea.

Video description: %s
Engagement: %d views, %d likes, %d comments, %d shares.`

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type fileData struct {
	MimeType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

func buildRequest(req core.AnalyzeRequest) generateRequest {
	v := req.Video
	prompt := fmt.Sprintf(analysisPrompt,
		strings.TrimSpace(req.BusinessDescription), strings.TrimSpace(v.Description),
		v.Metrics.Views, v.Metrics.Likes, v.Metrics.Comments, v.Metrics.Shares)
	return generateRequest{Contents: []content{{
		Role: "user",
		Parts: []part{
			{FileData: &fileData{MimeType: "video/mp4", FileURI: v.RemoteMediaURL}},
			{Text: prompt},
		},
	}}}
}

// generateResponse is the shape of both the blocking response and each streamed frame.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// DecodeText extracts candidates[0].content.parts[*].text from a response body or stream frame.
func DecodeText(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String(), nil
}
