package extract

import (
	"regexp"
	"strings"

	"github.com/target/trendscout/internal/domain/model"
)

// analysisHeaderRe matches the labelled sections the analyzer is asked to produce.
var analysisHeaderRe = regexp.MustCompile(
	`(?im)^[ \t#*>\-\d.)]*(visuals|transcript|why it works|adaptation)[ \t*]*:[ \t*]*`,
)

// Analysis splits a video analysis into its stored columns. Summary is always the whole
// text; Transcript and FrameAnalysis are filled only when their section is present and
// says something. A transcript of "none" counts as absent.
func Analysis(text string) model.VideoAnalysis {
	out := model.VideoAnalysis{Summary: strings.TrimSpace(text)}
	locs := analysisHeaderRe.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(text[loc[1]:end])
		switch strings.ToLower(text[loc[2]:loc[3]]) {
		case "visuals":
			if out.FrameAnalysis == "" {
				out.FrameAnalysis = body
			}
		case "transcript":
			if out.Transcript == "" && !isNone(body) {
				out.Transcript = body
			}
		}
	}
	return out
}

func isNone(s string) bool {
	switch strings.ToLower(strings.Trim(s, ` ."'()`)) {
	case "", "none", "n/a", "no speech", "no transcript":
		return true
	}
	return false
}
