package extract

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/target/trendscout/internal/domain/model"
)

type section int

const (
	sectionContentThemes section = iota
	sectionPostingFrequency
	sectionHashtags
	sectionEngagement
	sectionRecommendations
)

// sectionHeaderRe matches a header at the start of a line, tolerating markdown decoration
// such as "## ", "**", "1." or "- " around the name.
var sectionHeaderRe = regexp.MustCompile(
	`(?im)^[ \t#*>\-\d.)]*` +
		`(content themes|posting frequency|hashtags|engagement(?: strateg(?:y|ies)| tactics| tips)?|recommendations)` +
		`[ \t*]*:[ \t*]*`,
)

func sectionFor(header string) (section, bool) {
	h := strings.ToLower(header)
	switch {
	case strings.HasPrefix(h, "content themes"):
		return sectionContentThemes, true
	case strings.HasPrefix(h, "posting frequency"):
		return sectionPostingFrequency, true
	case strings.HasPrefix(h, "hashtags"):
		return sectionHashtags, true
	case strings.HasPrefix(h, "engagement"):
		return sectionEngagement, true
	case strings.HasPrefix(h, "recommendations"):
		return sectionRecommendations, true
	default:
		return 0, false
	}
}

// Strategy parses a summarizer answer into a StrategyDocument.
// Missing sections are left empty; the first occurrence of a header wins.
func Strategy(raw string) model.StrategyDocument {
	doc := model.StrategyDocument{RawText: strings.TrimSpace(raw)}
	if doc.RawText == "" {
		return doc
	}

	locs := sectionHeaderRe.FindAllStringSubmatchIndex(raw, -1)
	filled := make(map[section]bool, len(locs))
	for i, loc := range locs {
		sec, ok := sectionFor(raw[loc[2]:loc[3]])
		if !ok || filled[sec] {
			continue
		}
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(raw[loc[1]:end])
		setSection(&doc, sec, body)
		filled[sec] = true
	}
	return doc
}

func setSection(doc *model.StrategyDocument, sec section, body string) {
	switch sec {
	case sectionContentThemes:
		doc.ContentThemes = body
	case sectionPostingFrequency:
		doc.PostingFrequency = body
	case sectionHashtags:
		doc.Hashtags = body
	case sectionEngagement:
		doc.Engagement = body
	case sectionRecommendations:
		doc.Recommendations = body
	}
}

// StorageName derives the object name from a public storage URL: the last path segment
// without query string. Unparseable input falls back to plain string splitting.
func StorageName(mediaURL string) string {
	mediaURL = strings.TrimSpace(mediaURL)
	if mediaURL == "" {
		return ""
	}
	if u, err := url.Parse(mediaURL); err == nil && u.Path != "" {
		name := path.Base(u.Path)
		if name == "/" || name == "." {
			return ""
		}
		return name
	}
	s := mediaURL
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// StorageNames maps media URLs to object names, dropping blanks and duplicates.
func StorageNames(mediaURLs []string) []string {
	seen := make(map[string]struct{}, len(mediaURLs))
	out := make([]string, 0, len(mediaURLs))
	for _, u := range mediaURLs {
		name := StorageName(u)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
