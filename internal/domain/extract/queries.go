// Package extract turns free-text model output into structured values on a best-effort basis.
// Every function here degrades instead of failing: malformed input yields a fallback, never an error.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/target/trendscout/internal/domain/model"
)

// Method names the fallback that produced a query list.
type Method string

const (
	MethodBracketedArray Method = "bracketed_array"
	MethodWholeList      Method = "whole_list"
	MethodQuoted         Method = "quoted"
	MethodLines          Method = "lines"
	MethodDefault        Method = "default"
)

// QueryExtraction is the result of parsing a query generator response.
type QueryExtraction struct {
	Queries []string
	Method  Method
}

var (
	bracketedArrayRe = regexp.MustCompile(`\[[\s\S]*?\]`)
	quotedRe         = regexp.MustCompile(`"([^"\r\n]+)"`)
	bulletRe         = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s*`)
	codeFenceRe      = regexp.MustCompile("^```[a-zA-Z]*$")
)

// defaultQuerySuffix is appended to the synthesized query when no structure is found.
const defaultQuerySuffix = "trends"

// maxDefaultQueryWords bounds how much of the business description feeds the synthesized query.
const maxDefaultQueryWords = 4

// Queries parses raw generator output into at most model.MaxSearchQueries search phrases.
// The chain is: bracketed JSON array, whole-response JSON list, quoted substrings,
// non-empty lines, then a single query synthesized from the business description.
func Queries(raw, businessDescription string) QueryExtraction {
	steps := []struct {
		method Method
		fn     func(string) []string
	}{
		{MethodBracketedArray, bracketedArray},
		{MethodWholeList, wholeList},
		{MethodQuoted, quotedSubstrings},
		{MethodLines, nonEmptyLines},
	}

	for _, step := range steps {
		if queries := clean(step.fn(raw)); len(queries) > 0 {
			return QueryExtraction{Queries: queries, Method: step.method}
		}
	}

	return QueryExtraction{Queries: []string{DefaultQuery(businessDescription)}, Method: MethodDefault}
}

// DefaultQuery synthesizes one search phrase from the business description.
func DefaultQuery(businessDescription string) string {
	words := strings.Fields(businessDescription)
	if len(words) == 0 {
		return "trending " + defaultQuerySuffix
	}
	if len(words) > maxDefaultQueryWords {
		words = words[:maxDefaultQueryWords]
	}
	for i, w := range words {
		words[i] = strings.Trim(w, ".,;:!?\"'()")
	}
	return strings.TrimSpace(strings.Join(words, " ")) + " " + defaultQuerySuffix
}

func bracketedArray(raw string) []string {
	for _, match := range bracketedArrayRe.FindAllString(raw, -1) {
		if out := decodeList(match); len(out) > 0 {
			return out
		}
	}
	return nil
}

func wholeList(raw string) []string {
	return decodeList(stripCodeFence(raw))
}

// quotedSubstrings skips quoted text followed by a colon, which is a JSON key or a label.
func quotedSubstrings(raw string) []string {
	matches := quotedRe.FindAllStringSubmatchIndex(raw, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasPrefix(strings.TrimLeft(raw[m[1]:], " \t"), ":") {
			continue
		}
		out = append(out, raw[m[2]:m[3]])
	}
	return out
}

func nonEmptyLines(raw string) []string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		// A trailing colon marks a preamble such as "Here's what I'd search:".
		if line == "" || codeFenceRe.MatchString(line) || strings.HasSuffix(line, ":") {
			continue
		}
		out = append(out, bulletRe.ReplaceAllString(line, ""))
	}
	return out
}

// decodeList accepts a JSON array whose elements are strings; non-string elements are skipped.
func decodeList(s string) []string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") {
		return nil
	}
	var items []any
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if str, ok := it.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if codeFenceRe.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// clean trims, de-duplicates case-insensitively, drops empties and caps the list.
func clean(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, model.MaxSearchQueries)
	for _, q := range in {
		q = strings.TrimSpace(strings.Trim(strings.TrimSpace(q), `"'`))
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
		if len(out) == model.MaxSearchQueries {
			break
		}
	}
	return out
}
