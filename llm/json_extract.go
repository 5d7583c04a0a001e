package llm

import (
	"regexp"
	"strings"
)

var jsonTagPattern = regexp.MustCompile(`(?s)<json>(.*?)</json>`)

// ExtractJSON pulls a JSON payload out of free-form model text using
// the in-order rules from spec §4.1: an explicit <json>...</json> tag
// first, then the outermost balanced {...}, then the outermost
// balanced [...]. Returns ok=false if none of the three shapes are
// present at all.
func ExtractJSON(text string) (string, bool) {
	if m := jsonTagPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if obj, ok := outermostBalanced(text, '{', '}'); ok {
		return obj, true
	}
	if arr, ok := outermostBalanced(text, '[', ']'); ok {
		return arr, true
	}
	return "", false
}

// outermostBalanced finds the first open bracket and its matching
// close bracket, respecting string literals and escapes so braces
// inside quoted strings don't confuse the depth count.
func outermostBalanced(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

var (
	lineCommentPattern  = regexp.MustCompile(`//[^\n]*`)
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
	codeFencePattern    = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
)

// Repair attempts to turn near-miss JSON text into something
// json.Unmarshal will accept, applying the ordered pipeline from spec
// §4.1: strip code fences, strip comments, normalise quotes, drop
// trailing commas, then balance any unclosed braces/brackets by
// appending the missing closers.
func Repair(text string) string {
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	text = lineCommentPattern.ReplaceAllString(text, "")
	text = blockCommentPattern.ReplaceAllString(text, "")
	text = normaliseQuotes(text)
	text = trailingCommaPattern.ReplaceAllString(text, "$1")
	text = balanceBrackets(text)
	return strings.TrimSpace(text)
}

// normaliseQuotes swaps single-quoted keys/values for double quotes
// when the text contains no double quotes at all, the common case of
// a model emitting Python-style dict literals instead of JSON.
func normaliseQuotes(text string) string {
	if strings.Contains(text, `"`) {
		return text
	}
	if strings.Contains(text, "'") {
		return strings.ReplaceAll(text, "'", `"`)
	}
	return text
}

// balanceBrackets appends whatever closing braces/brackets/quote are
// missing to balance a truncated JSON payload, tracking string state
// so brackets inside strings aren't counted.
func balanceBrackets(text string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}
	var b strings.Builder
	b.WriteString(text)
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}
