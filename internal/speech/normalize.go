package speech

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	speechURLPattern          = regexp.MustCompile(`https?://\S+`)
	speechFencedCodePattern   = regexp.MustCompile("(?s)```.*?```")
	speechInlineCodePattern   = regexp.MustCompile("`[^`]*`")
	speechMarkdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	currencyPattern           = regexp.MustCompile(`R\$\s*(\d{1,3}(?:\.\d{3})*|\d+)(?:,(\d{1,2}))?`)
)

// NormalizeForSpeech cleans application text for synthesis: code, links and
// emoji are dropped, newlines become sentence breaks, and monetary amounts
// are rewritten into fully spoken words. Deterministic and side-effect free;
// every backend receives the same normalized text.
func NormalizeForSpeech(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	raw = speechFencedCodePattern.ReplaceAllString(raw, " ")
	raw = speechInlineCodePattern.ReplaceAllString(raw, " ")
	raw = speechMarkdownLinkPattern.ReplaceAllString(raw, "$1")
	raw = speechURLPattern.ReplaceAllString(raw, " ")

	raw = rewriteCurrency(raw)
	raw = collapseNewlines(raw)

	raw = strings.NewReplacer(
		"*", " ",
		"_", " ",
		"\\", " ",
		"/", " ",
		"|", " ",
		"#", " ",
		"~", " ",
		"<", " ",
		">", " ",
	).Replace(raw)

	var b strings.Builder
	b.Grow(len(raw))
	prevSpace := true

	for _, r := range raw {
		switch {
		case r == '‍' || r == '️' || r == '⃣':
			continue
		case unicode.IsSpace(r):
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsControl(r):
			continue
		case unicode.In(r, unicode.So, unicode.Sm, unicode.Sk):
			// Drops emoji and symbol-heavy glyphs that sound unnatural when spoken.
			continue
		case isSpeechSafePunctuation(r):
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsPunct(r):
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		default:
			b.WriteRune(r)
			prevSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

func isSpeechSafePunctuation(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ':', ';', '\'', '"', '-', '(', ')':
		return true
	default:
		return false
	}
}

// rewriteCurrency converts "R$ 1.234,56" style amounts into spoken words.
func rewriteCurrency(text string) string {
	return currencyPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := currencyPattern.FindStringSubmatch(match)
		if groups == nil {
			return match
		}
		intPart := strings.ReplaceAll(groups[1], ".", "")
		reais, err := strconv.ParseInt(intPart, 10, 64)
		if err != nil {
			return match
		}
		var cents int64
		if groups[2] != "" {
			frac := groups[2]
			if len(frac) == 1 {
				frac += "0"
			}
			cents, err = strconv.ParseInt(frac, 10, 64)
			if err != nil {
				return match
			}
		}
		return SpeakCurrency(reais*100 + cents)
	})
}

// collapseNewlines joins lines into sentences, inserting a period when the
// previous line does not already end one.
func collapseNewlines(text string) string {
	if !strings.ContainsAny(text, "\r\n") {
		return text
	}
	lines := make([]string, 0, 8)
	for _, line := range strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' }) {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			prev := lines[i-1]
			switch prev[len(prev)-1] {
			case '.', '!', '?', ':', ';':
				b.WriteByte(' ')
			default:
				b.WriteString(". ")
			}
		}
		b.WriteString(line)
	}
	return b.String()
}
