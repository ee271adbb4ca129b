package translation

import (
	"context"
	"regexp"
	"strings"

	"github.com/thinkingjet/SpeakSync/internal/lang"
)

var (
	blockSplit  = regexp.MustCompile(`\n{2,}`)
	headingLine = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	listLine    = regexp.MustCompile(`^(\s*)([*-]|\d+\.)\s+(.+)$`)
)

// longParagraph is the length past which a paragraph is translated
// sentence by sentence; long inputs make the vendor repeat itself.
const longParagraph = 200

// TranslateBlocks translates markdown-structured text block by block
// so headings, list markers and code fences survive translation.
// English and auto-detect targets get the original text back.
func TranslateBlocks(ctx context.Context, tr Translator, text, targetLang string) string {
	target := strings.ToLower(strings.TrimSpace(targetLang))
	if target == "en" || target == lang.Multi {
		return text
	}

	blocks := blockSplit.Split(text, -1)
	translated := make([]string, 0, len(blocks))
	for _, raw := range blocks {
		block := strings.TrimSpace(raw)
		if block == "" {
			translated = append(translated, "")
			continue
		}
		translated = append(translated, translateBlock(ctx, tr, block, target))
	}
	return strings.Join(translated, "\n\n")
}

func translateBlock(ctx context.Context, tr Translator, block, target string) string {
	// Code fences stay untranslated.
	if strings.HasPrefix(block, "```") && strings.HasSuffix(block, "```") {
		return block
	}

	if m := headingLine.FindStringSubmatch(block); m != nil {
		return m[1] + " " + tr.Translate(ctx, m[2], "en", target)
	}

	if isListBlock(block) {
		lines := strings.Split(block, "\n")
		out := make([]string, 0, len(lines))
		for _, line := range lines {
			if strings.TrimSpace(line) == "" {
				out = append(out, line)
				continue
			}
			if m := listLine.FindStringSubmatch(line); m != nil {
				out = append(out, m[1]+m[2]+" "+tr.Translate(ctx, m[3], "en", target))
			} else {
				out = append(out, tr.Translate(ctx, line, "en", target))
			}
		}
		return strings.Join(out, "\n")
	}

	if len(block) > longParagraph {
		sentences := splitSentences(block)
		out := make([]string, 0, len(sentences))
		for _, s := range sentences {
			if strings.TrimSpace(s) == "" {
				continue
			}
			out = append(out, tr.Translate(ctx, s, "en", target))
		}
		return strings.Join(out, " ")
	}

	return tr.Translate(ctx, block, "en", target)
}

func isListBlock(block string) bool {
	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !listLine.MatchString(line) {
			return false
		}
	}
	return true
}

// splitSentences breaks text after sentence-ending punctuation
// followed by whitespace.
func splitSentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
			if runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				out = append(out, strings.TrimSpace(string(runes[start:i+1])))
				start = i + 1
			}
		}
	}
	if start < len(runes) {
		if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
			out = append(out, rest)
		}
	}
	return out
}
