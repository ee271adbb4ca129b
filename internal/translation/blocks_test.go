package translation

import (
	"context"
	"strings"
	"testing"
)

// prefixTranslator marks translated text so structure handling is
// observable without a vendor.
type prefixTranslator struct{}

func (prefixTranslator) Translate(_ context.Context, text, _, _ string) string {
	return "[fr]" + text
}

func TestTranslateBlocksPreservesHeadings(t *testing.T) {
	in := "# Meeting Notes\n\n## Summary\n\nShort paragraph."
	got := TranslateBlocks(context.Background(), prefixTranslator{}, in, "fr")

	want := "# [fr]Meeting Notes\n\n## [fr]Summary\n\n[fr]Short paragraph."
	if got != want {
		t.Errorf("TranslateBlocks:\n got %q\nwant %q", got, want)
	}
}

func TestTranslateBlocksPreservesListMarkers(t *testing.T) {
	in := "* first item\n* second item\n- third item\n1. numbered"
	got := TranslateBlocks(context.Background(), prefixTranslator{}, in, "fr")

	for _, want := range []string{"* [fr]first item", "* [fr]second item", "- [fr]third item", "1. [fr]numbered"} {
		if !strings.Contains(got, want) {
			t.Errorf("TranslateBlocks missing %q in %q", want, got)
		}
	}
}

func TestTranslateBlocksSkipsCodeFences(t *testing.T) {
	in := "```\nfunc main() {}\n```"
	got := TranslateBlocks(context.Background(), prefixTranslator{}, in, "fr")
	if got != in {
		t.Errorf("code fence was altered: %q", got)
	}
}

func TestTranslateBlocksEnglishTargetUnchanged(t *testing.T) {
	in := "# Notes\n\nBody text."
	if got := TranslateBlocks(context.Background(), prefixTranslator{}, in, "en"); got != in {
		t.Errorf("english target should return input unchanged, got %q", got)
	}
	if got := TranslateBlocks(context.Background(), prefixTranslator{}, in, "multi"); got != in {
		t.Errorf("multi target should return input unchanged, got %q", got)
	}
}

func TestTranslateBlocksSplitsLongParagraphs(t *testing.T) {
	first := strings.Repeat("alpha ", 25) + "end."
	second := "Second sentence here."
	in := first + " " + second

	got := TranslateBlocks(context.Background(), prefixTranslator{}, in, "fr")
	if strings.Count(got, "[fr]") != 2 {
		t.Errorf("long paragraph should be translated per sentence, got %q", got)
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One. Two! Three? Four")
	want := []string{"One.", "Two!", "Three?", "Four"}
	if len(got) != len(want) {
		t.Fatalf("splitSentences = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}
