package canonical

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Unicode dash variants folded to ASCII '-' before any matching or keying.
const dashChars = "‐‑‒–—−﹘﹣－"

var (
	dashRE  = regexp.MustCompile("[" + dashChars + "]")
	trailRE = regexp.MustCompile(`[\s.,;:!?)\]}>"'\x{2019}\x{201D}]+$`)
	wsRE    = regexp.MustCompile(`\s+`)

	// "Q-150" / "Q 150" -> "Q150" (single letter + digits-only suffix)
	letterDigitsDashRE  = regexp.MustCompile(`\b([A-Za-z])\s*-\s*(\d{2,4})\b`)
	letterDigitsSpaceRE = regexp.MustCompile(`\b([A-Za-z])\s+(\d{2,4})\b`)

	bwPhraseRE = regexp.MustCompile(`(?i)\b(bowers\s*(?:&|and)?\s*wilkins|bowers\s+wilkins)\b`)
	bwRE       = regexp.MustCompile(`(?i)\b(b\s*&\s*w|b\s+and\s+w|bw)\b`)

	nonAlnumRE = regexp.MustCompile(`[^a-z0-9]+`)
	hyphenWsRE = regexp.MustCompile(`\s*-\s*`)
)

// PrepareText normalizes source text before regex matching: NFKC, dash
// folding, and collapsing "Bowers & Wilkins" phrases to "B&W" so the brand
// pattern sees one spelling.
func PrepareText(text string) string {
	s := norm.NFKC.String(text)
	s = dashRE.ReplaceAllString(s, "-")
	s = bwPhraseRE.ReplaceAllString(s, "B&W")
	return s
}

// NormalizeDisplay cleans a raw surface form for display while preserving
// its casing: NFKC, dash folding, trailing punctuation stripped, whitespace
// collapsed, and "Q-150"/"Q 150" collapsed to "Q150".
func NormalizeDisplay(raw string) string {
	s := norm.NFKC.String(raw)
	s = strings.TrimSpace(s)
	s = dashRE.ReplaceAllString(s, "-")
	s = hyphenWsRE.ReplaceAllString(s, "-")
	s = trailRE.ReplaceAllString(s, "")
	s = wsRE.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = letterDigitsDashRE.ReplaceAllString(s, "$1$2")
	s = letterDigitsSpaceRE.ReplaceAllString(s, "$1$2")
	return s
}

// Key reduces a surface form to its clustering identity: cleaned display,
// B&W variants folded, lower-cased, every non-alphanumeric rune removed.
// A pure function of the input; clustering is order-independent.
func Key(raw string) string {
	s := NormalizeDisplay(raw)
	s = bwPhraseRE.ReplaceAllString(s, "bw")
	s = bwRE.ReplaceAllString(s, "bw")
	s = strings.ToLower(s)
	s = nonAlnumRE.ReplaceAllString(s, "")
	return s
}
