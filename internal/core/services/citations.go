package services

import (
	"regexp"
	"strings"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
)

// Citation extraction is this core's responsibility: the generator
// returns raw text, and the markers and quoted spans are located here.

var (
	citationMarkerRe = regexp.MustCompile(`\[(S\d+)\]`)
	quotedSpanRe     = regexp.MustCompile(`["“]([^"”]+)["”]`)
)

// quoteAttachWindow is how close (in bytes) a quoted span must end
// before a citation marker to be attributed to it.
const quoteAttachWindow = 80

// ExtractCitations pulls every [S#] marker from the answer text, in
// order of appearance, attaching the quoted span that immediately
// precedes a marker when one exists. ChunkID is left empty; it is
// resolved against the evidence set during validation.
func ExtractCitations(text string) []domain.Citation {
	markers := citationMarkerRe.FindAllStringSubmatchIndex(text, -1)
	if len(markers) == 0 {
		return nil
	}

	quotes := quotedSpanRe.FindAllStringSubmatchIndex(text, -1)
	quoteUsed := make([]bool, len(quotes))

	citations := make([]domain.Citation, 0, len(markers))
	for _, m := range markers {
		markerStart := m[0]
		sid := text[m[2]:m[3]]

		c := domain.Citation{SID: sid}

		// Attribute the nearest unconsumed quote ending just before
		// the marker, e.g. `... "to be, or not to be" [S1]`.
		for qi := len(quotes) - 1; qi >= 0; qi-- {
			q := quotes[qi]
			if quoteUsed[qi] || q[1] > markerStart {
				continue
			}
			if markerStart-q[1] <= quoteAttachWindow {
				c.Quote = text[q[2]:q[3]]
				quoteUsed[qi] = true
			}
			break
		}

		citations = append(citations, c)
	}

	return citations
}

// QuoteNormalizer maps answer and source text into a common form before
// verbatim matching. The exact rule for archaic spelling and elision is
// configurable; see DefaultQuoteNormalizer for the shipped behaviour.
type QuoteNormalizer func(string) string

var (
	lineBreakHyphenRe = regexp.MustCompile(`[-—]\s*\n\s*`)
	nonAlnumRe        = regexp.MustCompile(`[^a-z0-9]+`)
)

// DefaultQuoteNormalizer lowercases, rejoins words hyphenated across
// line breaks, folds all punctuation (including elision apostrophes and
// em dashes) and whitespace runs into single spaces, and trims. Under
// this rule "To be, or not to be—" and `to be or not to be` compare
// equal, as do "'tis" and "’Tis".
func DefaultQuoteNormalizer(s string) string {
	s = strings.ToLower(s)
	s = lineBreakHyphenRe.ReplaceAllString(s, "")
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
