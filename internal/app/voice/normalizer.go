// Package voice turns assistant replies into speakable text and picks the
// voice a speech engine should use for a locale.
package voice

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PabloGalante/ai-accountant/internal/domain"
)

// FillerInterval is the sentence interval at which a filler phrase is inserted.
const FillerInterval = 10

// Fillers are prefixed to every FillerInterval-th sentence of a long reply.
var Fillers = []string{
	"Now, ",
	"So, ",
	"Well, ",
	"You see, ",
	"Actually, ",
	"Essentially, ",
}

var (
	emphasisRe = regexp.MustCompile(`\b(critical|severe|important|significant|Over-Exploited|Critical|Safe)\b`)
	percentRe  = regexp.MustCompile(`(\d+)%`)
	decimalRe  = regexp.MustCompile(`(\d+)\.(\d+)`)
	yearSpanRe = regexp.MustCompile(`(\d{4})-(\d{4})`)
)

// NormalizeForSpeech rewrites text so a speech engine pauses and stresses it
// naturally. Rules run in a fixed order, each on the previous rule's output.
// rnd picks the filler phrases; pass a seeded source for deterministic output.
func NormalizeForSpeech(text string, rnd domain.Rand) string {
	text = spaceAfterPunctuation(text)
	text = strings.ReplaceAll(text, "\n\n", ".\n\n")
	text = emphasisRe.ReplaceAllString(text, " ${1} ")
	text = percentRe.ReplaceAllString(text, "${1} percent")
	text = decimalRe.ReplaceAllString(text, "${1} point ${2}")
	text = yearSpanRe.ReplaceAllString(text, "${1} to ${2}")

	sentences := SplitSentences(text)
	for i := range sentences {
		if i > 0 && i%FillerInterval == 0 {
			sentences[i] = Fillers[rnd.IntN(len(Fillers))] + sentences[i]
		}
	}
	return strings.Join(sentences, " ")
}

// spaceAfterPunctuation adds a space after . , ! ? ; : unless the mark sits
// between two digits (a decimal point or thousands separator).
func spaceAfterPunctuation(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text) + len(text)/8)

	for i, r := range runes {
		b.WriteRune(r)
		if !strings.ContainsRune(".,!?;:", r) {
			continue
		}
		if i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
			continue
		}
		b.WriteByte(' ')
	}
	return b.String()
}

// SplitSentences splits on whitespace runs that follow . ! or ?.
// Empty pieces are dropped.
func SplitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !unicode.IsSpace(runes[i]) || i == 0 || !strings.ContainsRune(".!?", runes[i-1]) {
			continue
		}
		j := i
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if s := string(runes[start:i]); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if s := string(runes[start:]); strings.TrimSpace(s) != "" {
		out = append(out, s)
	}
	return out
}
