package voice

import (
	"strings"

	"github.com/PabloGalante/ai-accountant/internal/domain"
)

// Speaking defaults applied to every utterance.
const (
	DefaultRate  = 0.92
	DefaultPitch = 1.0
)

var preferredVoices = map[string][]string{
	"en": {
		"Google UK English Female",
		"Microsoft Aria Online (Natural)",
		"Microsoft Libby Online (Natural)",
		"Apple Samantha",
		"Apple Moira",
		"Daniel",
		"Samantha",
		"Karen",
		"Google US English",
		"Alex",
	},
	"hi": {
		"Google हिन्दी",
		"Microsoft Swara Online (Natural)",
		"Lekha",
	},
}

var qualityMarkers = []string{"natural", "premium", "enhanced"}

// SelectVoice picks a voice for locale from the engine's voices:
// a curated name for the language family, then (English only) any
// natural/premium/enhanced voice of the language, then any voice of the
// language. ok is false when nothing matches and the engine default applies.
func SelectVoice(voices []domain.Voice, locale domain.Locale) (v domain.Voice, ok bool) {
	family := locale.Family()

	for _, name := range preferredVoices[family] {
		for _, candidate := range voices {
			if candidate.Name == name {
				return candidate, true
			}
		}
	}

	if family == "en" {
		for _, candidate := range voices {
			if !strings.HasPrefix(candidate.Lang, "en") {
				continue
			}
			lower := strings.ToLower(candidate.Name)
			for _, marker := range qualityMarkers {
				if strings.Contains(lower, marker) {
					return candidate, true
				}
			}
		}
	}

	for _, candidate := range voices {
		if strings.HasPrefix(candidate.Lang, family) {
			return candidate, true
		}
	}
	return domain.Voice{}, false
}

// NewUtterance builds an utterance for locale with the voice chosen from voices.
func NewUtterance(id, text string, locale domain.Locale, voices []domain.Voice) domain.Utterance {
	u := domain.Utterance{
		ID:     id,
		Text:   text,
		Locale: locale,
		Rate:   DefaultRate,
		Pitch:  DefaultPitch,
	}
	if v, ok := SelectVoice(voices, locale); ok {
		u.Voice = v.Name
	}
	return u
}
