package domain

import "time"

type AssistantID string
type UserID string
type MessageID string
type TranscriptID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ViewMode selects what the presentation layer shows.
type ViewMode string

const (
	ModeDashboard ViewMode = "dashboard" // No active conversation
	ModeChat      ViewMode = "chat"      // Active transcript view
)

// Locale is a BCP 47 tag understood by the speech engines.
type Locale string

const (
	LocaleEnglishUS Locale = "en-US"
	LocaleHindiIN   Locale = "hi-IN"
)

// Toggle flips between the two supported locales.
func (l Locale) Toggle() Locale {
	if l == LocaleEnglishUS {
		return LocaleHindiIN
	}
	return LocaleEnglishUS
}

// Family returns the language part of the tag ("en" for "en-US").
func (l Locale) Family() string {
	s := string(l)
	for i := 0; i < len(s); i++ {
		if s[i] == '-' || s[i] == '_' {
			return s[:i]
		}
	}
	return s
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Timestamp = time.Time
