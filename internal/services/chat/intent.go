package chat

import (
	"strings"
	"unicode/utf8"

	"github.com/sahalsk/kuttappan/internal/models"
)

// contactKeywords trigger the contact short-circuit on a case-insensitive
// substring match. First match wins, no scoring.
var contactKeywords = []string{
	"contact",
	"email",
	"phone",
	"call",
	"reach",
	"linkedin",
	"github",
	"hire",
	"work with",
}

// greetings are matched against the whole trimmed, lower-cased message.
var greetings = map[string]bool{
	"hi":        true,
	"hello":     true,
	"hey":       true,
	"thanks":    true,
	"thank you": true,
	"greetings": true,
}

// greetingMaxLength is the length in runes below which any non-contact
// message is treated as a greeting and skips retrieval. Counted in runes,
// not bytes, so short Malayalam greetings classify the same as ASCII ones.
const greetingMaxLength = 15

// ClassifyIntent decides how much of the pipeline a message needs. It is
// a pure function with no upstream calls, evaluated before anything
// expensive: contact questions must never reach the model, and trivially
// short messages do not warrant a similarity search.
//
// Contact takes precedence; the greeting check runs only when no contact
// keyword matched.
func ClassifyIntent(message string) models.Intent {
	normalized := strings.ToLower(strings.TrimSpace(message))

	for _, keyword := range contactKeywords {
		if strings.Contains(normalized, keyword) {
			return models.IntentContact
		}
	}

	if utf8.RuneCountInString(normalized) < greetingMaxLength || greetings[normalized] {
		return models.IntentGreeting
	}

	return models.IntentStandard
}
