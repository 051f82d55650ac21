package verification

import "strings"

// DefaultHandle is the channel the verification proof must reference when no
// handle is configured.
const DefaultHandle = "Axis-Hub"

// platformIndicators are words a genuine YouTube subscription screenshot tends
// to contain.
var platformIndicators = []string{"youtube", "subscribers", "videos", "notification", "bell"}

// Classifier decides whether extracted screenshot text looks like proof of a
// subscription to the target channel. Matching is deliberately simple: exact
// case-folded substring checks, no fuzzing and no tolerance for OCR noise
// inside a keyword.
type Classifier struct {
	subscriptionWords []string
	platformWords     []string
	handleForms       []string
}

// NewClassifier builds a classifier for the given channel handle. The handle
// is matched in dashed and spaced forms ("axis-hub", "axis hub").
func NewClassifier(handle string) *Classifier {
	if handle == "" {
		handle = DefaultHandle
	}
	dashed := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(handle, "@")), " ", "-")
	spaced := strings.ReplaceAll(dashed, "-", " ")

	return &Classifier{
		subscriptionWords: []string{"subscribed", "subscribe", dashed, spaced, "@" + dashed},
		platformWords:     platformIndicators,
		handleForms:       []string{dashed, spaced},
	}
}

// Classify reports whether text is accepted as subscription proof: it must
// contain a subscription word and either a platform indicator or the target
// handle. Pure function of its input.
func (c *Classifier) Classify(text string) bool {
	lower := strings.ToLower(text)

	hasSubscription := containsAny(lower, c.subscriptionWords)
	hasPlatform := containsAny(lower, c.platformWords)
	hasHandle := containsAny(lower, c.handleForms)

	return hasSubscription && (hasPlatform || hasHandle)
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
