package gateway

import "math/rand/v2"

// fallbackCatalog is the fixed set of plausible canned classifications
// served when the remote model is unconfigured or failing. Keeping the
// catalog small makes a degraded deployment visible through repeated labels.
var fallbackCatalog = []Result{
	{
		DetectedSign:    "Hello",
		TranslatedText:  "Hello!",
		ConfidenceScore: 0.92,
		Description:     "Open hand wave near face",
		Fallback:        true,
	},
	{
		DetectedSign:    "Thank You",
		TranslatedText:  "Thank you very much.",
		ConfidenceScore: 0.88,
		Description:     "Hand moves away from chin",
		Fallback:        true,
	},
	{
		DetectedSign:    "Help",
		TranslatedText:  "Please help me.",
		ConfidenceScore: 0.85,
		Description:     "Thumbs up on flat palm",
		Fallback:        true,
	},
	{
		DetectedSign:    "Yes",
		TranslatedText:  "Yes.",
		ConfidenceScore: 0.95,
		Description:     "Fist nodding motion",
		Fallback:        true,
	},
	{
		DetectedSign:    "Love",
		TranslatedText:  "I love you.",
		ConfidenceScore: 0.90,
		Description:     "ILY handshape",
		Fallback:        true,
	},
}

// fallbackResult picks one canned classification at random.
func fallbackResult() Result {
	return fallbackCatalog[rand.IntN(len(fallbackCatalog))]
}
