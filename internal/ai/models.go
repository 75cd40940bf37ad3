package ai

// Models names the model used for each capability of a provider.
type Models struct {
	Image    string
	Text     string
	Creative string
	Speech   string
	Voice    string
}

// GeminiDefaults returns the models used against the Gemini API.
func GeminiDefaults() Models {
	return Models{
		Image:    "imagen-4.0-generate-001",
		Text:     "gemini-2.5-flash",
		Creative: "gemini-2.5-pro",
		Speech:   "gemini-2.5-flash-preview-tts",
		Voice:    "Kore",
	}
}

// OpenAIDefaults returns the models used against the OpenAI API.
func OpenAIDefaults() Models {
	return Models{
		Image:    "gpt-image-1",
		Text:     "gpt-4o-mini",
		Creative: "gpt-4o",
		Speech:   "gpt-4o-mini-tts",
		Voice:    "alloy",
	}
}

// ElevenLabsDefaults returns the speech model and voice used against ElevenLabs.
func ElevenLabsDefaults() Models {
	return Models{
		Speech: "eleven_multilingual_v2",
		Voice:  "21m00Tcm4TlvDq8ikWAM",
	}
}

// Merge returns m with every non-empty field of override applied.
func (m Models) Merge(override Models) Models {
	if override.Image != "" {
		m.Image = override.Image
	}
	if override.Text != "" {
		m.Text = override.Text
	}
	if override.Creative != "" {
		m.Creative = override.Creative
	}
	if override.Speech != "" {
		m.Speech = override.Speech
	}
	if override.Voice != "" {
		m.Voice = override.Voice
	}
	return m
}

func (m Models) forPurpose(p Purpose) string {
	if p == PurposeCreative && m.Creative != "" {
		return m.Creative
	}
	return m.Text
}
