package prompts

import (
	"errors"
	"fmt"
	"strings"
)

// Translation builds the prompt asking the model to translate text between two languages.
func Translation(text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("text is required")
	}
	sourceLang = strings.TrimSpace(sourceLang)
	targetLang = strings.TrimSpace(targetLang)
	if sourceLang == "" || targetLang == "" {
		return "", errors.New("source and target languages are required")
	}
	return fmt.Sprintf("Translate the following text from %s to %s: \"%s\"", sourceLang, targetLang, text), nil
}

// Song builds the prompt for song lyrics about topic in the given style.
func Song(topic, style string) (string, error) {
	topic = strings.TrimSpace(topic)
	style = strings.TrimSpace(style)
	if topic == "" || style == "" {
		return "", errors.New("topic and style are required")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Write a song about \"%s\" in the style of %s. ", topic, style)
	b.WriteString("Include verse, chorus, and bridge sections with chord progressions.")
	return b.String(), nil
}

// Speech wraps text with the delivery instruction understood by instructable TTS models.
func Speech(text string) string {
	return "Say cheerfully: " + text
}

// WordCount returns a basic word count for the given text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
