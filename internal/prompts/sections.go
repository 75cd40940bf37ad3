package prompts

import (
	"strings"
	"unicode"
)

// songSections are the parts a generated song is asked to contain.
var songSections = []string{"verse", "chorus", "bridge"}

var knownSongSections = map[string]bool{
	"intro":      true,
	"verse":      true,
	"pre-chorus": true,
	"chorus":     true,
	"bridge":     true,
	"outro":      true,
	"hook":       true,
}

// SongSections returns the distinct section kinds found in lyrics, in order of first appearance.
// Headings may be Markdown ("## Chorus"), bracketed ("[Verse 1]"), bold ("**Bridge**") or plain ("Verse 2:").
func SongSections(text string) []string {
	var found []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		name := sectionName(line)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		found = append(found, name)
	}
	return found
}

// MissingSongSections lists the requested sections (verse, chorus, bridge) absent from lyrics.
// The structure is requested by prompt only; callers use this for diagnostics.
func MissingSongSections(text string) []string {
	present := make(map[string]bool)
	for _, s := range SongSections(text) {
		present[s] = true
	}
	var missing []string
	for _, s := range songSections {
		if !present[s] {
			missing = append(missing, s)
		}
	}
	return missing
}

func sectionName(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	heading := strings.HasPrefix(line, "#") || strings.HasPrefix(line, "[") ||
		strings.HasPrefix(line, "**") || strings.HasSuffix(line, ":")
	line = normalizeHeading(line)
	if line == "" {
		return ""
	}
	// plain lyric lines that merely start with "chorus" are not headings
	if !heading && len(strings.Fields(line)) > 2 {
		return ""
	}
	// "verse 1", "chorus x2", "bridge (soft)"
	word := line
	if i := strings.IndexFunc(line, func(r rune) bool { return unicode.IsSpace(r) || r == '(' }); i > 0 {
		word = line[:i]
	}
	word = strings.TrimRightFunc(word, unicode.IsDigit)
	if word == "prechorus" {
		word = "pre-chorus"
	}
	if !knownSongSections[word] {
		return ""
	}
	return word
}

func normalizeHeading(line string) string {
	line = strings.TrimLeft(line, "#")
	line = strings.TrimSpace(line)
	line = strings.Trim(line, "*_")
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "[") {
		end := strings.Index(line, "]")
		if end < 0 {
			return ""
		}
		line = line[1:end]
	}
	line = strings.TrimSuffix(strings.TrimSpace(line), ":")
	line = strings.Trim(line, "*_")
	return strings.ToLower(strings.TrimSpace(line))
}
