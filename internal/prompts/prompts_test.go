package prompts

import (
	"reflect"
	"strings"
	"testing"
)

func TestTranslation(t *testing.T) {
	p, err := Translation("Hello", "English", "Spanish")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != `Translate the following text from English to Spanish: "Hello"` {
		t.Fatalf("unexpected prompt: %s", p)
	}
	if _, err := Translation("  ", "English", "Spanish"); err == nil {
		t.Fatalf("expected error for empty text")
	}
	if _, err := Translation("Hello", "", "Spanish"); err == nil {
		t.Fatalf("expected error for empty source language")
	}
}

func TestTranslationKeepsTextVerbatim(t *testing.T) {
	text := "Roses are red,\nviolets are \"blue\""
	p, err := Translation(text, "English", "Spanish")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Translate the following text from English to Spanish: \"Roses are red,\nviolets are \"blue\"\""
	if p != want {
		t.Fatalf("unexpected prompt:\n%s\nwant:\n%s", p, want)
	}
	if strings.Contains(p, `\n`) {
		t.Fatalf("newline was escaped: %s", p)
	}
}

func TestSongKeepsTopicVerbatim(t *testing.T) {
	p, err := Song(`the "big" game`, "punk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(p, `Write a song about "the "big" game" in the style of punk. `) {
		t.Fatalf("unexpected prompt: %s", p)
	}
}

func TestSong(t *testing.T) {
	p, err := Song("rainy Mondays", "bossa nova")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(p, `"rainy Mondays"`) || !strings.Contains(p, "bossa nova") {
		t.Fatalf("expected topic and style in prompt: %s", p)
	}
	if !strings.Contains(p, "verse, chorus, and bridge") {
		t.Fatalf("expected section instructions in prompt")
	}
	if _, err := Song("", "jazz"); err == nil {
		t.Fatalf("expected error for empty topic")
	}
}

func TestSpeech(t *testing.T) {
	if got := Speech("Hi there"); got != "Say cheerfully: Hi there" {
		t.Fatalf("unexpected speech prompt: %q", got)
	}
}

func TestSongSections(t *testing.T) {
	lyrics := strings.Join([]string{
		"[Verse 1]",
		"Am F C G",
		"Rain on the window",
		"**Chorus**",
		"Chorus of angels singing loud tonight",
		"## Verse 2:",
		"Bridge:",
		"[Outro x2]",
	}, "\n")
	got := SongSections(lyrics)
	want := []string{"verse", "chorus", "bridge", "outro"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sections: got %v want %v", got, want)
	}
	if missing := MissingSongSections(lyrics); len(missing) != 0 {
		t.Fatalf("unexpected missing sections: %v", missing)
	}
	missing := MissingSongSections("Verse 1\nla la la")
	if !reflect.DeepEqual(missing, []string{"chorus", "bridge"}) {
		t.Fatalf("missing sections: %v", missing)
	}
}

func TestWordCount(t *testing.T) {
	if count := WordCount("one two\nthree"); count != 3 {
		t.Fatalf("unexpected word count: %d", count)
	}
}
