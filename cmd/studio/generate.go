package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"studio/internal/datauri"
	"studio/internal/paths"
	"studio/internal/workbench"
)

// studio image
func cmdImage(args []string) error {
	var cf commonFlags
	var prompt, out string
	var save bool
	fs := flag.NewFlagSet("image", flag.ContinueOnError)
	addCommonFlags(fs, &cf)
	fs.StringVar(&prompt, "prompt", "", "Image prompt (required)")
	fs.StringVar(&out, "out", "", "Also write the image to this file")
	fs.BoolVar(&save, "save", false, "Save the image as an asset of the active project")
	ok, err := parseFlags(fs, args)
	if !ok {
		return err
	}
	return generateDraft(&cf, save, out, func(ctx context.Context, wb *workbench.Workbench) (workbench.Draft, error) {
		return wb.ImageDraft(ctx, prompt)
	})
}

// studio song
func cmdSong(args []string) error {
	var cf commonFlags
	var topic, style, out string
	var save bool
	fs := flag.NewFlagSet("song", flag.ContinueOnError)
	addCommonFlags(fs, &cf)
	fs.StringVar(&topic, "topic", "", "What the song is about (required)")
	fs.StringVar(&style, "style", "", "Musical style, e.g. folk or synthwave (required)")
	fs.StringVar(&out, "out", "", "Also write the lyrics to this file")
	fs.BoolVar(&save, "save", false, "Save the lyrics as an asset of the active project")
	ok, err := parseFlags(fs, args)
	if !ok {
		return err
	}
	return generateDraft(&cf, save, out, func(ctx context.Context, wb *workbench.Workbench) (workbench.Draft, error) {
		return wb.SongDraft(ctx, topic, style)
	})
}

// studio speech
func cmdSpeech(args []string) error {
	var cf commonFlags
	var text, out string
	var save bool
	var voice stringFlag
	fs := flag.NewFlagSet("speech", flag.ContinueOnError)
	addCommonFlags(fs, &cf)
	fs.StringVar(&text, "text", "", "Text to speak (required)")
	fs.StringVar(&out, "out", "", "Also write the audio to this file")
	fs.BoolVar(&save, "save", false, "Save the audio as an asset of the active project")
	fs.Var(&voice, "voice", "Speech voice")
	ok, err := parseFlags(fs, args)
	if !ok {
		return err
	}
	cf.overrides.Voice = voice.ptr()
	cf.speech = true
	return generateDraft(&cf, save, out, func(ctx context.Context, wb *workbench.Workbench) (workbench.Draft, error) {
		return wb.SpeechDraft(ctx, text)
	})
}

// generateDraft runs a generate-then-save flow: the draft is printed or
// written to out, and only stored in the project when save is set.
func generateDraft(cf *commonFlags, save bool, out string, gen func(context.Context, *workbench.Workbench) (workbench.Draft, error)) error {
	ctx := context.Background()
	a, err := setup(ctx, cf, needs{generation: true, speech: cf.speech, store: true})
	if err != nil {
		return err
	}
	defer a.close()

	draft, err := gen(ctx, a.wb)
	if err != nil {
		return err
	}
	if out != "" {
		if err := writeDraft(out, draft, a.cfg.Overwrite); err != nil {
			return err
		}
		slog.Info("draft written", "type", string(draft.Type), "path", out)
	} else if draft.Content != "" {
		fmt.Fprintln(stdout, draft.Content)
	} else {
		fmt.Fprintf(stdout, "%s generated (%d byte data uri); use --out to write it or --save to keep it\n", draft.Type, len(draft.URL))
	}
	if save {
		asset, err := a.wb.Save(ctx, draft)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "saved asset %s\n", asset.ID)
	}
	return nil
}

func writeDraft(out string, d workbench.Draft, overwrite bool) error {
	if err := paths.CheckOverwrite([]string{out}, overwrite); err != nil {
		return err
	}
	data := []byte(d.Content)
	if d.URL != "" {
		_, decoded, err := datauri.Decode(d.URL)
		if err != nil {
			return err
		}
		data = decoded
	}
	return os.WriteFile(out, data, 0o644)
}
