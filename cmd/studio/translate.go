package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"studio/internal/workbench"
)

// studio translate
func cmdTranslate(args []string) error {
	var cf commonFlags
	var text, from, to string
	langs := strings.Join(workbench.Languages, ", ")
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	addCommonFlags(fs, &cf)
	fs.StringVar(&text, "text", "", "Text to translate (required)")
	fs.StringVar(&from, "from", "English", "Source language ("+langs+")")
	fs.StringVar(&to, "to", "Spanish", "Target language ("+langs+")")
	ok, err := parseFlags(fs, args)
	if !ok {
		return err
	}

	ctx := context.Background()
	a, err := setup(ctx, &cf, needs{generation: true, store: true})
	if err != nil {
		return err
	}
	defer a.close()

	tr, err := a.wb.Translate(ctx, text, from, to)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, tr.TranslatedText)
	return nil
}
