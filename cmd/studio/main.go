package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"studio/internal/generation"
	"studio/internal/workbench"
)

var version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		printUsage()
		return 0
	}

	sub := args[0]
	var cmd func([]string) error
	switch sub {
	case "project":
		cmd = cmdProject
	case "image":
		cmd = cmdImage
	case "chat":
		cmd = cmdChat
	case "agent":
		cmd = cmdAgent
	case "translate":
		cmd = cmdTranslate
	case "song":
		cmd = cmdSong
	case "speech":
		cmd = cmdSpeech
	case "nearby":
		cmd = cmdNearby
	case "export":
		cmd = cmdExport
	case "version":
		fmt.Fprintln(stdout, version)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n\n", sub)
		printUsage()
		return 2
	}
	if err := cmd(args[1:]); err != nil {
		slog.Error(sub+" failed", "err", err)
		if msg := generation.FailureMessage(err); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `studio %s

Usage:
  studio <subcommand> [flags]

Subcommands:
  project    Manage projects: new, list, use, delete, show
  image      Generate an image from a prompt
  chat       Chat with the model using the active project's history
  agent      Chat with tools; the model may add text assets to the project
  translate  Translate text (languages: %s)
  song       Write song lyrics about a topic in a style
  speech     Turn text into speech
  nearby     Ask a location-grounded question
  export     Write the active project's assets to files
  version    Print version

Run "studio <subcommand> -h" for flags.
`, version, strings.Join(workbench.Languages, ", "))
}
