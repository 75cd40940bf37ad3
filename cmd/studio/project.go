package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"

	"studio/internal/project"
)

// studio project <new|list|use|delete|show>
func cmdProject(args []string) error {
	if len(args) == 0 {
		return errors.New("project requires an action: new, list, use, delete, show")
	}
	action, rest := args[0], args[1:]

	var cf commonFlags
	var name, description string
	fs := flag.NewFlagSet("project "+action, flag.ContinueOnError)
	addCommonFlags(fs, &cf)
	if action == "new" {
		fs.StringVar(&name, "name", "", "Project name (required)")
		fs.StringVar(&description, "description", "", "Project description")
	}
	ok, err := parseFlags(fs, rest)
	if !ok {
		return err
	}

	ctx := context.Background()
	a, err := setup(ctx, &cf, needs{store: true})
	if err != nil {
		return err
	}
	defer a.close()

	switch action {
	case "new":
		p, err := a.store.Create(ctx, name, description)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s\t%s\n", p.ID, p.Name)
		return nil
	case "list":
		active, _ := a.store.Active()
		for _, p := range a.store.List() {
			marker := " "
			if p.ID == active.ID {
				marker = "*"
			}
			fmt.Fprintf(stdout, "%s %s\t%s\t%d assets\n", marker, p.ID, p.Name, len(p.Assets))
		}
		return nil
	case "use":
		id, err := projectArg(fs)
		if err != nil {
			return err
		}
		if err := a.store.Select(ctx, id); err != nil {
			return err
		}
		slog.Info("active project changed", "projectId", id)
		return nil
	case "delete":
		id, err := projectArg(fs)
		if err != nil {
			return err
		}
		return a.store.Delete(ctx, id)
	case "show":
		var p project.Project
		if fs.NArg() > 0 {
			p, err = a.store.Get(fs.Arg(0))
		} else {
			p, err = a.activeProject()
		}
		if err != nil {
			return err
		}
		printProject(p)
		return nil
	default:
		return fmt.Errorf("unknown project action: %s", action)
	}
}

func projectArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s requires exactly one project id", fs.Name())
	}
	return fs.Arg(0), nil
}

func printProject(p project.Project) {
	fmt.Fprintf(stdout, "%s\t%s\n", p.ID, p.Name)
	if p.Description != "" {
		fmt.Fprintf(stdout, "%s\n", p.Description)
	}
	fmt.Fprintf(stdout, "assets: %d, messages: %d, translations: %d\n", len(p.Assets), len(p.ChatHistory), len(p.Translations))
	for _, asset := range p.Assets {
		fmt.Fprintf(stdout, "  [%s] %s %s\n", asset.Type, asset.ID, asset.Prompt)
	}
}
