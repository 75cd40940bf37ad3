package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"studio/internal/datauri"
	"studio/internal/paths"
	"studio/internal/project"
)

// studio export
func cmdExport(args []string) error {
	var cf commonFlags
	var projectID string
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	addCommonFlags(fs, &cf)
	fs.StringVar(&projectID, "project", "", "Project id (default: active project)")
	ok, err := parseFlags(fs, args)
	if !ok {
		return err
	}

	ctx := context.Background()
	a, err := setup(ctx, &cf, needs{store: true})
	if err != nil {
		return err
	}
	defer a.close()

	var p project.Project
	if projectID != "" {
		p, err = a.store.Get(projectID)
	} else {
		p, err = a.activeProject()
	}
	if err != nil {
		return err
	}

	builder := paths.New(a.cfg.DataDir)
	files, err := exportFiles(builder, p)
	if err != nil {
		return err
	}
	targets := []string{builder.ExportManifest(p.ID)}
	for path := range files {
		targets = append(targets, path)
	}
	if err := paths.CheckOverwrite(targets, a.cfg.Overwrite); err != nil {
		return err
	}
	if err := builder.EnsureExportDir(p.ID); err != nil {
		return err
	}
	for path, data := range files {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
	}
	manifest, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(builder.ExportManifest(p.ID), manifest, 0o644); err != nil {
		return err
	}

	slog.Info("project exported", "projectId", p.ID, "assets", len(files), "dir", builder.ExportDir(p.ID))
	fmt.Fprintln(stdout, builder.ExportDir(p.ID))
	return nil
}

// exportFiles maps each asset to its output path and decoded bytes.
func exportFiles(builder *paths.Builder, p project.Project) (map[string][]byte, error) {
	files := make(map[string][]byte, len(p.Assets))
	for i, asset := range p.Assets {
		if asset.Type == project.AssetText {
			files[builder.AssetFile(p.ID, i, string(asset.Type), ".txt")] = []byte(asset.Content)
			continue
		}
		mimeType, data, err := datauri.Decode(asset.URL)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", asset.ID, err)
		}
		files[builder.AssetFile(p.ID, i, string(asset.Type), datauri.Extension(mimeType))] = data
	}
	return files, nil
}
