package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"studio/internal/ai"
	cfgpkg "studio/internal/config"
	"studio/internal/generation"
	"studio/internal/paths"
	"studio/internal/project"
	"studio/internal/storage"
	"studio/internal/workbench"
)

var (
	stdout    io.Writer = os.Stdout
	logOutput io.Writer = os.Stderr
)

// set up slog logger according to level; defaults to info.
func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(logOutput, &slog.HandlerOptions{Level: lvl})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// Common flags for config/env/logging across subcommands
type commonFlags struct {
	config      string
	env         string
	logLevel    string
	metricsFile string
	overrides   cfgpkg.Overrides
	provider    stringFlag
	store       stringFlag
	dataDir     stringFlag
	overwrite   boolFlag
	speech      bool
}

func addCommonFlags(fs *flag.FlagSet, cf *commonFlags) {
	fs.StringVar(&cf.config, "config", "studio.json", "Path to config file")
	fs.StringVar(&cf.env, "env", ".env", "Path to .env file (ignored when missing)")
	fs.StringVar(&cf.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&cf.metricsFile, "metrics-file", "", "Write generation metrics to this file on exit")
	fs.Var(&cf.provider, "provider", "Generation provider: gemini, openai")
	fs.Var(&cf.store, "store", "Project store: files, sqlite, redis, s3")
	fs.Var(&cf.dataDir, "data-dir", "Local data directory (default .studio)")
	fs.Var(&cf.overwrite, "overwrite", "Overwrite existing output files")
}

// parseFlags parses args and reports whether the command should continue.
func parseFlags(fs *flag.FlagSet, args []string) (bool, error) {
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type stringFlag struct {
	v   string
	set bool
}

func (f *stringFlag) String() string { return f.v }

func (f *stringFlag) Set(s string) error {
	f.v = s
	f.set = true
	return nil
}

func (f *stringFlag) ptr() *string {
	if !f.set {
		return nil
	}
	return &f.v
}

type boolFlag struct {
	v   bool
	set bool
}

func (f *boolFlag) String() string { return strconv.FormatBool(f.v) }

func (f *boolFlag) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	f.v = b
	f.set = true
	return nil
}

func (f *boolFlag) IsBoolFlag() bool { return true }

func (f *boolFlag) ptr() *bool {
	if !f.set {
		return nil
	}
	return &f.v
}

func loadConfig(cf *commonFlags) (cfgpkg.Config, error) {
	if err := cfgpkg.LoadDotEnv(cf.env); err != nil {
		return cfgpkg.Config{}, err
	}
	fileCfg, err := cfgpkg.LoadFile(cf.config)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	envOv, keys := cfgpkg.FromEnv()
	flagOv := cf.overrides
	if p := cf.provider.ptr(); p != nil {
		flagOv.Provider = p
	}
	if s := cf.store.ptr(); s != nil {
		flagOv.Store = s
	}
	if d := cf.dataDir.ptr(); d != nil {
		flagOv.DataDir = d
	}
	if o := cf.overwrite.ptr(); o != nil {
		flagOv.Overwrite = o
	}
	return cfgpkg.Merge(fileCfg, envOv, flagOv, keys), nil
}

func modelsFor(cfg cfgpkg.Config) ai.Models {
	return ai.Models{
		Image:    cfg.ImageModel,
		Text:     cfg.TextModel,
		Creative: cfg.CreativeModel,
		Speech:   cfg.SpeechModel,
		Voice:    cfg.Voice,
	}
}

var newProvider = func(ctx context.Context, cfg cfgpkg.Config, logger *slog.Logger) (ai.Provider, error) {
	switch cfg.Provider {
	case cfgpkg.ProviderGemini:
		return ai.NewGemini(ctx, cfg.Keys.Gemini,
			ai.WithGeminiBaseURL(cfg.BaseURL),
			ai.WithGeminiModels(modelsFor(cfg)),
			ai.WithGeminiLogger(logger),
		)
	case cfgpkg.ProviderOpenAI:
		return ai.NewOpenAI(cfg.Keys.OpenAI, cfg.BaseURL, modelsFor(cfg))
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// newSynthesizer returns the speech backend. It reuses provider when speech
// goes to the same vendor.
var newSynthesizer = func(ctx context.Context, cfg cfgpkg.Config, logger *slog.Logger, provider ai.Provider) (ai.SpeechSynthesizer, error) {
	backend := cfg.SpeechBackend()
	if backend == cfg.Provider {
		if s, ok := provider.(ai.SpeechSynthesizer); ok {
			return s, nil
		}
	}
	switch backend {
	case cfgpkg.ProviderElevenLabs:
		return ai.NewElevenLabs(cfg.Keys.ElevenLabs, ai.WithElevenLabsModels(ai.Models{Speech: cfg.SpeechModel, Voice: cfg.Voice}))
	case cfgpkg.ProviderGemini:
		return ai.NewGemini(ctx, cfg.Keys.Gemini, ai.WithGeminiModels(ai.Models{Speech: cfg.SpeechModel, Voice: cfg.Voice}), ai.WithGeminiLogger(logger))
	case cfgpkg.ProviderOpenAI:
		return ai.NewOpenAI(cfg.Keys.OpenAI, "", ai.Models{Speech: cfg.SpeechModel, Voice: cfg.Voice})
	default:
		return nil, fmt.Errorf("unsupported speech provider: %s", backend)
	}
}

var openBackend = func(ctx context.Context, cfg cfgpkg.Config) (project.Backend, func() error, error) {
	builder := paths.New(cfg.DataDir)
	noop := func() error { return nil }
	switch cfg.Store {
	case cfgpkg.StoreFiles:
		b, err := storage.NewFiles(builder.StoreDir())
		return b, noop, err
	case cfgpkg.StoreSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = builder.SQLitePath()
		}
		b, err := storage.OpenSQLite(ctx, path)
		if err != nil {
			return nil, noop, err
		}
		return b, b.Close, nil
	case cfgpkg.StoreRedis:
		b, err := storage.NewRedis(ctx, storage.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, noop, err
		}
		return b, b.Close, nil
	case cfgpkg.StoreS3:
		b, err := storage.NewS3(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.Region)
		return b, noop, err
	default:
		return nil, noop, fmt.Errorf("unsupported store: %s", cfg.Store)
	}
}

type needs struct {
	generation bool
	speech     bool
	store      bool
}

// app bundles what a subcommand needs. close flushes metrics and releases the store.
type app struct {
	cfg      cfgpkg.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  string
	store    *project.Store
	gen      *generation.Client
	wb       *workbench.Workbench
	closers  []func() error
}

func setup(ctx context.Context, cf *commonFlags, n needs) (*app, error) {
	logger := setupLogger(cf.logLevel)
	cfg, err := loadConfig(cf)
	if err != nil {
		return nil, err
	}
	if cfg.Debug && !strings.EqualFold(cf.logLevel, "debug") {
		logger = setupLogger("debug")
	}
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry(), metrics: cf.metricsFile}

	if n.store {
		if err := cfgpkg.ValidateForStore(cfg); err != nil {
			return nil, err
		}
		backend, closer, err := openBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closer)
		a.store, err = project.New(ctx, backend, project.WithLogger(logger))
		if err != nil {
			a.close()
			return nil, err
		}
	}

	if n.generation || n.speech {
		if err := cfgpkg.ValidateForGeneration(cfg); err != nil {
			a.close()
			return nil, err
		}
		provider, err := newProvider(ctx, cfg, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		opts := []generation.Option{
			generation.WithLogger(logger),
			generation.WithMetrics(generation.NewMetrics(a.registry)),
		}
		if n.speech {
			if err := cfgpkg.ValidateForSpeech(cfg); err != nil {
				a.close()
				return nil, err
			}
			synth, err := newSynthesizer(ctx, cfg, logger, provider)
			if err != nil {
				a.close()
				return nil, err
			}
			opts = append(opts, generation.WithSpeech(synth))
		}
		a.gen, err = generation.New(provider, opts...)
		if err != nil {
			a.close()
			return nil, err
		}
	}

	if a.gen != nil && a.store != nil {
		wb, err := workbench.New(a.gen, a.store, workbench.WithLogger(logger))
		if err != nil {
			a.close()
			return nil, err
		}
		a.wb = wb
	}
	return a, nil
}

func (a *app) close() {
	if a.metrics != "" {
		if err := prometheus.WriteToTextfile(a.metrics, a.registry); err != nil {
			a.logger.Warn("failed to write metrics", "path", a.metrics, "err", err)
		}
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("failed to close store", "err", err)
		}
	}
}

func (a *app) activeProject() (project.Project, error) {
	p, ok := a.store.Active()
	if !ok {
		return project.Project{}, workbench.ErrNoActiveProject
	}
	return p, nil
}
