package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderElevenLabs = "elevenlabs"

	StoreFiles  = "files"
	StoreS3     = "s3"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config holds resolved configuration values after merging file, env, and flags.
type Config struct {
	Provider       string `json:"provider,omitempty"`
	SpeechProvider string `json:"speechProvider,omitempty"`
	ImageModel     string `json:"imageModel,omitempty"`
	TextModel      string `json:"textModel,omitempty"`
	CreativeModel  string `json:"creativeModel,omitempty"`
	SpeechModel    string `json:"speechModel,omitempty"`
	Voice          string `json:"voice,omitempty"`
	BaseURL        string `json:"baseUrl,omitempty"`

	Store         string `json:"store,omitempty"`
	DataDir       string `json:"dataDir,omitempty"`
	S3Bucket      string `json:"s3Bucket,omitempty"`
	S3Prefix      string `json:"s3Prefix,omitempty"`
	Region        string `json:"region,omitempty"`
	RedisAddr     string `json:"redisAddr,omitempty"`
	RedisPassword string `json:"-"`
	RedisDB       int    `json:"redisDb,omitempty"`
	SQLitePath    string `json:"sqlitePath,omitempty"`

	Debug     bool `json:"debug,omitempty"`
	Overwrite bool `json:"overwrite,omitempty"`

	// Not persisted to file; sourced from env only.
	Keys Keys `json:"-"`
}

// Keys are the provider credentials, read once per process.
type Keys struct {
	Gemini     string
	OpenAI     string
	ElevenLabs string
}

// Overrides represents optional overrides from env or flags.
// Only non-nil pointers are applied during merge.
type Overrides struct {
	Provider       *string
	SpeechProvider *string
	ImageModel     *string
	TextModel      *string
	CreativeModel  *string
	SpeechModel    *string
	Voice          *string
	BaseURL        *string
	Store          *string
	DataDir        *string
	S3Bucket       *string
	S3Prefix       *string
	Region         *string
	RedisAddr      *string
	RedisPassword  *string
	RedisDB        *int
	SQLitePath     *string
	Debug          *bool
	Overwrite      *bool
}

func Default() Config {
	return Config{
		Provider: ProviderGemini,
		Store:    StoreFiles,
		S3Prefix: "studio",
	}
}

// LoadFile reads a JSON config. If file not found, returns defaults and no error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from a .env file without overriding ones already
// set in the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// FromEnv reads env vars and returns overrides and the provider keys.
func FromEnv() (Overrides, Keys) {
	var ov Overrides

	strVars := map[string]**string{
		"STUDIO_PROVIDER":        &ov.Provider,
		"STUDIO_SPEECH_PROVIDER": &ov.SpeechProvider,
		"STUDIO_IMAGE_MODEL":     &ov.ImageModel,
		"STUDIO_TEXT_MODEL":      &ov.TextModel,
		"STUDIO_CREATIVE_MODEL":  &ov.CreativeModel,
		"STUDIO_SPEECH_MODEL":    &ov.SpeechModel,
		"STUDIO_VOICE":           &ov.Voice,
		"STUDIO_BASE_URL":        &ov.BaseURL,
		"STUDIO_STORE":           &ov.Store,
		"STUDIO_DATA_DIR":        &ov.DataDir,
		"AWS_S3_BUCKET":          &ov.S3Bucket,
		"AWS_S3_PREFIX":          &ov.S3Prefix,
		"AWS_REGION":             &ov.Region,
		"STUDIO_REDIS_ADDR":      &ov.RedisAddr,
		"STUDIO_REDIS_PASSWORD":  &ov.RedisPassword,
		"STUDIO_SQLITE_PATH":     &ov.SQLitePath,
	}
	for name, dst := range strVars {
		if v, ok := os.LookupEnv(name); ok {
			*dst = &[]string{v}[0]
		}
	}
	if v, ok := os.LookupEnv("STUDIO_REDIS_DB"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			ov.RedisDB = &n
		}
	}
	if v, ok := os.LookupEnv("STUDIO_DEBUG"); ok {
		if b, err := parseBool(v); err == nil {
			ov.Debug = &[]bool{b}[0]
		}
	}
	if v, ok := os.LookupEnv("STUDIO_OVERWRITE"); ok {
		if b, err := parseBool(v); err == nil {
			ov.Overwrite = &[]bool{b}[0]
		}
	}

	keys := Keys{
		Gemini:     os.Getenv("GEMINI_API_KEY"),
		OpenAI:     os.Getenv("OPENAI_API_KEY"),
		ElevenLabs: os.Getenv("ELEVENLABS_API_KEY"),
	}
	if keys.Gemini == "" {
		keys.Gemini = os.Getenv("API_KEY")
	}
	return ov, keys
}

func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return false, fmt.Errorf("empty bool")
	}
	if s == "1" || s == "t" || s == "true" || s == "y" || s == "yes" || s == "on" {
		return true, nil
	}
	if s == "0" || s == "f" || s == "false" || s == "n" || s == "no" || s == "off" {
		return false, nil
	}
	// try strconv
	return strconv.ParseBool(s)
}

// Merge applies overrides in order: file -> env -> flags.
func Merge(fileCfg Config, env Overrides, flags Overrides, keys Keys) Config {
	cfg := fileCfg

	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	apply := func(ov Overrides) {
		setStr(&cfg.Provider, ov.Provider)
		setStr(&cfg.SpeechProvider, ov.SpeechProvider)
		setStr(&cfg.ImageModel, ov.ImageModel)
		setStr(&cfg.TextModel, ov.TextModel)
		setStr(&cfg.CreativeModel, ov.CreativeModel)
		setStr(&cfg.SpeechModel, ov.SpeechModel)
		setStr(&cfg.Voice, ov.Voice)
		setStr(&cfg.BaseURL, ov.BaseURL)
		setStr(&cfg.Store, ov.Store)
		setStr(&cfg.DataDir, ov.DataDir)
		setStr(&cfg.S3Bucket, ov.S3Bucket)
		setStr(&cfg.S3Prefix, ov.S3Prefix)
		setStr(&cfg.Region, ov.Region)
		setStr(&cfg.RedisAddr, ov.RedisAddr)
		setStr(&cfg.RedisPassword, ov.RedisPassword)
		setStr(&cfg.SQLitePath, ov.SQLitePath)
		if ov.RedisDB != nil {
			cfg.RedisDB = *ov.RedisDB
		}
		if ov.Debug != nil {
			cfg.Debug = *ov.Debug
		}
		if ov.Overwrite != nil {
			cfg.Overwrite = *ov.Overwrite
		}
	}

	apply(env)
	apply(flags)

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.SpeechProvider = strings.ToLower(strings.TrimSpace(cfg.SpeechProvider))
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.Keys = keys
	return cfg
}

// SpeechBackend returns the provider used for speech, defaulting to the generation provider.
func (c Config) SpeechBackend() string {
	if c.SpeechProvider != "" {
		return c.SpeechProvider
	}
	return c.Provider
}

// Validation helpers
func ValidateForGeneration(cfg Config) error {
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.Keys.Gemini == "" {
			return errors.New("GEMINI_API_KEY is required for generation")
		}
	case ProviderOpenAI:
		if cfg.Keys.OpenAI == "" {
			return errors.New("OPENAI_API_KEY is required for generation")
		}
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", cfg.Provider, ProviderGemini, ProviderOpenAI)
	}
	return nil
}

func ValidateForSpeech(cfg Config) error {
	switch cfg.SpeechBackend() {
	case ProviderGemini:
		if cfg.Keys.Gemini == "" {
			return errors.New("GEMINI_API_KEY is required for speech")
		}
	case ProviderOpenAI:
		if cfg.Keys.OpenAI == "" {
			return errors.New("OPENAI_API_KEY is required for speech")
		}
	case ProviderElevenLabs:
		if cfg.Keys.ElevenLabs == "" {
			return errors.New("ELEVENLABS_API_KEY is required for speech")
		}
	default:
		return fmt.Errorf("unknown speech provider %q", cfg.SpeechBackend())
	}
	return nil
}

func ValidateForStore(cfg Config) error {
	switch cfg.Store {
	case StoreFiles, StoreSQLite:
		return nil
	case StoreS3:
		if cfg.S3Bucket == "" {
			return errors.New("S3 bucket is required for the s3 store")
		}
	case StoreRedis:
		if cfg.RedisAddr == "" {
			return errors.New("redis address is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store %q", cfg.Store)
	}
	return nil
}
