package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"gnurante/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "gnurante", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	wantCache := filepath.Join(tempHome, ".cache", "gnurante", "translations.db")
	if cfg.Translation.CachePath != wantCache {
		t.Fatalf("unexpected cache path: got %q want %q", cfg.Translation.CachePath, wantCache)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Translation.TargetLanguage != "it" {
		t.Fatalf("expected Italian target by default, got %q", cfg.Translation.TargetLanguage)
	}
	if cfg.Sync.Mode != config.SyncSegment || !cfg.Sync.DropEmptyCues {
		t.Fatalf("unexpected sync defaults: %+v", cfg.Sync)
	}
	if cfg.Translation.FailurePolicy != config.FailureSubstitute {
		t.Fatalf("unexpected failure policy: %q", cfg.Translation.FailurePolicy)
	}
	if cfg.Media.MuxMode != config.MuxBurn || cfg.Media.GPU != config.GPUNone {
		t.Fatalf("unexpected media defaults: %+v", cfg.Media)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir, cfg.Paths.CacheDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "gnurante.toml")

	type payload struct {
		Translation struct {
			Backend        string `toml:"backend"`
			TargetLanguage string `toml:"target_language"`
			Workers        int    `toml:"workers"`
		} `toml:"translation"`
		Sync struct {
			Mode string `toml:"mode"`
		} `toml:"sync"`
	}
	custom := payload{}
	custom.Translation.Backend = "MyMemory"
	custom.Translation.TargetLanguage = "French"
	custom.Translation.Workers = 8
	custom.Sync.Mode = "Uniform"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Translation.Backend != config.BackendMyMemory {
		t.Fatalf("expected mymemory backend, got %q", cfg.Translation.Backend)
	}
	if cfg.Translation.TargetLanguage != "fr" {
		t.Fatalf("expected target normalized to fr, got %q", cfg.Translation.TargetLanguage)
	}
	if cfg.Translation.Workers != 8 {
		t.Fatalf("expected 8 workers, got %d", cfg.Translation.Workers)
	}
	if cfg.Sync.Mode != config.SyncUniform {
		t.Fatalf("expected uniform sync mode, got %q", cfg.Sync.Mode)
	}
}

func TestConfigFileKeyWinsOverEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "gnurante.toml")
	contents := "[llm]\napi_key = \"file-key\"\n\n[asr]\nhf_token = \"\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	t.Setenv("HF_TOKEN", "env-hf")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "file-key" {
		t.Errorf("expected file key to win, got %q", cfg.LLM.APIKey)
	}
	if cfg.ASR.HuggingFaceToken != "env-hf" {
		t.Errorf("expected HF token from env, got %q", cfg.ASR.HuggingFaceToken)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("GNURANTE_TEST_VALUE=from-file\nMYMEMORY_EMAIL=user@example.com\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("GNURANTE_TEST_VALUE", "already-set")
	t.Setenv("MYMEMORY_EMAIL", "")
	os.Unsetenv("MYMEMORY_EMAIL")

	if err := config.LoadEnv(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv("GNURANTE_TEST_VALUE"); got != "already-set" {
		t.Fatalf("expected existing variable to win, got %q", got)
	}
	if got := os.Getenv("MYMEMORY_EMAIL"); got != "user@example.com" {
		t.Fatalf("expected value loaded from file, got %q", got)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "OPENROUTER_API_KEY") {
		t.Fatalf("sample config missing API key hint: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Translation.TargetLanguage != "it" {
		t.Fatalf("expected sample target it, got %q", cfg.Translation.TargetLanguage)
	}
	if !strings.Contains(cfg.Paths.WorkDir, "gnurante") {
		t.Fatalf("expected work dir to contain gnurante, got %q", cfg.Paths.WorkDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	valid := func() config.Config {
		cfg := config.Default()
		cfg.LLM.APIKey = "key"
		return cfg
	}

	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults with key to validate, got %v", err)
	}

	cases := map[string]func(*config.Config){
		"missing key":         func(c *config.Config) { c.LLM.APIKey = "" },
		"unknown backend":     func(c *config.Config) { c.Translation.Backend = "babel" },
		"zero workers":        func(c *config.Config) { c.Translation.Workers = 0 },
		"zero attempts":       func(c *config.Config) { c.Translation.MaxAttempts = 0 },
		"bad target":          func(c *config.Config) { c.Translation.TargetLanguage = "not a language" },
		"confidence range":    func(c *config.Config) { c.Translation.MinConfidence = 1.5 },
		"failure policy":      func(c *config.Config) { c.Translation.FailurePolicy = "ignore" },
		"undetermined policy": func(c *config.Config) { c.Translation.UndeterminedPolicy = "guess" },
		"sync mode":           func(c *config.Config) { c.Sync.Mode = "words" },
		"mux mode":            func(c *config.Config) { c.Media.MuxMode = "mkv" },
		"gpu":                 func(c *config.Config) { c.Media.GPU = "intel" },
		"resolution":          func(c *config.Config) { c.Media.Resolution = "720p" },
		"openai key":          func(c *config.Config) { c.Translation.Backend = config.BackendOpenAI },
	}
	for name, mutate := range cases {
		cfg := valid()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestParseResolution(t *testing.T) {
	w, h, err := config.ParseResolution("1280x720")
	if err != nil || w != 1280 || h != 720 {
		t.Fatalf("ParseResolution = %d %d %v", w, h, err)
	}
	if _, _, err := config.ParseResolution("0x720"); err == nil {
		t.Fatal("expected error for zero width")
	}
}
