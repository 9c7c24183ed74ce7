package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gnurante/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTranslation(); err != nil {
		return err
	}
	c.normalizeBackends()
	c.normalizeSync()
	c.normalizeASR()
	c.normalizeMedia()
	c.normalizeServer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranslation() error {
	t := &c.Translation
	t.Backend = strings.ToLower(strings.TrimSpace(t.Backend))
	if t.Backend == "" {
		t.Backend = BackendLLM
	}
	if code := strings.TrimSpace(t.TargetLanguage); code != "" {
		if normalized, err := language.Normalize(code); err == nil {
			t.TargetLanguage = normalized
		}
	} else {
		t.TargetLanguage = defaultTarget
	}
	if code := strings.TrimSpace(t.SourceLanguage); code != "" {
		if normalized, err := language.Normalize(code); err == nil {
			t.SourceLanguage = normalized
		}
	} else {
		t.SourceLanguage = ""
	}
	t.FailurePolicy = strings.ToLower(strings.TrimSpace(t.FailurePolicy))
	if t.FailurePolicy == "" {
		t.FailurePolicy = FailureSubstitute
	}
	t.UndeterminedPolicy = strings.ToLower(strings.TrimSpace(t.UndeterminedPolicy))
	if t.UndeterminedPolicy == "" {
		t.UndeterminedPolicy = UndeterminedAbort
	}
	if strings.TrimSpace(t.CachePath) == "" {
		t.CachePath = filepath.Join(c.Paths.CacheDir, defaultCacheFile)
	}
	var err error
	if t.CachePath, err = expandPath(t.CachePath); err != nil {
		return fmt.Errorf("translation.cache_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackends() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	c.LLM.APIKey = envFallback(c.LLM.APIKey, "OPENROUTER_API_KEY")

	c.OpenAI.BaseURL = strings.TrimSpace(c.OpenAI.BaseURL)
	c.OpenAI.Model = strings.TrimSpace(c.OpenAI.Model)
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultOpenAIModel
	}
	c.OpenAI.APIKey = envFallback(c.OpenAI.APIKey, "OPENAI_API_KEY")

	c.MyMemory.BaseURL = strings.TrimSpace(c.MyMemory.BaseURL)
	if c.MyMemory.BaseURL == "" {
		c.MyMemory.BaseURL = defaultMyMemoryURL
	}
	c.MyMemory.Email = envFallback(c.MyMemory.Email, "MYMEMORY_EMAIL")
}

func (c *Config) normalizeSync() {
	c.Sync.Mode = strings.ToLower(strings.TrimSpace(c.Sync.Mode))
	if c.Sync.Mode == "" {
		c.Sync.Mode = SyncSegment
	}
}

func (c *Config) normalizeASR() {
	c.ASR.Model = strings.TrimSpace(c.ASR.Model)
	if c.ASR.Model == "" {
		c.ASR.Model = defaultASRModel
	}
	c.ASR.VADMethod = strings.ToLower(strings.TrimSpace(c.ASR.VADMethod))
	if c.ASR.VADMethod == "" {
		c.ASR.VADMethod = defaultVADMethod
	}
	c.ASR.HuggingFaceToken = envFallback(c.ASR.HuggingFaceToken, "HUGGING_FACE_HUB_TOKEN", "HF_TOKEN")
	c.ASR.Language = strings.ToLower(strings.TrimSpace(c.ASR.Language))
}

func (c *Config) normalizeMedia() {
	c.Media.Format = strings.TrimSpace(c.Media.Format)
	if c.Media.Format == "" {
		c.Media.Format = defaultYtDLPFormat
	}
	c.Media.MuxMode = strings.ToLower(strings.TrimSpace(c.Media.MuxMode))
	if c.Media.MuxMode == "" {
		c.Media.MuxMode = MuxBurn
	}
	c.Media.GPU = strings.ToLower(strings.TrimSpace(c.Media.GPU))
	if c.Media.GPU == "" || c.Media.GPU == "none" {
		c.Media.GPU = GPUNone
	}
	c.Media.Resolution = strings.ToLower(strings.TrimSpace(c.Media.Resolution))
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = defaultMaxBody
	}
	c.Server.Token = envFallback(c.Server.Token, "GNURANTE_API_TOKEN")
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envFallback(value string, keys ...string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	for _, key := range keys {
		if env, ok := os.LookupEnv(key); ok && strings.TrimSpace(env) != "" {
			return strings.TrimSpace(env)
		}
	}
	return ""
}
