package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains working, output, log and cache directories.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	CacheDir  string `toml:"cache_dir"`
}

// Translation selects the backend and controls the per-unit translation engine.
type Translation struct {
	Backend              string  `toml:"backend"`
	SourceLanguage       string  `toml:"source_language"`
	TargetLanguage       string  `toml:"target_language"`
	MinConfidence        float64 `toml:"min_confidence"`
	Workers              int     `toml:"workers"`
	MaxAttempts          int     `toml:"max_attempts"`
	RetryBaseDelayMillis int     `toml:"retry_base_delay_ms"`
	RetryMaxDelaySeconds int     `toml:"retry_max_delay_seconds"`
	MaxChars             int     `toml:"max_chars"`
	FailurePolicy        string  `toml:"failure_policy"`
	MaxUnitFailures      int     `toml:"max_unit_failures"`
	UndeterminedPolicy   string  `toml:"undetermined_policy"`
	CacheEnabled         bool    `toml:"cache_enabled"`
	CachePath            string  `toml:"cache_path"`
}

// LLM contains OpenRouter-compatible chat completion settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// OpenAI contains settings for the OpenAI chat backend.
type OpenAI struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// MyMemory contains settings for the MyMemory public translation API.
type MyMemory struct {
	BaseURL        string `toml:"base_url"`
	Email          string `toml:"email"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Sync controls how recognizer output maps onto subtitle cues.
type Sync struct {
	Mode          string `toml:"mode"`
	DropEmptyCues bool   `toml:"drop_empty_cues"`
}

// ASR contains audio extraction and WhisperX transcription settings.
type ASR struct {
	Model            string `toml:"model"`
	CUDAEnabled      bool   `toml:"cuda_enabled"`
	VADMethod        string `toml:"vad_method"`
	HuggingFaceToken string `toml:"hf_token"`
	Denoise          bool   `toml:"denoise"`
	Language         string `toml:"language"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
}

// Media contains download and muxing settings.
type Media struct {
	Format     string `toml:"format"`
	MuxMode    string `toml:"mux_mode"`
	GPU        string `toml:"gpu"`
	Resolution string `toml:"resolution"`
	KeepWork   bool   `toml:"keep_work"`
}

// Server contains HTTP service settings.
type Server struct {
	Bind                string `toml:"bind"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
	MaxBodyBytes        int64  `toml:"max_body_bytes"`
	// Token, when set, is required as a bearer token on /v1 routes.
	Token string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for gnurante.
//
// Configuration sections by subsystem:
//   - Paths: work, output, log and cache directories
//   - Translation: backend choice, engine concurrency, retry and failure policy
//   - LLM / OpenAI / MyMemory: per-backend connection settings
//   - Sync: segment vs uniform cue timing, empty cue handling
//   - ASR: audio extraction, denoise and WhisperX settings
//   - Media: yt-dlp format, burn-in vs soft subtitles, encoder selection
//   - Server: HTTP service bind and limits
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Translation Translation `toml:"translation"`
	LLM         LLM         `toml:"llm"`
	OpenAI      OpenAI      `toml:"openai"`
	MyMemory    MyMemory    `toml:"mymemory"`
	Sync        Sync        `toml:"sync"`
	ASR         ASR         `toml:"asr"`
	Media       Media       `toml:"media"`
	Server      Server      `toml:"server"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// LoadEnv reads KEY=value files into the process environment. Missing files
// are skipped and variables that are already set win over file values.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		expanded, err := expandPath(path)
		if err != nil {
			return err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat env file: %w", err)
		}
		if err := godotenv.Load(expanded); err != nil {
			return fmt.Errorf("load env file %s: %w", expanded, err)
		}
	}
	return nil
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.LogDir, c.Paths.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for audio extraction and muxing.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// YtDLPBinary returns the yt-dlp executable name used for downloads.
func (c *Config) YtDLPBinary() string {
	return "yt-dlp"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// TimeoutFor returns a per-backend request timeout in seconds.
func (c *Config) TimeoutFor(backend string) int {
	switch backend {
	case BackendOpenAI:
		return c.OpenAI.TimeoutSeconds
	case BackendMyMemory:
		return c.MyMemory.TimeoutSeconds
	default:
		return c.LLM.TimeoutSeconds
	}
}
