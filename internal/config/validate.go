package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gnurante/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranslation() error {
	t := c.Translation
	if _, err := language.Normalize(t.TargetLanguage); err != nil {
		return fmt.Errorf("translation.target_language: %w", err)
	}
	if t.SourceLanguage != "" {
		if _, err := language.Normalize(t.SourceLanguage); err != nil {
			return fmt.Errorf("translation.source_language: %w", err)
		}
	}
	if t.MinConfidence < 0 || t.MinConfidence > 1 {
		return errors.New("translation.min_confidence must be between 0 and 1")
	}
	if err := ensurePositiveMap(map[string]int{
		"translation.workers":      t.Workers,
		"translation.max_attempts": t.MaxAttempts,
	}); err != nil {
		return err
	}
	if t.RetryBaseDelayMillis < 0 {
		return errors.New("translation.retry_base_delay_ms must be >= 0")
	}
	if t.RetryMaxDelaySeconds < 0 {
		return errors.New("translation.retry_max_delay_seconds must be >= 0")
	}
	if t.MaxChars < 0 {
		return errors.New("translation.max_chars must be >= 0")
	}
	if t.MaxUnitFailures < 0 {
		return errors.New("translation.max_unit_failures must be >= 0")
	}
	switch t.FailurePolicy {
	case FailureSubstitute, FailureAbort:
	default:
		return fmt.Errorf("translation.failure_policy: unsupported value %q (want %s or %s)", t.FailurePolicy, FailureSubstitute, FailureAbort)
	}
	switch t.UndeterminedPolicy {
	case UndeterminedAbort, UndeterminedPassthrough:
	default:
		return fmt.Errorf("translation.undetermined_policy: unsupported value %q (want %s or %s)", t.UndeterminedPolicy, UndeterminedAbort, UndeterminedPassthrough)
	}
	return nil
}

func (c *Config) validateBackend() error {
	switch c.Translation.Backend {
	case BackendLLM:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for translation.backend %q. Set OPENROUTER_API_KEY or edit %s (create with 'gnurante config init')", BackendLLM, displayConfigPath())
		}
		if c.LLM.TimeoutSeconds <= 0 {
			return errors.New("llm.timeout_seconds must be positive")
		}
	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai.api_key is required for translation.backend %q. Set OPENAI_API_KEY or edit %s", BackendOpenAI, displayConfigPath())
		}
		if c.OpenAI.TimeoutSeconds <= 0 {
			return errors.New("openai.timeout_seconds must be positive")
		}
	case BackendMyMemory:
		if c.MyMemory.TimeoutSeconds <= 0 {
			return errors.New("mymemory.timeout_seconds must be positive")
		}
	default:
		return fmt.Errorf("translation.backend: unsupported value %q (want %s, %s or %s)", c.Translation.Backend, BackendLLM, BackendOpenAI, BackendMyMemory)
	}
	return nil
}

func (c *Config) validateSync() error {
	switch c.Sync.Mode {
	case SyncSegment, SyncUniform:
		return nil
	default:
		return fmt.Errorf("sync.mode: unsupported value %q (want %s or %s)", c.Sync.Mode, SyncSegment, SyncUniform)
	}
}

func (c *Config) validateMedia() error {
	switch c.Media.MuxMode {
	case MuxBurn, MuxSoft, MuxNone:
	default:
		return fmt.Errorf("media.mux_mode: unsupported value %q (want burn, soft or none)", c.Media.MuxMode)
	}
	switch c.Media.GPU {
	case GPUNone, GPUNvidia, GPUAMD:
	default:
		return fmt.Errorf("media.gpu: unsupported value %q (want cpu, nvidia or amd)", c.Media.GPU)
	}
	if c.Media.Resolution != "" {
		if _, _, err := ParseResolution(c.Media.Resolution); err != nil {
			return fmt.Errorf("media.resolution: %w", err)
		}
	}
	if c.ASR.TimeoutSeconds <= 0 {
		return errors.New("asr.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.ReadTimeoutSeconds <= 0 || c.Server.WriteTimeoutSeconds <= 0 {
		return errors.New("server.read_timeout_seconds and server.write_timeout_seconds must be positive")
	}
	return nil
}

// ParseResolution reads a WIDTHxHEIGHT value such as "1280x720".
func ParseResolution(value string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(value)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("expected WIDTHxHEIGHT, got %q", value)
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("expected positive WIDTHxHEIGHT, got %q", value)
	}
	return width, height, nil
}

func displayConfigPath() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return defaultConfigPath
	}
	return path
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
