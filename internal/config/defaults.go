package config

const (
	defaultConfigPath  = "~/.config/gnurante/config.toml"
	projectConfigName  = "gnurante.toml"
	defaultWorkDir     = "~/.local/share/gnurante/work"
	defaultOutputDir   = "."
	defaultLogDir      = "~/.local/share/gnurante/logs"
	defaultCacheDir    = "~/.cache/gnurante"
	defaultCacheFile   = "translations.db"
	defaultTarget      = "it"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
	defaultServerBind  = "127.0.0.1:7488"
	defaultMaxBody     = 8 << 20
	defaultLLMBaseURL  = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel    = "google/gemini-3-flash-preview"
	defaultLLMReferer  = "https://github.com/gnurante/gnurante"
	defaultLLMTitle    = "gnurante subtitle translator"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultMyMemoryURL = "https://api.mymemory.translated.net/get"
	defaultYtDLPFormat = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	defaultASRModel    = "large-v3"
	defaultVADMethod   = "silero"
)

// DefaultTargetLanguage is used when translation.target_language is unset.
const DefaultTargetLanguage = defaultTarget

// Translation backends.
const (
	BackendLLM      = "llm"
	BackendOpenAI   = "openai"
	BackendMyMemory = "mymemory"
)

// Cue timing modes.
const (
	SyncSegment = "segment"
	SyncUniform = "uniform"
)

// Unit failure policies.
const (
	FailureSubstitute = "substitute"
	FailureAbort      = "abort"
)

// Undetermined source language policies.
const (
	UndeterminedAbort       = "abort"
	UndeterminedPassthrough = "passthrough"
)

// Subtitle mux modes.
const (
	MuxBurn = "burn"
	MuxSoft = "soft"
	MuxNone = "none"
)

// Encoders for burn-in.
const (
	GPUNone   = "cpu"
	GPUNvidia = "nvidia"
	GPUAMD    = "amd"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			CacheDir:  defaultCacheDir,
		},
		Translation: Translation{
			Backend:              BackendLLM,
			TargetLanguage:       defaultTarget,
			MinConfidence:        0.5,
			Workers:              4,
			MaxAttempts:          3,
			RetryBaseDelayMillis: 500,
			RetryMaxDelaySeconds: 10,
			FailurePolicy:        FailureSubstitute,
			UndeterminedPolicy:   UndeterminedAbort,
			CacheEnabled:         true,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: 60,
		},
		OpenAI: OpenAI{
			Model:          defaultOpenAIModel,
			TimeoutSeconds: 60,
		},
		MyMemory: MyMemory{
			BaseURL:        defaultMyMemoryURL,
			TimeoutSeconds: 30,
		},
		Sync: Sync{
			Mode:          SyncSegment,
			DropEmptyCues: true,
		},
		ASR: ASR{
			Model:          defaultASRModel,
			VADMethod:      defaultVADMethod,
			Denoise:        true,
			TimeoutSeconds: 7200,
		},
		Media: Media{
			Format:  defaultYtDLPFormat,
			MuxMode: MuxBurn,
			GPU:     GPUNone,
		},
		Server: Server{
			Bind:                defaultServerBind,
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 600,
			MaxBodyBytes:        defaultMaxBody,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
