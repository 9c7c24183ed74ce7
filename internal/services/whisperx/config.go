package whisperx

import "gnurante/internal/config"

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Model is the WhisperX model name (e.g. "large-v3").
	Model string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// VADMethod selects "silero" or "pyannote" voice activity detection.
	VADMethod string
	// HFToken is the Hugging Face token pyannote needs.
	HFToken string
	// Denoise applies ffmpeg afftdn during audio extraction.
	Denoise bool
}

// ConfigFromASR maps the asr config section.
func ConfigFromASR(asr config.ASR) Config {
	return Config{
		Model:       asr.Model,
		CUDAEnabled: asr.CUDAEnabled,
		VADMethod:   asr.VADMethod,
		HFToken:     asr.HuggingFaceToken,
		Denoise:     asr.Denoise,
	}
}

// WhisperX invocation constants.
const (
	DefaultModel      = "large-v3"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	ChunkSize         = "15"
	VADOnset          = "0.08"
	VADOffset         = "0.07"
	BeamSize          = "5"
	Temperature       = "0.0"
	SegmentResolution = "sentence"
	OutputFormat      = "json"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"

	// DenoiseFilter is a spectral noise gate standing in for a learned
	// noise reducer; nr is the reduction in dB.
	DenoiseFilter = "afftdn=nr=12:nf=-40"
)

// Command names for external tools.
const (
	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"
)
